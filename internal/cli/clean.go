package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/storage"
)

var cleanQuietFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the index directory",
	Long: `Clean removes the index directory (artifacts, manifest and symbol
catalog). The configuration file (.pyscope/config.yml) is preserved.

Examples:
  pyscope clean
  pyscope clean --quiet
`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
}

func runClean(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	return cleanIndex(cmd, cfg.IndexDir(root))
}

// cleanIndex removes indexDir unless an indexing run holds its lock.
func cleanIndex(cmd *cobra.Command, indexDir string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(indexDir); os.IsNotExist(err) {
		if !cleanQuietFlag {
			fmt.Fprintln(out, "No index found for this project")
		}
		return nil
	}

	lock, err := storage.AcquireLock(indexDir)
	if errors.Is(err, storage.ErrIndexLocked) {
		return fmt.Errorf("cannot clean while another pyscope run is indexing")
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := storage.Clean(indexDir); err != nil {
		return err
	}

	if !cleanQuietFlag {
		fmt.Fprintf(out, "✓ Removed %s\n", indexDir)
	}
	return nil
}
