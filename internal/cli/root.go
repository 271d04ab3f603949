package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/config"
)

var (
	rootFlag    string
	verboseFlag bool
	jsonFlag    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pyscope",
	Short: "pyscope - structural index for Python source trees",
	Long: `pyscope parses a Python source tree into a persistent structural index
(classes, methods, functions, arguments, docstrings and top-level statements)
and answers lookups against it without re-reading the source.

Settings come from .pyscope/config.yml under the project root, PYSCOPE_*
environment variables and a .env file in the root.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verboseFlag {
			log.SetOutput(io.Discard)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "C", "", "project root (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log warnings and timings to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print query results as JSON")
}

// projectRoot resolves the --root flag, or the working directory.
func projectRoot() (string, error) {
	if rootFlag != "" {
		return filepath.Abs(rootFlag)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadProject resolves the project root and loads its configuration.
func loadProject() (string, *config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return root, cfg, nil
}
