package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/indexer"
	"github.com/mvp-joe/pyscope/internal/storage"
)

var (
	quietFlag   bool
	watchFlag   bool
	includeFlag []string
	excludeFlag []string
	workersFlag int
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [root]",
	Short: "Parse Python files into the structural index",
	Long: `Index selects files under the project root with the include/exclude
rules, parses every Python file and writes one artifact per file plus a
manifest (and, unless disabled, a SQLite symbol catalog) to the index
directory (.pyscope/index by default).

Files with syntax errors are reported and left out; the run still indexes
everything else. Binary files are skipped.

Include rules are globs where '*' also matches '/'; a leading '!' negates.
Exclude rules ending in '/' prune whole directories.

Examples:
  # Index the current directory
  pyscope index

  # Index another tree, only its src/ package
  pyscope index ../project --include 'src/*.py'

  # Keep the index up to date while editing
  pyscope index --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and reindex")
	indexCmd.Flags().StringSliceVar(&includeFlag, "include", nil, "Include globs (replaces paths.include)")
	indexCmd.Flags().StringSliceVar(&excludeFlag, "exclude", nil, "Exclude globs (replaces paths.exclude)")
	indexCmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent parses (default from index.workers)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted! Cancelling indexing...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if len(args) == 1 {
		rootFlag = args[0]
	}
	rootDir, cfg, err := loadProject()
	if err != nil {
		return err
	}

	indexerConfig := cfg.ToIndexerConfig(rootDir)
	if cmd.Flags().Changed("include") {
		indexerConfig.Include = includeFlag
	}
	if cmd.Flags().Changed("exclude") {
		indexerConfig.Exclude = excludeFlag
	}
	if cmd.Flags().Changed("workers") {
		indexerConfig.Workers = workersFlag
	}

	out := cmd.OutOrStdout()
	progress := NewCLIProgressReporter(out, quietFlag)

	idx, err := indexer.NewWithProgress(indexerConfig, progress)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}

	report, err := idx.Index(ctx)
	if err != nil {
		return indexError(ctx, err)
	}
	if quietFlag {
		fmt.Fprintf(out, "Indexed %d of %d files (%d failed) in %.2fs\n",
			report.Indexed, report.Considered, len(report.Failed), report.Duration.Seconds())
		for _, f := range report.Failed {
			fmt.Fprintf(out, "  %s  %s\n", failureLocation(f), f.Reason)
		}
	}

	if !watchFlag {
		return nil
	}

	watcher, err := indexer.NewIndexerWatcher(idx, func(report *indexer.Report, err error) {
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Reindex failed: "+err.Error()))
			return
		}
		if quietFlag {
			fmt.Fprintf(out, "Reindexed %d files\n", report.Indexed)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watch mode: %w", err)
	}

	if !quietFlag {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)...", rootDir)))
	}
	watcher.Start(ctx)
	<-ctx.Done()
	watcher.Stop()

	log.Println("Watch mode stopped")
	return nil
}

// indexError turns run errors into user-facing messages.
func indexError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("indexing cancelled")
	case errors.Is(err, storage.ErrIndexLocked):
		return fmt.Errorf("another pyscope run is indexing this project")
	case errors.Is(err, indexer.ErrInvalidRoot):
		return err
	default:
		return fmt.Errorf("indexing failed: %w", err)
	}
}
