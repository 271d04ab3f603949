package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/storage"
)

var symbolsKindFlag string

// symbolsCmd represents the symbols command
var symbolsCmd = &cobra.Command{
	Use:   "symbols <name>",
	Short: "Find classes, functions and methods across the project",
	Long: `Symbols looks a name up in the symbol catalog built at index time.
Names may be GLOB patterns; dotted names such as User.save match methods.

Examples:
  pyscope symbols User
  pyscope symbols 'test_*' --kind function
  pyscope symbols '*.save'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		symbols, err := engine.FindSymbols(args[0], symbolsKindFlag)
		if errors.Is(err, storage.ErrNoCatalog) {
			return fmt.Errorf("%w (enable index.catalog and reindex)", err)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonFlag {
			return printJSON(out, symbols)
		}
		if len(symbols) == 0 {
			fmt.Fprintln(out, mutedStyle.Render("No matches"))
			return nil
		}
		for _, sym := range symbols {
			fmt.Fprintf(out, "%s  %s\n",
				titleStyle.Render(fmt.Sprintf("%s:%d", sym.FilePath, sym.LineStart)),
				sym.Signature)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(symbolsCmd)
	symbolsCmd.Flags().StringVarP(&symbolsKindFlag, "kind", "k", "", "Restrict to class, function or method")
}
