package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchLimitFlag int

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <name|text|keyword> <pattern>",
	Short: "Search indexed files by path, source text or keyword",
	Long: `Search runs one of three searches against the index:

  name     glob over indexed paths ('*' also matches '/')
  text     regular expression over recorded source; invalid expressions match literally
  keyword  ranked search over names, docstrings and source (bleve query syntax)

Examples:
  pyscope search name 'services/*_test.py'
  pyscope search text 'raise \w+Error'
  pyscope search keyword 'docstring:retry kind:function'`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"name", "text", "keyword"},
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		mode, pattern := args[0], args[1]
		out := cmd.OutOrStdout()

		var paths []string
		switch mode {
		case "name":
			paths, err = engine.SearchByName(pattern)
		case "text":
			paths, err = engine.SearchByText(pattern)
		case "keyword":
			hits, err := engine.SearchKeyword(cmd.Context(), pattern, searchLimitFlag)
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(out, hits)
			}
			if len(hits) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No matches"))
			}
			for _, hit := range hits {
				fmt.Fprintf(out, "%s  %s %s  %s\n",
					titleStyle.Render(fmt.Sprintf("%s:%d", hit.FilePath, hit.LineStart)),
					hit.Kind, hit.Name,
					mutedStyle.Render(fmt.Sprintf("%.2f", hit.Score)))
			}
			return nil
		default:
			return fmt.Errorf("unknown search mode %q (want name, text or keyword)", mode)
		}
		if err != nil {
			return err
		}

		if jsonFlag {
			return printJSON(out, paths)
		}
		printList(out, paths, "No matches")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimitFlag, "limit", "n", 15, "Maximum keyword hits (1-100)")
}
