package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/query"
)

var (
	showClassFlag    string
	showFunctionFlag string
	showMethodFlag   string
	showColorFlag    bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show the structure of a file or the source of one item",
	Long: `Show prints the outline of an indexed file with line spans. With
--class, --function or --method it prints the recorded source of that item
instead (its docstring excluded).

Examples:
  pyscope show app/models.py
  pyscope show app/models.py --class User --color
  pyscope show app/models.py --method User.save`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showClassFlag, "class", "", "Print the source of this class")
	showCmd.Flags().StringVar(&showFunctionFlag, "function", "", "Print the source of this module-level function")
	showCmd.Flags().StringVar(&showMethodFlag, "method", "", "Print the source of this method (Class.method)")
	showCmd.Flags().BoolVar(&showColorFlag, "color", false, "Syntax-highlight printed source")
	showCmd.MarkFlagsMutuallyExclusive("class", "function", "method")
}

func runShow(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	path := args[0]
	out := cmd.OutOrStdout()

	var result query.SourceResult
	switch {
	case showClassFlag != "":
		result = engine.ClassSource(path, showClassFlag)
	case showFunctionFlag != "":
		result = engine.FunctionSource(path, showFunctionFlag)
	case showMethodFlag != "":
		class, method, ok := strings.Cut(showMethodFlag, ".")
		if !ok {
			return fmt.Errorf("%w: method %q must be written as Class.method", query.ErrInvalidName, showMethodFlag)
		}
		result = engine.MethodSource(path, class, method)
	default:
		structure, err := engine.FileAll(path)
		if err != nil {
			return err
		}
		if structure == nil {
			return fmt.Errorf("no data for %s (artifact unreadable, reindex to repair)", path)
		}
		if jsonFlag {
			return printJSON(out, structure)
		}
		printOutline(out, structure)
		return nil
	}

	if !result.OK() {
		return result.Err
	}
	source := result.Source
	if showColorFlag {
		source = highlightPython(source)
	}
	fmt.Fprintln(out, source)
	return nil
}

// printOutline writes the classes, methods and functions of a file with their line spans.
func printOutline(out io.Writer, fs *extraction.FileStructure) {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s (%d lines)", fs.FilePath, fs.TotalLines)))
	if fs.Docstring != nil {
		first, _, _ := strings.Cut(*fs.Docstring, "\n")
		fmt.Fprintln(out, mutedStyle.Render("  "+first))
	}

	for _, c := range fs.Classes {
		header := "class " + c.Name
		if len(c.BaseExpressions) > 0 {
			header += "(" + strings.Join(c.BaseExpressions, ", ") + ")"
		}
		fmt.Fprintf(out, "  %s  %s\n", header, span(c.LineStart, c.LineEnd))
		for _, m := range c.Methods {
			fmt.Fprintf(out, "    %s  %s\n", defName(m), span(m.LineStart, m.LineEnd))
		}
	}
	for _, fn := range fs.Functions {
		fmt.Fprintf(out, "  %s  %s\n", defName(fn), span(fn.LineStart, fn.LineEnd))
	}
}

func defName(fn extraction.FunctionRecord) string {
	if fn.IsAsync {
		return "async def " + fn.Name
	}
	return "def " + fn.Name
}

func span(start, end int) string {
	return mutedStyle.Render(fmt.Sprintf("%d-%d", start, end))
}
