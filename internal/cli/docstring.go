package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/query"
	"github.com/mvp-joe/pyscope/internal/storage"
)

var docstringKindFlag string

// docstringCmd represents the docstring command
var docstringCmd = &cobra.Command{
	Use:   "docstring <path> <name>",
	Short: "Print the docstring of a class, function or method",
	Long: `Docstring prints the cleaned docstring of one item. --kind selects
between a class and a function of the same name; methods are named
Class.method.

Examples:
  pyscope docstring app/models.py User --kind class
  pyscope docstring app/models.py User.save --kind method`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		docstring, err := engine.Docstring(args[0], args[1], docstringKindFlag)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonFlag {
			return printJSON(out, docstring)
		}
		if docstring == nil {
			fmt.Fprintln(out, mutedStyle.Render("(no docstring)"))
			return nil
		}
		fmt.Fprintln(out, *docstring)
		return nil
	},
}

// argsCmd represents the args command
var argsCmd = &cobra.Command{
	Use:   "args <path> <function>",
	Short: "List the parameters of a module-level function",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		fn, err := engine.FunctionDefinition(args[0], args[1])
		if err != nil {
			return err
		}
		if fn == nil {
			return fmt.Errorf("function %q %w in %s", args[1], query.ErrSymbolNotFound, args[0])
		}

		out := cmd.OutOrStdout()
		if jsonFlag {
			return printJSON(out, fn.AllArguments())
		}
		fmt.Fprintln(out, titleStyle.Render(storage.FunctionSignature(*fn)))
		for _, line := range argumentLines(fn) {
			fmt.Fprintln(out, "  "+line)
		}
		return nil
	},
}

// argumentLines renders one line per parameter, splats marked with '*' or '**'.
func argumentLines(fn *extraction.FunctionRecord) []string {
	render := func(prefix string, arg extraction.ArgumentRecord) string {
		line := prefix + arg.Name
		if arg.TypeAnnotation != nil {
			line += ": " + *arg.TypeAnnotation
		}
		if arg.DefaultValue != nil {
			line += " = " + *arg.DefaultValue
		}
		return line
	}

	var lines []string
	for _, arg := range fn.Arguments {
		lines = append(lines, render("", arg))
	}
	if fn.Vararg != nil {
		lines = append(lines, render("*", *fn.Vararg))
	}
	for _, arg := range fn.KwonlyArguments {
		lines = append(lines, render("", arg)+mutedStyle.Render("  (keyword-only)"))
	}
	if fn.Kwarg != nil {
		lines = append(lines, render("**", *fn.Kwarg))
	}
	return lines
}

func init() {
	rootCmd.AddCommand(docstringCmd)
	rootCmd.AddCommand(argsCmd)
	docstringCmd.Flags().StringVarP(&docstringKindFlag, "kind", "k", query.KindFunction, "Item kind: class, function or method")
}
