package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// filesCmd represents the files command
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		files := engine.ListFiles()
		if jsonFlag {
			return printJSON(cmd.OutOrStdout(), files)
		}
		printList(cmd.OutOrStdout(), files, "No files indexed. Run 'pyscope index' first.")
		return nil
	},
}

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary <path>",
	Short: "List the classes and functions of an indexed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		summary, err := engine.FileSummary(args[0])
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("no data for %s (artifact unreadable, reindex to repair)", args[0])
		}

		out := cmd.OutOrStdout()
		if jsonFlag {
			return printJSON(out, summary)
		}
		fmt.Fprintln(out, titleStyle.Render("Classes"))
		printList(out, summary.Classes, "(none)")
		fmt.Fprintln(out, titleStyle.Render("Functions"))
		printList(out, summary.Functions, "(none)")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(summaryCmd)
}
