package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	govet "github.com/codacy/codacy-govet"
)

var flagHTML bool

var docsCmd = &cobra.Command{
	Use:   "docs [dir]",
	Short: "Generate pattern documentation (default dir: docs)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocs,
}

func init() {
	docsCmd.Flags().BoolVar(&flagHTML, "html", false, "Also render rule pages to HTML")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	dir := "docs"
	if len(args) == 1 {
		dir = args[0]
	}
	if err := govet.GenerateDocs(dir, Version, flagHTML); err != nil {
		return fmt.Errorf("generating docs: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote documentation to %s\n", dir)
	return nil
}
