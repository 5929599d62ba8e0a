package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/codacy/codacy-govet/internal/output"
)

var flagCategory string

var listRulesCmd = &cobra.Command{
	Use:   "list-rules",
	Short: "List all available rules",
	Args:  cobra.NoArgs,
	RunE:  runListRules,
}

func init() {
	listRulesCmd.Flags().StringVar(&flagCategory, "category", "", "Filter by category")
	rootCmd.AddCommand(listRulesCmd)
}

func runListRules(cmd *cobra.Command, _ []string) error {
	formatter, err := output.ForName(flagFormat, flagNoColor)
	if err != nil {
		return err
	}
	if tf, ok := formatter.(*output.TerminalFormatter); ok {
		tf.Width = terminalWidth(cmd.OutOrStdout())
	}
	output.ToolVersion = Version
	return formatter.Format(cmd.OutOrStdout(), listedRules(flagCategory))
}

// terminalWidth returns the column count of w when it is a terminal, 0
// otherwise.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
