package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codacy/codacy-govet/internal/output"
)

var explainCmd = &cobra.Command{
	Use:   "explain <RULE_ID>",
	Short: "Show detailed information about a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	found, ok := loadCatalog().Lookup(id)
	if !ok {
		return fmt.Errorf("rule %q not found", id)
	}

	w := cmd.OutOrStdout()
	switch strings.ToLower(flagFormat) {
	case "json":
		return (&output.JSONFormatter{}).Explain(w, found)
	case "markdown", "md":
		_, err := io.WriteString(w, output.RuleDoc(found))
		return err
	default:
		return (&output.TerminalFormatter{NoColor: flagNoColor}).Explain(w, found)
	}
}
