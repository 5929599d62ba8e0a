// Package output writes analysis records in the line protocol and renders
// the rule catalog for terminal, JSON, SARIF and Markdown.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/codacy/codacy-govet/internal/rules"
)

// ToolVersion is the version reported in generated documents.
var ToolVersion = "dev"

// Formatter renders a list of rules.
type Formatter interface {
	Format(w io.Writer, list []*rules.Rule) error
}

// ForName returns the formatter registered under name.
func ForName(name string, noColor bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "terminal":
		return &TerminalFormatter{NoColor: noColor}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (terminal, json, sarif, markdown)", name)
	}
}
