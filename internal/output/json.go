package output

import (
	"encoding/json"
	"io"

	"github.com/codacy/codacy-govet/internal/rules"
)

// JSONFormatter outputs rules as a JSON array.
type JSONFormatter struct{}

// RuleInfo is the JSON view of a rule.
type RuleInfo struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Level      string            `json:"level"`
	Category   string            `json:"category"`
	Utility    bool              `json:"utility,omitempty"`
	Parameters []rules.Parameter `json:"parameters,omitempty"`
	Doc        string            `json:"doc,omitempty"`
}

// NewRuleInfo builds the JSON view of r. The doc is only included when full is set.
func NewRuleInfo(r *rules.Rule, full bool) RuleInfo {
	info := RuleInfo{
		ID:         r.ID,
		Title:      r.Title,
		Level:      r.Level.String(),
		Category:   string(r.Category),
		Utility:    r.Utility,
		Parameters: r.Parameters,
	}
	if full {
		info.Doc = r.Doc
	}
	return info
}

func (f *JSONFormatter) Format(w io.Writer, list []*rules.Rule) error {
	infos := make([]RuleInfo, len(list))
	for i, r := range list {
		infos[i] = NewRuleInfo(r, false)
	}
	return writeIndented(w, infos)
}

// Explain writes the full JSON view of a single rule.
func (f *JSONFormatter) Explain(w io.Writer, r *rules.Rule) error {
	return writeIndented(w, NewRuleInfo(r, true))
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
