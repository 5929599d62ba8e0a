package rules

import (
	"flag"
	"slices"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/codacy/codacy-govet/internal/types"
)

// LanguageGo is the language tag of rules that analyze Go source files.
const LanguageGo = "go"

// Registration is one entry of a static rule table.
type Registration struct {
	Analyzer  *analysis.Analyzer
	Languages []string
	Utility   bool // infrastructure rule, always runs
	Level     types.Level
	Category  types.Category
}

// Parameter is a configurable rule setting with its default value.
type Parameter struct {
	Name    string `json:"name"`
	Default string `json:"default"`
	Usage   string `json:"description,omitempty"`
}

// Rule is a check the evaluation engine can run. Rules are built once
// by Load and never mutated afterwards.
type Rule struct {
	ID         string
	Title      string
	Doc        string
	Languages  []string
	Utility    bool
	Parameters []Parameter
	Level      types.Level
	Category   types.Category
	Analyzer   *analysis.Analyzer
}

// Targets reports whether the rule declares support for lang.
func (r *Rule) Targets(lang string) bool {
	return slices.Contains(r.Languages, lang)
}

// HasParameter reports whether name is one of the rule's parameters.
func (r *Rule) HasParameter(name string) bool {
	for _, p := range r.Parameters {
		if p.Name == name {
			return true
		}
	}
	return false
}

func newRule(reg Registration) *Rule {
	a := reg.Analyzer
	return &Rule{
		ID:         a.Name,
		Title:      title(a.Doc),
		Doc:        a.Doc,
		Languages:  slices.Clone(reg.Languages),
		Utility:    reg.Utility,
		Parameters: parameters(&a.Flags),
		Level:      reg.Level,
		Category:   reg.Category,
		Analyzer:   a,
	}
}

// title returns the first line of an analyzer doc string.
func title(doc string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(doc), "\n")
	return strings.TrimSpace(line)
}

func parameters(fs *flag.FlagSet) []Parameter {
	var params []Parameter
	fs.VisitAll(func(f *flag.Flag) {
		params = append(params, Parameter{Name: f.Name, Default: f.DefValue, Usage: f.Usage})
	})
	return params
}
