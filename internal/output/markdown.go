package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

// MarkdownFormatter outputs rules as GitHub-flavored markdown tables,
// one collapsible section per category.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, list []*rules.Rule) error {
	fmt.Fprintf(w, "### %s rules (%d)\n\n", rules.ToolName, len(list))

	counts := map[types.Level]int{}
	for _, r := range list {
		counts[r.Level]++
	}
	var badges []string
	for _, lvl := range levels {
		if c := counts[lvl]; c > 0 {
			badges = append(badges, fmt.Sprintf("%s **%d %s**", levelEmoji(lvl), c, lvl.String()))
		}
	}
	if len(badges) > 0 {
		fmt.Fprintf(w, "%s\n\n", strings.Join(badges, " · "))
	}

	for _, group := range groupByCategory(list) {
		fmt.Fprintf(w, "<details>\n")
		fmt.Fprintf(w, "<summary><strong>%s (%d)</strong></summary>\n\n", group.category, len(group.rules))
		fmt.Fprintf(w, "| Rule | Level | Description |\n")
		fmt.Fprintf(w, "|------|-------|-------------|\n")
		for _, r := range group.rules {
			fmt.Fprintf(w, "| `%s` | %s | %s |\n", r.ID, r.Level.String(), escapeMarkdown(truncate(r.Title, 100)))
		}
		fmt.Fprintf(w, "\n</details>\n\n")
	}

	fmt.Fprintf(w, "---\n")
	fmt.Fprintf(w, "*Generated by codacy-%s %s*\n", rules.ToolName, ToolVersion)
	return nil
}

// RuleDoc renders the markdown documentation page of a rule.
func RuleDoc(r *rules.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.ID)
	if doc := strings.TrimSpace(r.Doc); doc != "" {
		fmt.Fprintf(&b, "%s\n", doc)
	} else {
		fmt.Fprintf(&b, "%s\n", r.Title)
	}
	if len(r.Parameters) > 0 {
		fmt.Fprintf(&b, "\n## Parameters\n\n")
		fmt.Fprintf(&b, "| Name | Default | Description |\n")
		fmt.Fprintf(&b, "|------|---------|-------------|\n")
		for _, p := range r.Parameters {
			fmt.Fprintf(&b, "| `%s` | `%s` | %s |\n", p.Name, escapeMarkdown(p.Default), escapeMarkdown(truncate(p.Usage, 200)))
		}
	}
	return b.String()
}

func levelEmoji(lvl types.Level) string {
	switch lvl {
	case types.LevelError:
		return ":red_circle:"
	case types.LevelWarning:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
