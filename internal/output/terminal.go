package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

var (
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

const (
	barWidth    = 40
	lineWidth   = 72
	ruleIDWidth = 18
	titleWidth  = 50
)

var levels = []types.Level{types.LevelError, types.LevelWarning, types.LevelInfo}

// TerminalFormatter lists rules grouped by category.
type TerminalFormatter struct {
	NoColor bool
	Width   int // columns available for rule lines; 0 keeps the default
}

// color paints text unless coloring is off. The color package already
// honors NO_COLOR and non-terminal output.
func (f *TerminalFormatter) color(c *color.Color, text string) string {
	if f.NoColor {
		return text
	}
	return c.Sprint(text)
}

func (f *TerminalFormatter) Format(w io.Writer, list []*rules.Rule) error {
	fmt.Fprintf(w, "\n%s\n", f.color(dim, f.separator()))
	fmt.Fprintf(w, "  %s\n", f.color(bold, strings.ToUpper(rules.ToolName)+" RULES"))
	fmt.Fprintf(w, "%s\n", f.color(dim, f.separator()))

	if len(list) == 0 {
		fmt.Fprintf(w, "\n  No rules match.\n")
		return nil
	}

	f.printDashboard(w, list)
	for _, group := range groupByCategory(list) {
		header := f.sectionHeader(fmt.Sprintf("%s (%d)", group.category, len(group.rules)))
		fmt.Fprintf(w, "\n%s\n", f.color(bold, header))
		for _, r := range group.rules {
			f.printRule(w, r)
		}
	}

	fmt.Fprintf(w, "\n%s\n", f.color(dim, f.separator()))
	fmt.Fprintf(w, "  %d rules\n", len(list))
	return nil
}

// Explain writes a detailed view of a single rule.
func (f *TerminalFormatter) Explain(w io.Writer, r *rules.Rule) error {
	fmt.Fprintf(w, "\n%s %s\n", f.color(dim, "Rule:"), f.color(bold, r.ID))
	fmt.Fprintf(w, "%s %s\n", f.color(dim, "Title:"), r.Title)
	fmt.Fprintf(w, "%s %s\n", f.color(dim, "Level:"), f.color(f.levelColor(r.Level), r.Level.String()))
	fmt.Fprintf(w, "%s %s\n", f.color(dim, "Category:"), r.Category)
	if r.Utility {
		fmt.Fprintf(w, "%s always runs as a prerequisite of other rules\n", f.color(dim, "Utility:"))
	}

	if len(r.Parameters) > 0 {
		fmt.Fprintf(w, "\n%s\n", f.color(bold, "Parameters:"))
		for _, p := range r.Parameters {
			def := p.Default
			if def == "" {
				def = `""`
			}
			fmt.Fprintf(w, "  %s %s\n", p.Name, f.color(dim, "(default "+def+")"))
			if p.Usage != "" {
				fmt.Fprintf(w, "      %s\n", p.Usage)
			}
		}
	}

	if doc := strings.TrimSpace(r.Doc); doc != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", f.color(bold, "Description:"), doc)
	}
	fmt.Fprintln(w)
	return nil
}

func (f *TerminalFormatter) titleWidth() int {
	if f.Width <= 0 {
		return titleWidth
	}
	// indent, icon and the trailing tags
	return max(f.Width-ruleIDWidth-20, 20)
}

func (f *TerminalFormatter) separator() string {
	return strings.Repeat("─", lineWidth)
}

func (f *TerminalFormatter) sectionHeader(title string) string {
	prefix := "── " + title + " "
	remaining := max(lineWidth-utf8.RuneCountInString(prefix), 0)
	return prefix + strings.Repeat("─", remaining)
}

func (f *TerminalFormatter) printDashboard(w io.Writer, list []*rules.Rule) {
	counts := map[types.Level]int{}
	for _, r := range list {
		counts[r.Level]++
	}
	most := 0
	for _, c := range counts {
		most = max(most, c)
	}

	fmt.Fprintln(w)
	for _, lvl := range levels {
		c := counts[lvl]
		if c == 0 {
			continue
		}
		label := fmt.Sprintf("  %-10s", lvl.String())
		fmt.Fprintf(w, "%s %s %4d\n", f.color(bold, label), f.renderBar(c, most, barWidth, lvl), c)
	}
}

func (f *TerminalFormatter) printRule(w io.Writer, r *rules.Rule) {
	id := fmt.Sprintf("%-*s", ruleIDWidth, r.ID)
	line := fmt.Sprintf("    %s %s %s", f.levelIcon(r.Level), f.color(bold, id), truncate(r.Title, f.titleWidth()))
	if r.Utility {
		line += " " + f.color(dim, "[utility]")
	}
	if len(r.Parameters) > 0 {
		line += " " + f.color(cyan, fmt.Sprintf("[%d params]", len(r.Parameters)))
	}
	fmt.Fprintln(w, line)
}

func (f *TerminalFormatter) levelIcon(lvl types.Level) string {
	switch lvl {
	case types.LevelError:
		return f.color(red, "✖")
	case types.LevelWarning:
		return f.color(yellow, "▲")
	default:
		return f.color(cyan, "○")
	}
}

func (f *TerminalFormatter) levelColor(lvl types.Level) *color.Color {
	switch lvl {
	case types.LevelError:
		return red
	case types.LevelWarning:
		return yellow
	default:
		return cyan
	}
}

func (f *TerminalFormatter) renderBar(count, most, width int, lvl types.Level) string {
	if most == 0 {
		return strings.Repeat("░", width)
	}
	filled := count * width / most
	if filled == 0 && count > 0 {
		filled = 1
	}
	// Always keep at least 1 empty block so bar boundary is visible
	if filled >= width {
		filled = width - 1
	}
	return f.color(f.levelColor(lvl), strings.Repeat("█", filled)) +
		f.color(dim, strings.Repeat("░", width-filled))
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

type categoryGroup struct {
	category types.Category
	rules    []*rules.Rule
}

// groupByCategory groups rules keeping the order of first appearance.
func groupByCategory(list []*rules.Rule) []categoryGroup {
	index := map[types.Category]int{}
	var groups []categoryGroup
	for _, r := range list {
		cat := r.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, categoryGroup{category: cat})
		}
		groups[i].rules = append(groups[i].rules, r)
	}
	return groups
}
