// Package docs generates the pattern documentation published with the
// tool: patterns.json, description/description.json and one page per rule.
package docs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/codacy/codacy-govet/internal/output"
	"github.com/codacy/codacy-govet/internal/rules"
)

const (
	PatternsFile    = "patterns.json"
	DescriptionDir  = "description"
	DescriptionFile = "description.json"

	// defaultTimeToFix is the remediation estimate, in minutes, of rules
	// that do not declare one.
	defaultTimeToFix = 5
)

// Patterns is the content of patterns.json.
type Patterns struct {
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Patterns []Pattern `json:"patterns"`
}

// Pattern describes one rule in patterns.json.
type Pattern struct {
	PatternID  string           `json:"patternId"`
	Level      string           `json:"level"`
	Category   string           `json:"category"`
	Parameters []PatternDefault `json:"parameters,omitempty"`
}

// PatternDefault is a parameter with its default value.
type PatternDefault struct {
	Name    string `json:"name"`
	Default string `json:"default"`
}

// Description is one entry of description.json.
type Description struct {
	PatternID  string                 `json:"patternId"`
	Title      string                 `json:"title"`
	Parameters []DescriptionParameter `json:"parameters,omitempty"`
	TimeToFix  int                    `json:"timeToFix"`
}

// DescriptionParameter documents a parameter.
type DescriptionParameter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Options controls generation.
type Options struct {
	Version string
	HTML    bool // also render each rule page to HTML
}

// Build returns the patterns and descriptions documents for list.
func Build(list []*rules.Rule, version string) (*Patterns, []Description) {
	p := &Patterns{Name: rules.ToolName, Version: version, Patterns: []Pattern{}}
	descriptions := []Description{}
	for _, r := range list {
		pat := Pattern{PatternID: r.ID, Level: r.Level.String(), Category: string(r.Category)}
		desc := Description{PatternID: r.ID, Title: r.Title, TimeToFix: defaultTimeToFix}
		for _, param := range r.Parameters {
			pat.Parameters = append(pat.Parameters, PatternDefault{Name: param.Name, Default: param.Default})
			desc.Parameters = append(desc.Parameters, DescriptionParameter{Name: param.Name, Description: param.Usage})
		}
		p.Patterns = append(p.Patterns, pat)
		descriptions = append(descriptions, desc)
	}
	return p, descriptions
}

// Generate writes the documentation of list under dir.
func Generate(dir string, list []*rules.Rule, opts Options) error {
	descDir := filepath.Join(dir, DescriptionDir)
	if err := os.MkdirAll(descDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", descDir, err)
	}

	patterns, descriptions := Build(list, opts.Version)
	if err := writeJSON(filepath.Join(dir, PatternsFile), patterns); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(descDir, DescriptionFile), descriptions); err != nil {
		return err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	for _, r := range list {
		page := []byte(output.RuleDoc(r))
		if err := os.WriteFile(filepath.Join(descDir, r.ID+".md"), page, 0o644); err != nil {
			return fmt.Errorf("writing page of %s: %w", r.ID, err)
		}
		if !opts.HTML {
			continue
		}
		var buf bytes.Buffer
		if err := md.Convert(page, &buf); err != nil {
			return fmt.Errorf("rendering page of %s: %w", r.ID, err)
		}
		if err := os.WriteFile(filepath.Join(descDir, r.ID+".html"), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing page of %s: %w", r.ID, err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
