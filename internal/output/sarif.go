package output

import (
	"io"

	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

// SARIFFormatter outputs the rules as the driver metadata of a SARIF 2.1.0
// log with no results, for tools that import rule descriptors.
type SARIFFormatter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool `json:"tool"`
	Results []any     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	FullDescription  *sarifMessage       `json:"fullDescription,omitempty"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

func (f *SARIFFormatter) Format(w io.Writer, list []*rules.Rule) error {
	descriptors := make([]sarifRule, 0, len(list))
	for _, r := range list {
		d := sarifRule{
			ID:               r.ID,
			Name:             r.ID,
			ShortDescription: sarifMessage{Text: r.Title},
			DefaultConfig:    sarifDefaultConfig{Level: levelToSARIF(r.Level)},
		}
		if r.Doc != "" && r.Doc != r.Title {
			d.FullDescription = &sarifMessage{Text: r.Doc}
		}
		if r.Category != "" {
			d.Properties.Tags = []string{string(r.Category)}
		}
		descriptors = append(descriptors, d)
	}

	log := sarifLog{
		Schema:  "https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           rules.ToolName,
				Version:        ToolVersion,
				InformationURI: "https://pkg.go.dev/golang.org/x/tools/go/analysis",
				Rules:          descriptors,
			}},
			Results: []any{},
		}},
	}
	return writeIndented(w, log)
}

func levelToSARIF(lvl types.Level) string {
	switch lvl {
	case types.LevelError:
		return "error"
	case types.LevelWarning:
		return "warning"
	default:
		return "note"
	}
}
