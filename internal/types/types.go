// Package types defines shared data structures (Finding, Result, Level)
// used across the engine, scanner and output packages to prevent import cycles.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Level is the severity a rule is published with in the patterns manifest.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "Error"
	case LevelWarning:
		return "Warning"
	case LevelInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// MarshalJSON writes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError, nil
	case "WARNING":
		return LevelWarning, nil
	case "INFO":
		return LevelInfo, nil
	default:
		return LevelInfo, fmt.Errorf("unknown level: %q", s)
	}
}

// Category groups rules in the patterns manifest.
type Category string

const (
	CategoryErrorProne    Category = "ErrorProne"
	CategorySecurity      Category = "Security"
	CategoryPerformance   Category = "Performance"
	CategoryCodeStyle     Category = "CodeStyle"
	CategoryUnusedCode    Category = "UnusedCode"
	CategoryCompatibility Category = "Compatibility"
)

// Location is a resolved source position of a finding.
type Location struct {
	File string
	Line int
}

// Finding is one raw diagnostic produced by the evaluation engine.
// Location is nil when the engine reported no resolvable position.
type Finding struct {
	RuleID   string
	Message  string
	Location *Location
}

// ReportLine returns the 1-based line to report for the finding,
// falling back to line 1 when no usable position is known.
func (f Finding) ReportLine() int {
	if f.Location == nil || f.Location.Line < 1 {
		return 1
	}
	return f.Location.Line
}

// CouldNotParse is the message of the synthetic record emitted for a file
// that failed to analyze.
const CouldNotParse = "could not parse the file"

// Result is one normalized record of the output protocol. PatternID and
// Line are omitted from the JSON when absent; Line is never zero when set.
type Result struct {
	Filename  string `json:"filename"`
	Message   string `json:"message"`
	PatternID string `json:"patternId,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// NewResult converts a finding for filename into a protocol record.
func NewResult(filename string, f Finding) Result {
	return Result{
		Filename:  filename,
		Message:   f.Message,
		PatternID: f.RuleID,
		Line:      f.ReportLine(),
	}
}

// FailureResult is the record emitted for a file that could not be analyzed.
func FailureResult(filename string) Result {
	return Result{Filename: filename, Message: CouldNotParse}
}

// RunStats summarizes one orchestration run.
type RunStats struct {
	FilesAnalyzed int           `json:"files_analyzed"`
	FilesFailed   int           `json:"files_failed"`
	Records       int           `json:"records"`
	Suppressed    int           `json:"suppressed"`
	Duration      time.Duration `json:"-"`
}

// MarshalJSON implements custom JSON marshaling so Duration serializes as milliseconds.
func (r RunStats) MarshalJSON() ([]byte, error) {
	type Alias RunStats
	return json.Marshal(struct {
		Alias
		DurationMS int64 `json:"duration_ms"`
	}{
		Alias:      Alias(r),
		DurationMS: r.Duration.Milliseconds(),
	})
}
