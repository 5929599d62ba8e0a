// Package config loads the .codacyrc run configuration and the
// environment settings that control a run.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Default locations inside the analysis container.
const (
	DefaultConfigPath = "/.codacyrc"
	DefaultSourceRoot = "/src"
)

// maxConfigSize is the largest run configuration accepted (1 MB).
const maxConfigSize = 1 << 20

// ErrConfiguration marks errors that make a run impossible to configure.
var ErrConfiguration = errors.New("configuration error")

// Parameter is a per-rule setting. Value keeps whatever JSON type the
// configuration used.
type Parameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ValueString renders the parameter value as a flag value.
func (p Parameter) ValueString() string {
	switch v := p.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// Pattern is one active rule with optional parameters.
type Pattern struct {
	PatternID  string      `json:"patternId"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Tool is the configuration block of one tool. A nil Patterns slice means
// the tool did not list any rules.
type Tool struct {
	Name     string    `json:"name"`
	Patterns []Pattern `json:"patterns,omitempty"`
}

// Config represents the .codacyrc file.
type Config struct {
	Files    []string  `json:"files,omitempty"`
	Tools    []Tool    `json:"tools,omitempty"`
	Patterns []Pattern `json:"patterns,omitempty"`
}

// Load reads the run configuration at path. A missing file is not an error
// and yields a zero Config. Files that are not valid JSON or do not match
// the configuration schema are rejected with ErrConfiguration.
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("%w: config file too large: %s (%d bytes, max 1 MB)", ErrConfiguration, path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a run configuration document.
func Parse(data []byte) (Config, error) {
	if err := Validate(data); err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing config: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// ActivePatterns returns the explicit rule list for toolName. The tool
// entry whose name matches wins; the top-level patterns list is the
// fallback. ok is false when neither lists any rule.
func (c Config) ActivePatterns(toolName string) (patterns []Pattern, ok bool) {
	for _, t := range c.Tools {
		if t.Name == toolName && len(t.Patterns) > 0 {
			return t.Patterns, true
		}
	}
	if len(c.Patterns) > 0 {
		return c.Patterns, true
	}
	return nil, false
}

//go:embed codacyrc.schema.json
var schemaSource string

const schemaURL = "file:///codacyrc.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks a run configuration document against the embedded schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: parsing config: %v", ErrConfiguration, err)
	}
	if err := s.Validate(payload); err != nil {
		return fmt.Errorf("%w: invalid config: %v", ErrConfiguration, err)
	}
	return nil
}
