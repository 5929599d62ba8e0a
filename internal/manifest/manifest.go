// Package manifest reads and writes rule manifests: documents mapping rule
// identifiers to parameter values. The same document shape serves as the
// cached default rule set kept next to the sources and as the side-channel
// configuration handed to the evaluation engine.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the well-known name of the cached manifest under the source root.
const FileName = ".govet-rules.json"

// maxManifestSize is the largest manifest accepted (1 MB).
const maxManifestSize = 1 << 20

// Parameter is one rule setting.
type Parameter struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Rule is one manifest entry.
type Rule struct {
	Key        string      `json:"key" yaml:"key"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Document is a rule manifest.
type Document struct {
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Keys returns the rule identifiers in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.Rules))
	for _, r := range d.Rules {
		keys = append(keys, r.Key)
	}
	return keys
}

// Params returns the rule → parameter map of the document. Later entries
// for the same rule override earlier ones.
func (d *Document) Params() map[string]map[string]string {
	params := make(map[string]map[string]string, len(d.Rules))
	for _, r := range d.Rules {
		m := params[r.Key]
		if m == nil {
			m = make(map[string]string, len(r.Parameters))
			params[r.Key] = m
		}
		for _, p := range r.Parameters {
			m[p.Key] = p.Value
		}
	}
	return params
}

// Path returns the cached manifest path under root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Exists reports whether a regular manifest file is present at path.
func Exists(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

// Load reads a manifest from disk. Both JSON and YAML encodings are
// accepted. Symlinks are rejected.
func Load(path string) (*Document, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("manifest is a symlink (rejected for security): %s", path)
	}
	if info.Size() > maxManifestSize {
		return nil, fmt.Errorf("manifest too large: %s (%d bytes, max 1 MB)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses a manifest document. YAML is a superset of JSON, so one
// decoder reads both the cached JSON manifest and the YAML side channel.
func Decode(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, err
	}
	for i, r := range doc.Rules {
		if r.Key == "" {
			return nil, fmt.Errorf("rule %d: missing key", i)
		}
	}
	return &doc, nil
}

// SaveJSON writes the document as indented JSON, creating parent
// directories. Directories are created with 0o700, files with 0o600.
// Symlinks are rejected.
func SaveJSON(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return write(path, append(data, '\n'))
}

// SaveYAML writes the document as YAML with the same guarantees as SaveJSON.
func SaveYAML(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return write(path, data)
}

func write(path string, data []byte) error {
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("manifest is a symlink (rejected for security): %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
