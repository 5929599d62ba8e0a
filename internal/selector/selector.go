// Package selector resolves which reportable rules a run reports on and
// prepares the side-channel configuration the evaluation engine reads.
package selector

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/codacy/codacy-govet/internal/config"
	"github.com/codacy/codacy-govet/internal/manifest"
	"github.com/codacy/codacy-govet/internal/policy"
)

// SideChannelName is the file name of the scratch side-channel document.
const SideChannelName = "analysis-input.yml"

// Source records which configuration source produced a resolution.
type Source int

const (
	SourceAll      Source = iota // no restriction
	SourceConfig                 // explicit rule list in the run configuration
	SourceManifest               // cached manifest
)

func (s Source) String() string {
	switch s {
	case SourceConfig:
		return "config"
	case SourceManifest:
		return "manifest"
	default:
		return "all"
	}
}

// Input is everything Resolve reads.
type Input struct {
	Config       config.Config
	ToolName     string
	ManifestPath string
	Deny         policy.DenyList
	ScratchDir   string // parent of the per-run scratch directory; os.TempDir() when empty
	Logger       *slog.Logger
}

// Resolution is the outcome of rule selection. Close releases the scratch
// directory, if one was created; it is safe to call more than once and
// from several goroutines.
type Resolution struct {
	Selection   *policy.Selection // nil when every rule is active
	SideChannel string            // path of the side-channel document, empty when none
	Source      Source

	scratch   string
	closeOnce sync.Once
	closeErr  error
}

// Close removes the scratch directory created for the side channel.
func (r *Resolution) Close() error {
	r.closeOnce.Do(func() {
		if r.scratch != "" {
			r.closeErr = os.RemoveAll(r.scratch)
		}
	})
	return r.closeErr
}

// Resolve applies the selection order: explicit configuration first, then
// the cached manifest, then every rule.
func Resolve(in Input) (*Resolution, error) {
	logger := in.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if patterns, ok := in.Config.ActivePatterns(in.ToolName); ok {
		return fromConfig(in, patterns, logger)
	}

	if in.ManifestPath != "" && manifest.Exists(in.ManifestPath) {
		doc, err := manifest.Load(in.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("%w: cached manifest: %v", config.ErrConfiguration, err)
		}
		logger.Debug("rules selected from cached manifest", "path", in.ManifestPath, "rules", len(doc.Rules))
		return &Resolution{
			Selection:   policy.NewSelection(doc.Keys(), in.Deny),
			SideChannel: in.ManifestPath,
			Source:      SourceManifest,
		}, nil
	}

	logger.Debug("no rule selection, every rule is active")
	return &Resolution{Source: SourceAll}, nil
}

func fromConfig(in Input, patterns []config.Pattern, logger *slog.Logger) (*Resolution, error) {
	ids := make([]string, 0, len(patterns))
	doc := &manifest.Document{}
	for _, p := range patterns {
		ids = append(ids, p.PatternID)
		if in.Deny.Denies(p.PatternID) {
			continue
		}
		rule := manifest.Rule{Key: p.PatternID}
		for _, param := range p.Parameters {
			rule.Parameters = append(rule.Parameters, manifest.Parameter{Key: param.Name, Value: param.ValueString()})
		}
		doc.Rules = append(doc.Rules, rule)
	}

	scratch, err := os.MkdirTemp(in.ScratchDir, "govet_")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	path := filepath.Join(scratch, SideChannelName)
	if err := manifest.SaveYAML(path, doc); err != nil {
		return nil, errors.Join(fmt.Errorf("writing side channel: %w", err), os.RemoveAll(scratch))
	}
	logger.Debug("rules selected from configuration", "rules", len(doc.Rules), "side_channel", path)

	return &Resolution{
		Selection:   policy.NewSelection(ids, in.Deny),
		SideChannel: path,
		Source:      SourceConfig,
		scratch:     scratch,
	}, nil
}
