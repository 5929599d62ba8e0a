// Package govet runs Go analyzers over a batch of source files and reports
// their findings as Codacy result records, one JSON object per line.
//
// This is the library entry point. For the CLI tool, see cmd/codacy-govet/.
package govet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/codacy/codacy-govet/internal/config"
	"github.com/codacy/codacy-govet/internal/docs"
	"github.com/codacy/codacy-govet/internal/engine"
	"github.com/codacy/codacy-govet/internal/manifest"
	"github.com/codacy/codacy-govet/internal/output"
	"github.com/codacy/codacy-govet/internal/policy"
	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/rules/builtin"
	"github.com/codacy/codacy-govet/internal/scanner"
	"github.com/codacy/codacy-govet/internal/selector"
	"github.com/codacy/codacy-govet/internal/types"
)

// Extension is the suffix of the files a run analyzes.
const Extension = ".go"

// Re-export core types from internal/types so consumers don't need to
// import internal packages.
type (
	Finding  = types.Finding
	Result   = types.Result
	RunStats = types.RunStats
	RuleInfo = output.RuleInfo
)

// ErrConfiguration marks unusable run configuration.
var ErrConfiguration = config.ErrConfiguration

// Analysis is a prepared run: configuration loaded, files listed and rule
// selection resolved. Close must be called once the run is over.
type Analysis struct {
	cfg        *runConfig
	targets    []*scanner.Target
	resolution *selector.Resolution
	scanner    *scanner.Scanner
	plan       scanner.Plan
	emitter    *output.JSONLines

	closeOnce sync.Once
	closeErr  error
}

// Prepare loads the run configuration and resolves the rule selection.
// Records of the run are written to w.
func Prepare(w io.Writer, opts ...Option) (*Analysis, error) {
	cfg := applyOpts(opts)

	rc, err := config.Load(cfg.configPath)
	if err != nil {
		return nil, err
	}

	td := &scanner.TargetDiscovery{Root: cfg.sourceRoot, Extension: Extension}
	targets, err := td.Targets(rc.Files)
	if err != nil {
		return nil, fmt.Errorf("listing source files: %w", err)
	}

	catalog := loadCatalog()
	res, err := selector.Resolve(selector.Input{
		Config:       rc,
		ToolName:     rules.ToolName,
		ManifestPath: cfg.manifestPath,
		Deny:         cfg.deny,
		ScratchDir:   cfg.scratchDir,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, err
	}

	emitter := output.NewJSONLines(w)
	s := scanner.New(engine.New(catalog, cfg.logger), emitter, cfg.workers)
	s.SetLogger(cfg.logger)

	cfg.logger.Debug("analysis prepared",
		"files", len(targets), "selection", res.Source.String(), "side_channel", res.SideChannel)

	return &Analysis{
		cfg:        cfg,
		targets:    targets,
		resolution: res,
		scanner:    s,
		plan: scanner.Plan{
			Catalog:     catalog,
			Policy:      policy.New(catalog, res.Selection, cfg.deny),
			SideChannel: res.SideChannel,
		},
		emitter: emitter,
	}, nil
}

// Files returns the number of files the run will analyze.
func (a *Analysis) Files() int { return len(a.targets) }

// SideChannel returns the path of the rule parameter document the engine
// reads, or "" when there is none.
func (a *Analysis) SideChannel() string { return a.resolution.SideChannel }

// runMu serializes runs in one process: rule parameters live in
// package-level analyzer flags.
var runMu sync.Mutex

// Run analyzes every file, writing records as each file completes. Runs of
// different analyses in the same process never overlap.
func (a *Analysis) Run(ctx context.Context) (*RunStats, error) {
	runMu.Lock()
	defer runMu.Unlock()

	stats, err := a.scanner.Run(ctx, a.targets, a.plan)
	if stats != nil {
		a.cfg.logger.Debug("analysis finished",
			"files", stats.FilesAnalyzed, "failed", stats.FilesFailed,
			"records", stats.Records, "suppressed", stats.Suppressed, "duration", stats.Duration)
	}
	return stats, err
}

// Close stops further output and removes the run's scratch files. It is
// safe to call more than once and concurrently with Run.
func (a *Analysis) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = errors.Join(a.emitter.Close(), a.resolution.Close())
	})
	return a.closeErr
}

// Analyze prepares and runs an analysis, releasing it before returning.
func Analyze(ctx context.Context, w io.Writer, opts ...Option) (*RunStats, error) {
	a, err := Prepare(w, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = a.Close() }()
	return a.Run(ctx)
}

// ListRules returns the reportable rules that are not deny-listed, sorted
// by identifier. Use WithCategory to filter by category.
func ListRules(opts ...Option) []RuleInfo {
	cfg := applyOpts(opts)
	list := reportable(cfg)
	infos := make([]RuleInfo, len(list))
	for i, r := range list {
		infos[i] = output.NewRuleInfo(r, false)
	}
	return infos
}

// ExplainRule returns detailed information about a specific rule.
func ExplainRule(id string) (*RuleInfo, error) {
	r, ok := loadCatalog().Lookup(strings.TrimSpace(id))
	if !ok {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	info := output.NewRuleInfo(r, true)
	return &info, nil
}

// WriteManifest writes the cached rule manifest to path: every reportable
// rule that is not deny-listed, with its parameter defaults.
func WriteManifest(path string, opts ...Option) error {
	cfg := applyOpts(opts)
	doc := &manifest.Document{Rules: []manifest.Rule{}}
	for _, r := range reportable(cfg) {
		entry := manifest.Rule{Key: r.ID}
		for _, p := range r.Parameters {
			entry.Parameters = append(entry.Parameters, manifest.Parameter{Key: p.Name, Value: p.Default})
		}
		doc.Rules = append(doc.Rules, entry)
	}
	return manifest.SaveJSON(path, doc)
}

// GenerateDocs writes the pattern documentation of the reportable rules
// under dir.
func GenerateDocs(dir, version string, html bool, opts ...Option) error {
	cfg := applyOpts(opts)
	return docs.Generate(dir, reportable(cfg), docs.Options{Version: version, HTML: html})
}

// --- internal helpers ---

func loadCatalog() *rules.Catalog {
	return rules.Load(builtin.Registrations(), rules.LanguageGo)
}

func reportable(cfg *runConfig) []*rules.Rule {
	return loadCatalog().Published(cfg.deny.Denies, cfg.category)
}
