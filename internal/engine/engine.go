// Package engine is the rule-evaluation engine: it compiles a single Go
// file into a minimal unit and runs go/analysis analyzers over it,
// returning their diagnostics as raw findings.
package engine

import (
	"context"
	"fmt"
	"go/token"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/codacy/codacy-govet/internal/manifest"
	"github.com/codacy/codacy-govet/internal/policy"
	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

// Engine evaluates rules of a catalog.
type Engine struct {
	catalog *rules.Catalog
	logger  *slog.Logger
}

// New creates an engine for catalog.
func New(catalog *rules.Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{catalog: catalog, logger: logger}
}

// flagsMu serializes Configure. Analyzers are package-level values, so
// their flags are process-global and shared by every Engine.
var flagsMu sync.Mutex

// Configure resets every catalog parameter to its default and then applies
// the side-channel document at path to the analyzers' flags. An empty path
// only resets. Configure changes process-global state: it must be called
// before any Evaluate and never while another run evaluates. Unknown rules
// and parameters are logged and skipped.
func (e *Engine) Configure(path string) error {
	flagsMu.Lock()
	defer flagsMu.Unlock()

	e.resetParameters()
	if path == "" {
		return nil
	}
	doc, err := manifest.Load(path)
	if err != nil {
		return fmt.Errorf("loading side channel: %w", err)
	}
	params := doc.Params()
	ids := make([]string, 0, len(params))
	for id := range params {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r, ok := e.catalog.Lookup(id)
		if !ok {
			e.logger.Debug("side channel names unknown rule", "rule", id)
			continue
		}
		for name, value := range params[id] {
			if !r.HasParameter(name) {
				e.logger.Debug("unknown rule parameter", "rule", id, "parameter", name)
				continue
			}
			if err := setFlag(r, name, value); err != nil {
				e.logger.Debug("invalid rule parameter", "rule", id, "parameter", name, "error", err)
			}
		}
	}
	return nil
}

// resetParameters puts back the registered default of every flag a previous
// run changed.
func (e *Engine) resetParameters() {
	for _, r := range e.catalog.All() {
		for _, p := range r.Parameters {
			if err := setFlag(r, p.Name, p.Default); err != nil {
				e.logger.Debug("could not reset rule parameter", "rule", r.ID, "parameter", p.Name, "error", err)
			}
		}
	}
}

// setFlag sets a flag unless it already holds value. Some analyzer flags
// accumulate on every Set, so an unchanged value is never re-applied.
func setFlag(r *rules.Rule, name, value string) error {
	f := r.Analyzer.Flags.Lookup(name)
	if f == nil {
		return fmt.Errorf("no flag %q", name)
	}
	if f.Value.String() == value {
		return nil
	}
	return f.Value.Set(value)
}

// Compile builds the unit for one file.
func (e *Engine) Compile(path, name string) (*Unit, error) {
	return Compile(path, name)
}

// Evaluate runs active over u and returns the findings of every rule the
// gate sets to Warn, in rule order and, within a rule, in report order.
// Prerequisite analyzers that are not in active never contribute findings.
// A rule whose analyzer fails, panics or cannot run on an ill-typed unit
// is skipped for this unit; the other rules still report.
func (e *Engine) Evaluate(ctx context.Context, u *Unit, active []*rules.Rule, gate policy.Gate) ([]types.Finding, error) {
	var findings []types.Finding
	d := newDriver(u)
	for _, r := range active {
		act := d.run(ctx, r.Analyzer)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if errors.Is(act.err, errIllTyped) {
			e.logger.Debug("rule skipped", "file", u.Name, "rule", r.ID, "reason", act.err)
			continue
		}
		if act.err != nil {
			e.logger.Debug("rule failed", "file", u.Name, "rule", r.ID, "error", act.err)
			continue
		}
		if !gate.Enabled(r.ID) {
			continue
		}
		for _, diag := range act.diags {
			findings = append(findings, e.finding(u, r.ID, diag.Pos, diag.Message))
		}
	}
	return findings, nil
}

func (e *Engine) finding(u *Unit, id string, pos token.Pos, msg string) types.Finding {
	f := types.Finding{RuleID: id, Message: msg}
	if !pos.IsValid() {
		return f
	}
	// //line directives are ignored: findings point at the file on disk.
	p := u.Fset.PositionFor(pos, false)
	if p.Filename == u.Path && p.Line > 0 {
		f.Location = &types.Location{File: u.Name, Line: p.Line}
	}
	return f
}
