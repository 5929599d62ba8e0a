// Package scanner orchestrates target discovery and per-file rule
// evaluation, emitting normalized records as each file completes.
package scanner

import (
	"context"

	"github.com/codacy/codacy-govet/internal/engine"
	"github.com/codacy/codacy-govet/internal/policy"
	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

// Engine is the rule-evaluation engine the scanner drives.
type Engine interface {
	Configure(sideChannel string) error
	Compile(path, name string) (*engine.Unit, error)
	Evaluate(ctx context.Context, u *engine.Unit, active []*rules.Rule, gate policy.Gate) ([]types.Finding, error)
}

// Emitter receives the records of one file. Implementations must be safe
// for concurrent use.
type Emitter interface {
	Emit(records []types.Result) error
}
