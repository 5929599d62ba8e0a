package engine

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"os"
	"reflect"
	"runtime/debug"

	"golang.org/x/tools/go/analysis"
)

// action is one analyzer applied to one unit.
type action struct {
	analyzer *analysis.Analyzer
	result   any
	err      error
	diags    []analysis.Diagnostic
}

type objectFactKey struct {
	obj types.Object
	typ reflect.Type
}

type packageFactKey struct {
	pkg *types.Package
	typ reflect.Type
}

// errIllTyped marks an analyzer that was not run because the unit has type
// errors and the analyzer does not declare RunDespiteErrors.
var errIllTyped = errors.New("unit has type errors")

// driver runs an analyzer graph over a single unit. Facts only live for
// the duration of the unit: nothing is imported from dependencies.
type driver struct {
	unit        *Unit
	actions     map[*analysis.Analyzer]*action
	objectFacts map[objectFactKey]analysis.Fact
	pkgFacts    map[packageFactKey]analysis.Fact
}

func newDriver(u *Unit) *driver {
	return &driver{
		unit:        u,
		actions:     make(map[*analysis.Analyzer]*action),
		objectFacts: make(map[objectFactKey]analysis.Fact),
		pkgFacts:    make(map[packageFactKey]analysis.Fact),
	}
}

// run executes a and its prerequisites, memoizing every action. Analyzers
// that cannot run on an ill-typed unit are skipped along with everything
// that requires them; a panic fails only the panicking action.
func (d *driver) run(ctx context.Context, a *analysis.Analyzer) *action {
	if act, ok := d.actions[a]; ok {
		return act
	}
	act := &action{analyzer: a}
	d.actions[a] = act

	if err := ctx.Err(); err != nil {
		act.err = err
		return act
	}

	inputs := make(map[*analysis.Analyzer]any, len(a.Requires))
	for _, req := range a.Requires {
		dep := d.run(ctx, req)
		if dep.err != nil {
			act.err = fmt.Errorf("%s: prerequisite %s failed: %w", a.Name, req.Name, dep.err)
			return act
		}
		inputs[req] = dep.result
	}
	if err := ctx.Err(); err != nil {
		act.err = err
		return act
	}
	if len(d.unit.TypeErrors) > 0 && !a.RunDespiteErrors {
		act.err = fmt.Errorf("%s: %w", a.Name, errIllTyped)
		return act
	}

	act.result, act.err = d.exec(act, inputs)
	if act.err == nil && a.ResultType != nil && act.result != nil {
		if got := reflect.TypeOf(act.result); got != a.ResultType {
			act.err = fmt.Errorf("%s: result type %v, want %v", a.Name, got, a.ResultType)
		}
	}
	return act
}

func (d *driver) exec(act *action, inputs map[*analysis.Analyzer]any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			act.diags = nil
			result, err = nil, fmt.Errorf("%s: panic: %v\n%s", act.analyzer.Name, p, debug.Stack())
		}
	}()
	return act.analyzer.Run(d.pass(act, inputs))
}

func (d *driver) pass(act *action, inputs map[*analysis.Analyzer]any) *analysis.Pass {
	u := d.unit
	factTypes := make(map[reflect.Type]bool, len(act.analyzer.FactTypes))
	for _, f := range act.analyzer.FactTypes {
		factTypes[reflect.TypeOf(f)] = true
	}

	return &analysis.Pass{
		Analyzer:   act.analyzer,
		Fset:       u.Fset,
		Files:      u.Files,
		Pkg:        u.Pkg,
		TypesInfo:  u.Info,
		TypesSizes: u.Sizes,
		TypeErrors: u.TypeErrors,
		ResultOf:   inputs,
		Report: func(diag analysis.Diagnostic) {
			act.diags = append(act.diags, diag)
		},
		ReadFile: func(filename string) ([]byte, error) {
			if filename != u.Path {
				return nil, fmt.Errorf("%s is not part of the analyzed unit", filename)
			}
			return os.ReadFile(filename)
		},
		ImportObjectFact: func(obj types.Object, fact analysis.Fact) bool {
			stored, ok := d.objectFacts[objectFactKey{obj, reflect.TypeOf(fact)}]
			if ok {
				reflect.ValueOf(fact).Elem().Set(reflect.ValueOf(stored).Elem())
			}
			return ok
		},
		ExportObjectFact: func(obj types.Object, fact analysis.Fact) {
			d.objectFacts[objectFactKey{obj, reflect.TypeOf(fact)}] = fact
		},
		ImportPackageFact: func(pkg *types.Package, fact analysis.Fact) bool {
			stored, ok := d.pkgFacts[packageFactKey{pkg, reflect.TypeOf(fact)}]
			if ok {
				reflect.ValueOf(fact).Elem().Set(reflect.ValueOf(stored).Elem())
			}
			return ok
		},
		ExportPackageFact: func(fact analysis.Fact) {
			d.pkgFacts[packageFactKey{u.Pkg, reflect.TypeOf(fact)}] = fact
		},
		AllObjectFacts: func() []analysis.ObjectFact {
			var facts []analysis.ObjectFact
			for k, f := range d.objectFacts {
				if factTypes[k.typ] {
					facts = append(facts, analysis.ObjectFact{Object: k.obj, Fact: f})
				}
			}
			return facts
		},
		AllPackageFacts: func() []analysis.PackageFact {
			var facts []analysis.PackageFact
			for k, f := range d.pkgFacts {
				if factTypes[k.typ] {
					facts = append(facts, analysis.PackageFact{Package: k.pkg, Fact: f})
				}
			}
			return facts
		},
	}
}
