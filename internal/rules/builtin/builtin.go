// Package builtin is the static registration table of every analyzer
// shipped with the tool.
package builtin

import (
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/kisielk/errcheck/errcheck"
	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/asmdecl"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/ctrlflow"
	"golang.org/x/tools/go/analysis/passes/deepequalerrors"
	"golang.org/x/tools/go/analysis/passes/defers"
	"golang.org/x/tools/go/analysis/passes/directive"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/sigchanyzer"
	"golang.org/x/tools/go/analysis/passes/slog"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/testinggoroutine"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/timeformat"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"golang.org/x/tools/go/analysis/passes/unusedwrite"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/quickfix"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

var goOnly = []string{rules.LanguageGo}

// Registrations returns the full rule table in publication order:
// utility analyzers, vet passes, third-party analyzers, then the
// staticcheck suites.
func Registrations() []rules.Registration {
	table := []rules.Registration{
		utility(inspect.Analyzer),
		utility(ctrlflow.Analyzer),
		utility(buildssa.Analyzer),

		vet(asmdecl.Analyzer, types.LevelError, types.CategoryErrorProne, rules.LanguageGo, "asm"),
		vet(assign.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(atomic.Analyzer, types.LevelError, types.CategoryErrorProne),
		vet(bools.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(buildtag.Analyzer, types.LevelWarning, types.CategoryCompatibility),
		vet(cgocall.Analyzer, types.LevelWarning, types.CategorySecurity),
		vet(composite.Analyzer, types.LevelInfo, types.CategoryCodeStyle),
		vet(copylock.Analyzer, types.LevelError, types.CategoryErrorProne),
		vet(deepequalerrors.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(defers.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(directive.Analyzer, types.LevelInfo, types.CategoryCompatibility),
		vet(errorsas.Analyzer, types.LevelError, types.CategoryErrorProne),
		vet(httpresponse.Analyzer, types.LevelError, types.CategoryErrorProne),
		vet(ifaceassert.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(loopclosure.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(lostcancel.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(nilfunc.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(nilness.Analyzer, types.LevelError, types.CategoryErrorProne),
		vet(printf.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(shadow.Analyzer, types.LevelInfo, types.CategoryCodeStyle),
		vet(shift.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(sigchanyzer.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(slog.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(stdmethods.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(stringintconv.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(structtag.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(testinggoroutine.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(tests.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(timeformat.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(unmarshal.Analyzer, types.LevelError, types.CategoryErrorProne),
		vet(unreachable.Analyzer, types.LevelInfo, types.CategoryUnusedCode),
		vet(unsafeptr.Analyzer, types.LevelWarning, types.CategorySecurity),
		vet(unusedresult.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(unusedwrite.Analyzer, types.LevelInfo, types.CategoryUnusedCode),

		vet(errcheck.Analyzer, types.LevelWarning, types.CategoryErrorProne),
		vet(ineffassign.Analyzer, types.LevelInfo, types.CategoryUnusedCode),
		vet(bodyclose.Analyzer, types.LevelWarning, types.CategoryPerformance),
	}

	table = appendSuite(table, staticcheck.Analyzers, staticcheckClass)
	table = appendSuite(table, simple.Analyzers, codeStyle)
	table = appendSuite(table, stylecheck.Analyzers, codeStyle)
	table = appendSuite(table, quickfix.Analyzers, codeStyle)
	return table
}

func utility(a *analysis.Analyzer) rules.Registration {
	return rules.Registration{Analyzer: a, Languages: goOnly, Utility: true}
}

func vet(a *analysis.Analyzer, lvl types.Level, cat types.Category, langs ...string) rules.Registration {
	if len(langs) == 0 {
		langs = goOnly
	}
	return rules.Registration{Analyzer: a, Languages: langs, Level: lvl, Category: cat}
}

func appendSuite(table []rules.Registration, suite []*lint.Analyzer, class func(id string) (types.Level, types.Category)) []rules.Registration {
	for _, la := range suite {
		if la == nil || la.Analyzer == nil {
			continue
		}
		lvl, cat := class(la.Analyzer.Name)
		table = append(table, vet(la.Analyzer, lvl, cat))
	}
	return table
}

func codeStyle(string) (types.Level, types.Category) {
	return types.LevelInfo, types.CategoryCodeStyle
}

// staticcheckClass maps an SA check to its level and category by group:
// SA4 is useless code, SA5 correctness, SA6 performance.
func staticcheckClass(id string) (types.Level, types.Category) {
	switch {
	case strings.HasPrefix(id, "SA4"):
		return types.LevelInfo, types.CategoryUnusedCode
	case strings.HasPrefix(id, "SA5"):
		return types.LevelError, types.CategoryErrorProne
	case strings.HasPrefix(id, "SA6"):
		return types.LevelWarning, types.CategoryPerformance
	default:
		return types.LevelWarning, types.CategoryErrorProne
	}
}
