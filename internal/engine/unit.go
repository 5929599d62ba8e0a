package engine

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"runtime"
	"sync"
)

// Unit is a minimal compilable unit: one parsed and type-checked file.
// Type errors are tolerated and kept in TypeErrors; Pkg and Info describe
// whatever the checker could resolve.
type Unit struct {
	Name       string // reported file name, relative to the source root
	Path       string // file path on disk
	Fset       *token.FileSet
	Files      []*ast.File
	Pkg        *types.Package
	Info       *types.Info
	Sizes      types.Sizes
	TypeErrors []types.Error
}

// compiler owns a file set and a source importer. Importers cache the
// packages they load and are not safe for concurrent use, so compilers are
// pooled and each compile holds one exclusively.
type compiler struct {
	fset *token.FileSet
	imp  types.Importer
}

func newCompiler() *compiler {
	fset := token.NewFileSet()
	return &compiler{fset: fset, imp: importer.ForCompiler(fset, "source", nil)}
}

var compilers = sync.Pool{New: func() any { return newCompiler() }}

// fileSetLimit is the file set size past which a compiler is retired
// instead of pooled. A file set only grows, so retiring is what releases
// the memory of files parsed earlier in a batch.
var fileSetLimit = 64 << 20

func releaseCompiler(c *compiler) {
	if c.fset.Base() < fileSetLimit {
		compilers.Put(c)
	}
}

// Compile parses and type-checks the file at path. Read and parse errors
// are returned; the unit is only usable when err is nil.
func Compile(path, name string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return CompileSource(path, name, src)
}

// CompileSource builds a unit from in-memory source.
func CompileSource(path, name string, src []byte) (*Unit, error) {
	c := compilers.Get().(*compiler)
	defer releaseCompiler(c)

	f, err := parser.ParseFile(c.fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	u := &Unit{
		Name:  name,
		Path:  path,
		Fset:  c.fset,
		Files: []*ast.File{f},
		Sizes: types.SizesFor("gc", runtime.GOARCH),
		Info: &types.Info{
			Types:        make(map[ast.Expr]types.TypeAndValue),
			Instances:    make(map[*ast.Ident]types.Instance),
			Defs:         make(map[*ast.Ident]types.Object),
			Uses:         make(map[*ast.Ident]types.Object),
			Implicits:    make(map[ast.Node]types.Object),
			Selections:   make(map[*ast.SelectorExpr]*types.Selection),
			Scopes:       make(map[ast.Node]*types.Scope),
			FileVersions: make(map[*ast.File]string),
		},
	}

	conf := types.Config{
		Importer: c.imp,
		Sizes:    u.Sizes,
		Error: func(err error) {
			var terr types.Error
			if errors.As(err, &terr) {
				u.TypeErrors = append(u.TypeErrors, terr)
			}
		},
	}
	// The checker reports problems through conf.Error; the package is
	// returned even when the file does not type-check.
	u.Pkg, _ = conf.Check(f.Name.Name, c.fset, u.Files, u.Info)
	if u.Pkg == nil {
		return nil, fmt.Errorf("type-checking %s: no package", name)
	}
	return u, nil
}
