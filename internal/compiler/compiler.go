// Package compiler implements the two-pass multi-file compile driver
// (original_source `lib/src/options/commands/compile.cc`: parse every
// file, continuing past per-file lex/parse errors to collect as many
// diagnostics as possible, then scan definitions across the whole set
// before evaluating). The embedding API's evaluate_file (spec §4.9)
// exposes a single-file entry point built on top of this driver.
package compiler

import (
	"strings"

	"github.com/puppetlabs/puppetlang/catalog"
	"github.com/puppetlabs/puppetlang/internal/eval"
	"github.com/puppetlabs/puppetlang/internal/registry"
	"github.com/puppetlabs/puppetlang/internal/runtime"
	"github.com/puppetlabs/puppetlang/internal/validate"
	"github.com/puppetlabs/puppetlang/internal/values"
	"github.com/puppetlabs/puppetlang/logging"
	"github.com/puppetlabs/puppetlang/syntax/ast"
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/parser"
)

// Source is one manifest to compile, identified by path for diagnostics.
type Source struct {
	Path string
	Text []byte
}

// Session holds the state shared across every file compiled together: the
// fact source seeding the root scope, the log sink diagnostics and
// builtin log functions write to, and any host-defined functions to
// install ahead of evaluation (spec §4.9 "define_function").
type Session struct {
	Facts     runtime.FactSource
	Log       logging.Sink
	HostFuncs map[string]eval.BuiltinFunc
}

// NewSession creates a Session. facts may be nil (an empty root scope).
func NewSession(facts runtime.FactSource, log logging.Sink) *Session {
	return &Session{Facts: facts, Log: log}
}

// Result is the outcome of compiling one batch of sources: the catalog
// built by evaluating them (nil if a file failed to parse or validate),
// and every diagnostic collected across parsing, validation, scanning,
// and evaluation.
type Result struct {
	Catalog *catalog.Catalog
	Value   values.Value
	Errors  errors.List
}

// CompileFile compiles a single manifest (spec §4.9 "evaluate file (path)
// → value or exception").
func (s *Session) CompileFile(path string, text []byte) *Result {
	return s.Compile([]Source{{Path: path, Text: text}})
}

// Compile runs the full pipeline over every source: parse all (continuing
// past per-file errors), validate all, scan definitions from all files
// into one registry, then evaluate each file's top-level statements in
// order against a single shared catalog and context, finalizing once at
// the end (spec §4.4 "Definition scanner", §4.7 "Evaluator").
func (s *Session) Compile(sources []Source) *Result {
	res := &Result{Value: values.Undef{}}

	files := make([]*ast.File, 0, len(sources))
	for _, src := range sources {
		parse := parser.ParseFile
		if strings.HasSuffix(src.Path, ".epp") {
			parse = parser.ParseEPP
		}
		f, perrs := parse(src.Path, src.Text)
		res.Errors = append(res.Errors, perrs...)
		if len(perrs) > 0 {
			continue
		}
		res.Errors = append(res.Errors, validate.File(f)...)
		files = append(files, f)
	}
	if len(files) == 0 {
		return res
	}

	reg := registry.New()
	for _, f := range files {
		if serrs := registry.Scan(reg, f); len(serrs) > 0 {
			res.Errors = append(res.Errors, serrs...)
		}
	}
	if len(res.Errors) > 0 {
		return res
	}

	cat := catalog.New()
	root := runtime.NewRootScope(s.Facts)
	ctx := runtime.NewContext(root)
	ev := eval.New(reg, cat, ctx, s.Log)
	for name, fn := range s.HostFuncs {
		ev.Funcs.RegisterHost(name, fn)
	}

	var last values.Value = values.Undef{}
	for _, f := range files {
		if f.IsEPP {
			ctx.PushStream()
			_, err := ev.EvalStatements(f.Statements)
			out := ctx.PopStream()
			if err != nil {
				break
			}
			last = values.Str(out)
			continue
		}
		v, err := ev.EvalStatements(f.Statements)
		if err != nil {
			break
		}
		last = v
	}
	if errs := ev.Errors(); len(errs) == 0 {
		res.Errors = append(res.Errors, ev.Finalize()...)
	} else {
		res.Errors = append(res.Errors, errs...)
	}
	if len(res.Errors) > 0 {
		return res
	}

	if cycles := cat.DetectCycles(); len(cycles) > 0 {
		for _, c := range cycles {
			res.Errors = res.Errors.Add(c)
		}
		return res
	}

	res.Catalog = cat
	res.Value = last
	return res
}

// Err returns a single combined error for the result, or nil if
// compilation produced no diagnostics.
func (r *Result) Err() error {
	return r.Errors.Err()
}
