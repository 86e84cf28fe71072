// Package chtl is the public entry point for compiling CHTL sources to
// HTML, CSS, and JavaScript. It owns all filesystem access; every
// internal package below it (lexer, parser, resolver, generator) is
// filesystem-agnostic and driven entirely through its Go API.
package chtl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/cache"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/exitcode"
	"github.com/chtl-lang/chtl/internal/generator"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/parser"
	"github.com/chtl-lang/chtl/internal/resolver"
	"github.com/chtl-lang/chtl/internal/roundtrip"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/symbols"
)

// Options configures a compile job.
type Options struct {
	// Minify disables pretty-printing in the generated HTML/CSS/JS.
	Minify bool
	// IndentSize is the number of spaces per nesting level when Minify
	// is false. Zero means the generator's own default.
	IndentSize int
	// Validate runs the generated output back through the real HTML,
	// CSS, and JS grammars (internal/roundtrip) before returning,
	// failing the job if any of the three is malformed.
	Validate bool
	// Debug enables note-level diagnostics (logger.NewLog's debug flag).
	// It is also passed to state.NewMachine as the machine's strict flag.
	Debug bool
}

// Result is a finished compile job: its outputs and diagnostics.
type Result struct {
	Output Output
	Log    *logger.Log
}

// Output mirrors generator.Output so callers never need to import the
// internal package directly.
type Output = generator.Output

// CompileString compiles src as if it were the file at prettyPath
// (used only for diagnostic messages; imports are resolved relative to
// its directory). It performs no filesystem access beyond resolving
// import clauses reachable from src.
func CompileString(prettyPath, src string, opts Options) (Result, error) {
	job := newJob(opts)
	source := &logger.Source{PrettyPath: prettyPath, Contents: src}
	arena, root, err := job.parseAndResolve(source, filepath.Dir(prettyPath))
	if err != nil {
		return Result{Log: job.log}, err
	}
	return job.finish(arena, root)
}

// CompileFile reads path from disk and compiles it, resolving any
// `from "..."` import clause relative to path's directory.
func CompileFile(path string, opts Options) (Result, error) {
	job := newJob(opts)
	contents, err := os.ReadFile(path)
	if err != nil {
		return Result{Log: job.log}, exitcode.IO(fmt.Errorf("chtl: reading %s: %w", path, err))
	}
	source := &logger.Source{PrettyPath: path, Contents: string(contents)}
	arena, root, err := job.parseAndResolve(source, filepath.Dir(path))
	if err != nil {
		return Result{Log: job.log}, err
	}
	return job.finish(arena, root)
}

// job holds the state one compile job threads through parsing,
// resolution, and generation: a single symbol table and parse cache
// shared across every file the job touches. A job is the unit of
// sharing; nothing here is safe to reuse across jobs run concurrently.
type job struct {
	opts  Options
	log   *logger.Log
	cfg   *config.Engine
	syms  *symbols.Map
	cache *cache.ParseCache
}

func newJob(opts Options) *job {
	log := logger.NewLog(opts.Debug)
	return &job{
		opts:  opts,
		log:   log,
		cfg:   config.NewEngine(log),
		syms:  symbols.NewMap(),
		cache: cache.NewParseCache(0),
	}
}

func (j *job) parseAndResolve(source *logger.Source, baseDir string) (*ast.Arena, ast.Ref, error) {
	machine := state.NewMachine(j.opts.Debug)
	arena, root, err := parser.Parse(j.log, source, j.cfg, machine, parser.Options{})
	if err != nil {
		return nil, ast.RefNil, exitcode.Set(fmt.Errorf("chtl: parsing %s: %w", source.PrettyPath, err), exitcode.CompileErrors)
	}

	res := resolver.New(j.log, source, j.cfg, j.syms, arena, j.makeLoader(baseDir))
	if err := res.Resolve(root); err != nil {
		return nil, ast.RefNil, exitcode.Set(fmt.Errorf("chtl: resolving %s: %w", source.PrettyPath, err), exitcode.CompileErrors)
	}
	if j.log.HasErrors() {
		return nil, ast.RefNil, exitcode.Set(fmt.Errorf("chtl: %s has compile errors", source.PrettyPath), exitcode.CompileErrors)
	}
	return arena, root, nil
}

// makeLoader returns the resolver.Loader used to satisfy import
// clauses: it reads the target file from disk, parses it against this
// job's shared config/symbol state, and memoizes the parse by content
// hash so a file imported under two different namespaces is only
// parsed once.
func (j *job) makeLoader(baseDir string) resolver.Loader {
	return func(canonicalPath string) (*ast.Arena, ast.Ref, error) {
		path := canonicalPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, ast.RefNil, exitcode.IO(fmt.Errorf("chtl: reading import %s: %w", path, err))
		}
		entry := j.cache.GetOrParse(path, string(contents), func() (*ast.Arena, ast.Ref, error) {
			source := &logger.Source{PrettyPath: path, Contents: string(contents)}
			machine := state.NewMachine(j.opts.Debug)
			return parser.Parse(j.log, source, j.cfg, machine, parser.Options{})
		})
		return entry.Arena, entry.Root, entry.Err
	}
}

func (j *job) finish(arena *ast.Arena, root ast.Ref) (Result, error) {
	out := generator.Generate(arena, j.cfg, root, generator.Options{
		Minify:     j.opts.Minify,
		IndentSize: j.opts.IndentSize,
	})
	if j.opts.Validate {
		if err := validateOutput(out); err != nil {
			return Result{Output: out, Log: j.log}, exitcode.Internal(err)
		}
	}
	return Result{Output: out, Log: j.log}, nil
}

func validateOutput(out Output) error {
	if out.HTML != "" {
		if err := roundtrip.Validate(roundtrip.HTML, out.HTML); err != nil {
			return err
		}
	}
	if out.CSS != "" {
		if err := roundtrip.Validate(roundtrip.CSS, out.CSS); err != nil {
			return err
		}
	}
	if out.JS != "" {
		if err := roundtrip.Validate(roundtrip.JS, out.JS); err != nil {
			return err
		}
	}
	return nil
}
