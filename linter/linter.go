// Package linter runs classlint rules over source files.
//
// A Linter parses each file with the parser registered for its extension,
// hands every rule a fresh visitor for the file, and walks the tree once.
// Directories and glob patterns are expanded and linted on a bounded pool of
// workers; results are returned sorted by path.
package linter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/processor/ast"
)

var (
	// ErrNoRules is returned by New when no rule is configured.
	ErrNoRules = errors.New("no lint rules configured")

	// ErrUnsupported is returned for files without a registered parser.
	ErrUnsupported = errors.New("unsupported file type")
)

// DefaultInclude selects JavaScript and TypeScript sources.
var DefaultInclude = []string{"**/*.{js,jsx,ts,tsx,mjs,cjs,mts,cts}"}

// DefaultExclude skips dependency and build output directories.
var DefaultExclude = []string{"**/node_modules/**", "**/dist/**", "**/build/**"}

// Options configures a Linter.
type Options struct {
	// Rules to run on every file. At least one is required.
	Rules []lint.Rule

	// Registry selects parsers by extension. Defaults to ast.DefaultRegistry.
	Registry *ast.ParserRegistry

	// Root is the directory result paths are made relative to.
	// Empty keeps paths as given.
	Root string

	// Include and Exclude are doublestar patterns matched against slash
	// separated paths relative to the directory being walked.
	Include []string
	Exclude []string

	// Workers bounds concurrent file linting. Defaults to runtime.NumCPU().
	Workers int

	Logger  *slog.Logger
	Metrics *Metrics
}

// FileResult is the outcome of linting one file.
type FileResult struct {
	Path        string            `json:"path"`
	Language    string            `json:"language,omitempty"`
	Hash        string            `json:"hash,omitempty"`
	HasErrors   bool              `json:"has_syntax_errors,omitempty"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`

	// Err is set when the file could not be read or parsed.
	Err error `json:"-"`
}

// Result is the outcome of linting a set of files.
type Result struct {
	Files []FileResult
}

// Problems returns the total number of diagnostics.
func (r *Result) Problems() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Diagnostics)
	}
	return n
}

// Failures returns the number of files that could not be linted.
func (r *Result) Failures() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Diagnostics returns all diagnostics, file by file.
func (r *Result) Diagnostics() []lint.Diagnostic {
	var all []lint.Diagnostic
	for _, f := range r.Files {
		all = append(all, f.Diagnostics...)
	}
	return all
}

// Linter runs rules over files. It is safe for concurrent use.
type Linter struct {
	rules    []lint.Rule
	registry *ast.ParserRegistry
	root     string
	include  []string
	exclude  []string
	workers  int
	logger   *slog.Logger
	metrics  *Metrics
}

// New creates a Linter from opts.
func New(opts Options) (*Linter, error) {
	if len(opts.Rules) == 0 {
		return nil, ErrNoRules
	}

	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
	}

	registry := opts.Registry
	if registry == nil {
		registry = ast.DefaultRegistry
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Linter{
		rules:    opts.Rules,
		registry: registry,
		root:     opts.Root,
		include:  include,
		exclude:  exclude,
		workers:  workers,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// LintFile parses and lints a single file. Read and parse failures are
// returned as errors and also recorded on the result.
func (l *Linter) LintFile(ctx context.Context, path string) (FileResult, error) {
	start := time.Now()

	parser, err := l.parserFor(path)
	if err != nil {
		return l.failed(path, err, start), err
	}

	parsed, err := parser.ParseFile(ctx, path)
	if err != nil {
		err = fmt.Errorf("parse %s: %w", path, err)
		return l.failed(path, err, start), err
	}
	defer parsed.Close()

	fr := l.LintParsed(parsed)
	l.metrics.observe(fr, time.Since(start))
	return fr, nil
}

// LintSource lints in-memory source. The grammar is chosen by the extension
// of name, which is also used as the path of the result.
func (l *Linter) LintSource(ctx context.Context, name string, src []byte) (FileResult, error) {
	start := time.Now()

	parser, err := l.parserFor(name)
	if err != nil {
		return l.failed(name, err, start), err
	}

	parsed, err := parser.ParseSource(ctx, name, src)
	if err != nil {
		err = fmt.Errorf("parse %s: %w", name, err)
		return l.failed(name, err, start), err
	}
	defer parsed.Close()

	fr := l.LintParsed(parsed)
	l.metrics.observe(fr, time.Since(start))
	return fr, nil
}

// LintParsed runs every rule over an already parsed file. The caller keeps
// ownership of parsed.
func (l *Linter) LintParsed(parsed *ast.ParseResult) FileResult {
	var collector lint.Collector

	visitors := make(lint.MultiVisitor, 0, len(l.rules))
	for _, rule := range l.rules {
		visitors = append(visitors, rule.NewVisitor(collector.Report))
	}
	parsed.Walk(visitors)

	if parsed.HasErrors {
		l.logger.Debug("Parsed with syntax errors", "path", parsed.Path)
	}

	return FileResult{
		Path:        parsed.Path,
		Language:    parsed.Language,
		Hash:        parsed.Hash,
		HasErrors:   parsed.HasErrors,
		Diagnostics: collector.Diagnostics(),
	}
}

// LintPaths lints files, directories and doublestar glob patterns.
// Directories are walked recursively; hidden directories are skipped.
// Per-file failures are recorded on the result. The returned error is
// non-nil only when ctx is cancelled or a path cannot be expanded.
func (l *Linter) LintPaths(ctx context.Context, paths []string) (*Result, error) {
	files, err := l.Expand(paths)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr, err := l.LintFile(gctx, file)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				l.logger.Warn("Failed to lint file", "path", file, "error", err)
			}
			results[i] = fr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	l.logger.Debug("Lint run complete",
		"files", len(results),
		"problems", (&Result{Files: results}).Problems())

	return &Result{Files: results}, nil
}

// Expand resolves paths into the sorted, de-duplicated list of files to lint.
// Explicit file arguments bypass the include patterns but not the excludes.
func (l *Linter) Expand(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		if hasGlobMeta(path) {
			matches, err := doublestar.FilepathGlob(path)
			if err != nil {
				return nil, fmt.Errorf("expand %q: %w", path, err)
			}
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && !info.IsDir() &&
					l.registry.Supports(m) && !l.excluded(filepath.ToSlash(m)) {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.IsDir() {
			if !l.excluded(filepath.ToSlash(filepath.Clean(path))) {
				add(path)
			}
			continue
		}

		if err := l.walkDir(path, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// walkDir adds the selected files below dir.
func (l *Linter) walkDir(dir string, add func(string)) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || l.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if l.selected(rel) && l.registry.Supports(path) {
			add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	return nil
}

// selected reports whether a walked file matches an include pattern and no
// exclude pattern.
func (l *Linter) selected(rel string) bool {
	if l.excluded(rel) {
		return false
	}
	for _, pattern := range l.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l *Linter) excluded(rel string) bool {
	for _, pattern := range l.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l *Linter) parserFor(path string) (ast.FileParser, error) {
	ext := filepath.Ext(path)
	if !l.registry.Supports(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return l.registry.CreateParserForExtension(ext, l.root)
}

func (l *Linter) failed(path string, err error, start time.Time) FileResult {
	if l.root != "" {
		if rel, relErr := filepath.Rel(l.root, path); relErr == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	fr := FileResult{Path: filepath.ToSlash(path), Err: err}
	l.metrics.observe(fr, time.Since(start))
	return fr
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
