package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/classlint/lint/report"
	"github.com/c360studio/classlint/linter"
	"github.com/c360studio/classlint/processor/ast"
)

// watchScope returns the directory to watch and the patterns, relative to
// it, selecting the files to re-lint. The first directory among paths is
// watched with the configured include patterns. Without a directory the
// working directory is watched, limited to the given files and globs.
func watchScope(paths, include []string) (string, []string) {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if len(include) == 0 {
				include = linter.DefaultInclude
			}
			return p, include
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	patterns := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.IsAbs(p) {
			if rel, err := filepath.Rel(cwd, p); err == nil {
				p = rel
			}
		}
		patterns = append(patterns, filepath.ToSlash(filepath.Clean(p)))
	}
	return ".", patterns
}

// watch re-lints files below root as they change until ctx is cancelled.
// Files whose content matches the initial run are not reported again.
func watch(
	ctx context.Context,
	l *linter.Linter,
	reporter *report.Reporter,
	root string,
	include []string,
	initial *linter.Result,
	exclude []string,
	logger *slog.Logger,
) error {
	if exclude == nil {
		exclude = linter.DefaultExclude
	}

	w, err := ast.NewWatcher(ast.WatcherConfig{
		Root:    root,
		Include: include,
		Exclude: exclude,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := w.Stop(); err != nil {
			logger.Warn("Failed to stop watcher", "error", err)
		}
	}()

	for _, fr := range initial.Files {
		if fr.Hash == "" {
			continue
		}
		if rel, err := filepath.Rel(root, fr.Path); err == nil && !strings.HasPrefix(rel, "..") {
			w.SetHash(rel, fr.Hash)
		}
	}

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if err := handleWatchEvent(l, reporter, ev, logger); err != nil {
				return err
			}
		}
	}
}

// handleWatchEvent lints and reports one changed file.
func handleWatchEvent(l *linter.Linter, reporter *report.Reporter, ev ast.WatchEvent, logger *slog.Logger) error {
	switch {
	case ev.Error != nil:
		logger.Warn("Failed to parse changed file", "path", ev.Path, "error", ev.Error)
		return nil
	case ev.Operation == ast.OpDelete:
		logger.Info("File removed", "path", ev.Path)
		return nil
	case ev.Result == nil:
		return nil
	}
	defer ev.Result.Close()

	fr := l.LintParsed(ev.Result)
	logger.Info("File linted",
		"path", fr.Path,
		"op", ev.Operation,
		"problems", len(fr.Diagnostics))

	return reporter.ReportFile(fr)
}
