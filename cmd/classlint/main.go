// Package main provides the classlint binary entry point.
// classlint checks that literal className values in JSX and TSX files start
// with a prefix derived from the file's component name.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/classlint/config"
	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/lint/classprefix"
	"github.com/c360studio/classlint/lint/report"
	"github.com/c360studio/classlint/linter"

	// Register JavaScript and TypeScript parsers via init()
	_ "github.com/c360studio/classlint/processor/ast/ts"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "classlint"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the flags shared by the lint and serve commands.
type options struct {
	configPath string
	prefixType string
	severity   string
	format     string
	include    []string
	exclude    []string
	workers    int
	watch      bool
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "classlint [paths...]",
		Short: "Check JSX className prefixes",
		Long: `classlint checks that every literal className on a JSX element starts
with the component prefix: the default export name (or first class name)
of the file, converted with the configured convention and followed by "__".

Paths may be files, directories or doublestar patterns. The default is ".".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, opts, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&opts.prefixType, "prefix-type", "", "Prefix convention (dash, camelCase, underscore)")
	flags.StringVar(&opts.severity, "severity", "", "Diagnostic severity (error, warning, info)")
	flags.StringSliceVar(&opts.include, "include", nil, "Doublestar pattern of files to lint (repeatable)")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "Doublestar pattern of paths to skip (repeatable)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format (text, json, sarif)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "Files linted in parallel (default: number of CPUs)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-lint files as they change")

	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(initCmd(opts))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setupLogging installs a text handler writing to w at the given level.
func setupLogging(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads layered configuration and applies flags that were set.
func loadConfig(cmd *cobra.Command, opts *options, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("prefix-type") {
		cfg.Rules.ClassPrefix.PrefixType = opts.prefixType
	}
	if changed("severity") {
		cfg.Rules.ClassPrefix.Severity = opts.severity
	}
	if changed("format") {
		cfg.Output.Format = opts.format
	}
	if changed("include") {
		cfg.Lint.Include = opts.include
	}
	if changed("exclude") {
		cfg.Lint.Exclude = opts.exclude
	}
	if changed("workers") {
		cfg.Lint.Workers = opts.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLinter builds a linter running the class-prefix rule.
func newLinter(cfg *config.Config, metrics *linter.Metrics, logger *slog.Logger) (*linter.Linter, error) {
	ruleOpts, err := cfg.ClassPrefixOptions(logger)
	if err != nil {
		return nil, err
	}

	return linter.New(linter.Options{
		Rules:   []lint.Rule{classprefix.New(ruleOpts)},
		Include: cfg.Lint.Include,
		Exclude: cfg.Lint.Exclude,
		Workers: cfg.Lint.Workers,
		Logger:  logger,
		Metrics: metrics,
	})
}

func runLint(cmd *cobra.Command, opts *options, args []string) error {
	logger := setupLogging(opts.logLevel, cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd, opts, logger)
	if err != nil {
		return err
	}

	l, err := newLinter(cfg, nil, logger)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	reporter := report.NewReporter(cmd.OutOrStdout(), format)

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := l.LintPaths(ctx, paths)
	if err != nil {
		return err
	}
	if err := reporter.Report(result); err != nil {
		return err
	}

	if opts.watch {
		root, include := watchScope(paths, cfg.Lint.Include)
		return watch(ctx, l, reporter, root, include, result, cfg.Lint.Exclude, logger)
	}

	return checkResult(result)
}

// checkResult converts problems and failures into the command's error.
func checkResult(result *linter.Result) error {
	if n := result.Problems(); n > 0 {
		return fmt.Errorf("%d problem(s) found", n)
	}
	if n := result.Failures(); n > 0 {
		return fmt.Errorf("%d file(s) could not be linted", n)
	}
	return nil
}
