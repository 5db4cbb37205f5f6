package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/classlint/config"
	"github.com/c360studio/classlint/linter"
	"github.com/c360studio/classlint/processor/ast"
	classnamelinter "github.com/c360studio/classlint/processor/classname-linter"
)

// lintSubjects are the subjects stored in the lint stream.
var lintSubjects = []string{"lint.>"}

func serveCmd(opts *options) *cobra.Command {
	var (
		natsURL     string
		metricsAddr string
		repoPath    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lint requests over NATS JetStream",
		Long: `serve consumes lint requests from lint.request.> and publishes results to
lint.result.<request_id>. File paths in requests are resolved against --repo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("log-level") {
				opts.logLevel = "info"
			}
			return runServe(cmd, opts, natsURL, metricsAddr, repoPath)
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL (overrides NATS_URL and config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().StringVar(&repoPath, "repo", ".", "Repository path request files are resolved against")

	return cmd
}

func runServe(cmd *cobra.Command, opts *options, natsURL, metricsAddr, repoPath string) error {
	logger := setupLogging(opts.logLevel, cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd, opts, logger)
	if err != nil {
		return err
	}

	absRepoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("resolve repo path: %w", err)
	}
	info, err := os.Stat(absRepoPath)
	if err != nil {
		return fmt.Errorf("stat repo path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absRepoPath)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	natsClient, err := connectToNATS(ctx, resolveNATSURL(natsURL, cfg), logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(context.Background())

	if err := ensureStream(ctx, natsClient, cfg.NATS.Stream, logger); err != nil {
		return err
	}

	var metrics *linter.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = linter.NewMetrics(reg)

		srv := startMetricsServer(metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to stop metrics server", "error", err)
			}
		}()
	}

	comp, err := classnamelinter.New(processorConfig(cfg, absRepoPath), component.Dependencies{
		NATSClient: natsClient,
		Logger:     logger,
	}, metrics)
	if err != nil {
		return fmt.Errorf("create classname-linter: %w", err)
	}
	if err := comp.Initialize(); err != nil {
		return fmt.Errorf("initialize classname-linter: %w", err)
	}
	if err := comp.Start(ctx); err != nil {
		return fmt.Errorf("start classname-linter: %w", err)
	}

	slog.Info("classlint serving lint requests",
		"version", Version,
		"languages", ast.DefaultRegistry.Languages(),
		"repo_path", absRepoPath,
		"stream", cfg.NATS.Stream)

	<-ctx.Done()
	slog.Info("Received shutdown signal")

	if err := comp.Stop(30 * time.Second); err != nil {
		slog.Error("Error stopping classname-linter", "error", err)
	}

	slog.Info("classlint shutdown complete")
	return nil
}

// processorConfig maps the file configuration onto the processor's config.
func processorConfig(cfg *config.Config, repoPath string) classnamelinter.Config {
	pc := classnamelinter.DefaultConfig()
	pc.StreamName = cfg.NATS.Stream
	pc.RepoPath = repoPath
	pc.PrefixType = cfg.Rules.ClassPrefix.PrefixType
	pc.Severity = cfg.Rules.ClassPrefix.Severity
	pc.Include = cfg.Lint.Include
	pc.Exclude = cfg.Lint.Exclude
	for i := range pc.Ports.Inputs {
		pc.Ports.Inputs[i].StreamName = cfg.NATS.Stream
	}
	for i := range pc.Ports.Outputs {
		pc.Ports.Outputs[i].StreamName = cfg.NATS.Stream
	}
	return pc
}

// resolveNATSURL picks the NATS URL: flag, then NATS_URL, then config.
func resolveNATSURL(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("NATS_URL"); env != "" {
		return env
	}
	return cfg.NATS.URL
}

func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS with JetStream:
  docker run -p 4222:4222 nats -js

Or set NATS_URL environment variable to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// ensureStream creates or updates the stream holding lint requests and results.
func ensureStream(ctx context.Context, natsClient *natsclient.Client, name string, logger *slog.Logger) error {
	js, err := natsClient.JetStream()
	if err != nil {
		return fmt.Errorf("get jetstream: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     name,
		Subjects: lintSubjects,
		Storage:  jetstream.FileStorage,
		MaxAge:   24 * time.Hour,
	}); err != nil {
		return fmt.Errorf("ensure stream %s: %w", name, err)
	}

	logger.Debug("JetStream stream ready", "stream", name)
	return nil
}

// startMetricsServer serves reg on addr at /metrics in the background.
func startMetricsServer(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	return srv
}
