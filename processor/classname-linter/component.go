// Package classnamelinter provides a JetStream processor that runs the
// class-prefix check on request. It consumes LintRequest messages, lints the
// named repository files and inline sources, and publishes a LintResult.
package classnamelinter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/lint/classprefix"
	"github.com/c360studio/classlint/lint/convention"
	"github.com/c360studio/classlint/linter"

	// JavaScript and TypeScript parsers
	_ "github.com/c360studio/classlint/processor/ast/ts"
)

// errOutsideRepo is recorded for request paths that leave the repo path.
var errOutsideRepo = errors.New("path is outside the repository")

// Component implements the classname-linter processor.
type Component struct {
	name       string
	config     Config
	repoPath   string
	natsClient *natsclient.Client
	logger     *slog.Logger
	linter     *linter.Linter

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	cancel    context.CancelFunc
	consuming jetstream.ConsumeContext
	inflight  sync.WaitGroup

	requestsProcessed atomic.Int64
	requestsPassed    atomic.Int64
	requestsFailed    atomic.Int64
	errorsCount       atomic.Int64
	bytesConsumed     atomic.Int64
	lastActivity      atomic.Int64 // unix nanoseconds
}

// NewComponent constructs a classname-linter Component from raw JSON config
// and semstreams dependencies.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return New(config, deps, nil)
}

// New constructs a Component from a decoded config. Unset fields take their
// defaults. metrics may be nil.
func New(config Config, deps component.Dependencies, metrics *linter.Metrics) (*Component, error) {
	defaults := DefaultConfig()
	if config.StreamName == "" {
		config.StreamName = defaults.StreamName
	}
	if config.ConsumerName == "" {
		config.ConsumerName = defaults.ConsumerName
	}
	if config.PrefixType == "" {
		config.PrefixType = defaults.PrefixType
	}
	if config.Severity == "" {
		config.Severity = defaults.Severity
	}
	if config.Ports == nil {
		config.Ports = defaults.Ports
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := deps.GetLogger()
	repoPath := resolveRepoPath(config.RepoPath)

	severity, err := lint.ParseSeverity(config.Severity)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	kind, ok := convention.ParseKind(config.PrefixType)
	if !ok {
		logger.Warn("Unknown prefix_type, component names are used unchanged",
			"prefix_type", config.PrefixType)
	}

	l, err := linter.New(linter.Options{
		Rules:   []lint.Rule{classprefix.New(classprefix.Options{PrefixType: kind, Severity: severity})},
		Root:    repoPath,
		Include: config.Include,
		Exclude: config.Exclude,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create linter: %w", err)
	}

	return &Component{
		name:       "classname-linter",
		config:     config,
		repoPath:   repoPath,
		natsClient: deps.NATSClient,
		logger:     logger,
		linter:     l,
	}, nil
}

// resolveRepoPath determines the effective repository root.
// Priority: explicit config → CLASSLINT_REPO_PATH env var → working directory.
func resolveRepoPath(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("CLASSLINT_REPO_PATH"); env != "" {
		return env
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// Initialize prepares the component for startup.
func (c *Component) Initialize() error {
	c.logger.Debug("Initialized classname-linter",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"repo_path", c.repoPath,
		"prefix_type", c.config.PrefixType)
	return nil
}

// Start waits for the request stream, then consumes LintRequest messages
// until Stop is called or ctx is cancelled.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		return fmt.Errorf("NATS client required")
	}

	js, err := c.natsClient.JetStream()
	if err != nil {
		return fmt.Errorf("get jetstream: %w", err)
	}
	if err := c.waitForStream(ctx, js); err != nil {
		return err
	}

	subject := c.config.requestSubject()
	consumer, err := js.CreateOrUpdateConsumer(ctx, c.config.StreamName, jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       2 * time.Minute,
		MaxDeliver:    3,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", c.config.ConsumerName, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	consuming, err := consumer.Consume(func(msg jetstream.Msg) {
		c.dispatch(runCtx, msg)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("consume %s: %w", subject, err)
	}

	c.cancel = cancel
	c.consuming = consuming
	c.running = true
	c.startTime = time.Now()

	c.logger.Info("classname-linter started",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"subject", subject)

	return nil
}

// dispatch handles msg unless the component is stopping, in which case the
// message is returned for redelivery. Requests are counted as in flight
// under the lifecycle lock.
func (c *Component) dispatch(ctx context.Context, msg jetstream.Msg) {
	c.mu.RLock()
	if !c.running {
		c.mu.RUnlock()
		if err := msg.Nak(); err != nil {
			c.logger.Warn("Failed to NAK message", "error", err)
		}
		return
	}
	c.inflight.Add(1)
	c.mu.RUnlock()

	defer c.inflight.Done()
	c.handleMessage(ctx, msg)
}

// waitForStream polls until the configured stream exists, backing off
// between attempts.
func (c *Component) waitForStream(ctx context.Context, js jetstream.JetStream) error {
	const attempts = 30
	interval := 100 * time.Millisecond

	for i := range attempts {
		if _, err := js.Stream(ctx, c.config.StreamName); err == nil {
			return nil
		}
		c.logger.Debug("Stream not yet available, retrying",
			"stream", c.config.StreamName,
			"attempt", i+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			interval = min(interval*2, 2*time.Second)
		}
	}
	return fmt.Errorf("stream %s not found after %d attempts", c.config.StreamName, attempts)
}

// handleMessage processes a single LintRequest message.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	c.requestsProcessed.Add(1)
	c.bytesConsumed.Add(int64(len(msg.Data())))
	c.lastActivity.Store(time.Now().UnixNano())

	req, err := parseRequest(msg.Data())
	if err != nil {
		c.errorsCount.Add(1)
		c.logger.Error("Failed to parse lint request", "error", err)
		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Warn("Failed to NAK message", "error", nakErr)
		}
		return
	}

	if err := req.Validate(); err != nil {
		c.logger.Error("Invalid lint request", "request_id", req.RequestID, "error", err)
		// ACK invalid requests; they will not succeed on retry.
		if ackErr := msg.Ack(); ackErr != nil {
			c.logger.Warn("Failed to ACK invalid message", "error", ackErr)
		}
		return
	}

	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	c.logger.Info("Processing lint request",
		"request_id", req.RequestID,
		"files", len(req.Files),
		"sources", len(req.Sources))

	result := c.lint(ctx, req)
	if result.Passed {
		c.requestsPassed.Add(1)
	} else {
		c.requestsFailed.Add(1)
	}

	if err := c.publishResult(ctx, result); err != nil {
		c.errorsCount.Add(1)
		c.logger.Error("Failed to publish lint result",
			"request_id", req.RequestID,
			"error", err)
		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Warn("Failed to NAK message", "error", nakErr)
		}
		return
	}

	if ackErr := msg.Ack(); ackErr != nil {
		c.logger.Warn("Failed to ACK message", "error", ackErr)
	}

	c.logger.Info("Lint request completed",
		"request_id", req.RequestID,
		"passed", result.Passed,
		"problems", result.Problems)
}

// parseRequest decodes a BaseMessage envelope carrying a LintRequest.
func parseRequest(data []byte) (*LintRequest, error) {
	var baseMsg message.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	payloadBytes, err := json.Marshal(baseMsg.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var req LintRequest
	if err := json.Unmarshal(payloadBytes, &req); err != nil {
		return nil, fmt.Errorf("unmarshal lint request: %w", err)
	}
	return &req, nil
}

// lint runs the check over every file and source in req. Per-file failures
// are recorded on the result and fail it.
func (c *Component) lint(ctx context.Context, req *LintRequest) *LintResult {
	result := &LintResult{RequestID: req.RequestID, Files: []FileReport{}}
	failures := 0

	add := func(fr linter.FileResult) {
		report := FileReport{Path: fr.Path, Diagnostics: fr.Diagnostics}
		if report.Diagnostics == nil {
			report.Diagnostics = []lint.Diagnostic{}
		}
		if fr.Err != nil {
			report.Error = fr.Err.Error()
			failures++
		}
		result.Problems += len(fr.Diagnostics)
		result.Files = append(result.Files, report)
	}

	for _, file := range req.Files {
		paths, err := c.expand(file)
		if err != nil {
			add(linter.FileResult{Path: filepath.ToSlash(file), Err: err})
			continue
		}
		for _, path := range paths {
			fr, err := c.linter.LintFile(ctx, path)
			if err != nil {
				c.logger.Warn("Failed to lint file", "path", path, "error", err)
			}
			add(fr)
		}
	}

	for _, src := range req.Sources {
		fr, err := c.linter.LintSource(ctx, src.Name, []byte(src.Content))
		if err != nil {
			c.logger.Warn("Failed to lint source", "name", src.Name, "error", err)
		}
		add(fr)
	}

	result.Passed = result.Problems == 0 && failures == 0
	return result
}

// expand resolves a request path against the repo path. Directories and
// glob patterns expand to the files they select.
func (c *Component) expand(file string) ([]string, error) {
	if !filepath.IsLocal(file) {
		return nil, errOutsideRepo
	}
	return c.linter.Expand([]string{filepath.Join(c.repoPath, file)})
}

// publishResult publishes a LintResult to JetStream.
// Subject: lint.result.<request_id>
func (c *Component) publishResult(ctx context.Context, result *LintResult) error {
	baseMsg := message.NewBaseMessage(result.Schema(), result, c.name)

	data, err := json.Marshal(baseMsg)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := c.natsClient.PublishToStream(ctx, c.config.resultSubject(result.RequestID), data); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Stop stops consuming and waits up to timeout for in-flight requests.
func (c *Component) Stop(timeout time.Duration) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	consuming := c.consuming
	cancel := c.cancel
	c.mu.Unlock()

	consuming.Stop()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = fmt.Errorf("timed out after %s waiting for in-flight requests", timeout)
	}
	cancel()

	c.logger.Info("classname-linter stopped",
		"requests_processed", c.requestsProcessed.Load(),
		"requests_passed", c.requestsPassed.Load(),
		"requests_failed", c.requestsFailed.Load(),
		"errors", c.errorsCount.Load())

	return err
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        c.name,
		Type:        "processor",
		Description: "Checks JSX className values against the component name prefix",
		Version:     "0.1.0",
	}
}

// InputPorts returns the configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}
	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, def := range c.config.Ports.Inputs {
		ports[i] = buildPort(def, component.DirectionInput)
	}
	return ports
}

// OutputPorts returns the configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}
	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, def := range c.config.Ports.Outputs {
		ports[i] = buildPort(def, component.DirectionOutput)
	}
	return ports
}

// buildPort creates a component.Port from a PortDefinition, using JetStreamPort
// for jetstream-type ports and NATSPort for core NATS ports.
func buildPort(def component.PortDefinition, direction component.Direction) component.Port {
	port := component.Port{
		Name:        def.Name,
		Direction:   direction,
		Required:    def.Required,
		Description: def.Description,
	}
	if def.Type == "jetstream" {
		port.Config = component.JetStreamPort{
			StreamName: def.StreamName,
			Subjects:   []string{def.Subject},
		}
	} else {
		port.Config = component.NATSPort{Subject: def.Subject}
	}
	return port
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return classnameLinterSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	if running {
		status = "running"
	}

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(c.errorsCount.Load()),
		Uptime:     time.Since(startTime),
		Status:     status,
	}
}

// DataFlow reports request throughput averaged over the time since Start.
func (c *Component) DataFlow() component.FlowMetrics {
	c.mu.RLock()
	startTime := c.startTime
	c.mu.RUnlock()

	flow := component.FlowMetrics{}
	if nanos := c.lastActivity.Load(); nanos != 0 {
		flow.LastActivity = time.Unix(0, nanos)
	}

	processed := c.requestsProcessed.Load()
	if processed > 0 {
		flow.ErrorRate = float64(c.errorsCount.Load()) / float64(processed)
	}
	if !startTime.IsZero() {
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			flow.MessagesPerSecond = float64(processed) / elapsed
			flow.BytesPerSecond = float64(c.bytesConsumed.Load()) / elapsed
		}
	}
	return flow
}
