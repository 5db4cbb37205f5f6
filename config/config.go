// Package config provides configuration loading and management for classlint.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/lint/classprefix"
	"github.com/c360studio/classlint/lint/convention"
	"github.com/c360studio/classlint/lint/report"
)

// Config represents the complete classlint configuration
type Config struct {
	Rules  RulesConfig  `yaml:"rules"`
	Lint   LintConfig   `yaml:"lint"`
	Output OutputConfig `yaml:"output"`
	NATS   NATSConfig   `yaml:"nats"`
}

// RulesConfig holds per-rule settings keyed by rule name
type RulesConfig struct {
	ClassPrefix ClassPrefixConfig `yaml:"class-prefix"`
}

// ClassPrefixConfig configures the class-prefix rule
type ClassPrefixConfig struct {
	// PrefixType is the naming convention applied to the component name:
	// dash, camelCase or underscore (default: dash)
	PrefixType string `yaml:"prefixType"`
	// Severity of reported diagnostics: error, warning or info (default: error)
	Severity string `yaml:"severity"`
}

// LintConfig configures which files are linted and how
type LintConfig struct {
	// Include lists doublestar patterns for files to lint
	Include []string `yaml:"include"`
	// Exclude lists doublestar patterns for files and directories to skip
	Exclude []string `yaml:"exclude"`
	// Workers bounds concurrent file linting (0 = number of CPUs)
	Workers int `yaml:"workers"`
}

// OutputConfig configures result output
type OutputConfig struct {
	// Format is text, json or sarif (default: text)
	Format string `yaml:"format"`
}

// NATSConfig configures the NATS connection used by serve
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Stream is the JetStream stream carrying lint requests and results
	Stream string `yaml:"stream"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			ClassPrefix: ClassPrefixConfig{
				PrefixType: convention.Default.String(),
				Severity:   lint.SeverityError.String(),
			},
		},
		Output: OutputConfig{
			Format: report.FormatText.String(),
		},
		NATS: NATSConfig{
			URL:    "nats://localhost:4222",
			Stream: "LINT",
		},
	}
}

// Validate checks that the configuration is valid.
// An unrecognized prefixType is not an error; see ClassPrefixOptions.
func (c *Config) Validate() error {
	if _, err := lint.ParseSeverity(c.Rules.ClassPrefix.Severity); err != nil {
		return fmt.Errorf("rules.class-prefix.severity: %w", err)
	}
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Lint.Workers < 0 {
		return fmt.Errorf("lint.workers must not be negative")
	}
	return nil
}

// ClassPrefixOptions converts the rule settings into rule options.
// An unrecognized prefixType leaves class names untransformed and is
// logged as a warning.
func (c *Config) ClassPrefixOptions(logger *slog.Logger) (classprefix.Options, error) {
	if logger == nil {
		logger = slog.Default()
	}

	severity, err := lint.ParseSeverity(c.Rules.ClassPrefix.Severity)
	if err != nil {
		return classprefix.Options{}, fmt.Errorf("rules.class-prefix.severity: %w", err)
	}

	kind, ok := convention.ParseKind(c.Rules.ClassPrefix.PrefixType)
	if !ok {
		logger.Warn("Unknown prefixType, component names are used unchanged",
			slog.String("prefixType", c.Rules.ClassPrefix.PrefixType))
	}

	return classprefix.Options{PrefixType: kind, Severity: severity}, nil
}

// LoadFromFile loads configuration from a YAML file. Unknown keys are
// rejected. Fields absent from the file keep their zero value.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Rules
	if other.Rules.ClassPrefix.PrefixType != "" {
		c.Rules.ClassPrefix.PrefixType = other.Rules.ClassPrefix.PrefixType
	}
	if other.Rules.ClassPrefix.Severity != "" {
		c.Rules.ClassPrefix.Severity = other.Rules.ClassPrefix.Severity
	}

	// Lint
	if len(other.Lint.Include) > 0 {
		c.Lint.Include = other.Lint.Include
	}
	if len(other.Lint.Exclude) > 0 {
		c.Lint.Exclude = other.Lint.Exclude
	}
	if other.Lint.Workers != 0 {
		c.Lint.Workers = other.Lint.Workers
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Stream != "" {
		c.NATS.Stream = other.NATS.Stream
	}
}
