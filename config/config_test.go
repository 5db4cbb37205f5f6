package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/lint/convention"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Rules.ClassPrefix.PrefixType != "dash" {
		t.Errorf("expected default prefixType dash, got %s", cfg.Rules.ClassPrefix.PrefixType)
	}
	if cfg.Rules.ClassPrefix.Severity != "error" {
		t.Errorf("expected default severity error, got %s", cfg.Rules.ClassPrefix.Severity)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected default format text, got %s", cfg.Output.Format)
	}
	if cfg.NATS.Stream != "LINT" {
		t.Errorf("expected default stream LINT, got %s", cfg.NATS.Stream)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown prefix type is not an error",
			modify:  func(c *Config) { c.Rules.ClassPrefix.PrefixType = "pascal" },
			wantErr: false,
		},
		{
			name:    "unknown severity",
			modify:  func(c *Config) { c.Rules.ClassPrefix.Severity = "fatal" },
			wantErr: true,
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "negative workers",
			modify:  func(c *Config) { c.Lint.Workers = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
rules:
  class-prefix:
    prefixType: underscore
    severity: warning
lint:
  include:
    - "src/**/*.jsx"
  exclude:
    - "**/*.test.jsx"
  workers: 4
output:
  format: json
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Rules.ClassPrefix.PrefixType != "underscore" {
		t.Errorf("expected prefixType underscore, got %s", cfg.Rules.ClassPrefix.PrefixType)
	}
	if cfg.Rules.ClassPrefix.Severity != "warning" {
		t.Errorf("expected severity warning, got %s", cfg.Rules.ClassPrefix.Severity)
	}
	if len(cfg.Lint.Include) != 1 || cfg.Lint.Include[0] != "src/**/*.jsx" {
		t.Errorf("unexpected include: %v", cfg.Lint.Include)
	}
	if len(cfg.Lint.Exclude) != 1 {
		t.Errorf("expected 1 exclude pattern, got %d", len(cfg.Lint.Exclude))
	}
	if cfg.Lint.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Lint.Workers)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected format json, got %s", cfg.Output.Format)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.NATS.Stream != "" {
		t.Errorf("absent fields should stay empty, got stream %q", cfg.NATS.Stream)
	}
}

func TestLoadFromFile_UnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
rules:
  class-prefix:
    prefix_type: dash
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "prefix_type") {
		t.Errorf("error should name the unknown key: %v", err)
	}
}

func TestLoadFromFile_Empty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFromFile(configPath); err != nil {
		t.Errorf("empty config file should load: %v", err)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Rules: RulesConfig{
			ClassPrefix: ClassPrefixConfig{PrefixType: "camelCase"},
		},
		Lint: LintConfig{
			Exclude: []string{"vendor/**"},
		},
	}

	base.Merge(override)

	if base.Rules.ClassPrefix.PrefixType != "camelCase" {
		t.Errorf("expected prefixType camelCase, got %s", base.Rules.ClassPrefix.PrefixType)
	}
	// Severity should remain from base since override didn't set it
	if base.Rules.ClassPrefix.Severity != "error" {
		t.Errorf("expected severity to remain default, got %s", base.Rules.ClassPrefix.Severity)
	}
	if len(base.Lint.Exclude) != 1 || base.Lint.Exclude[0] != "vendor/**" {
		t.Errorf("unexpected exclude: %v", base.Lint.Exclude)
	}
	if base.NATS.Stream != "LINT" {
		t.Errorf("expected stream to remain LINT, got %s", base.NATS.Stream)
	}

	base.Merge(nil)
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Rules.ClassPrefix.PrefixType = "underscore"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Load and verify; saved files must pass strict decoding
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Rules.ClassPrefix.PrefixType != "underscore" {
		t.Errorf("expected prefixType underscore, got %s", loaded.Rules.ClassPrefix.PrefixType)
	}
}

func TestClassPrefixOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules.ClassPrefix.Severity = "warning"

	opts, err := cfg.ClassPrefixOptions(nil)
	if err != nil {
		t.Fatalf("ClassPrefixOptions() error = %v", err)
	}
	if opts.PrefixType != convention.Dash {
		t.Errorf("expected dash, got %s", opts.PrefixType)
	}
	if opts.Severity != lint.SeverityWarning {
		t.Errorf("expected warning, got %s", opts.Severity)
	}
}

func TestClassPrefixOptions_UnknownPrefixType(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := DefaultConfig()
	cfg.Rules.ClassPrefix.PrefixType = "kebab"

	opts, err := cfg.ClassPrefixOptions(logger)
	if err != nil {
		t.Fatalf("ClassPrefixOptions() error = %v", err)
	}
	if opts.PrefixType != convention.Identity {
		t.Errorf("expected identity for unknown prefixType, got %s", opts.PrefixType)
	}
	if !strings.Contains(buf.String(), "kebab") {
		t.Errorf("expected a warning naming the prefixType, got %q", buf.String())
	}
}

func TestLoader_Layers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	userConfig := filepath.Join(home, UserConfigDir, UserConfigFile)
	if err := os.MkdirAll(filepath.Dir(userConfig), 0755); err != nil {
		t.Fatal(err)
	}
	userContent := "rules:\n  class-prefix:\n    prefixType: underscore\n    severity: warning\n"
	if err := os.WriteFile(userConfig, []byte(userContent), 0644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	projectContent := "rules:\n  class-prefix:\n    prefixType: camelCase\n"
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte(projectContent), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(project, "src", "components")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)

	cfg, err := NewLoader(nil).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Project wins over user; user wins over defaults
	if cfg.Rules.ClassPrefix.PrefixType != "camelCase" {
		t.Errorf("expected project prefixType camelCase, got %s", cfg.Rules.ClassPrefix.PrefixType)
	}
	if cfg.Rules.ClassPrefix.Severity != "warning" {
		t.Errorf("expected user severity warning, got %s", cfg.Rules.ClassPrefix.Severity)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected default format text, got %s", cfg.Output.Format)
	}
}

func TestLoader_Explicit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("output:\n  format: sarif\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(nil).Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.Format != "sarif" {
		t.Errorf("expected format sarif, got %s", cfg.Output.Format)
	}

	if _, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoader_InvalidProjectConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("output:\n  format: xml\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(project)

	if _, err := NewLoader(nil).Load(""); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoader_ProjectSearchStopsAtRepoRoot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	outer := t.TempDir()
	if err := os.WriteFile(filepath.Join(outer, ProjectConfigFile), []byte("output:\n  format: json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	repo := filepath.Join(outer, "repo")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(repo)

	cfg, err := NewLoader(nil).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("config above the repository root must be ignored, got format %s", cfg.Output.Format)
	}
}
