package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is looked up from the working directory upwards.
	ProjectConfigFile = ".classlint.yaml"
	// UserConfigDir is relative to the home directory.
	UserConfigDir  = ".config/classlint"
	UserConfigFile = "config.yaml"
)

// layer is one config file merged on top of the defaults.
type layer struct {
	kind     string
	path     string
	optional bool // a missing file is skipped
}

// Loader resolves configuration from defaults and config files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger uses slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load merges, in increasing precedence, the defaults, the user config
// (~/.config/classlint/config.yaml) and the nearest .classlint.yaml found
// from the working directory up to the repository root.
//
// A non-empty explicit path replaces both files and must exist.
// Command-line flags are applied by the caller on top of the result.
func (l *Loader) Load(explicit string) (*Config, error) {
	config := DefaultConfig()

	for _, ly := range l.layers(explicit) {
		fileConfig, err := LoadFromFile(ly.path)
		if err != nil {
			if ly.optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%s config: %w", ly.kind, err)
		}
		l.logger.Debug("Loaded config", "layer", ly.kind, "path", ly.path)
		config.Merge(fileConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func (l *Loader) layers(explicit string) []layer {
	if explicit != "" {
		return []layer{{kind: "explicit", path: explicit}}
	}

	var layers []layer
	if home, err := os.UserHomeDir(); err == nil {
		layers = append(layers, layer{
			kind:     "user",
			path:     filepath.Join(home, UserConfigDir, UserConfigFile),
			optional: true,
		})
	}
	if project := findProjectConfig(); project != "" {
		layers = append(layers, layer{kind: "project", path: project})
	} else {
		l.logger.Debug("No project config found")
	}
	return layers
}

// findProjectConfig returns the nearest ProjectConfigFile at or above the
// working directory. The search ends at the first directory holding .git.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
