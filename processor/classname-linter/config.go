package classnamelinter

import (
	"fmt"
	"reflect"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/classlint/lint"
)

// classnameLinterSchema defines the configuration schema.
var classnameLinterSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the classname-linter component.
type Config struct {
	// StreamName is the JetStream stream carrying lint requests and results.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream for lint requests,category:basic,default:LINT"`

	// ConsumerName is the durable consumer name for request consumption.
	ConsumerName string `json:"consumer_name" schema:"type:string,description:Durable consumer name for lint requests,category:basic,default:classname-linter"`

	// RepoPath is the directory request file paths are resolved against.
	// When empty the component falls back to CLASSLINT_REPO_PATH then the working directory.
	RepoPath string `json:"repo_path" schema:"type:string,description:Repository root path,category:basic,default:"`

	// PrefixType is the naming convention applied to component names.
	PrefixType string `json:"prefix_type" schema:"type:string,description:Class prefix convention (dash camelCase underscore),category:basic,default:dash"`

	// Severity of reported diagnostics.
	Severity string `json:"severity" schema:"type:string,description:Diagnostic severity (error warning info),category:advanced,default:error"`

	// Include and Exclude are doublestar patterns for files named in requests.
	Include []string `json:"include,omitempty" schema:"type:array,description:File patterns to lint,category:advanced"`
	Exclude []string `json:"exclude,omitempty" schema:"type:array,description:File patterns to skip,category:advanced"`

	// Ports contains input/output port definitions.
	Ports *component.PortConfig `json:"ports,omitempty" schema:"type:ports,description:Input/output port definitions,category:basic"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		StreamName:   "LINT",
		ConsumerName: "classname-linter",
		PrefixType:   "dash",
		Severity:     "error",
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "lint-requests",
					Type:        "jetstream",
					Subject:     "lint.request.>",
					StreamName:  "LINT",
					Description: "Receive lint requests",
					Required:    true,
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "lint-results",
					Type:        "jetstream",
					Subject:     "lint.result.>",
					StreamName:  "LINT",
					Description: "Publish lint results",
					Required:    false,
				},
			},
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if _, err := lint.ParseSeverity(c.Severity); err != nil {
		return fmt.Errorf("severity: %w", err)
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid pattern %q", pattern)
		}
	}
	return nil
}

// requestSubject returns the subject lint requests are consumed from.
func (c *Config) requestSubject() string {
	if c.Ports != nil && len(c.Ports.Inputs) > 0 {
		return c.Ports.Inputs[0].Subject
	}
	return "lint.request.>"
}

// resultSubject returns the subject a result for requestID is published to.
func (c *Config) resultSubject(requestID string) string {
	prefix := "lint.result."
	if c.Ports != nil && len(c.Ports.Outputs) > 0 {
		subject := c.Ports.Outputs[0].Subject
		if n := len(subject); n > 0 && subject[n-1] == '>' {
			prefix = subject[:n-1]
		}
	}
	return prefix + requestID
}
