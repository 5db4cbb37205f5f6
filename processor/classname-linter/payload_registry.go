package classnamelinter

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/classlint/lint"
)

// LintRequest is published to lint.request.<anything>. Files are paths
// relative to the component's repo path; Sources carry inline content.
type LintRequest struct {
	RequestID string   `json:"request_id,omitempty"`
	Files     []string `json:"files,omitempty"`
	Sources   []Source `json:"sources,omitempty"`
}

// Source is an inline file. Name selects the parser by extension and is
// used as the file name in diagnostics.
type Source struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Schema implements message.Payload.
func (p *LintRequest) Schema() message.Type {
	return LintRequestType
}

// Validate implements message.Payload.
func (p *LintRequest) Validate() error {
	if len(p.Files) == 0 && len(p.Sources) == 0 {
		return fmt.Errorf("files or sources required")
	}
	for i, src := range p.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *LintRequest) MarshalJSON() ([]byte, error) {
	type Alias LintRequest
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *LintRequest) UnmarshalJSON(data []byte) error {
	type Alias LintRequest
	return json.Unmarshal(data, (*Alias)(p))
}

// LintResult is published to lint.result.<request_id>.
type LintResult struct {
	RequestID string       `json:"request_id"`
	Passed    bool         `json:"passed"`
	Problems  int          `json:"problems"`
	Files     []FileReport `json:"files"`
}

// FileReport is the outcome for one requested file or source.
type FileReport struct {
	Path        string            `json:"path"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
	Error       string            `json:"error,omitempty"`
}

// Schema implements message.Payload.
func (p *LintResult) Schema() message.Type {
	return LintResultType
}

// Validate implements message.Payload.
func (p *LintResult) Validate() error {
	if p.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *LintResult) MarshalJSON() ([]byte, error) {
	type Alias LintResult
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *LintResult) UnmarshalJSON(data []byte) error {
	type Alias LintResult
	return json.Unmarshal(data, (*Alias)(p))
}

// LintRequestType is the message type for lint requests.
var LintRequestType = message.Type{
	Domain:   "lint",
	Category: "request",
	Version:  "v1",
}

// LintResultType is the message type for lint results.
var LintResultType = message.Type{
	Domain:   "lint",
	Category: "result",
	Version:  "v1",
}

func init() {
	if err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "lint",
		Category:    "request",
		Version:     "v1",
		Description: "Lint request: repository files and inline sources to check",
		Factory:     func() any { return &LintRequest{} },
	}); err != nil {
		panic("failed to register LintRequest: " + err.Error())
	}

	if err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "lint",
		Category:    "result",
		Version:     "v1",
		Description: "Lint result: diagnostics per file",
		Factory:     func() any { return &LintResult{} },
	}); err != nil {
		panic("failed to register LintResult: " + err.Error())
	}
}
