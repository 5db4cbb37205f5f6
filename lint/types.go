// Package lint provides the host-side vocabulary shared by classlint rules:
// source positions, diagnostics, markup elements, and the visitor callbacks a
// traversal drives while walking one analysis unit.
package lint

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	// SeverityError indicates a violation that should fail the run.
	SeverityError Severity = iota
	// SeverityWarning indicates a violation that is reported but tolerated.
	SeverityWarning
	// SeverityInfo indicates a suggestion.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a configuration string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return SeverityError, fmt.Errorf("unknown severity: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Position is a location in a source file.
// Line and Column are 1-based; Offset is a byte offset.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

// String renders the position as file:line:col.
func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is a single problem reported by a rule, anchored at a node.
type Diagnostic struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Pos      Position `json:"position"`
}

// String returns a formatted representation of the diagnostic.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: [%s] %s", d.Pos, d.Rule, d.Message)
}

// Attribute is one attribute of a markup element.
// Literal is true only when the value is a plain string constant; Value is
// empty for expression, element, or missing values.
type Attribute struct {
	Name    string
	Value   string
	Literal bool
	Pos     Position
}

// Element is a markup element as seen by rules: its tag name, the position
// of the element, and its attributes in source order. Spread attributes are
// not represented.
type Element struct {
	Name       string
	Pos        Position
	Attributes []Attribute
}

// Attr returns every attribute with exactly the given name, in source order.
func (e *Element) Attr(name string) []Attribute {
	var attrs []Attribute
	for _, attr := range e.Attributes {
		if attr.Name == name {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// HasAttr reports whether the element carries at least one attribute with
// exactly the given name.
func (e *Element) HasAttr(name string) bool {
	for _, attr := range e.Attributes {
		if attr.Name == name {
			return true
		}
	}
	return false
}
