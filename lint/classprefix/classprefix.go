// Package classprefix implements the class-prefix rule: every literal CSS
// class name on a markup element must start with the unit's component name
// followed by "__", or be exactly the component name.
//
// The component name comes from the first default export of the unit, or
// failing that the first class declaration. Because either may appear after
// the markup it governs, elements are collected during the walk and checked
// when the unit exits.
package classprefix

import (
	"fmt"
	"strings"

	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/lint/convention"
)

const (
	// RuleName identifies the rule in diagnostics and configuration.
	RuleName = "class-prefix"

	// Separator joins the component name and the rest of a class name.
	Separator = "__"

	// ClassAttribute is the attribute whose literal value is checked.
	ClassAttribute = "className"

	// MsgNoPrefix is reported when a unit has class names but no component name.
	MsgNoPrefix = "Cannot find class prefix (no default export and no class definition)"
)

// Options configures the rule.
type Options struct {
	// PrefixType selects the convention applied to the component name.
	PrefixType convention.Kind

	// Severity of reported diagnostics. Defaults to lint.SeverityError.
	Severity lint.Severity
}

// Rule is the class-prefix rule. It is safe to share between goroutines;
// each unit gets its own Checker.
type Rule struct {
	opts Options
}

var _ lint.Rule = (*Rule)(nil)

// New creates the rule with the given options.
func New(opts Options) *Rule {
	return &Rule{opts: opts}
}

// Name implements lint.Rule.
func (r *Rule) Name() string { return RuleName }

// Description implements lint.Rule.
func (r *Rule) Description() string {
	return "Report className values in JSX elements that do not start with the component prefix"
}

// Options returns the rule's configuration.
func (r *Rule) Options() Options { return r.opts }

// NewVisitor implements lint.Rule.
func (r *Rule) NewVisitor(report lint.ReportFunc) lint.Visitor {
	return NewChecker(r.opts, report)
}

// Prefix returns the class prefix for a component name under kind.
func Prefix(kind convention.Kind, name string) string {
	return kind.Transform(name) + Separator
}

// MismatchMessage formats the diagnostic for a class token that does not
// carry the prefix.
func MismatchMessage(class, prefix string) string {
	return fmt.Sprintf(`Class "%s" name should starts with "%s"`, class, prefix)
}

// unitState is the state accumulated while one unit is walked.
// Both names are set at most once; the empty string means unset.
type unitState struct {
	exportedName     string
	definedClassName string
	pendingElements  []*lint.Element
}

func (s *unitState) setExportedName(name string) {
	if s.exportedName == "" {
		s.exportedName = name
	}
}

func (s *unitState) setDefinedClassName(name string) {
	if s.definedClassName == "" {
		s.definedClassName = name
	}
}

// componentName returns the export name if set, else the class name.
func (s *unitState) componentName() string {
	if s.exportedName != "" {
		return s.exportedName
	}
	return s.definedClassName
}

func (s *unitState) reset() {
	*s = unitState{}
}

// Checker resolves the prefix of one unit and validates its elements.
// Callbacks only record state; diagnostics are produced in ExitUnit, after
// which the checker is empty again and may walk another unit.
type Checker struct {
	kind     convention.Kind
	severity lint.Severity
	report   lint.ReportFunc
	state    unitState
}

var _ lint.Visitor = (*Checker)(nil)

// NewChecker creates a checker that reports through report.
func NewChecker(opts Options, report lint.ReportFunc) *Checker {
	if report == nil {
		report = func(lint.Diagnostic) {}
	}
	return &Checker{
		kind:     opts.PrefixType,
		severity: opts.Severity,
		report:   report,
	}
}

// DefaultExport records the first default-exported name.
func (c *Checker) DefaultExport(name string, _ lint.Position) {
	c.state.setExportedName(name)
}

// ClassDefinition records the first class name.
func (c *Checker) ClassDefinition(name string, _ lint.Position) {
	c.state.setDefinedClassName(name)
}

// Element queues elements that carry a className attribute of any kind.
func (c *Checker) Element(el *lint.Element) {
	if el == nil || !el.HasAttr(ClassAttribute) {
		return
	}
	c.state.pendingElements = append(c.state.pendingElements, el)
}

// ExitUnit resolves the prefix and validates the queued elements.
func (c *Checker) ExitUnit(pos lint.Position) {
	defer c.state.reset()

	if len(c.state.pendingElements) == 0 {
		return
	}

	name := c.state.componentName()
	if name == "" {
		c.emit(pos, MsgNoPrefix)
		return
	}

	c.validate(Prefix(c.kind, name), c.state.pendingElements)
}

// validate reports one diagnostic per literal class token, in element then
// token order, that neither starts with prefix nor equals the bare name.
func (c *Checker) validate(prefix string, elements []*lint.Element) {
	bare := strings.TrimSuffix(prefix, Separator)

	for _, el := range elements {
		for _, attr := range el.Attr(ClassAttribute) {
			if !attr.Literal {
				continue
			}
			for _, cx := range strings.Split(attr.Value, " ") {
				if cx == "" {
					continue
				}
				if strings.HasPrefix(cx, prefix) || cx == bare {
					continue
				}
				c.emit(el.Pos, MismatchMessage(cx, prefix))
			}
		}
	}
}

func (c *Checker) emit(pos lint.Position, message string) {
	c.report(lint.Diagnostic{
		Rule:     RuleName,
		Severity: c.severity,
		Message:  message,
		Pos:      pos,
	})
}
