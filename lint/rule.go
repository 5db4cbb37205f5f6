package lint

// ReportFunc receives diagnostics from a visitor. Implementations must not
// block; the traversal calls it synchronously.
type ReportFunc func(Diagnostic)

// Visitor receives node callbacks from a traversal of one analysis unit, in
// document order. ExitUnit is called exactly once, after every other
// callback for the unit.
type Visitor interface {
	// DefaultExport is called for each default export declaration.
	// name is empty when no identifier can be derived from the export.
	DefaultExport(name string, pos Position)

	// ClassDefinition is called for each class declaration.
	// name is empty for anonymous classes.
	ClassDefinition(name string, pos Position)

	// Element is called for each markup element.
	Element(el *Element)

	// ExitUnit is called when the traversal of the unit completes.
	// pos is the position of the unit's root node.
	ExitUnit(pos Position)
}

// Rule defines the interface that every classlint rule implements.
// A Rule is long-lived and holds configuration only; per-unit state belongs
// to the Visitor it hands out.
type Rule interface {
	// Name returns a unique kebab-case identifier for the rule.
	Name() string

	// Description returns a human-readable description of what the rule checks.
	Description() string

	// NewVisitor returns a fresh visitor for one analysis unit.
	NewVisitor(report ReportFunc) Visitor
}

// Collector accumulates diagnostics in report order.
// It is not safe for concurrent use; create one per unit.
type Collector struct {
	diagnostics []Diagnostic
}

// Report appends a diagnostic. It has the ReportFunc signature.
func (c *Collector) Report(d Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns the collected diagnostics in the order they were reported.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// MultiVisitor fans callbacks out to several visitors in order.
type MultiVisitor []Visitor

// DefaultExport implements Visitor.
func (m MultiVisitor) DefaultExport(name string, pos Position) {
	for _, v := range m {
		v.DefaultExport(name, pos)
	}
}

// ClassDefinition implements Visitor.
func (m MultiVisitor) ClassDefinition(name string, pos Position) {
	for _, v := range m {
		v.ClassDefinition(name, pos)
	}
}

// Element implements Visitor.
func (m MultiVisitor) Element(el *Element) {
	for _, v := range m {
		v.Element(el)
	}
}

// ExitUnit implements Visitor.
func (m MultiVisitor) ExitUnit(pos Position) {
	for _, v := range m {
		v.ExitUnit(pos)
	}
}
