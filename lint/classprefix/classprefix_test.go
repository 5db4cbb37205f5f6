package classprefix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/classlint/lint"
	"github.com/c360studio/classlint/lint/convention"
)

func classElement(line int, values ...string) *lint.Element {
	el := &lint.Element{Name: "div", Pos: lint.Position{File: "Component.jsx", Line: line, Column: 5}}
	for _, v := range values {
		el.Attributes = append(el.Attributes, lint.Attribute{Name: ClassAttribute, Value: v, Literal: true})
	}
	return el
}

func newTestChecker(kind convention.Kind) (*Checker, *lint.Collector) {
	var collector lint.Collector
	return NewChecker(Options{PrefixType: kind}, collector.Report), &collector
}

func messages(diags []lint.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

func TestChecker_DefaultExportPrefix(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.DefaultExport("Foo", lint.Position{})
	c.Element(classElement(2, "foo__bar"))
	c.Element(classElement(3, "bar"))
	c.ExitUnit(lint.Position{Line: 1, Column: 1})

	diags := collector.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, `Class "bar" name should starts with "foo__"`, diags[0].Message)
	assert.Equal(t, 3, diags[0].Pos.Line, "diagnostic is anchored at the element")
	assert.Equal(t, RuleName, diags[0].Rule)
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
}

func TestChecker_BareNameAllowed(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.DefaultExport("Foo", lint.Position{})
	c.Element(classElement(2, "foo"))
	c.ExitUnit(lint.Position{})

	assert.Empty(t, collector.Diagnostics())
}

func TestChecker_ClassDefinitionUnderscore(t *testing.T) {
	c, collector := newTestChecker(convention.Underscore)

	c.ClassDefinition("Widget", lint.Position{})
	c.Element(classElement(4, "widget__a widget__b bad"))
	c.ExitUnit(lint.Position{})

	assert.Equal(t, []string{`Class "bad" name should starts with "widget__"`}, messages(collector.Diagnostics()))
}

func TestChecker_NoPrefix(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.Element(classElement(2, "one two"))
	c.Element(classElement(3, "three"))
	exit := lint.Position{File: "Component.jsx", Line: 1, Column: 1}
	c.ExitUnit(exit)

	diags := collector.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, MsgNoPrefix, diags[0].Message)
	assert.Equal(t, exit, diags[0].Pos, "anchored at the unit exit node")
}

func TestChecker_NoElementsNoDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Checker)
	}{
		{"nothing", func(c *Checker) {}},
		{"export only", func(c *Checker) { c.DefaultExport("Foo", lint.Position{}) }},
		{"class only", func(c *Checker) { c.ClassDefinition("Foo", lint.Position{}) }},
		{"element without className", func(c *Checker) {
			c.Element(&lint.Element{Name: "div", Attributes: []lint.Attribute{{Name: "id", Value: "x", Literal: true}}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, collector := newTestChecker(convention.Dash)
			tt.setup(c)
			c.ExitUnit(lint.Position{})
			assert.Empty(t, collector.Diagnostics())
		})
	}
}

func TestChecker_ExportWinsOverClass(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.ClassDefinition("InnerHelper", lint.Position{})
	c.Element(classElement(2, "inner-helper__x app__x"))
	c.DefaultExport("App", lint.Position{})
	c.ExitUnit(lint.Position{})

	assert.Equal(t, []string{`Class "inner-helper__x" name should starts with "app__"`}, messages(collector.Diagnostics()))
}

func TestChecker_FirstNameWins(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.ClassDefinition("First", lint.Position{})
	c.ClassDefinition("Second", lint.Position{})
	c.Element(classElement(2, "first__a second__a"))
	c.ExitUnit(lint.Position{})

	assert.Equal(t, []string{`Class "second__a" name should starts with "first__"`}, messages(collector.Diagnostics()))
}

func TestChecker_AnonymousExportFallsBackToClass(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.DefaultExport("", lint.Position{})
	c.ClassDefinition("Panel", lint.Position{})
	c.Element(classElement(2, "panel__body panel"))
	c.ExitUnit(lint.Position{})

	assert.Empty(t, collector.Diagnostics())
}

func TestChecker_AnonymousExportLeavesNameUnset(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.DefaultExport("", lint.Position{})
	c.ClassDefinition("Panel", lint.Position{})
	c.DefaultExport("Later", lint.Position{})
	c.Element(classElement(2, "panel__body"))
	c.ExitUnit(lint.Position{})

	// The later named export is the first one that supplies a name.
	assert.Equal(t, []string{`Class "panel__body" name should starts with "later__"`}, messages(collector.Diagnostics()))
}

func TestChecker_DiagnosticOrder(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.DefaultExport("Foo", lint.Position{})
	c.Element(classElement(2, "b1 foo__ok b2"))
	c.Element(classElement(3, "c1", "c2 foo"))
	c.ExitUnit(lint.Position{})

	diags := collector.Diagnostics()
	assert.Equal(t, []string{
		`Class "b1" name should starts with "foo__"`,
		`Class "b2" name should starts with "foo__"`,
		`Class "c1" name should starts with "foo__"`,
		`Class "c2" name should starts with "foo__"`,
	}, messages(diags))
	assert.Equal(t, []int{2, 2, 3, 3}, []int{diags[0].Pos.Line, diags[1].Pos.Line, diags[2].Pos.Line, diags[3].Pos.Line})
}

func TestChecker_DuplicateTokensNotDeduplicated(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.DefaultExport("Foo", lint.Position{})
	c.Element(classElement(2, "bad bad"))
	c.ExitUnit(lint.Position{})

	assert.Len(t, collector.Diagnostics(), 2)
}

func TestChecker_SkipsNonLiteralAndEmptyTokens(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	el := &lint.Element{
		Name: "span",
		Attributes: []lint.Attribute{
			{Name: ClassAttribute, Literal: false},
			{Name: "class", Value: "bad", Literal: true},
			{Name: ClassAttribute, Value: "  foo__a   foo  ", Literal: true},
			{Name: ClassAttribute, Value: "", Literal: true},
		},
	}
	c.DefaultExport("Foo", lint.Position{})
	c.Element(el)
	c.ExitUnit(lint.Position{})

	assert.Empty(t, collector.Diagnostics())
}

func TestChecker_ExpressionOnlyElementStillNeedsPrefix(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.Element(&lint.Element{Name: "div", Attributes: []lint.Attribute{{Name: ClassAttribute}}})
	c.ExitUnit(lint.Position{})

	assert.Equal(t, []string{MsgNoPrefix}, messages(collector.Diagnostics()))
}

func TestChecker_SplitsOnSpacesOnly(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.DefaultExport("Foo", lint.Position{})
	c.Element(classElement(2, "foo__a\tbar"))
	c.ExitUnit(lint.Position{})

	assert.Empty(t, collector.Diagnostics(), "a tab does not split tokens")
}

func TestChecker_CamelCasePrefix(t *testing.T) {
	c, collector := newTestChecker(convention.CamelCase)

	c.DefaultExport("MyCard", lint.Position{})
	c.Element(classElement(2, "Mycard__title MyCard__title Mycard"))
	c.ExitUnit(lint.Position{})

	assert.Equal(t, []string{`Class "MyCard__title" name should starts with "Mycard__"`}, messages(collector.Diagnostics()))
}

func TestChecker_IdentityPrefix(t *testing.T) {
	c, collector := newTestChecker(convention.Identity)

	c.DefaultExport("MyCard", lint.Position{})
	c.Element(classElement(2, "MyCard__title my-card__title"))
	c.ExitUnit(lint.Position{})

	assert.Equal(t, []string{`Class "my-card__title" name should starts with "MyCard__"`}, messages(collector.Diagnostics()))
}

func TestChecker_StateDoesNotLeakBetweenUnits(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	// Unit 1 resolves prefix "foo__".
	c.DefaultExport("Foo", lint.Position{})
	c.Element(classElement(2, "foo__a"))
	c.ExitUnit(lint.Position{})
	require.Empty(t, collector.Diagnostics())

	// Unit 2 has no export and no class: foo__a must not pass on unit 1's prefix.
	c.Element(classElement(2, "foo__a"))
	c.ExitUnit(lint.Position{})
	assert.Equal(t, []string{MsgNoPrefix}, messages(collector.Diagnostics()))

	// Unit 3 resolves its own prefix.
	*collector = lint.Collector{}
	c.ClassDefinition("Bar", lint.Position{})
	c.Element(classElement(2, "foo__a"))
	c.ExitUnit(lint.Position{})
	assert.Equal(t, []string{`Class "foo__a" name should starts with "bar__"`}, messages(collector.Diagnostics()))
}

func TestChecker_NoPrefixDropsElements(t *testing.T) {
	c, collector := newTestChecker(convention.Dash)

	c.Element(classElement(2, "x"))
	c.ExitUnit(lint.Position{})
	*collector = lint.Collector{}

	// The dropped element is not carried into the next unit.
	c.DefaultExport("Foo", lint.Position{})
	c.ExitUnit(lint.Position{})
	assert.Empty(t, collector.Diagnostics())
}

func TestRule(t *testing.T) {
	r := New(Options{PrefixType: convention.Underscore, Severity: lint.SeverityWarning})

	assert.Equal(t, "class-prefix", r.Name())
	assert.NotEmpty(t, r.Description())
	assert.Equal(t, convention.Underscore, r.Options().PrefixType)

	var collector lint.Collector
	v1 := r.NewVisitor(collector.Report)
	v2 := r.NewVisitor(collector.Report)
	assert.NotSame(t, v1, v2, "each unit gets a fresh visitor")

	v1.ClassDefinition("TodoList", lint.Position{})
	v1.Element(classElement(1, "todo_list__item item"))
	v1.ExitUnit(lint.Position{})

	diags := collector.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, `Class "item" name should starts with "todo_list__"`, diags[0].Message)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "my-class__", Prefix(convention.Dash, "MyClass"))
	assert.Equal(t, "my_class__", Prefix(convention.Underscore, "MyClass"))
	assert.Equal(t, "Myclass__", Prefix(convention.CamelCase, "my-class"))
}

func TestNewChecker_NilReport(t *testing.T) {
	c := NewChecker(Options{}, nil)
	c.Element(classElement(1, "x"))
	assert.NotPanics(t, func() { c.ExitUnit(lint.Position{}) })
}
