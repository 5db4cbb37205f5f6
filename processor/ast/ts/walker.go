package ts

import (
	"html"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/classlint/lint"
)

// unit is a parsed tree that can be walked by lint visitors.
type unit struct {
	tree   *sitter.Tree
	source []byte
	path   string
}

// Walk visits the tree in document order and finishes with ExitUnit at the
// start of the program.
func (u *unit) Walk(v lint.Visitor) {
	root := u.tree.RootNode()
	w := &walker{source: u.source, path: u.path, visitor: v}

	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()
	w.walkNode(cursor)

	v.ExitUnit(w.position(root))
}

// Close releases the tree.
func (u *unit) Close() {
	u.tree.Close()
}

type walker struct {
	source  []byte
	path    string
	visitor lint.Visitor
}

// walkNode recursively walks the AST and reports nodes of interest
func (w *walker) walkNode(cursor *sitter.TreeCursor) {
	node := cursor.CurrentNode()

	switch node.Type() {
	case "export_statement":
		if isDefaultExport(node) {
			w.visitor.DefaultExport(w.defaultExportName(node), w.position(node))
		}

	case "class_declaration", "abstract_class_declaration":
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			w.visitor.ClassDefinition(nameNode.Content(w.source), w.position(node))
		}

	case "jsx_element":
		if open := openingElement(node); open != nil {
			w.visitor.Element(w.element(node, open))
		}

	case "jsx_self_closing_element":
		w.visitor.Element(w.element(node, node))
	}

	// Recursively process children
	if cursor.GoToFirstChild() {
		for {
			w.walkNode(cursor)
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
}

// isDefaultExport reports whether an export statement carries the default keyword.
func isDefaultExport(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

// defaultExportName returns the name a default export introduces: the
// identifier it exports, or the name of the function or class it declares.
// Anonymous and computed exports have no name.
func (w *walker) defaultExportName(node *sitter.Node) string {
	target := node.ChildByFieldName("declaration")
	if target == nil {
		target = node.ChildByFieldName("value")
	}
	if target == nil {
		return ""
	}

	switch target.Type() {
	case "identifier":
		return target.Content(w.source)
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"function", "function_expression", "generator_function", "class":
		if nameNode := target.ChildByFieldName("name"); nameNode != nil {
			return nameNode.Content(w.source)
		}
	}
	return ""
}

// openingElement returns the opening tag of a jsx_element.
func openingElement(node *sitter.Node) *sitter.Node {
	if open := node.ChildByFieldName("open_tag"); open != nil {
		return open
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "jsx_opening_element" {
			return child
		}
	}
	return nil
}

// element builds the lint element for node whose tag is tag. Spread
// attributes are skipped.
func (w *walker) element(node, tag *sitter.Node) *lint.Element {
	el := &lint.Element{Pos: w.position(node)}
	if nameNode := tag.ChildByFieldName("name"); nameNode != nil {
		el.Name = nameNode.Content(w.source)
	}

	for i := 0; i < int(tag.NamedChildCount()); i++ {
		child := tag.NamedChild(i)
		if child.Type() != "jsx_attribute" {
			continue
		}
		if attr, ok := w.attribute(child); ok {
			el.Attributes = append(el.Attributes, attr)
		}
	}
	return el
}

// attribute converts a jsx_attribute. Only string values are literal.
func (w *walker) attribute(node *sitter.Node) (lint.Attribute, bool) {
	if node.NamedChildCount() == 0 {
		return lint.Attribute{}, false
	}

	attr := lint.Attribute{
		Name: node.NamedChild(0).Content(w.source),
		Pos:  w.position(node),
	}

	if node.NamedChildCount() > 1 {
		value := node.NamedChild(1)
		switch value.Type() {
		case "string", "jsx_string":
			attr.Value = html.UnescapeString(unquote(value.Content(w.source)))
			attr.Literal = true
		}
	}
	return attr, true
}

// unquote strips the surrounding quotes of a string literal.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// position converts a node start to a 1-based lint position.
func (w *walker) position(node *sitter.Node) lint.Position {
	start := node.StartPoint()
	return lint.Position{
		File:   w.path,
		Line:   int(start.Row) + 1,
		Column: int(start.Column) + 1,
		Offset: int(node.StartByte()),
	}
}
