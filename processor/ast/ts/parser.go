// Package ts provides TypeScript and JavaScript parsing using tree-sitter,
// including the JSX and TSX dialects, and walks the resulting trees for lint
// visitors.
package ts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/c360studio/classlint/processor/ast"
)

// grammar binds a file extension to its language name and tree-sitter
// grammar. The javascript grammar includes JSX.
type grammar struct {
	language string
	sitter   func() *sitter.Language
}

var grammars = map[string]grammar{
	".js":  {"javascript", javascript.GetLanguage},
	".jsx": {"javascript", javascript.GetLanguage},
	".mjs": {"javascript", javascript.GetLanguage},
	".cjs": {"javascript", javascript.GetLanguage},
	".ts":  {"typescript", typescript.GetLanguage},
	".mts": {"typescript", typescript.GetLanguage},
	".cts": {"typescript", typescript.GetLanguage},
	".tsx": {"typescript", tsx.GetLanguage},
}

func init() {
	byLanguage := make(map[string][]string)
	for ext, g := range grammars {
		byLanguage[g.language] = append(byLanguage[g.language], ext)
	}
	for language, exts := range byLanguage {
		ast.DefaultRegistry.Register(language, exts, func(root string) ast.FileParser {
			return NewParser(root)
		})
	}
}

// grammarFor returns the grammar for path, defaulting to javascript.
func grammarFor(path string) grammar {
	if g, ok := grammars[strings.ToLower(filepath.Ext(path))]; ok {
		return g
	}
	return grammars[".js"]
}

// Parser parses TypeScript/JavaScript source files using tree-sitter
type Parser struct {
	root string
}

// NewParser creates a new TypeScript/JavaScript parser. Result paths are
// made relative to root when possible.
func NewParser(root string) *Parser {
	return &Parser{root: root}
}

// ParseFile parses a single TypeScript/JavaScript file
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*ast.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	relPath := filePath
	if p.root != "" {
		if rel, err := filepath.Rel(p.root, filePath); err == nil && !strings.HasPrefix(rel, "..") {
			relPath = rel
		}
	}

	return p.parse(ctx, filePath, filepath.ToSlash(relPath), content)
}

// ParseSource parses in-memory content. The grammar is chosen from the
// extension of name.
func (p *Parser) ParseSource(ctx context.Context, name string, content []byte) (*ast.ParseResult, error) {
	return p.parse(ctx, name, name, content)
}

func (p *Parser) parse(ctx context.Context, filePath, relPath string, content []byte) (*ast.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := grammarFor(filePath)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.sitter())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}
	if err := ctx.Err(); err != nil {
		tree.Close()
		return nil, err
	}

	return &ast.ParseResult{
		Path:      relPath,
		Language:  g.language,
		Hash:      ast.ComputeHash(content),
		HasErrors: tree.RootNode().HasError(),
		Unit:      &unit{tree: tree, source: content, path: relPath},
	}, nil
}
