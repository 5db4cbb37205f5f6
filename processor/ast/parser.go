// Package ast provides source parsing for classlint: the language-neutral
// parse result that drives lint visitors, a registry of language parsers
// keyed by file extension, and a file watcher that reparses changed files.
package ast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/c360studio/classlint/lint"
)

// FileParser parses source files into analysis units.
type FileParser interface {
	// ParseFile reads and parses a file on disk.
	ParseFile(ctx context.Context, filePath string) (*ParseResult, error)

	// ParseSource parses in-memory content. name is used for positions and
	// to select the grammar by extension.
	ParseSource(ctx context.Context, name string, content []byte) (*ParseResult, error)
}

// Unit is a parsed analysis unit. Walk drives the visitor over the unit in
// document order and finishes with exactly one ExitUnit call.
type Unit interface {
	Walk(v lint.Visitor)
	Close()
}

// ParseResult holds the result of parsing a single file
type ParseResult struct {
	// Path is the file path relative to the parser's root
	Path string

	// Language is the detected language (javascript, typescript)
	Language string

	// Hash is the content hash for change detection
	Hash string

	// HasErrors is true when the parser had to recover from syntax errors
	HasErrors bool

	// Unit drives lint visitors over the parsed tree
	Unit Unit
}

// Walk drives v over the parsed unit.
// A result without a unit still produces the ExitUnit callback.
func (r *ParseResult) Walk(v lint.Visitor) {
	if r.Unit == nil {
		v.ExitUnit(lint.Position{File: r.Path, Line: 1, Column: 1})
		return
	}
	r.Unit.Walk(v)
}

// Close releases the parsed tree.
func (r *ParseResult) Close() {
	if r.Unit != nil {
		r.Unit.Close()
	}
}

// ComputeHash computes a SHA256 hash of the given content
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8]) // First 8 bytes for brevity
}
