package ast

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ParserFactory creates a FileParser whose result paths are relative to root.
type ParserFactory func(root string) FileParser

// ParserRegistry maps file extensions to language parsers.
// It is safe for concurrent use.
type ParserRegistry struct {
	mu        sync.RWMutex
	factories map[string]ParserFactory // language → factory
	languages map[string]string        // extension → language
}

// NewParserRegistry creates an empty registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		factories: make(map[string]ParserFactory),
		languages: make(map[string]string),
	}
}

// Register adds a parser for a language and the extensions it handles.
// Extensions include the leading dot and are matched case-insensitively.
// An extension already claimed by another language keeps its first owner.
func (r *ParserRegistry) Register(language string, extensions []string, factory ParserFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[language] = factory
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if _, taken := r.languages[ext]; !taken {
			r.languages[ext] = language
		}
	}
}

// Language returns the language registered for ext.
func (r *ParserRegistry) Language(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	language, ok := r.languages[strings.ToLower(ext)]
	return language, ok
}

// Supports reports whether a parser is registered for the file's extension.
func (r *ParserRegistry) Supports(path string) bool {
	_, ok := r.Language(filepath.Ext(path))
	return ok
}

// CreateParser instantiates the parser registered for language.
func (r *ParserRegistry) CreateParser(language, root string) (FileParser, error) {
	r.mu.RLock()
	factory, ok := r.factories[language]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no parser for language %q", language)
	}
	return factory(root), nil
}

// CreateParserForExtension instantiates the parser registered for ext.
func (r *ParserRegistry) CreateParserForExtension(ext, root string) (FileParser, error) {
	language, ok := r.Language(ext)
	if !ok {
		return nil, fmt.Errorf("no parser for extension %q", ext)
	}
	return r.CreateParser(language, root)
}

// Languages returns the registered language names, sorted.
func (r *ParserRegistry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns the sorted extensions owned by language, or every
// registered extension when language is empty.
func (r *ParserRegistry) Extensions(language string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exts []string
	for ext, owner := range r.languages {
		if language == "" || owner == language {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// DefaultRegistry is the process-wide registry. Language packages register
// themselves from init.
var DefaultRegistry = NewParserRegistry()
