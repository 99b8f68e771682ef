// Package driver loads Prose programs for the CLI: entry source, the
// optional prose.yml project manifest, and git-sourced libraries pinned by
// prose.lock.
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/parser"
)

// Program is a loaded entry file with its project context.
type Program struct {
	Path     string
	Source   string
	AST      *ast.Program
	Manifest *Manifest
}

// Load reads and parses the entry file and picks up the nearest prose.yml
// above it, when one exists.
func Load(entry string) (*Program, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve %s: %w", entry, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", abs, err)
	}
	source := string(data)
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	loaded := &Program{Path: abs, Source: source, AST: prog}

	manifestPath, err := FindManifest(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	if manifestPath != "" {
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		loaded.Manifest = manifest
	}
	return loaded, nil
}

// Check parses the entry file without executing it.
func Check(entry string) error {
	_, err := Load(entry)
	return err
}
