// Package compiler turns a parsed program into Go source. The emitted code
// keeps every value in the shared runtime environment and routes all
// semantics through the bridge package, so compiling a program changes how
// it runs, never what it prints.
package compiler

import (
	"fmt"

	"github.com/prose-lang/prose/pkg/ast"
)

type Options struct {
	// PackageName of the emitted source. EmitMain forces "main".
	PackageName string
	// EmitMain adds a main.go whose entry hands the program to the bridge.
	EmitMain bool
}

type Result struct {
	Files    map[string][]byte
	Warnings []string
}

type Compiler struct {
	opts Options
}

func New(opts Options) *Compiler {
	if opts.PackageName == "" || opts.EmitMain {
		opts.PackageName = "main"
	}
	return &Compiler{opts: opts}
}

func (c *Compiler) Compile(program *ast.Program) (*Result, error) {
	if program == nil {
		return nil, fmt.Errorf("compiler: missing program")
	}
	gen := newGenerator(c.opts)
	if err := gen.program(program); err != nil {
		return nil, err
	}
	files, err := gen.render()
	if err != nil {
		return nil, err
	}
	return &Result{Files: files, Warnings: gen.warnings}, nil
}

func (r *Result) Write(dir string) error {
	if r == nil {
		return fmt.Errorf("compiler: nil result")
	}
	return writeFiles(dir, r.Files)
}
