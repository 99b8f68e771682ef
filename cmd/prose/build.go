package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prose-lang/prose/pkg/compiler"
	"github.com/prose-lang/prose/pkg/driver"
)

func runBuild(args []string) int {
	fs := flag.NewFlagSet("prose build", flag.ContinueOnError)
	outputDir := fs.String("o", "", "output directory for generated Go code")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	entry, _, err := resolveEntry(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	program, err := driver.Load(entry)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	dir := *outputDir
	if dir == "" {
		dir = filepath.Join("target", "compiled")
	}

	comp := compiler.New(compiler.Options{EmitMain: true})
	result, err := comp.Compile(program.AST)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, warning)
	}
	if err := result.Write(dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
