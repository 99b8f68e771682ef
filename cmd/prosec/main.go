package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prose-lang/prose/pkg/compiler"
	"github.com/prose-lang/prose/pkg/driver"
)

func main() {
	outputDir := flag.String("o", "", "output directory for generated Go code")
	pkgName := flag.String("pkg", "", "Go package name for generated code")
	emitMain := flag.Bool("main", false, "emit a runnable main.go wrapper (package must be main)")
	flag.Parse()

	entry := flag.Arg(0)
	if entry == "" {
		fmt.Fprintln(os.Stderr, "usage: prosec [options] <entry.prose>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *emitMain {
		if *pkgName != "" && *pkgName != "main" {
			fmt.Fprintln(os.Stderr, "prosec: -main requires -pkg=main")
			os.Exit(2)
		}
		*pkgName = "main"
	}

	if *outputDir == "" {
		*outputDir = filepath.Join("target", "compiled")
	}

	program, err := driver.Load(entry)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	comp := compiler.New(compiler.Options{
		PackageName: *pkgName,
		EmitMain:    *emitMain,
	})
	result, err := comp.Compile(program.AST)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, warning)
	}
	if err := result.Write(*outputDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
