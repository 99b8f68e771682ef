package compiler

import (
	"bytes"
	"fmt"
	"go/format"
)

const generatedHeader = "// Code generated by prosec. DO NOT EDIT.\n\n"

func (g *generator) render() (map[string][]byte, error) {
	files := make(map[string][]byte)
	program, err := g.renderProgram()
	if err != nil {
		return nil, err
	}
	files["program.go"] = program
	if g.opts.EmitMain {
		mainSrc, err := g.renderMain()
		if err != nil {
			return nil, err
		}
		files["main.go"] = mainSrc
	}
	return files, nil
}

func (g *generator) renderProgram() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	fmt.Fprintf(&buf, "package %s\n\n", g.opts.PackageName)
	fmt.Fprintf(&buf, "import (\n")
	fmt.Fprintf(&buf, "\t%q\n", "github.com/prose-lang/prose/pkg/compiler/bridge")
	fmt.Fprintf(&buf, "\t%q\n", "github.com/prose-lang/prose/pkg/runtime")
	fmt.Fprintf(&buf, ")\n\n")
	// Keeps the runtime import alive for programs that never touch a value.
	fmt.Fprintf(&buf, "var _ runtime.Value\n\n")
	buf.Write(g.buf.Bytes())
	return formatSource(buf.Bytes())
}

func (g *generator) renderMain() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	fmt.Fprintf(&buf, "package main\n\n")
	fmt.Fprintf(&buf, "import %q\n\n", "github.com/prose-lang/prose/pkg/compiler/bridge")
	fmt.Fprintf(&buf, "func main() {\n")
	fmt.Fprintf(&buf, "\tbridge.Main(RunProgram)\n")
	fmt.Fprintf(&buf, "}\n")
	return formatSource(buf.Bytes())
}

// formatSource runs gofmt over the emitted source. A formatting failure
// means the generator produced invalid Go, which is a bug worth surfacing
// with the raw output attached.
func formatSource(src []byte) ([]byte, error) {
	out, err := format.Source(src)
	if err != nil {
		return src, fmt.Errorf("compiler: format generated source: %w", err)
	}
	return out, nil
}
