package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prose-lang/prose/pkg/parser"
)

func compileSource(t *testing.T, source string, opts Options) *Result {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	result, err := New(opts).Compile(prog)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return result
}

// gen compiles a program and returns the emitted program.go text.
func gen(t *testing.T, source string) string {
	t.Helper()
	result := compileSource(t, source, Options{})
	src, ok := result.Files["program.go"]
	if !ok {
		t.Fatalf("no program.go in result (files: %v)", fileNames(result))
	}
	return string(src)
}

func fileNames(r *Result) []string {
	names := make([]string, 0, len(r.Files))
	for name := range r.Files {
		names = append(names, name)
	}
	return names
}

func wantContains(t *testing.T, src string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(src, fragment) {
			t.Errorf("generated source missing %q:\n%s", fragment, src)
		}
	}
}

func TestEmitsRunProgramEntry(t *testing.T) {
	src := gen(t, "Say hello.")
	wantContains(t, src,
		"func RunProgram(p *bridge.Program, env *runtime.Environment) {",
		`p.Say(p.Ident(env, "hello"))`,
	)
}

func TestLetAssignsIntoEnvironment(t *testing.T) {
	src := gen(t, "Let x be 5.\nSay x.")
	wantContains(t, src,
		`env.Assign("x", runtime.NumberValue{Val: 5})`,
		`p.Say(p.Ident(env, "x"))`,
	)
}

func TestBinaryKeepsOperatorText(t *testing.T) {
	src := gen(t, "Say 10 plus 5 times 2.")
	wantContains(t, src, `p.Binary(`, `"plus"`, `"times"`)
}

func TestIfOpensChildScope(t *testing.T) {
	src := gen(t, `Let x be 3.
If x is greater than 1 then do the following.
Say big.
Otherwise do the following.
Say small.
End if.`)
	wantContains(t, src,
		"env := runtime.NewEnvironment(env)",
		"} else {",
		"p.Truthy(",
	)
}

func TestWhileEmitsRunawayGuard(t *testing.T) {
	src := gen(t, `Let n be 0.
While n is less than 3 do the following.
Let n be n plus 1.
End while.`)
	wantContains(t, src, "p.GuardWhile(", "p.LoopBody(env, func(env *runtime.Environment) {")
}

func TestRepeatCountsUpFront(t *testing.T) {
	src := gen(t, "Repeat 3 times.\nSay hi.\nEnd repeat.")
	wantContains(t, src, "p.RepeatCount(1,", "p.GuardRepeat(")
}

func TestTryCatchBindsErrorVariable(t *testing.T) {
	src := gen(t, `Try the following.
Throw error "boom".
Handle error and save it as e.
Say e.
End try.`)
	wantContains(t, src, `p.TryCatch(env, "e", func(env *runtime.Environment) {`, "p.Throw(2,")
}

func TestFunctionDefinitionRegistersCompiledBody(t *testing.T) {
	src := gen(t, `Define a function called greet that takes name and does the following.
Say name.
End function.
Call greet with "Ada".`)
	wantContains(t, src,
		`p.DefineFunction("greet", []string{"name"}`,
		"return runtime.Nothing",
		`p.Call(env, 4, "greet"`,
	)
}

func TestWindowStatementsRefuseToCompile(t *testing.T) {
	prog, err := parser.Parse(`Create a window called win with title "Calc" and size 300 by 400.`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = New(Options{}).Compile(prog)
	if err == nil {
		t.Fatal("compile succeeded, want window error")
	}
	if !strings.Contains(err.Error(), "window statements cannot be compiled") {
		t.Errorf("error = %q, want window message", err)
	}
}

func TestEmitMainAddsWrapper(t *testing.T) {
	result := compileSource(t, "Say hi.", Options{EmitMain: true})
	mainSrc, ok := result.Files["main.go"]
	if !ok {
		t.Fatalf("no main.go in result (files: %v)", fileNames(result))
	}
	if !strings.Contains(string(mainSrc), "bridge.Main(RunProgram)") {
		t.Errorf("main.go missing bridge entry:\n%s", mainSrc)
	}
	if !strings.Contains(string(result.Files["program.go"]), "package main") {
		t.Error("EmitMain should force package main")
	}
}

func TestPackageNameOption(t *testing.T) {
	result := compileSource(t, "Say hi.", Options{PackageName: "demo"})
	if !strings.Contains(string(result.Files["program.go"]), "package demo") {
		t.Error("PackageName option not honored")
	}
	if _, ok := result.Files["main.go"]; ok {
		t.Error("main.go emitted without EmitMain")
	}
}

func TestGeneratedFilesCarryHeader(t *testing.T) {
	src := gen(t, "Say hi.")
	if !strings.HasPrefix(src, "// Code generated by prosec. DO NOT EDIT.") {
		t.Errorf("missing generated header:\n%s", src[:60])
	}
}

func TestResultWriteCreatesFiles(t *testing.T) {
	result := compileSource(t, "Say hi.", Options{EmitMain: true})
	dir := filepath.Join(t.TempDir(), "out")
	if err := result.Write(dir); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	for _, name := range []string{"program.go", "main.go"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
