package bridge

import (
	"strings"
	"testing"

	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/runtime"
)

type captureOutput struct {
	lines []string
}

func (c *captureOutput) Print(line string) { c.lines = append(c.lines, line) }

func newProgram() (*Program, *captureOutput) {
	out := &captureOutput{}
	caps := capability.Defaults()
	caps.Output = out
	return New(caps), out
}

func num(v float64) runtime.Value { return runtime.NumberValue{Val: v} }
func text(s string) runtime.Value { return runtime.TextValue{Val: s} }

func TestRunSays(t *testing.T) {
	p, out := newProgram()
	err := p.Run(func(p *Program, env *runtime.Environment) {
		p.Say(p.Ident(env, "hello"))
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(out.lines) != 1 || out.lines[0] != "hello" {
		t.Fatalf("output = %q, want [hello]", out.lines)
	}
}

func TestIdentPrefersEnvironment(t *testing.T) {
	p, _ := newProgram()
	env := p.Env()
	env.Assign("x", num(7))
	got := p.Ident(env, "x")
	if n, ok := got.(runtime.NumberValue); !ok || n.Val != 7 {
		t.Fatalf("Ident(x) = %v, want 7", got)
	}
	if v := p.Ident(env, "mystery"); runtime.Display(v) != "mystery" {
		t.Fatalf("unbound name = %v, want its own text", v)
	}
}

func TestRunConvertsThrowToError(t *testing.T) {
	p, _ := newProgram()
	err := p.Run(func(p *Program, env *runtime.Environment) {
		p.Throw(2, text("boom"))
	})
	if err == nil {
		t.Fatal("run succeeded, want error")
	}
	if err.Error() != "Line 2: boom" {
		t.Fatalf("error = %q, want %q", err.Error(), "Line 2: boom")
	}
}

func TestBinaryAndCompare(t *testing.T) {
	p, _ := newProgram()
	sum := p.Binary(1, "plus", num(2), num(3))
	if n := sum.(runtime.NumberValue); n.Val != 5 {
		t.Fatalf("2 plus 3 = %v, want 5", sum)
	}
	less := p.Compare(1, "is less than", num(2), num(3))
	if b := less.(runtime.BoolValue); !b.Val {
		t.Fatalf("2 is less than 3 = %v, want yes", less)
	}
	if !p.Matches(text("5"), num(5)) {
		t.Fatal("loose match of \"5\" and 5 failed")
	}
}

func TestLoopBodyRecoversSignals(t *testing.T) {
	p, _ := newProgram()
	env := p.Env()
	if stopped := p.LoopBody(env, func(env *runtime.Environment) {}); stopped {
		t.Fatal("plain body reported stop")
	}
	if stopped := p.LoopBody(env, func(env *runtime.Environment) { p.Skip() }); stopped {
		t.Fatal("skip reported stop")
	}
	if stopped := p.LoopBody(env, func(env *runtime.Environment) { p.Stop() }); !stopped {
		t.Fatal("stop not reported")
	}
}

func TestGuardsTripAtCap(t *testing.T) {
	p, _ := newProgram()
	p.SetLoopCap(5)
	err := p.Run(func(p *Program, env *runtime.Environment) {
		p.GuardRepeat(1, 5)
	})
	if err == nil || !strings.Contains(err.Error(), "far too long") {
		t.Fatalf("GuardRepeat error = %v, want loop guard message", err)
	}
	err = p.Run(func(p *Program, env *runtime.Environment) {
		p.GuardWhile(1, 6)
	})
	if err == nil || !strings.Contains(err.Error(), "far too long") {
		t.Fatalf("GuardWhile error = %v, want loop guard message", err)
	}
}

func TestTryCatchBindsErrorText(t *testing.T) {
	p, out := newProgram()
	err := p.Run(func(p *Program, env *runtime.Environment) {
		p.TryCatch(env, "e", func(env *runtime.Environment) {
			p.Throw(3, text("bad"))
		}, func(env *runtime.Environment) {
			p.Say(p.Ident(env, "e"))
		})
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(out.lines) != 1 || out.lines[0] != "Line 3: bad" {
		t.Fatalf("output = %q, want [Line 3: bad]", out.lines)
	}
}

func TestAttemptAddsTraceback(t *testing.T) {
	p, out := newProgram()
	p.DefineFunction("explode", nil, nil, false, func(env *runtime.Environment) runtime.Value {
		p.Throw(2, text("bad"))
		return runtime.Nothing
	})
	err := p.Run(func(p *Program, env *runtime.Environment) {
		p.Attempt(env, "problem", func(env *runtime.Environment) {
			p.Call(env, 5, "explode")
		}, func(env *runtime.Environment) {
			p.Say(p.Ident(env, "problem"))
		})
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(out.lines) != 1 {
		t.Fatalf("got %d lines %q, want 1", len(out.lines), out.lines)
	}
	if !strings.Contains(out.lines[0], "Line 2: bad") {
		t.Errorf("missing original error in %q", out.lines[0])
	}
	if !strings.Contains(out.lines[0], "Traceback (most recent call last):") {
		t.Errorf("missing traceback header in %q", out.lines[0])
	}
	if !strings.Contains(out.lines[0], "in function 'explode' at line 5") {
		t.Errorf("missing call frame in %q", out.lines[0])
	}
}

func TestDefineFunctionAndCall(t *testing.T) {
	p, _ := newProgram()
	p.DefineFunction("double", []string{"n"}, nil, false, func(env *runtime.Environment) runtime.Value {
		p.Return(p.Binary(2, "times", p.Ident(env, "n"), num(2)))
		return runtime.Nothing
	})
	var got runtime.Value
	err := p.Run(func(p *Program, env *runtime.Environment) {
		got = p.Call(env, 4, "double", num(4))
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if n := got.(runtime.NumberValue); n.Val != 8 {
		t.Fatalf("double(4) = %v, want 8", got)
	}
}

func TestDefaultParameterThunks(t *testing.T) {
	p, _ := newProgram()
	thunks := []runtime.CompiledBody{
		func(env *runtime.Environment) runtime.Value { return num(10) },
	}
	p.DefineFunction("base", []string{"n"}, thunks, false, func(env *runtime.Environment) runtime.Value {
		p.Return(p.Ident(env, "n"))
		return runtime.Nothing
	})
	var got runtime.Value
	err := p.Run(func(p *Program, env *runtime.Environment) {
		got = p.Call(env, 3, "base")
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if n := got.(runtime.NumberValue); n.Val != 10 {
		t.Fatalf("base() = %v, want default 10", got)
	}
}

func TestClassInstanceProperties(t *testing.T) {
	p, _ := newProgram()
	p.DefineClass("Point", "", "x", "y")
	var got runtime.Value
	err := p.Run(func(p *Program, env *runtime.Environment) {
		obj := p.NewInstance(4, "Point", text("x"), num(3), text("y"), num(4))
		got = p.PropertyOf(5, obj, "y")
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if n := got.(runtime.NumberValue); n.Val != 4 {
		t.Fatalf("point.y = %v, want 4", got)
	}
}

func TestDictHelpers(t *testing.T) {
	p, _ := newProgram()
	err := p.Run(func(p *Program, env *runtime.Environment) {
		d := p.Dict(1, text("name"), text("Ada"))
		env.Assign("d", d)
		if v := p.DictGet(2, d, text("name")); runtime.Display(v) != "Ada" {
			t.Errorf("DictGet = %v, want Ada", v)
		}
		if has := p.DictHas(3, d, text("name")); !runtime.Truthy(has) {
			t.Error("DictHas(name) = no, want yes")
		}
		p.SetDictEntry(4, d, text("born"), num(1815))
		if v := p.DictGet(5, d, text("born")); v.(runtime.NumberValue).Val != 1815 {
			t.Errorf("after set, born = %v", v)
		}
		p.RemoveDictEntry(6, d, text("born"))
		if has := p.DictHas(7, d, text("born")); runtime.Truthy(has) {
			t.Error("born survived removal")
		}
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestListStatements(t *testing.T) {
	p, out := newProgram()
	err := p.Run(func(p *Program, env *runtime.Environment) {
		env.Assign("nums", p.List(num(3), num(1)))
		p.AddToList(env, 2, "nums", num(2))
		p.SortList(env, 3, "nums")
		p.RemoveFromList(env, 4, "nums", num(1))
		p.Say(p.Ident(env, "nums"))
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(out.lines) != 1 || out.lines[0] != "[2, 3]" {
		t.Fatalf("output = %q, want [[2, 3]]", out.lines)
	}
}

func TestIterItemsWalksTextAndLists(t *testing.T) {
	p, _ := newProgram()
	items := p.IterItems(1, text("abc"))
	if len(items) != 3 || runtime.Display(items[0]) != "a" {
		t.Fatalf("text items = %v", items)
	}
	items = p.IterItems(2, p.List(num(1), num(2)))
	if len(items) != 2 {
		t.Fatalf("list items = %v", items)
	}
}

func TestRunTestsRendersReport(t *testing.T) {
	p, out := newProgram()
	p.AddTest("addition works", func(env *runtime.Environment) {})
	p.AddTest("this one breaks", func(env *runtime.Environment) {
		p.Throw(9, text("nope"))
	})
	err := p.Run(func(p *Program, env *runtime.Environment) {
		p.RunTests()
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	joined := strings.Join(out.lines, "\n")
	for _, fragment := range []string{
		"Running 2 test(s)...",
		"✓ addition works",
		"✗ this one breaks",
		"Line 9: nope",
		"Results: 1 passed, 1 failed, 2 total",
	} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, joined)
		}
	}
}

func TestAssertFailure(t *testing.T) {
	p, _ := newProgram()
	err := p.Run(func(p *Program, env *runtime.Environment) {
		p.Assert(6, false)
	})
	if err == nil || err.Error() != "Line 6: Assertion failed." {
		t.Fatalf("assert error = %v", err)
	}
}
