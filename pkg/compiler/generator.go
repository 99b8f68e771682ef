package compiler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
)

// generator emits one Go statement list per program. All user variables
// live in the runtime environment chain, so the generator never invents
// Go identifiers for them; the only generated names are loop temporaries.
type generator struct {
	opts     Options
	buf      bytes.Buffer
	indent   int
	temps    int
	warnings []string
}

func newGenerator(opts Options) *generator {
	return &generator{opts: opts}
}

func (g *generator) w(format string, args ...any) {
	g.buf.WriteString(strings.Repeat("\t", g.indent))
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

func (g *generator) in()  { g.indent++ }
func (g *generator) out() { g.indent-- }

func (g *generator) newTemp(prefix string) string {
	g.temps++
	return fmt.Sprintf("__prose_%s%d", prefix, g.temps)
}

func (g *generator) program(prog *ast.Program) error {
	g.w("// RunProgram executes the compiled program against the given bridge.")
	g.w("func RunProgram(p *bridge.Program, env *runtime.Environment) {")
	g.in()
	if err := g.stmts(prog.Statements); err != nil {
		return err
	}
	g.out()
	g.w("}")
	return nil
}

func (g *generator) stmts(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// childBlock opens a brace scope whose env shadows the outer one, the way
// the evaluator gives If branches their own environment.
func (g *generator) childBlock(body []ast.Statement) error {
	g.in()
	g.w("env := runtime.NewEnvironment(env)")
	g.w("_ = env")
	if err := g.stmts(body); err != nil {
		return err
	}
	g.out()
	return nil
}

// loopBody emits the per-turn closure of a loop and breaks on a stop.
func (g *generator) loopBody(envName string, prolog func(), body []ast.Statement) error {
	g.w("if p.LoopBody(%s, func(env *runtime.Environment) {", envName)
	g.in()
	if prolog != nil {
		prolog()
	}
	if err := g.stmts(body); err != nil {
		return err
	}
	g.out()
	g.w("}) {")
	g.in()
	g.w("break")
	g.out()
	g.w("}")
	return nil
}

// fn emits a compiled function value's parameter list, default thunks, and
// body closure, shared by named functions, methods, and lambdas.
func (g *generator) fnArgs(params []ast.Param, async bool, emitBody func() error) error {
	names := make([]string, len(params))
	hasDefault := false
	for n, p := range params {
		names[n] = fmt.Sprintf("%q", p.Name)
		if p.Default != nil {
			hasDefault = true
		}
	}
	thunks := "nil"
	if hasDefault {
		parts := make([]string, len(params))
		for n, param := range params {
			if param.Default == nil {
				parts[n] = "nil"
				continue
			}
			dv, err := g.expr(param.Default)
			if err != nil {
				return err
			}
			parts[n] = fmt.Sprintf("func(env *runtime.Environment) runtime.Value { return %s }", dv)
		}
		thunks = "[]runtime.CompiledBody{" + strings.Join(parts, ", ") + "}"
	}
	g.buf.WriteString(fmt.Sprintf("[]string{%s}, %s, %v, func(env *runtime.Environment) runtime.Value {\n", strings.Join(names, ", "), thunks, async))
	g.in()
	if err := emitBody(); err != nil {
		return err
	}
	g.w("return runtime.Nothing")
	g.out()
	g.w("})")
	return nil
}

func (g *generator) stmt(s ast.Statement) error {
	switch s := s.(type) {
	case *ast.LetStmt:
		v, err := g.expr(s.Expr)
		if err != nil {
			return err
		}
		g.w("env.Assign(%q, %s)", s.Name, v)
	case *ast.LetResultStmt:
		v, err := g.callChain(s.FuncName, s.Args, s.Object, s.Chained, s.Line)
		if err != nil {
			return err
		}
		g.w("env.Assign(%q, %s)", s.Variable, v)
	case *ast.DisplayStmt:
		v, err := g.expr(s.Expr)
		if err != nil {
			return err
		}
		g.w("p.Display(%s)", v)
	case *ast.SayStmt:
		parts := make([]string, len(s.Parts))
		for n, part := range s.Parts {
			v, err := g.expr(part)
			if err != nil {
				return err
			}
			parts[n] = v
		}
		g.w("p.Say(%s)", strings.Join(parts, ", "))
	case *ast.AskStmt:
		g.w("p.Ask(env, %q)", s.Variable)
	case *ast.IfStmt:
		cond, err := g.cond(s.Condition)
		if err != nil {
			return err
		}
		g.w("if %s {", cond)
		if err := g.childBlock(s.Then); err != nil {
			return err
		}
		if len(s.Else) > 0 {
			g.w("} else {")
			if err := g.childBlock(s.Else); err != nil {
				return err
			}
		}
		g.w("}")
	case *ast.RepeatStmt:
		count, err := g.expr(s.Count)
		if err != nil {
			return err
		}
		cn := g.newTemp("count")
		it := g.newTemp("n")
		g.w("for %s, %s := 0, p.RepeatCount(%d, %s); %s < %s; %s++ {", it, cn, s.Line, count, it, cn, it)
		g.in()
		g.w("p.GuardRepeat(%d, %s)", s.Line, it)
		if err := g.loopBody("env", nil, s.Body); err != nil {
			return err
		}
		g.out()
		g.w("}")
	case *ast.WhileStmt:
		cond, err := g.cond(s.Condition)
		if err != nil {
			return err
		}
		it := g.newTemp("iter")
		g.w("for %s := 0; %s; {", it, cond)
		g.in()
		g.w("%s++", it)
		g.w("p.GuardWhile(%d, %s)", s.Line, it)
		if err := g.loopBody("env", nil, s.Body); err != nil {
			return err
		}
		g.out()
		g.w("}")
	case *ast.ForEachStmt:
		iter, err := g.expr(s.Iterable)
		if err != nil {
			return err
		}
		le := g.newTemp("loop")
		item := g.newTemp("item")
		g.w("%s := runtime.NewEnvironment(env)", le)
		g.w("for _, %s := range p.IterItems(%d, %s) {", item, s.Line, iter)
		g.in()
		g.w("%s.Assign(%q, %s)", le, s.Var, item)
		if err := g.loopBody(le, nil, s.Body); err != nil {
			return err
		}
		g.out()
		g.w("}")
	case *ast.ForRangeStmt:
		from, err := g.expr(s.From)
		if err != nil {
			return err
		}
		to, err := g.expr(s.To)
		if err != nil {
			return err
		}
		step := "1"
		if s.Step != nil {
			sv, err := g.expr(s.Step)
			if err != nil {
				return err
			}
			step = fmt.Sprintf("p.RangeStep(%d, %s)", s.Line, sv)
		}
		n := g.newTemp("n")
		fromT := g.newTemp("from")
		toT := g.newTemp("to")
		stepT := g.newTemp("step")
		g.w("%s := p.IntOf(%d, %s)", fromT, s.From.Pos(), from)
		g.w("%s := p.IntOf(%d, %s)", toT, s.To.Pos(), to)
		g.w("%s := %s", stepT, step)
		g.w("for %s := %s; (%s > 0 && %s <= %s) || (%s < 0 && %s >= %s); %s += %s {",
			n, fromT, stepT, n, toT, stepT, n, toT, n, stepT)
		g.in()
		err = g.loopBody("env", func() {
			g.w("env.SetLocal(%q, runtime.NumberValue{Val: float64(%s)})", s.Var, n)
		}, s.Body)
		if err != nil {
			return err
		}
		g.out()
		g.w("}")
	case *ast.FunctionDef:
		g.buf.WriteString(strings.Repeat("\t", g.indent))
		fmt.Fprintf(&g.buf, "p.DefineFunction(%q, ", s.Name)
		if err := g.fnArgs(s.Params, s.Async, func() error { return g.stmts(s.Body) }); err != nil {
			return err
		}
	case *ast.ClassDef:
		props := make([]string, len(s.Properties))
		for n, prop := range s.Properties {
			props[n] = fmt.Sprintf("%q", prop)
		}
		args := fmt.Sprintf("%q, %q", s.Name, s.Parent)
		if len(props) > 0 {
			args += ", " + strings.Join(props, ", ")
		}
		g.w("p.DefineClass(%s)", args)
	case *ast.MethodDef:
		g.buf.WriteString(strings.Repeat("\t", g.indent))
		fmt.Fprintf(&g.buf, "p.DefineMethod(%q, %q, ", s.ClassName, s.Name)
		if err := g.fnArgs(s.Params, s.Async, func() error { return g.stmts(s.Body) }); err != nil {
			return err
		}
	case *ast.EnumDef:
		// Variants resolve as their own names, so nothing is emitted.
	case *ast.CallStmt:
		v, err := g.callChain(s.Name, s.Args, s.Object, s.Chained, s.Line)
		if err != nil {
			return err
		}
		g.w("_ = %s", v)
	case *ast.GiveBackStmt:
		v, err := g.expr(s.Expr)
		if err != nil {
			return err
		}
		g.w("p.Return(%s)", v)
	case *ast.StopStmt:
		g.w("p.Stop()")
	case *ast.SkipStmt:
		g.w("p.Skip()")
	case *ast.AddToListStmt:
		v, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		g.w("p.AddToList(env, %d, %q, %s)", s.Line, s.ListName, v)
	case *ast.RemoveFromListStmt:
		idx, err := g.expr(s.Index)
		if err != nil {
			return err
		}
		g.w("p.RemoveFromList(env, %d, %q, %s)", s.Line, s.ListName, idx)
	case *ast.SortListStmt:
		g.w("p.SortList(env, %d, %q)", s.Line, s.ListName)
	case *ast.SetPropertyStmt:
		obj, err := g.expr(s.Object)
		if err != nil {
			return err
		}
		v, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		g.w("p.SetProperty(%d, %s, %q, %s)", s.Line, obj, s.Property, v)
	case *ast.SetDictValueStmt:
		dict, err := g.expr(s.Dict)
		if err != nil {
			return err
		}
		key, err := g.expr(s.Key)
		if err != nil {
			return err
		}
		v, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		g.w("p.SetDictEntry(%d, %s, %s, %s)", s.Line, dict, key, v)
	case *ast.RemoveDictValueStmt:
		dict, err := g.expr(s.Dict)
		if err != nil {
			return err
		}
		key, err := g.expr(s.Key)
		if err != nil {
			return err
		}
		g.w("p.RemoveDictEntry(%d, %s, %s)", s.Line, dict, key)
	case *ast.WriteFileStmt:
		content, err := g.expr(s.Content)
		if err != nil {
			return err
		}
		file, err := g.expr(s.File)
		if err != nil {
			return err
		}
		g.w("p.WriteFile(%d, %s, %s)", s.Line, content, file)
	case *ast.AppendFileStmt:
		content, err := g.expr(s.Content)
		if err != nil {
			return err
		}
		file, err := g.expr(s.File)
		if err != nil {
			return err
		}
		g.w("p.AppendFile(%d, %s, %s)", s.Line, content, file)
	case *ast.ImportStmt:
		args := fmt.Sprintf("env, %d, %q, %q", s.Line, s.File, s.Alias)
		for _, name := range s.Names {
			args += fmt.Sprintf(", %q", name)
		}
		g.w("p.Import(%s)", args)
	case *ast.ThrowStmt:
		msg, err := g.expr(s.Message)
		if err != nil {
			return err
		}
		g.w("p.Throw(%d, %s)", s.Line, msg)
	case *ast.TryCatchStmt:
		g.w("p.TryCatch(env, %q, func(env *runtime.Environment) {", s.ErrorVar)
		g.in()
		if err := g.stmts(s.TryBody); err != nil {
			return err
		}
		g.out()
		g.w("}, func(env *runtime.Environment) {")
		g.in()
		if err := g.stmts(s.CatchBody); err != nil {
			return err
		}
		g.out()
		g.w("})")
	case *ast.AttemptStmt:
		g.w("p.Attempt(env, %q, func(env *runtime.Environment) {", s.ErrorVar)
		g.in()
		if err := g.stmts(s.TryBody); err != nil {
			return err
		}
		g.out()
		g.w("}, func(env *runtime.Environment) {")
		g.in()
		if err := g.stmts(s.CatchBody); err != nil {
			return err
		}
		g.out()
		g.w("})")
	case *ast.CheckStmt:
		v, err := g.expr(s.Expr)
		if err != nil {
			return err
		}
		if len(s.Cases) == 0 {
			g.w("_ = %s", v)
			return g.stmts(s.Otherwise)
		}
		chk := g.newTemp("check")
		g.w("%s := %s", chk, v)
		for n, c := range s.Cases {
			cv, err := g.expr(c.Value)
			if err != nil {
				return err
			}
			if n == 0 {
				g.w("if p.Matches(%s, %s) {", chk, cv)
			} else {
				g.w("} else if p.Matches(%s, %s) {", chk, cv)
			}
			g.in()
			if err := g.stmts(c.Body); err != nil {
				return err
			}
			g.out()
		}
		if len(s.Otherwise) > 0 {
			g.w("} else {")
			g.in()
			if err := g.stmts(s.Otherwise); err != nil {
				return err
			}
			g.out()
		}
		g.w("}")
	case *ast.TestBlock:
		g.w("p.AddTest(%q, func(env *runtime.Environment) {", s.Name)
		g.in()
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		g.out()
		g.w("})")
	case *ast.AssertStmt:
		cond, err := g.cond(s.Condition)
		if err != nil {
			return err
		}
		g.w("p.Assert(%d, %s)", s.Line, cond)
	case *ast.RunTestsStmt:
		g.w("p.RunTests()")
	case *ast.ExpressionStmt:
		v, err := g.expr(s.Expr)
		if err != nil {
			return err
		}
		g.w("_ = %s", v)
	case *ast.CreateWindowStmt, *ast.AddWidgetStmt, *ast.RunWindowStmt, *ast.SetTextStmt, *ast.WhenStmt:
		return fmt.Errorf("compiler: line %d: window statements cannot be compiled; run this program with the interpreter", s.Pos())
	default:
		return fmt.Errorf("compiler: line %d: cannot compile this statement", s.Pos())
	}
	return nil
}

// callChain renders a call and its chained method calls as one nested
// expression, which keeps the left-to-right evaluation order.
func (g *generator) callChain(name string, args []ast.Expression, object ast.Expression, chained []ast.ChainedCall, line int) (string, error) {
	argList := func(exprs []ast.Expression) (string, error) {
		parts := make([]string, len(exprs))
		for n, a := range exprs {
			v, err := g.expr(a)
			if err != nil {
				return "", err
			}
			parts[n] = v
		}
		if len(parts) == 0 {
			return "", nil
		}
		return ", " + strings.Join(parts, ", "), nil
	}
	initial, err := argList(args)
	if err != nil {
		return "", err
	}
	var current string
	if object != nil {
		obj, err := g.expr(object)
		if err != nil {
			return "", err
		}
		current = fmt.Sprintf("p.CallOn(env, %d, %s, %q%s)", line, obj, name, initial)
	} else {
		current = fmt.Sprintf("p.Call(env, %d, %q%s)", line, name, initial)
	}
	for _, c := range chained {
		chainArgs, err := argList(c.Args)
		if err != nil {
			return "", err
		}
		current = fmt.Sprintf("p.Chain(env, %d, %s, %q%s)", c.Line, current, c.Name, chainArgs)
	}
	return current, nil
}
