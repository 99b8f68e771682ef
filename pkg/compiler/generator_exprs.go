package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
)

// expr renders an expression as a single Go expression evaluating to a
// runtime.Value. Argument order follows the evaluator so side effects and
// error precedence line up.
func (g *generator) expr(e ast.Expression) (string, error) {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		return fmt.Sprintf("runtime.NumberValue{Val: %s}", floatLit(e.Value)), nil
	case *ast.TextLiteral:
		return fmt.Sprintf("runtime.TextValue{Val: %q}", e.Value), nil
	case *ast.BoolLiteral:
		return fmt.Sprintf("runtime.BoolValue{Val: %v}", e.Value), nil
	case *ast.NothingLiteral:
		return "runtime.Nothing", nil
	case *ast.Identifier:
		return fmt.Sprintf("p.Ident(env, %q)", e.Name), nil
	case *ast.UnaryMinus:
		v, err := g.expr(e.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("p.Neg(%d, %s)", e.Line, v), nil
	case *ast.Binary:
		return g.pair("p.Binary", e.Line, strconv.Quote(e.Op), e.Left, e.Right)
	case *ast.Compare:
		return g.pair("p.Compare", e.Line, strconv.Quote(e.Op), e.Left, e.Right)
	case *ast.TypeCheck:
		v, err := g.expr(e.Expr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("p.TypeIs(%s, %q, %v)", v, e.Expected, e.Negated), nil
	case *ast.Logical:
		cond, err := g.cond(e)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("p.Bool(%s)", cond), nil
	case *ast.InterpolatedText:
		parts := make([]string, len(e.Parts))
		for n, part := range e.Parts {
			v, err := g.expr(part)
			if err != nil {
				return "", err
			}
			parts[n] = v
		}
		return fmt.Sprintf("p.Interp(%s)", strings.Join(parts, ", ")), nil
	case *ast.ListLiteral:
		parts := make([]string, len(e.Elements))
		for n, el := range e.Elements {
			v, err := g.expr(el)
			if err != nil {
				return "", err
			}
			parts[n] = v
		}
		return fmt.Sprintf("p.List(%s)", strings.Join(parts, ", ")), nil
	case *ast.DictLiteral:
		parts := make([]string, 0, 2*len(e.Pairs))
		for _, pair := range e.Pairs {
			k, err := g.expr(pair.Key)
			if err != nil {
				return "", err
			}
			v, err := g.expr(pair.Value)
			if err != nil {
				return "", err
			}
			parts = append(parts, k, v)
		}
		args := fmt.Sprintf("%d", e.Line)
		if len(parts) > 0 {
			args += ", " + strings.Join(parts, ", ")
		}
		return fmt.Sprintf("p.Dict(%s)", args), nil

	case *ast.ListAccess:
		return g.two("p.Index", e.Line, e.List, e.Index)
	case *ast.DictAccess:
		return g.two("p.DictGet", e.Line, e.Dict, e.Key)
	case *ast.DictHasKey:
		return g.two("p.DictHas", e.Line, e.Dict, e.Key)
	case *ast.DictKeys:
		return g.one("p.DictKeys", e.Line, e.Dict)
	case *ast.StringIndex:
		return g.two("p.CharAt", e.Line, e.Str, e.Index)
	case *ast.StringSlice:
		s, err := g.expr(e.Str)
		if err != nil {
			return "", err
		}
		start, err := g.expr(e.Start)
		if err != nil {
			return "", err
		}
		end, err := g.expr(e.End)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("p.Slice(%d, %s, %s, %s)", e.Line, s, start, end), nil
	case *ast.LengthOf:
		return g.one("p.Length", e.Line, e.Expr)
	case *ast.UppercaseOf:
		return g.bare("p.Upper", e.Expr)
	case *ast.LowercaseOf:
		return g.bare("p.Lower", e.Expr)
	case *ast.TrimOf:
		return g.bare("p.Trim", e.Expr)
	case *ast.SplitBy:
		src, err := g.expr(e.Source)
		if err != nil {
			return "", err
		}
		delim, err := g.expr(e.Delimiter)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("p.Split(%s, %s)", src, delim), nil
	case *ast.JoinWith:
		return g.two("p.Join", e.Line, e.List, e.Separator)
	case *ast.ReplaceIn:
		src, err := g.expr(e.Source)
		if err != nil {
			return "", err
		}
		find, err := g.expr(e.Find)
		if err != nil {
			return "", err
		}
		repl, err := g.expr(e.Replacement)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("p.Replace(%s, %s, %s)", src, find, repl), nil
	case *ast.RepeatText:
		return g.two("p.RepeatText", e.Line, e.Expr, e.Count)
	case *ast.Contains:
		return g.two("p.Contains", e.Line, e.Haystack, e.Needle)
	case *ast.IndexOf:
		return g.two("p.IndexOf", e.Line, e.Item, e.List)

	case *ast.RoundOf:
		if e.Places == nil {
			return g.one("p.Round", e.Line, e.Expr)
		}
		return g.two("p.RoundTo", e.Line, e.Expr, e.Places)
	case *ast.AbsOf:
		return g.one("p.Abs", e.Line, e.Expr)
	case *ast.SqrtOf:
		return g.one("p.Sqrt", e.Line, e.Expr)
	case *ast.FloorOf:
		return g.one("p.Floor", e.Line, e.Expr)
	case *ast.CeilingOf:
		return g.one("p.Ceiling", e.Line, e.Expr)
	case *ast.PowerOf:
		return g.two("p.Power", e.Line, e.Base, e.Exp)
	case *ast.MinOf:
		return g.two("p.Min", e.Line, e.Left, e.Right)
	case *ast.MaxOf:
		return g.two("p.Max", e.Line, e.Left, e.Right)
	case *ast.RandomBetween:
		return g.two("p.Random", e.Line, e.Low, e.High)
	case *ast.AsNumber:
		return g.one("p.AsNumber", e.Line, e.Expr)
	case *ast.AsText:
		return g.bare("p.AsText", e.Expr)

	case *ast.FileContents:
		return g.one("p.FileContents", e.Line, e.File)
	case *ast.FileExists:
		return g.bare("p.FileExists", e.File)
	case *ast.TimeOp:
		return fmt.Sprintf("p.TimeOp(%q)", e.Op), nil
	case *ast.JSONParse:
		return g.one("p.ParseJSON", e.Line, e.Text)
	case *ast.JSONString:
		return g.one("p.ToJSON", e.Line, e.Value)
	case *ast.HTTPGet:
		return g.one("p.HTTPGet", e.Line, e.URL)
	case *ast.HTTPPost:
		return g.two("p.HTTPPost", e.Line, e.URL, e.Payload)

	case *ast.NewInstance:
		parts := make([]string, 0, 2*len(e.Args))
		for _, pair := range e.Args {
			k, err := g.expr(pair.Key)
			if err != nil {
				return "", err
			}
			v, err := g.expr(pair.Value)
			if err != nil {
				return "", err
			}
			parts = append(parts, k, v)
		}
		args := fmt.Sprintf("%d, %q", e.Line, e.ClassName)
		if len(parts) > 0 {
			args += ", " + strings.Join(parts, ", ")
		}
		return fmt.Sprintf("p.NewInstance(%s)", args), nil
	case *ast.PropertyAccess:
		obj, err := g.expr(e.Object)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("p.PropertyOf(%d, %s, %q)", e.Line, obj, e.Property), nil
	case *ast.Lambda:
		return g.lambda(e.Params, false, func(sub *generator) error {
			body, err := sub.expr(e.Body)
			if err != nil {
				return err
			}
			sub.w("return %s", body)
			return nil
		})
	case *ast.BlockLambda:
		return g.lambda(e.Params, e.Async, func(sub *generator) error {
			if err := sub.stmts(e.Body); err != nil {
				return err
			}
			sub.w("return runtime.Nothing")
			return nil
		})
	case *ast.MapOver:
		return g.two("p.MapOver", e.Line, e.Func, e.List)
	case *ast.FilterWhere:
		return g.filter(e.Line, e.List, "item", e.Condition, "runtime.MsgFilterNeedsList")
	case *ast.AllWhere:
		return g.filter(e.Line, e.Source, e.VarName, e.Condition, "runtime.MsgAllWhereNeedsList")
	case *ast.CallResult:
		return g.callChain(e.Name, e.Args, e.Object, nil, e.Line)
	case *ast.Wait:
		return g.one("p.Wait", e.Line, e.Expr)

	case *ast.CommandLineArgs:
		return "p.Args()", nil
	case *ast.EnvironmentVariable:
		return g.bare("p.EnvVar", e.Name)
	case *ast.RegexMatch:
		return g.two("p.RegexFind", e.Line, e.Pattern, e.Text)
	case *ast.RegexTest:
		return g.two("p.RegexTest", e.Line, e.Pattern, e.Text)

	default:
		return "", fmt.Errorf("compiler: line %d: cannot compile this expression", e.Pos())
	}
}

// cond renders an expression in condition position as a Go bool, keeping
// the short-circuit shape of and/or.
func (g *generator) cond(e ast.Expression) (string, error) {
	if l, ok := e.(*ast.Logical); ok {
		left, err := g.cond(l.Left)
		if err != nil {
			return "", err
		}
		right, err := g.cond(l.Right)
		if err != nil {
			return "", err
		}
		op := "&&"
		if l.Connective == "or" {
			op = "||"
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), nil
	}
	v, err := g.expr(e)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("p.Truthy(%s)", v), nil
}

// lambda renders an inline function value. The body is emitted through a
// sub-generator sharing the temp counter, so nested lambdas keep unique
// names and the current indent.
func (g *generator) lambda(params []ast.Param, async bool, emitBody func(sub *generator) error) (string, error) {
	sub := &generator{opts: g.opts, indent: g.indent, temps: g.temps}
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
			dv, err := sub.expr(param.Default)
			if err != nil {
				return "", err
			}
			parts[n] = fmt.Sprintf("func(env *runtime.Environment) runtime.Value { return %s }", dv)
		}
		thunks = "[]runtime.CompiledBody{" + strings.Join(parts, ", ") + "}"
	}
	sub.buf.WriteString(fmt.Sprintf("p.Lambda(env, []string{%s}, %s, %v, func(env *runtime.Environment) runtime.Value {\n", strings.Join(names, ", "), thunks, async))
	sub.in()
	if err := emitBody(sub); err != nil {
		return "", err
	}
	sub.out()
	sub.w("})")
	g.temps = sub.temps
	return strings.TrimRight(sub.buf.String(), "\n\t"), nil
}

// filter renders "filtering"/"all ... where" with an inline condition
// closure over the per-element environment.
func (g *generator) filter(line int, list ast.Expression, varName string, condition ast.Expression, msgConst string) (string, error) {
	lv, err := g.expr(list)
	if err != nil {
		return "", err
	}
	sub := &generator{opts: g.opts, indent: g.indent, temps: g.temps}
	sub.buf.WriteString("func(env *runtime.Environment) bool {\n")
	sub.in()
	cond, err := sub.cond(condition)
	if err != nil {
		return "", err
	}
	sub.w("return %s", cond)
	sub.out()
	sub.w("}")
	g.temps = sub.temps
	keep := strings.TrimRight(sub.buf.String(), "\n\t")
	return fmt.Sprintf("p.Filter(%d, %s, env, %q, %s, %s)", line, lv, varName, keep, msgConst), nil
}

//-----------------------------------------------------------------------------
// Small emission helpers
//-----------------------------------------------------------------------------

func (g *generator) bare(fn string, e ast.Expression) (string, error) {
	v, err := g.expr(e)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", fn, v), nil
}

func (g *generator) one(fn string, line int, e ast.Expression) (string, error) {
	v, err := g.expr(e)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%d, %s)", fn, line, v), nil
}

func (g *generator) two(fn string, line int, a, b ast.Expression) (string, error) {
	av, err := g.expr(a)
	if err != nil {
		return "", err
	}
	bv, err := g.expr(b)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%d, %s, %s)", fn, line, av, bv), nil
}

func (g *generator) pair(fn string, line int, op string, a, b ast.Expression) (string, error) {
	av, err := g.expr(a)
	if err != nil {
		return "", err
	}
	bv, err := g.expr(b)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%d, %s, %s, %s)", fn, line, op, av, bv), nil
}

func floatLit(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
