// Package interp is the tree-walking evaluator. It executes a parsed
// program against an environment chain, with all side effects routed
// through the capability set so tests and the CLI can swap them out.
package interp

import (
	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/runtime"
)

// DefaultLoopCap is how many iterations a While or Repeat loop may run
// before the evaluator assumes it will never finish.
const DefaultLoopCap = runtime.DefaultLoopCap

// Interpreter executes programs. Registries are per-instance so
// independent runs never share definitions.
type Interpreter struct {
	caps    *capability.Set
	Global  *runtime.Environment
	loopCap int

	functions map[string]runtime.Value
	classes   map[string]*ast.ClassDef
	methods   map[string]map[string]*runtime.FunctionValue
	enums     map[string]*ast.EnumDef
	tests     []*ast.TestBlock

	windows map[*runtime.ObjectValue]capability.Window
	widgets map[*runtime.ObjectValue]widgetRef
	nextWidget int
}

type widgetRef struct {
	win  capability.Window
	name string
}

func New(caps *capability.Set) *Interpreter {
	if caps == nil {
		caps = capability.Defaults()
	}
	return &Interpreter{
		caps:      caps,
		Global:    runtime.NewEnvironment(nil),
		loopCap:   DefaultLoopCap,
		functions: map[string]runtime.Value{},
		classes:   map[string]*ast.ClassDef{},
		methods:   map[string]map[string]*runtime.FunctionValue{},
		enums:     map[string]*ast.EnumDef{},
		windows:   map[*runtime.ObjectValue]capability.Window{},
		widgets:   map[*runtime.ObjectValue]widgetRef{},
	}
}

// SetLoopCap overrides the runaway-loop guard threshold.
func (i *Interpreter) SetLoopCap(n int) {
	if n > 0 {
		i.loopCap = n
	}
}

// Run executes a whole program in the global environment.
func (i *Interpreter) Run(prog *ast.Program) error {
	return i.execute(prog.Statements, i.Global)
}

func (i *Interpreter) execute(stmts []ast.Statement, env *runtime.Environment) error {
	for _, stmt := range stmts {
		if err := i.executeStmt(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) executeStmt(stmt ast.Statement, env *runtime.Environment) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		val, err := i.evaluate(s.Expr, env)
		if err != nil {
			return err
		}
		env.Assign(s.Name, val)
		return nil
	case *ast.LetResultStmt:
		val, err := i.executeCallChain(s.FuncName, s.Args, s.Object, s.Chained, env, s.Line)
		if err != nil {
			return err
		}
		env.Assign(s.Variable, val)
		return nil
	case *ast.DisplayStmt:
		val, err := i.evaluate(s.Expr, env)
		if err != nil {
			return err
		}
		i.caps.Output.Print(runtime.Display(val))
		return nil
	case *ast.SayStmt:
		return i.execSay(s, env)
	case *ast.AskStmt:
		return i.execAsk(s, env)
	case *ast.IfStmt:
		return i.execIf(s, env)
	case *ast.RepeatStmt:
		return i.execRepeat(s, env)
	case *ast.WhileStmt:
		return i.execWhile(s, env)
	case *ast.ForEachStmt:
		return i.execForEach(s, env)
	case *ast.ForRangeStmt:
		return i.execForRange(s, env)
	case *ast.FunctionDef:
		i.functions[s.Name] = &runtime.FunctionValue{
			Name: s.Name, Params: s.Params, Body: s.Body, Async: s.Async, Closure: i.Global,
		}
		return nil
	case *ast.ClassDef:
		i.classes[s.Name] = s
		if i.methods[s.Name] == nil {
			i.methods[s.Name] = map[string]*runtime.FunctionValue{}
		}
		return nil
	case *ast.MethodDef:
		if i.methods[s.ClassName] == nil {
			i.methods[s.ClassName] = map[string]*runtime.FunctionValue{}
		}
		i.methods[s.ClassName][s.Name] = &runtime.FunctionValue{
			Name: s.Name, Params: s.Params, Body: s.Body, Async: s.Async,
		}
		return nil
	case *ast.EnumDef:
		i.enums[s.Name] = s
		return nil
	case *ast.CallStmt:
		_, err := i.executeCallChain(s.Name, s.Args, s.Object, s.Chained, env, s.Line)
		return err
	case *ast.GiveBackStmt:
		val, err := i.evaluate(s.Expr, env)
		if err != nil {
			return err
		}
		return runtime.ReturnSignal{Value: val}
	case *ast.StopStmt:
		return runtime.StopSignal{}
	case *ast.SkipStmt:
		return runtime.SkipSignal{}
	case *ast.AddToListStmt:
		return i.execAddToList(s, env)
	case *ast.RemoveFromListStmt:
		return i.execRemoveFromList(s, env)
	case *ast.SortListStmt:
		return i.execSortList(s, env)
	case *ast.SetPropertyStmt:
		return i.execSetProperty(s, env)
	case *ast.SetDictValueStmt:
		return i.execSetDictValue(s, env)
	case *ast.RemoveDictValueStmt:
		return i.execRemoveDictValue(s, env)
	case *ast.WriteFileStmt:
		return i.execWriteFile(s, env)
	case *ast.AppendFileStmt:
		return i.execAppendFile(s, env)
	case *ast.ImportStmt:
		return i.execImport(s, env)
	case *ast.ThrowStmt:
		val, err := i.evaluate(s.Message, env)
		if err != nil {
			return err
		}
		return runtime.Errorf(s.Line, runtime.MsgThrow, s.Line, runtime.Display(val))
	case *ast.TryCatchStmt:
		return i.execTryCatch(s, env)
	case *ast.AttemptStmt:
		return i.execAttempt(s, env)
	case *ast.CheckStmt:
		return i.execCheck(s, env)
	case *ast.TestBlock:
		i.tests = append(i.tests, s)
		return nil
	case *ast.AssertStmt:
		ok, err := i.condValue(s.Condition, env)
		if err != nil {
			return err
		}
		if !ok {
			return runtime.Errorf(s.Line, runtime.MsgAssertFailed, s.Line)
		}
		return nil
	case *ast.RunTestsStmt:
		return i.execRunTests(s, env)
	case *ast.CreateWindowStmt:
		return i.execCreateWindow(s, env)
	case *ast.AddWidgetStmt:
		return i.execAddWidget(s, env)
	case *ast.RunWindowStmt:
		return i.execRunWindow(s, env)
	case *ast.SetTextStmt:
		return i.execSetText(s, env)
	case *ast.WhenStmt:
		return i.execWhen(s, env)
	case *ast.ExpressionStmt:
		_, err := i.evaluate(s.Expr, env)
		return err
	default:
		return runtime.Errorf(stmt.Pos(), "I do not know how to execute this statement.")
	}
}

func isStop(err error) bool {
	_, ok := err.(runtime.StopSignal)
	return ok
}

func isSkip(err error) bool {
	_, ok := err.(runtime.SkipSignal)
	return ok
}
