package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/runtime"
)

func (i *Interpreter) execSay(s *ast.SayStmt, env *runtime.Environment) error {
	parts := make([]string, 0, len(s.Parts))
	for _, part := range s.Parts {
		// A name that resolves nowhere reads as the word itself, so
		// "Say hello world." works without declarations.
		if id, ok := part.(*ast.Identifier); ok {
			val, err := i.evaluate(id, env)
			if err != nil {
				parts = append(parts, id.Name)
				continue
			}
			parts = append(parts, runtime.Display(val))
			continue
		}
		val, err := i.evaluate(part, env)
		if err != nil {
			return err
		}
		parts = append(parts, runtime.Display(val))
	}
	i.caps.Output.Print(strings.Join(parts, " "))
	return nil
}

func (i *Interpreter) execAsk(s *ast.AskStmt, env *runtime.Environment) error {
	raw, err := i.caps.Input.ReadLine(fmt.Sprintf(runtime.AskPromptFormat, s.Variable))
	if err != nil {
		raw = ""
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && strings.TrimSpace(raw) != "" {
		env.Assign(s.Variable, runtime.NumberValue{Val: f})
	} else {
		env.Assign(s.Variable, runtime.TextValue{Val: raw})
	}
	return nil
}

func (i *Interpreter) execIf(s *ast.IfStmt, env *runtime.Environment) error {
	ok, err := i.condValue(s.Condition, env)
	if err != nil {
		return err
	}
	if ok {
		return i.execute(s.Then, runtime.NewEnvironment(env))
	}
	if len(s.Else) > 0 {
		return i.execute(s.Else, runtime.NewEnvironment(env))
	}
	return nil
}

func (i *Interpreter) execRepeat(s *ast.RepeatStmt, env *runtime.Environment) error {
	countVal, err := i.evaluate(s.Count, env)
	if err != nil {
		return err
	}
	num, ok := countVal.(runtime.NumberValue)
	if !ok {
		return runtime.Errorf(s.Line, runtime.MsgRepeatNotNumber, s.Line, runtime.Display(countVal))
	}
	count := int(num.Val)
	for n := 0; n < count; n++ {
		if n >= i.loopCap {
			return runtime.Errorf(s.Line, runtime.MsgLoopGuard)
		}
		if err := i.execute(s.Body, runtime.NewEnvironment(env)); err != nil {
			if isSkip(err) {
				continue
			}
			if isStop(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt, env *runtime.Environment) error {
	iterations := 0
	for {
		ok, err := i.condValue(s.Condition, env)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		iterations++
		if iterations > i.loopCap {
			return runtime.Errorf(s.Line, runtime.MsgLoopGuard)
		}
		if err := i.execute(s.Body, runtime.NewEnvironment(env)); err != nil {
			if isSkip(err) {
				continue
			}
			if isStop(err) {
				return nil
			}
			return err
		}
	}
}

func (i *Interpreter) execForEach(s *ast.ForEachStmt, env *runtime.Environment) error {
	iterable, err := i.evaluate(s.Iterable, env)
	if err != nil {
		return err
	}
	var items []runtime.Value
	switch v := iterable.(type) {
	case runtime.TextValue:
		for _, r := range v.Val {
			items = append(items, runtime.TextValue{Val: string(r)})
		}
	case *runtime.ListValue:
		// copy so mutations mid-loop are safe
		items = append(items, v.Elements...)
	default:
		return runtime.Errorf(s.Line, runtime.MsgForEachNotList, s.Line)
	}
	loopEnv := runtime.NewEnvironment(env)
	for _, item := range items {
		loopEnv.Assign(s.Var, item)
		if err := i.execute(s.Body, runtime.NewEnvironment(loopEnv)); err != nil {
			if isSkip(err) {
				continue
			}
			if isStop(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (i *Interpreter) execForRange(s *ast.ForRangeStmt, env *runtime.Environment) error {
	from, err := i.evalInt(s.From, env)
	if err != nil {
		return err
	}
	to, err := i.evalInt(s.To, env)
	if err != nil {
		return err
	}
	step := 1
	if s.Step != nil {
		if step, err = i.evalInt(s.Step, env); err != nil {
			return err
		}
	}
	if step == 0 {
		return runtime.Errorf(s.Line, runtime.MsgRangeStepZero, s.Line)
	}
	for n := from; (step > 0 && n <= to) || (step < 0 && n >= to); n += step {
		loopEnv := runtime.NewEnvironment(env)
		loopEnv.SetLocal(s.Var, runtime.NumberValue{Val: float64(n)})
		if err := i.execute(s.Body, loopEnv); err != nil {
			if isSkip(err) {
				continue
			}
			if isStop(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// List, dictionary, and property statements
//-----------------------------------------------------------------------------

func (i *Interpreter) lookupList(name string, line int, env *runtime.Environment) (*runtime.ListValue, error) {
	val, err := env.Get(name, line)
	if err != nil {
		return nil, err
	}
	lst, ok := val.(*runtime.ListValue)
	if !ok {
		return nil, runtime.Errorf(line, runtime.MsgNotAList, line, name)
	}
	return lst, nil
}

func (i *Interpreter) execAddToList(s *ast.AddToListStmt, env *runtime.Environment) error {
	lst, err := i.lookupList(s.ListName, s.Line, env)
	if err != nil {
		return err
	}
	val, err := i.evaluate(s.Value, env)
	if err != nil {
		return err
	}
	lst.Elements = append(lst.Elements, val)
	return nil
}

func (i *Interpreter) execRemoveFromList(s *ast.RemoveFromListStmt, env *runtime.Environment) error {
	lst, err := i.lookupList(s.ListName, s.Line, env)
	if err != nil {
		return err
	}
	idxVal, err := i.evalInt(s.Index, env)
	if err != nil {
		return err
	}
	return runtime.RemoveAt(lst, idxVal, s.Line)
}

func (i *Interpreter) execSortList(s *ast.SortListStmt, env *runtime.Environment) error {
	lst, err := i.lookupList(s.ListName, s.Line, env)
	if err != nil {
		return err
	}
	runtime.SortValues(lst.Elements)
	return nil
}

func (i *Interpreter) execSetProperty(s *ast.SetPropertyStmt, env *runtime.Environment) error {
	obj, err := i.evaluate(s.Object, env)
	if err != nil {
		return err
	}
	val, err := i.evaluate(s.Value, env)
	if err != nil {
		return err
	}
	return runtime.SetPropertyOn(obj, s.Property, val, s.Line)
}

func (i *Interpreter) execSetDictValue(s *ast.SetDictValueStmt, env *runtime.Environment) error {
	dictVal, err := i.evaluate(s.Dict, env)
	if err != nil {
		return err
	}
	key, err := i.evaluate(s.Key, env)
	if err != nil {
		return err
	}
	val, err := i.evaluate(s.Value, env)
	if err != nil {
		return err
	}
	return runtime.SetDictEntry(dictVal, key, val, s.Line)
}

func (i *Interpreter) execRemoveDictValue(s *ast.RemoveDictValueStmt, env *runtime.Environment) error {
	dictVal, err := i.evaluate(s.Dict, env)
	if err != nil {
		return err
	}
	key, err := i.evaluate(s.Key, env)
	if err != nil {
		return err
	}
	return runtime.RemoveDictEntry(dictVal, key, s.Line)
}

//-----------------------------------------------------------------------------
// Files
//-----------------------------------------------------------------------------

func (i *Interpreter) execWriteFile(s *ast.WriteFileStmt, env *runtime.Environment) error {
	content, err := i.evaluate(s.Content, env)
	if err != nil {
		return err
	}
	fileVal, err := i.evaluate(s.File, env)
	if err != nil {
		return err
	}
	path := runtime.Display(fileVal)
	if err := i.caps.Files.Write(path, runtime.Display(content)); err != nil {
		return runtime.Errorf(s.Line, runtime.MsgFileWriteFailed, s.Line, path, err)
	}
	return nil
}

func (i *Interpreter) execAppendFile(s *ast.AppendFileStmt, env *runtime.Environment) error {
	content, err := i.evaluate(s.Content, env)
	if err != nil {
		return err
	}
	fileVal, err := i.evaluate(s.File, env)
	if err != nil {
		return err
	}
	path := runtime.Display(fileVal)
	if err := i.caps.Files.Append(path, runtime.Display(content)); err != nil {
		return runtime.Errorf(s.Line, runtime.MsgFileAppendFailed, s.Line, path, err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// Error handling
//-----------------------------------------------------------------------------

func (i *Interpreter) execTryCatch(s *ast.TryCatchStmt, env *runtime.Environment) error {
	err := i.execute(s.TryBody, runtime.NewEnvironment(env))
	if err == nil {
		return nil
	}
	catchEnv := runtime.NewEnvironment(env)
	catchEnv.SetLocal(s.ErrorVar, runtime.TextValue{Val: err.Error()})
	return i.execute(s.CatchBody, catchEnv)
}

func (i *Interpreter) execAttempt(s *ast.AttemptStmt, env *runtime.Environment) error {
	err := i.execute(s.TryBody, env)
	if err == nil {
		return nil
	}
	// Only runtime failures are rescued; control signals keep travelling.
	rerr, ok := err.(*runtime.Error)
	if !ok {
		return err
	}
	msg := err.Error()
	if len(rerr.Stack) > 0 {
		var b strings.Builder
		b.WriteString(msg)
		b.WriteString(runtime.TracebackHeader)
		for n := len(rerr.Stack) - 1; n >= 0; n-- {
			b.WriteString("  in " + rerr.Stack[n] + "\n")
		}
		msg = strings.TrimSpace(b.String())
	}
	catchEnv := runtime.NewEnvironment(env)
	catchEnv.SetLocal(s.ErrorVar, runtime.TextValue{Val: msg})
	return i.execute(s.CatchBody, catchEnv)
}

func (i *Interpreter) execCheck(s *ast.CheckStmt, env *runtime.Environment) error {
	val, err := i.evaluate(s.Expr, env)
	if err != nil {
		return err
	}
	for _, c := range s.Cases {
		caseVal, err := i.evaluate(c.Value, env)
		if err != nil {
			return err
		}
		if runtime.LooseEquals(val, caseVal) {
			return i.execute(c.Body, env)
		}
	}
	if len(s.Otherwise) > 0 {
		return i.execute(s.Otherwise, env)
	}
	return nil
}

//-----------------------------------------------------------------------------
// Tests
//-----------------------------------------------------------------------------

func (i *Interpreter) execRunTests(_ *ast.RunTestsStmt, _ *runtime.Environment) error {
	named := make([]runtime.NamedTest, 0, len(i.tests))
	for _, test := range i.tests {
		body := test.Body
		named = append(named, runtime.NamedTest{Name: test.Name, Run: func() error {
			return i.execute(body, runtime.NewEnvironment(i.Global))
		}})
	}
	runtime.RunTestReport(i.caps.Output.Print, named)
	return nil
}

//-----------------------------------------------------------------------------
// Shared helpers
//-----------------------------------------------------------------------------

func (i *Interpreter) evalInt(expr ast.Expression, env *runtime.Environment) (int, error) {
	val, err := i.evaluate(expr, env)
	if err != nil {
		return 0, err
	}
	num, err := runtime.ToNumber(val, expr.Pos())
	if err != nil {
		return 0, err
	}
	return int(num), nil
}

// condValue evaluates an expression in condition position and reduces it
// to its boolean weight.
func (i *Interpreter) condValue(expr ast.Expression, env *runtime.Environment) (bool, error) {
	val, err := i.evaluate(expr, env)
	if err != nil {
		return false, err
	}
	return runtime.Truthy(val), nil
}
