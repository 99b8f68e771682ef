package interp

import (
	"fmt"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/runtime"
)

func (i *Interpreter) executeCallChain(name string, args []ast.Expression, objExpr ast.Expression, chained []ast.ChainedCall, env *runtime.Environment, line int) (runtime.Value, error) {
	var current runtime.Value
	var err error
	if objExpr != nil {
		obj, err := i.evaluate(objExpr, env)
		if err != nil {
			return nil, err
		}
		argVals, err := i.evalArgs(args, env)
		if err != nil {
			return nil, err
		}
		current, err = i.callMethod(obj, name, argVals, env, line)
		if err != nil {
			return nil, err
		}
	} else {
		current, err = i.callFunction(name, args, env, line)
		if err != nil {
			return nil, err
		}
	}
	for _, c := range chained {
		if current == nil || current.Kind() == runtime.KindNothing {
			return nil, runtime.Errorf(c.Line, runtime.MsgChainOnNothing, c.Line, c.Name)
		}
		argVals, err := i.evalArgs(c.Args, env)
		if err != nil {
			return nil, err
		}
		current, err = i.callMethod(current, c.Name, argVals, env, c.Line)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

func (i *Interpreter) evalArgs(args []ast.Expression, env *runtime.Environment) ([]runtime.Value, error) {
	vals := make([]runtime.Value, 0, len(args))
	for _, a := range args {
		v, err := i.evaluate(a, env)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

//-----------------------------------------------------------------------------
// Function calls
//-----------------------------------------------------------------------------

func isCallable(v runtime.Value) bool {
	k := v.Kind()
	return k == runtime.KindFunction || k == runtime.KindNativeFunction
}

func (i *Interpreter) callFunction(name string, argNodes []ast.Expression, env *runtime.Environment, line int) (runtime.Value, error) {
	var callee runtime.Value
	if v, ok := env.Lookup(name); ok && isCallable(v) {
		callee = v
	} else if v, ok := i.functions[name]; ok {
		callee = v
	}
	if callee == nil {
		return nil, runtime.Errorf(line, runtime.MsgFunctionNotFound, line, name)
	}
	argVals, err := i.evalArgs(argNodes, env)
	if err != nil {
		return nil, err
	}
	if native, ok := callee.(runtime.NativeFunctionValue); ok {
		val, err := native.Impl(argVals, line)
		if err != nil {
			return nil, runtime.Errorf(line, runtime.MsgNativeFailed, line, name, err)
		}
		return val, nil
	}
	return i.invokeFunction(name, callee.(*runtime.FunctionValue), argVals, line)
}

// invokeFunction runs a Prose function value with pre-evaluated arguments,
// filling in parameter defaults from the captured environment.
func (i *Interpreter) invokeFunction(name string, fn *runtime.FunctionValue, argVals []runtime.Value, line int) (runtime.Value, error) {
	if desc, ok := runtime.ArityDesc(fn.Params, fn.DefaultThunks, len(argVals)); !ok {
		return nil, runtime.Errorf(line, runtime.MsgFunctionArity, line, name, desc, len(argVals))
	}
	closure := fn.Closure
	if closure == nil {
		closure = i.Global
	}
	funcEnv := runtime.NewEnvironment(closure)
	if err := i.bindParams(fn, argVals, funcEnv, closure); err != nil {
		return nil, err
	}

	if fn.Async {
		task := runtime.NewTask()
		go func() {
			val, err := i.runFunctionBody(fn, funcEnv)
			if err != nil {
				task.Fail(err)
				return
			}
			task.Resolve(val)
		}()
		return task, nil
	}

	val, err := i.runFunctionBody(fn, funcEnv)
	if err != nil {
		frameName := fn.Name
		if frameName == "" {
			frameName = name
		}
		return nil, annotate(err, fmt.Sprintf(runtime.FrameFunction, frameName, line))
	}
	return val, nil
}

func (i *Interpreter) runFunctionBody(fn *runtime.FunctionValue, funcEnv *runtime.Environment) (runtime.Value, error) {
	if fn.Compiled != nil {
		val, err := runtime.Catch(funcEnv, fn.Compiled)
		if ret, ok := err.(runtime.ReturnSignal); ok {
			return ret.Value, nil
		}
		return val, err
	}
	if fn.Expr != nil {
		return i.evaluate(fn.Expr, funcEnv)
	}
	if err := i.execute(fn.Body, funcEnv); err != nil {
		if ret, ok := err.(runtime.ReturnSignal); ok {
			return ret.Value, nil
		}
		return nil, err
	}
	return runtime.Nothing, nil
}

func (i *Interpreter) bindParams(fn *runtime.FunctionValue, argVals []runtime.Value, target, defaultEnv *runtime.Environment) error {
	for n, p := range fn.Params {
		if n < len(argVals) {
			target.SetLocal(p.Name, argVals[n])
			continue
		}
		if n < len(fn.DefaultThunks) && fn.DefaultThunks[n] != nil {
			val, err := runtime.Catch(defaultEnv, fn.DefaultThunks[n])
			if err != nil {
				return err
			}
			target.SetLocal(p.Name, val)
			continue
		}
		val, err := i.evaluate(p.Default, defaultEnv)
		if err != nil {
			return err
		}
		target.SetLocal(p.Name, val)
	}
	return nil
}

func annotate(err error, frame string) error {
	if rerr, ok := err.(*runtime.Error); ok {
		rerr.Stack = append(rerr.Stack, frame)
	}
	return err
}

//-----------------------------------------------------------------------------
// Method calls
//-----------------------------------------------------------------------------

func (i *Interpreter) callMethod(obj runtime.Value, name string, argVals []runtime.Value, env *runtime.Environment, line int) (runtime.Value, error) {
	if mod, ok := obj.(*runtime.ModuleValue); ok {
		fn, ok := mod.Bindings.Lookup(name)
		if !ok {
			return nil, runtime.Errorf(line, runtime.MsgModuleFuncMissing, line, name)
		}
		switch callee := fn.(type) {
		case runtime.NativeFunctionValue:
			val, err := callee.Impl(argVals, line)
			if err != nil {
				return nil, runtime.Errorf(line, runtime.MsgModuleCallFailed, line, name, err)
			}
			return val, nil
		case *runtime.FunctionValue:
			return i.invokeFunction(name, callee, argVals, line)
		default:
			return nil, runtime.Errorf(line, runtime.MsgExportNotCallable, line, name)
		}
	}

	inst, ok := obj.(*runtime.ObjectValue)
	if !ok {
		return nil, runtime.Errorf(line, runtime.MsgMethodTarget, line, obj.Kind())
	}

	// Native callables stored directly in properties (window/widget handles).
	if prop, ok := inst.Properties.Get(name); ok {
		if native, ok := prop.(runtime.NativeFunctionValue); ok {
			val, err := native.Impl(argVals, line)
			if err != nil {
				return nil, runtime.Errorf(line, runtime.MsgPropertyCallFailed, line, name, err)
			}
			return val, nil
		}
	}

	method := i.resolveMethod(inst.ClassName, name)
	if method == nil {
		return nil, runtime.Errorf(line, runtime.MsgMethodNotFound, line, name, inst.ClassName)
	}
	if desc, ok := runtime.ArityDesc(method.Params, method.DefaultThunks, len(argVals)); !ok {
		return nil, runtime.Errorf(line, runtime.MsgMethodArity, line, name, desc, len(argVals))
	}

	methodEnv := runtime.NewEnvironment(i.Global)
	methodEnv.SetLocal("self", inst)
	for _, prop := range inst.Properties.Keys() {
		val, _ := inst.Properties.Get(prop)
		methodEnv.SetLocal(prop, val)
	}
	if err := i.bindParams(method, argVals, methodEnv, i.Global); err != nil {
		return nil, err
	}

	if method.Async {
		task := runtime.NewTask()
		go func() {
			val, err := i.runFunctionBody(method, methodEnv)
			if err != nil {
				task.Fail(err)
				return
			}
			task.Resolve(val)
		}()
		return task, nil
	}

	val, err := i.runFunctionBody(method, methodEnv)
	if err != nil {
		return nil, annotate(err, fmt.Sprintf(runtime.FrameMethod, name, inst.ClassName, line))
	}
	return val, nil
}

// resolveMethod walks the class and its ancestors, first match wins.
func (i *Interpreter) resolveMethod(className, name string) *runtime.FunctionValue {
	for cls := className; cls != ""; {
		if m, ok := i.methods[cls][name]; ok {
			return m
		}
		def, ok := i.classes[cls]
		if !ok || def.Parent == "" {
			return nil
		}
		cls = def.Parent
	}
	return nil
}

//-----------------------------------------------------------------------------
// Mapping and filtering callables
//-----------------------------------------------------------------------------

// applyCallable invokes the function value "mapping F over L" resolved:
// either a function value or the bare name of a registered function.
func (i *Interpreter) applyCallable(fn runtime.Value, args []runtime.Value, line int) (runtime.Value, error) {
	switch callee := fn.(type) {
	case *runtime.FunctionValue:
		if len(args) != len(callee.Params) {
			return nil, runtime.Errorf(line, runtime.MsgLambdaArity, line, len(callee.Params), len(args))
		}
		closure := callee.Closure
		if closure == nil {
			closure = i.Global
		}
		lambdaEnv := runtime.NewEnvironment(closure)
		for n, p := range callee.Params {
			lambdaEnv.SetLocal(p.Name, args[n])
		}
		return i.runFunctionBody(callee, lambdaEnv)
	case runtime.TextValue:
		name := callee.Val
		registered, ok := i.functions[name]
		if !ok {
			return nil, runtime.Errorf(line, runtime.MsgApplyNotFound, line, name)
		}
		if native, ok := registered.(runtime.NativeFunctionValue); ok {
			val, err := native.Impl(args, line)
			if err != nil {
				return nil, runtime.Errorf(line, runtime.MsgApplyNativeFailed, line, name, err)
			}
			return val, nil
		}
		named := registered.(*runtime.FunctionValue)
		if len(args) != len(named.Params) {
			return nil, runtime.Errorf(line, runtime.MsgApplyArity, line, name, len(named.Params), len(args))
		}
		funcEnv := runtime.NewEnvironment(i.Global)
		for n, p := range named.Params {
			funcEnv.SetLocal(p.Name, args[n])
		}
		return i.runFunctionBody(named, funcEnv)
	default:
		return nil, runtime.Errorf(line, runtime.MsgNotMappable, line)
	}
}
