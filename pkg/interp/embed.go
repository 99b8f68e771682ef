package interp

import (
	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/runtime"
)

// The methods in this file are the surface compiled programs use. Generated
// code carries its values natively but leans on the evaluator for the
// dynamic parts: imports, calls resolved by name, and method dispatch.

// ImportModule performs an import as if the statement appeared at the given
// line, binding the result into env.
func (i *Interpreter) ImportModule(line int, file, alias string, names []string, env *runtime.Environment) error {
	return i.execImport(&ast.ImportStmt{File: &ast.TextLiteral{Value: file, Line: line}, Alias: alias, Names: names, Line: line}, env)
}

// CallName calls a function by name with already-evaluated arguments,
// resolving through env and the function registry the same way a written
// call does.
func (i *Interpreter) CallName(name string, args []runtime.Value, env *runtime.Environment, line int) (runtime.Value, error) {
	var callee runtime.Value
	if v, ok := env.Lookup(name); ok && isCallable(v) {
		callee = v
	} else if v, ok := i.functions[name]; ok {
		callee = v
	}
	if callee == nil {
		return nil, runtime.Errorf(line, runtime.MsgFunctionNotFound, line, name)
	}
	if native, ok := callee.(runtime.NativeFunctionValue); ok {
		val, err := native.Impl(args, line)
		if err != nil {
			return nil, runtime.Errorf(line, runtime.MsgNativeFailed, line, name, err)
		}
		return val, nil
	}
	return i.invokeFunction(name, callee.(*runtime.FunctionValue), args, line)
}

// CallOn dispatches a method call on an object, module namespace, or
// widget handle.
func (i *Interpreter) CallOn(obj runtime.Value, name string, args []runtime.Value, env *runtime.Environment, line int) (runtime.Value, error) {
	return i.callMethod(obj, name, args, env, line)
}

// Apply invokes a function value or a registered function named by text,
// as "mapping"/"filtering" resolve their callables.
func (i *Interpreter) Apply(fn runtime.Value, args []runtime.Value, line int) (runtime.Value, error) {
	return i.applyCallable(fn, args, line)
}

// Invoke runs a function value directly with already-evaluated arguments.
func (i *Interpreter) Invoke(name string, fn *runtime.FunctionValue, args []runtime.Value, line int) (runtime.Value, error) {
	return i.invokeFunction(name, fn, args, line)
}

// NewInstance builds an object of the named class, checking that the class
// and its ancestors were defined.
func (i *Interpreter) NewInstance(className string, line int) (runtime.Value, error) {
	return i.instantiate(className, line)
}

// DefineClass registers a class so compiled programs can construct and
// dispatch on it.
func (i *Interpreter) DefineClass(def *ast.ClassDef) {
	i.classes[def.Name] = def
	if i.methods[def.Name] == nil {
		i.methods[def.Name] = map[string]*runtime.FunctionValue{}
	}
}

// DefineMethod registers a method body for later dispatch.
func (i *Interpreter) DefineMethod(className, name string, fn *runtime.FunctionValue) {
	if i.methods[className] == nil {
		i.methods[className] = map[string]*runtime.FunctionValue{}
	}
	i.methods[className][name] = fn
}

// RegisterFunction makes a function value callable by name.
func (i *Interpreter) RegisterFunction(name string, fn runtime.Value) {
	i.functions[name] = fn
}

// ResolveName looks a bare word up the way an identifier resolves: the
// environment first, then the function registry, and otherwise the word
// itself as text.
func (i *Interpreter) ResolveName(name string, env *runtime.Environment) runtime.Value {
	if v, ok := env.Lookup(name); ok {
		return v
	}
	if fn, ok := i.functions[name]; ok {
		return fn
	}
	return runtime.TextValue{Val: name}
}
