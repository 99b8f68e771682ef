// Package runtime holds the value model shared by the evaluator and the
// generated-code bridge. Display rules, loose equality, and numeric
// coercion live here so both backends produce identical text.
package runtime

import (
	"fmt"

	"github.com/prose-lang/prose/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNumber Kind = iota
	KindText
	KindBool
	KindList
	KindDict
	KindObject
	KindFunction
	KindNativeFunction
	KindModule
	KindTask
	KindNothing
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "native_function"
	case KindModule:
		return "module"
	case KindTask:
		return "task"
	case KindNothing:
		return "nothing"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

// NumberValue holds every Prose number as a float64. Whole values display
// and convert without a fractional part.
type NumberValue struct {
	Val float64
}

func (v NumberValue) Kind() Kind { return KindNumber }

type TextValue struct {
	Val string
}

func (v TextValue) Kind() Kind { return KindText }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type NothingValue struct{}

func (NothingValue) Kind() Kind { return KindNothing }

// Nothing is the singleton absent value.
var Nothing = NothingValue{}

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

// ListValue is a mutable, heterogeneous, 1-indexed sequence. Statements
// that mutate a list share the same *ListValue through the environment.
type ListValue struct {
	Elements []Value
}

func (v *ListValue) Kind() Kind { return KindList }

func NewList(elements ...Value) *ListValue {
	return &ListValue{Elements: elements}
}

// DictValue maps text keys to values, preserving insertion order for
// display and key listing. Non-text keys are stored by their display text.
type DictValue struct {
	keys  []string
	items map[string]Value
}

func (v *DictValue) Kind() Kind { return KindDict }

func NewDict() *DictValue {
	return &DictValue{items: map[string]Value{}}
}

func (v *DictValue) Get(key string) (Value, bool) {
	val, ok := v.items[key]
	return val, ok
}

func (v *DictValue) Set(key string, val Value) {
	if _, ok := v.items[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.items[key] = val
}

func (v *DictValue) Delete(key string) {
	if _, ok := v.items[key]; !ok {
		return
	}
	delete(v.items, key)
	for i, k := range v.keys {
		if k == key {
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			break
		}
	}
}

func (v *DictValue) Has(key string) bool {
	_, ok := v.items[key]
	return ok
}

// Keys returns the keys in insertion order. The slice is shared; callers
// must not mutate it.
func (v *DictValue) Keys() []string { return v.keys }

func (v *DictValue) Len() int { return len(v.keys) }

//-----------------------------------------------------------------------------
// Objects and classes
//-----------------------------------------------------------------------------

// ClassInfo is one entry in the class registry: the declared property
// names, the optional parent class, and the methods defined for the class.
type ClassInfo struct {
	Name       string
	Properties []string
	Parent     string
	Methods    map[string]*ast.MethodDef
}

// ObjectValue is an instance of a user-defined class. Properties from the
// whole parent chain are merged into one map at construction time.
type ObjectValue struct {
	ClassName  string
	Properties *DictValue
}

func (v *ObjectValue) Kind() Kind { return KindObject }

//-----------------------------------------------------------------------------
// Functions
//-----------------------------------------------------------------------------

// FunctionValue pairs a function body with the environment it was defined
// in, so calls see the definition-site bindings. Interpreted functions
// carry Body or Expr; generated code sets Compiled instead, with
// DefaultThunks aligned to Params for parameter defaults.
type FunctionValue struct {
	Name          string
	Params        []ast.Param
	Body          []ast.Statement
	Expr          ast.Expression // set for single-expression lambdas, Body is nil
	Compiled      CompiledBody
	DefaultThunks []CompiledBody
	Async         bool
	Closure       *Environment
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

type NativeFunc func(args []Value, line int) (Value, error)

type NativeFunctionValue struct {
	Name  string
	Arity int
	Impl  NativeFunc
}

func (v NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// ModuleValue is a named bag of bindings produced by an Import.
type ModuleValue struct {
	Name     string
	Bindings *Environment
}

func (v *ModuleValue) Kind() Kind { return KindModule }
