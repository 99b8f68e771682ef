package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/lexer"
	"github.com/prose-lang/prose/pkg/parser"
	"github.com/prose-lang/prose/pkg/runtime"
)

func (i *Interpreter) execImport(s *ast.ImportStmt, env *runtime.Environment) error {
	pathVal, err := i.evaluate(s.File, env)
	if err != nil {
		return err
	}
	path := runtime.Display(pathVal)

	switch path {
	case "time":
		i.registerTimeModule()
		return nil
	case "math":
		i.registerMathModule()
		return nil
	case "string":
		i.registerStringModule()
		return nil
	case "collections":
		i.registerCollectionsModule()
		return nil
	case "database":
		return i.importDatabase(s, env)
	case "gui":
		return i.importGUI(s, env)
	}
	return i.importFile(s, path, env)
}

//-----------------------------------------------------------------------------
// Native function sets registered by "Import time." and friends
//-----------------------------------------------------------------------------

func native(name string, arity int, impl func(args []runtime.Value) (runtime.Value, error)) runtime.NativeFunctionValue {
	return runtime.NativeFunctionValue{
		Name:  name,
		Arity: arity,
		Impl: func(args []runtime.Value, _ int) (runtime.Value, error) {
			if len(args) != arity && arity >= 0 {
				return nil, fmt.Errorf("%s expects %d argument(s) but got %d", name, arity, len(args))
			}
			return impl(args)
		},
	}
}

func variadicNative(name string, impl func(args []runtime.Value) (runtime.Value, error)) runtime.NativeFunctionValue {
	return runtime.NativeFunctionValue{Name: name, Arity: -1, Impl: func(args []runtime.Value, _ int) (runtime.Value, error) {
		return impl(args)
	}}
}

func argNumber(args []runtime.Value, n int) (float64, error) {
	num, ok := args[n].(runtime.NumberValue)
	if !ok {
		return 0, fmt.Errorf("expected a number but got '%s'", runtime.Display(args[n]))
	}
	return num.Val, nil
}

func (i *Interpreter) registerTimeModule() {
	i.functions["time_now"] = native("time_now", 0, func([]runtime.Value) (runtime.Value, error) {
		now := i.caps.Now()
		return runtime.NumberValue{Val: float64(now.UnixNano()) / 1e9}, nil
	})
}

func (i *Interpreter) registerMathModule() {
	unary := func(name string, fn func(float64) float64) runtime.NativeFunctionValue {
		return native(name, 1, func(args []runtime.Value) (runtime.Value, error) {
			x, err := argNumber(args, 0)
			if err != nil {
				return nil, err
			}
			return runtime.NumberValue{Val: fn(x)}, nil
		})
	}
	i.functions["math_sin"] = unary("math_sin", math.Sin)
	i.functions["math_cos"] = unary("math_cos", math.Cos)
	i.functions["math_tan"] = unary("math_tan", math.Tan)
	i.functions["math_log"] = unary("math_log", math.Log)
	i.functions["math_pi"] = native("math_pi", 0, func([]runtime.Value) (runtime.Value, error) {
		return runtime.NumberValue{Val: math.Pi}, nil
	})
}

func (i *Interpreter) registerStringModule() {
	i.functions["string_startsWith"] = native("string_startsWith", 2, func(args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: strings.HasPrefix(runtime.Display(args[0]), runtime.Display(args[1]))}, nil
	})
	i.functions["string_endsWith"] = native("string_endsWith", 2, func(args []runtime.Value) (runtime.Value, error) {
		return runtime.BoolValue{Val: strings.HasSuffix(runtime.Display(args[0]), runtime.Display(args[1]))}, nil
	})
	i.functions["string_substring"] = native("string_substring", 3, func(args []runtime.Value) (runtime.Value, error) {
		s := []rune(runtime.Display(args[0]))
		a, err := argNumber(args, 1)
		if err != nil {
			return nil, err
		}
		b, err := argNumber(args, 2)
		if err != nil {
			return nil, err
		}
		return runtime.TextValue{Val: sliceRunes(s, int(a), int(b))}, nil
	})
}

// sliceRunes is a 0-based half-open slice with negative indexes counted
// from the end, matching the substring semantics users already rely on.
func sliceRunes(s []rune, a, b int) string {
	n := len(s)
	if a < 0 {
		a += n
	}
	if b < 0 {
		b += n
	}
	if a < 0 {
		a = 0
	}
	if b > n {
		b = n
	}
	if a >= b || a >= n {
		return ""
	}
	return string(s[a:b])
}

func (i *Interpreter) registerCollectionsModule() {
	needList := func(args []runtime.Value) (*runtime.ListValue, error) {
		lst, ok := args[0].(*runtime.ListValue)
		if !ok {
			return nil, fmt.Errorf("expected a list but got '%s'", runtime.Display(args[0]))
		}
		return lst, nil
	}
	i.functions["collections_sort"] = native("collections_sort", 1, func(args []runtime.Value) (runtime.Value, error) {
		lst, err := needList(args)
		if err != nil {
			return nil, err
		}
		sorted := append([]runtime.Value(nil), lst.Elements...)
		runtime.SortValues(sorted)
		return &runtime.ListValue{Elements: sorted}, nil
	})
	i.functions["collections_reverse"] = native("collections_reverse", 1, func(args []runtime.Value) (runtime.Value, error) {
		lst, err := needList(args)
		if err != nil {
			return nil, err
		}
		reversed := make([]runtime.Value, len(lst.Elements))
		for n, el := range lst.Elements {
			reversed[len(lst.Elements)-1-n] = el
		}
		return &runtime.ListValue{Elements: reversed}, nil
	})
	i.functions["collections_unique"] = native("collections_unique", 1, func(args []runtime.Value) (runtime.Value, error) {
		lst, err := needList(args)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		var unique []runtime.Value
		for _, el := range lst.Elements {
			key := runtime.Display(el)
			if !seen[key] {
				seen[key] = true
				unique = append(unique, el)
			}
		}
		return &runtime.ListValue{Elements: unique}, nil
	})
}

//-----------------------------------------------------------------------------
// Database module (bbolt-backed storage capability)
//-----------------------------------------------------------------------------

func (i *Interpreter) importDatabase(s *ast.ImportStmt, env *runtime.Environment) error {
	store := i.caps.Storage
	bindings := runtime.NewEnvironment(nil)

	displayAll := func(args []runtime.Value) []string {
		out := make([]string, 0, len(args))
		for _, a := range args {
			out = append(out, runtime.Display(a))
		}
		return out
	}

	bindings.SetLocal("create_table", variadicNative("create_table", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("create_table needs a table name")
		}
		if err := store.CreateTable(runtime.Display(args[0]), displayAll(args[1:])); err != nil {
			return nil, err
		}
		return runtime.Nothing, nil
	}))
	bindings.SetLocal("save", variadicNative("save", func(args []runtime.Value) (runtime.Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("save needs a table name")
		}
		if err := store.Save(runtime.Display(args[0]), displayAll(args[1:])); err != nil {
			return nil, err
		}
		return runtime.Nothing, nil
	}))
	bindings.SetLocal("find_all", native("find_all", 1, func(args []runtime.Value) (runtime.Value, error) {
		records, err := store.FindAll(runtime.Display(args[0]))
		if err != nil {
			return nil, err
		}
		return recordList(records), nil
	}))
	bindings.SetLocal("find_where", native("find_where", 3, func(args []runtime.Value) (runtime.Value, error) {
		records, err := store.FindWhere(runtime.Display(args[0]), runtime.Display(args[1]), runtime.Display(args[2]))
		if err != nil {
			return nil, err
		}
		return recordList(records), nil
	}))
	bindings.SetLocal("delete_where", native("delete_where", 3, func(args []runtime.Value) (runtime.Value, error) {
		if err := store.DeleteWhere(runtime.Display(args[0]), runtime.Display(args[1]), runtime.Display(args[2])); err != nil {
			return nil, err
		}
		return runtime.Nothing, nil
	}))
	bindings.SetLocal("count", native("count", 1, func(args []runtime.Value) (runtime.Value, error) {
		n, err := store.Count(runtime.Display(args[0]))
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: float64(n)}, nil
	}))

	if s.Alias != "" {
		env.Assign(s.Alias, &runtime.ModuleValue{Name: s.Alias, Bindings: bindings})
		return nil
	}
	for _, name := range s.Names {
		val, ok := bindings.Lookup(name)
		if !ok {
			return runtime.Errorf(s.Line, "Line %d: Cannot import '%s' from database library.", s.Line, name)
		}
		env.Assign(name, val)
	}
	return nil
}

//-----------------------------------------------------------------------------
// File imports
//-----------------------------------------------------------------------------

func (i *Interpreter) importFile(s *ast.ImportStmt, path string, env *runtime.Environment) error {
	source, err := i.caps.Files.Read(path)
	if err != nil {
		return runtime.Errorf(s.Line, "Line %d: Could not read file '%s' for import. (%v)", s.Line, path, err)
	}
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return runtime.Errorf(s.Line, "Line %d: Failed to understand '%s': %v", s.Line, path, err)
	}
	prog, err := parser.ParseTokens(toks)
	if err != nil {
		return runtime.Errorf(s.Line, "Line %d: Failed to understand '%s': %v", s.Line, path, err)
	}

	if s.Alias == "" && len(s.Names) == 0 {
		// Plain import runs the file in this program's global scope.
		if err := i.execute(prog.Statements, i.Global); err != nil && !isStop(err) {
			return err
		}
		return nil
	}

	// Aliased and selective imports run the file in a sandboxed
	// interpreter so its top-level bindings become module exports.
	sandbox := New(i.caps)
	if err := sandbox.Run(prog); err != nil && !isStop(err) {
		return err
	}
	bindings := sandbox.Global
	for name, fn := range sandbox.functions {
		bindings.SetLocal(name, fn)
	}
	// Classes and methods register with the importing program so
	// "a new C" works on imported classes.
	for name, def := range sandbox.classes {
		i.classes[name] = def
	}
	for cls, methods := range sandbox.methods {
		if i.methods[cls] == nil {
			i.methods[cls] = map[string]*runtime.FunctionValue{}
		}
		for name, def := range methods {
			i.methods[cls][name] = def
		}
	}

	if s.Alias != "" {
		env.Assign(s.Alias, &runtime.ModuleValue{Name: s.Alias, Bindings: bindings})
		return nil
	}
	for _, name := range s.Names {
		val, ok := bindings.Lookup(name)
		if !ok {
			return runtime.Errorf(s.Line, "Line %d: Cannot import '%s' because it was not found in '%s'.", s.Line, name, path)
		}
		env.Assign(name, val)
	}
	return nil
}

// recordList converts stored rows into the list-of-dictionaries shape
// find_all and find_where give back to Prose programs.
func recordList(records []capability.Record) *runtime.ListValue {
	rows := make([]runtime.Value, 0, len(records))
	for _, rec := range records {
		row := runtime.NewDict()
		for n, col := range rec.Columns {
			val := ""
			if n < len(rec.Values) {
				val = rec.Values[n]
			}
			row.Set(col, runtime.TextValue{Val: val})
		}
		rows = append(rows, row)
	}
	return &runtime.ListValue{Elements: rows}
}
