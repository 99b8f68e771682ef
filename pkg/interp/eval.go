package interp

import (
	"math"
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/runtime"
)

func (i *Interpreter) evaluate(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return runtime.NumberValue{Val: e.Value}, nil
	case *ast.TextLiteral:
		return runtime.TextValue{Val: e.Value}, nil
	case *ast.BoolLiteral:
		return runtime.BoolValue{Val: e.Value}, nil
	case *ast.NothingLiteral:
		return runtime.Nothing, nil
	case *ast.Identifier:
		return i.evalIdentifier(e, env)
	case *ast.UnaryMinus:
		val, err := i.evaluate(e.Operand, env)
		if err != nil {
			return nil, err
		}
		return runtime.Negate(val, e.Line)
	case *ast.Binary:
		left, err := i.evaluate(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := i.evaluate(e.Right, env)
		if err != nil {
			return nil, err
		}
		return runtime.ApplyBinary(e.Op, left, right, e.Line)
	case *ast.Compare:
		left, err := i.evaluate(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := i.evaluate(e.Right, env)
		if err != nil {
			return nil, err
		}
		ok, err := runtime.Compare(e.Op, left, right, e.Line)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: ok}, nil
	case *ast.TypeCheck:
		val, err := i.evaluate(e.Expr, env)
		if err != nil {
			return nil, err
		}
		ok := runtime.CheckType(val, e.Expected)
		if e.Negated {
			ok = !ok
		}
		return runtime.BoolValue{Val: ok}, nil
	case *ast.Logical:
		left, err := i.condValue(e.Left, env)
		if err != nil {
			return nil, err
		}
		if e.Connective == "and" {
			if !left {
				return runtime.BoolValue{Val: false}, nil
			}
		} else if left {
			return runtime.BoolValue{Val: true}, nil
		}
		right, err := i.condValue(e.Right, env)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: right}, nil
	case *ast.InterpolatedText:
		var b strings.Builder
		for _, part := range e.Parts {
			val, err := i.evaluate(part, env)
			if err != nil {
				return nil, err
			}
			b.WriteString(runtime.Display(val))
		}
		return runtime.TextValue{Val: b.String()}, nil

	case *ast.ListLiteral:
		elements := make([]runtime.Value, 0, len(e.Elements))
		for _, el := range e.Elements {
			val, err := i.evaluate(el, env)
			if err != nil {
				return nil, err
			}
			elements = append(elements, val)
		}
		return &runtime.ListValue{Elements: elements}, nil
	case *ast.DictLiteral:
		dict := runtime.NewDict()
		for _, pair := range e.Pairs {
			key, err := i.evaluate(pair.Key, env)
			if err != nil {
				return nil, err
			}
			if err := runtime.DictKeyable(key, e.Line); err != nil {
				return nil, err
			}
			val, err := i.evaluate(pair.Value, env)
			if err != nil {
				return nil, err
			}
			dict.Set(runtime.KeyText(key), val)
		}
		return dict, nil
	case *ast.ListAccess:
		return i.evalListAccess(e, env)
	case *ast.DictAccess:
		return i.evalDictAccess(e, env)
	case *ast.DictHasKey:
		dictVal, err := i.evaluate(e.Dict, env)
		if err != nil {
			return nil, err
		}
		key, err := i.evaluate(e.Key, env)
		if err != nil {
			return nil, err
		}
		return runtime.DictHas(dictVal, key, e.Line)
	case *ast.DictKeys:
		dictVal, err := i.evaluate(e.Dict, env)
		if err != nil {
			return nil, err
		}
		return runtime.DictKeyList(dictVal, e.Line)

	case *ast.StringIndex:
		return i.evalStringIndex(e, env)
	case *ast.StringSlice:
		return i.evalStringSlice(e, env)
	case *ast.LengthOf:
		val, err := i.evaluate(e.Expr, env)
		if err != nil {
			return nil, err
		}
		return runtime.LengthValue(val, e.Line)
	case *ast.UppercaseOf:
		return i.textOp(e.Expr, env, strings.ToUpper)
	case *ast.LowercaseOf:
		return i.textOp(e.Expr, env, strings.ToLower)
	case *ast.TrimOf:
		return i.textOp(e.Expr, env, strings.TrimSpace)
	case *ast.SplitBy:
		src, err := i.evalText(e.Source, env)
		if err != nil {
			return nil, err
		}
		delim, err := i.evalText(e.Delimiter, env)
		if err != nil {
			return nil, err
		}
		return runtime.SplitText(src, delim), nil
	case *ast.JoinWith:
		listVal, err := i.evaluate(e.List, env)
		if err != nil {
			return nil, err
		}
		sep, err := i.evalText(e.Separator, env)
		if err != nil {
			return nil, err
		}
		return runtime.JoinList(listVal, sep, e.Line)
	case *ast.ReplaceIn:
		src, err := i.evalText(e.Source, env)
		if err != nil {
			return nil, err
		}
		find, err := i.evalText(e.Find, env)
		if err != nil {
			return nil, err
		}
		repl, err := i.evalText(e.Replacement, env)
		if err != nil {
			return nil, err
		}
		return runtime.TextValue{Val: strings.ReplaceAll(src, find, repl)}, nil
	case *ast.RepeatText:
		s, err := i.evalText(e.Expr, env)
		if err != nil {
			return nil, err
		}
		n, err := i.evalInt(e.Count, env)
		if err != nil {
			return nil, err
		}
		return runtime.RepeatText(s, n), nil
	case *ast.Contains:
		hay, err := i.evaluate(e.Haystack, env)
		if err != nil {
			return nil, err
		}
		needle, err := i.evaluate(e.Needle, env)
		if err != nil {
			return nil, err
		}
		return runtime.ContainsValue(hay, needle, e.Line)
	case *ast.IndexOf:
		item, err := i.evaluate(e.Item, env)
		if err != nil {
			return nil, err
		}
		listVal, err := i.evaluate(e.List, env)
		if err != nil {
			return nil, err
		}
		return runtime.IndexOfValue(item, listVal, e.Line)

	case *ast.RoundOf:
		val, err := i.evalNumber(e.Expr, "round", e.Line, env)
		if err != nil {
			return nil, err
		}
		if e.Places == nil {
			return runtime.RoundValue(val, nil), nil
		}
		places, err := i.evalInt(e.Places, env)
		if err != nil {
			return nil, err
		}
		return runtime.RoundValue(val, &places), nil
	case *ast.AbsOf:
		val, err := i.evalNumber(e.Expr, "absolute value", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: math.Abs(val)}, nil
	case *ast.SqrtOf:
		val, err := i.evalNumber(e.Expr, "square root", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.SqrtValue(val, e.Line)
	case *ast.FloorOf:
		val, err := i.evalNumber(e.Expr, "floor", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: math.Floor(val)}, nil
	case *ast.CeilingOf:
		val, err := i.evalNumber(e.Expr, "ceiling", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: math.Ceil(val)}, nil
	case *ast.PowerOf:
		base, err := i.evalNumber(e.Base, "power", e.Line, env)
		if err != nil {
			return nil, err
		}
		exp, err := i.evalNumber(e.Exp, "power", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: math.Pow(base, exp)}, nil
	case *ast.MinOf:
		a, err := i.evalNumber(e.Left, "minimum", e.Line, env)
		if err != nil {
			return nil, err
		}
		b, err := i.evalNumber(e.Right, "minimum", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: math.Min(a, b)}, nil
	case *ast.MaxOf:
		a, err := i.evalNumber(e.Left, "maximum", e.Line, env)
		if err != nil {
			return nil, err
		}
		b, err := i.evalNumber(e.Right, "maximum", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.NumberValue{Val: math.Max(a, b)}, nil
	case *ast.RandomBetween:
		lo, err := i.evalNumber(e.Low, "random", e.Line, env)
		if err != nil {
			return nil, err
		}
		hi, err := i.evalNumber(e.High, "random", e.Line, env)
		if err != nil {
			return nil, err
		}
		return runtime.RandomBetween(i.caps.Rand, lo, hi), nil

	case *ast.AsNumber:
		val, err := i.evaluate(e.Expr, env)
		if err != nil {
			return nil, err
		}
		return runtime.AsNumberValue(val, e.Line)
	case *ast.AsText:
		val, err := i.evaluate(e.Expr, env)
		if err != nil {
			return nil, err
		}
		return runtime.TextValue{Val: runtime.Display(val)}, nil

	case *ast.FileContents:
		pathVal, err := i.evaluate(e.File, env)
		if err != nil {
			return nil, err
		}
		path := runtime.Display(pathVal)
		content, rerr := i.caps.Files.Read(path)
		if rerr != nil {
			return nil, runtime.Errorf(e.Line, runtime.MsgFileReadFailed, e.Line, path, rerr)
		}
		return runtime.TextValue{Val: content}, nil
	case *ast.FileExists:
		pathVal, err := i.evaluate(e.File, env)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: i.caps.Files.Exists(runtime.Display(pathVal))}, nil
	case *ast.TimeOp:
		return runtime.TimeValue(i.caps.Now(), e.Op), nil

	case *ast.JSONParse:
		textVal, err := i.evaluate(e.Text, env)
		if err != nil {
			return nil, err
		}
		text, ok := textVal.(runtime.TextValue)
		if !ok {
			return nil, runtime.Errorf(e.Line, runtime.MsgJSONParseRequire, e.Line)
		}
		val, perr := runtime.ParseJSON(text.Val)
		if perr != nil {
			return nil, runtime.Errorf(e.Line, runtime.MsgJSONParseInvalid, e.Line, perr)
		}
		return val, nil
	case *ast.JSONString:
		val, err := i.evaluate(e.Value, env)
		if err != nil {
			return nil, err
		}
		text, jerr := runtime.EncodeJSON(val)
		if jerr != nil {
			return nil, runtime.Errorf(e.Line, runtime.MsgJSONEncodeFailed, e.Line, jerr)
		}
		return runtime.TextValue{Val: text}, nil
	case *ast.HTTPGet:
		urlVal, err := i.evaluate(e.URL, env)
		if err != nil {
			return nil, err
		}
		url, ok := urlVal.(runtime.TextValue)
		if !ok {
			return nil, runtime.Errorf(e.Line, runtime.MsgURLNotText, e.Line)
		}
		body, nerr := i.caps.Network.Get(url.Val)
		if nerr != nil {
			return nil, runtime.Errorf(e.Line, runtime.MsgHTTPGetFailed, e.Line, nerr)
		}
		return runtime.JSONOrText(body), nil
	case *ast.HTTPPost:
		urlVal, err := i.evaluate(e.URL, env)
		if err != nil {
			return nil, err
		}
		payload, err := i.evaluate(e.Payload, env)
		if err != nil {
			return nil, err
		}
		url, ok := urlVal.(runtime.TextValue)
		if !ok {
			return nil, runtime.Errorf(e.Line, runtime.MsgURLNotText, e.Line)
		}
		encoded, jerr := runtime.EncodeJSON(payload)
		if jerr != nil {
			return nil, runtime.Errorf(e.Line, runtime.MsgJSONPayload, e.Line, jerr)
		}
		body, nerr := i.caps.Network.Post(url.Val, []byte(encoded))
		if nerr != nil {
			return nil, runtime.Errorf(e.Line, runtime.MsgHTTPPostFailed, e.Line, nerr)
		}
		return runtime.JSONOrText(body), nil

	case *ast.NewInstance:
		return i.evalNewInstance(e, env)
	case *ast.PropertyAccess:
		return i.evalPropertyAccess(e, env)
	case *ast.Lambda:
		return &runtime.FunctionValue{Params: e.Params, Expr: e.Body, Closure: env}, nil
	case *ast.BlockLambda:
		return &runtime.FunctionValue{Params: e.Params, Body: e.Body, Async: e.Async, Closure: env}, nil
	case *ast.MapOver:
		return i.evalMapOver(e, env)
	case *ast.FilterWhere:
		return i.evalFilterWhere(e, env)
	case *ast.AllWhere:
		return i.evalAllWhere(e, env)
	case *ast.CallResult:
		return i.executeCallChain(e.Name, e.Args, e.Object, nil, env, e.Line)
	case *ast.Wait:
		val, err := i.evaluate(e.Expr, env)
		if err != nil {
			return nil, err
		}
		return runtime.WaitFor(val, e.Line)

	case *ast.CommandLineArgs:
		args := make([]runtime.Value, 0, len(i.caps.Args))
		for _, a := range i.caps.Args {
			args = append(args, runtime.TextValue{Val: a})
		}
		return &runtime.ListValue{Elements: args}, nil
	case *ast.EnvironmentVariable:
		nameVal, err := i.evaluate(e.Name, env)
		if err != nil {
			return nil, err
		}
		if v, ok := i.caps.LookupEnv(runtime.Display(nameVal)); ok {
			return runtime.TextValue{Val: v}, nil
		}
		return runtime.Nothing, nil
	case *ast.RegexMatch:
		return i.evalRegexMatch(e, env)
	case *ast.RegexTest:
		pattern, err := i.evalText(e.Pattern, env)
		if err != nil {
			return nil, err
		}
		text, err := i.evalText(e.Text, env)
		if err != nil {
			return nil, err
		}
		return runtime.RegexTest(pattern, text, e.Line)

	default:
		return nil, runtime.Errorf(expr.Pos(), "I do not know how to evaluate this expression.")
	}
}

func (i *Interpreter) evalIdentifier(e *ast.Identifier, env *runtime.Environment) (runtime.Value, error) {
	if val, ok := env.Lookup(e.Name); ok {
		return val, nil
	}
	if fn, ok := i.functions[e.Name]; ok {
		return fn, nil
	}
	// An unknown bare word reads as itself.
	return runtime.TextValue{Val: e.Name}, nil
}

func (i *Interpreter) evalListAccess(e *ast.ListAccess, env *runtime.Environment) (runtime.Value, error) {
	listVal, err := i.evaluate(e.List, env)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalInt(e.Index, env)
	if err != nil {
		return nil, err
	}
	return runtime.ListIndex(listVal, idx, e.Line)
}

func (i *Interpreter) evalDictAccess(e *ast.DictAccess, env *runtime.Environment) (runtime.Value, error) {
	dictVal, err := i.evaluate(e.Dict, env)
	if err != nil {
		return nil, err
	}
	keyVal, err := i.evaluate(e.Key, env)
	if err != nil {
		return nil, err
	}
	return runtime.DictGet(dictVal, keyVal, e.Line)
}

func (i *Interpreter) evalStringIndex(e *ast.StringIndex, env *runtime.Environment) (runtime.Value, error) {
	sVal, err := i.evaluate(e.Str, env)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalInt(e.Index, env)
	if err != nil {
		return nil, err
	}
	return runtime.CharAt(sVal, idx, e.Line)
}

func (i *Interpreter) evalStringSlice(e *ast.StringSlice, env *runtime.Environment) (runtime.Value, error) {
	sVal, err := i.evaluate(e.Str, env)
	if err != nil {
		return nil, err
	}
	start, err := i.evalInt(e.Start, env)
	if err != nil {
		return nil, err
	}
	end, err := i.evalInt(e.End, env)
	if err != nil {
		return nil, err
	}
	return runtime.SliceText(sVal, start, end), nil
}

// instantiate builds an object with every declared property of the class
// chain set to nothing.
func (i *Interpreter) instantiate(className string, line int) (*runtime.ObjectValue, error) {
	classDef, ok := i.classes[className]
	if !ok {
		return nil, runtime.Errorf(line, runtime.MsgClassNotFound, line, className)
	}
	// Ancestor properties come first so a child re-declaration keeps the
	// child's position.
	var chain []*ast.ClassDef
	for cur := classDef; cur != nil; {
		chain = append([]*ast.ClassDef{cur}, chain...)
		if cur.Parent == "" {
			break
		}
		parent, ok := i.classes[cur.Parent]
		if !ok {
			return nil, runtime.Errorf(line, runtime.MsgParentClassNotFound, line, cur.Parent)
		}
		cur = parent
	}
	props := runtime.NewDict()
	for _, cls := range chain {
		for _, p := range cls.Properties {
			props.Set(p, runtime.Nothing)
		}
	}
	return &runtime.ObjectValue{ClassName: className, Properties: props}, nil
}

func (i *Interpreter) evalNewInstance(e *ast.NewInstance, env *runtime.Environment) (runtime.Value, error) {
	obj, err := i.instantiate(e.ClassName, e.Line)
	if err != nil {
		return nil, err
	}
	for _, pair := range e.Args {
		key, err := i.evaluate(pair.Key, env)
		if err != nil {
			return nil, err
		}
		val, err := i.evaluate(pair.Value, env)
		if err != nil {
			return nil, err
		}
		obj.Properties.Set(runtime.Display(key), val)
	}
	return obj, nil
}

func (i *Interpreter) evalPropertyAccess(e *ast.PropertyAccess, env *runtime.Environment) (runtime.Value, error) {
	obj, err := i.evaluate(e.Object, env)
	if err != nil {
		return nil, err
	}
	return runtime.PropertyOf(obj, e.Property, e.Line)
}

func (i *Interpreter) evalMapOver(e *ast.MapOver, env *runtime.Environment) (runtime.Value, error) {
	fn, err := i.evaluate(e.Func, env)
	if err != nil {
		return nil, err
	}
	listVal, err := i.evaluate(e.List, env)
	if err != nil {
		return nil, err
	}
	lst, ok := listVal.(*runtime.ListValue)
	if !ok {
		return nil, runtime.Errorf(e.Line, runtime.MsgMappingNeedsList, e.Line)
	}
	result := make([]runtime.Value, 0, len(lst.Elements))
	for _, item := range lst.Elements {
		mapped, err := i.applyCallable(fn, []runtime.Value{item}, e.Line)
		if err != nil {
			return nil, err
		}
		result = append(result, mapped)
	}
	return &runtime.ListValue{Elements: result}, nil
}

func (i *Interpreter) evalFilterWhere(e *ast.FilterWhere, env *runtime.Environment) (runtime.Value, error) {
	listVal, err := i.evaluate(e.List, env)
	if err != nil {
		return nil, err
	}
	lst, ok := listVal.(*runtime.ListValue)
	if !ok {
		return nil, runtime.Errorf(e.Line, runtime.MsgFilterNeedsList, e.Line)
	}
	var result []runtime.Value
	for _, item := range lst.Elements {
		filterEnv := runtime.NewEnvironment(env)
		filterEnv.SetLocal("item", item)
		keep, err := i.condValue(e.Condition, filterEnv)
		if err != nil {
			return nil, err
		}
		if keep {
			result = append(result, item)
		}
	}
	return &runtime.ListValue{Elements: result}, nil
}

func (i *Interpreter) evalAllWhere(e *ast.AllWhere, env *runtime.Environment) (runtime.Value, error) {
	sourceVal, err := i.evaluate(e.Source, env)
	if err != nil {
		return nil, err
	}
	source, ok := sourceVal.(*runtime.ListValue)
	if !ok {
		return nil, runtime.Errorf(e.Line, runtime.MsgAllWhereNeedsList, e.Line)
	}
	var result []runtime.Value
	for _, item := range source.Elements {
		filterEnv := runtime.NewEnvironment(env)
		filterEnv.SetLocal(e.VarName, item)
		keep, err := i.condValue(e.Condition, filterEnv)
		if err != nil {
			return nil, err
		}
		if keep {
			result = append(result, item)
		}
	}
	return &runtime.ListValue{Elements: result}, nil
}

func (i *Interpreter) evalRegexMatch(e *ast.RegexMatch, env *runtime.Environment) (runtime.Value, error) {
	pattern, err := i.evalText(e.Pattern, env)
	if err != nil {
		return nil, err
	}
	text, err := i.evalText(e.Text, env)
	if err != nil {
		return nil, err
	}
	return runtime.RegexFind(pattern, text, e.Line)
}

//-----------------------------------------------------------------------------
// Evaluation helpers
//-----------------------------------------------------------------------------

func (i *Interpreter) evalText(expr ast.Expression, env *runtime.Environment) (string, error) {
	val, err := i.evaluate(expr, env)
	if err != nil {
		return "", err
	}
	return runtime.Display(val), nil
}

func (i *Interpreter) textOp(expr ast.Expression, env *runtime.Environment, op func(string) string) (runtime.Value, error) {
	s, err := i.evalText(expr, env)
	if err != nil {
		return nil, err
	}
	return runtime.TextValue{Val: op(s)}, nil
}

func (i *Interpreter) evalNumber(expr ast.Expression, op string, line int, env *runtime.Environment) (float64, error) {
	val, err := i.evaluate(expr, env)
	if err != nil {
		return 0, err
	}
	return runtime.NumberArg(val, op, line)
}
