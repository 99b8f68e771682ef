// Package bridge is the support runtime for programs emitted by the code
// generator. Compiled code keeps its values in the shared environment chain
// and calls back into the evaluator for everything dynamic, so a compiled
// program and an interpreted one produce the same output and the same error
// sentences for the same source.
//
// Failures travel as panics carrying *runtime.Error; "give back", "stop",
// and "skip" travel as the runtime's control signals. Function boundaries
// and loop bodies convert them back, mirroring how the evaluator threads
// them as error returns.
package bridge

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/interp"
	"github.com/prose-lang/prose/pkg/runtime"
)

// Program carries the capability set, the embedded evaluator, and the
// queued tests of one compiled program.
type Program struct {
	Caps *capability.Set
	I    *interp.Interpreter

	loopCap int
	tests   []runtime.NamedTest
}

// New builds a Program around the given capabilities. Nil means the host
// process defaults.
func New(caps *capability.Set) *Program {
	if caps == nil {
		caps = capability.Defaults()
	}
	return &Program{
		Caps:    caps,
		I:       interp.New(caps),
		loopCap: runtime.DefaultLoopCap,
	}
}

// SetLoopCap overrides the runaway-loop guard threshold.
func (p *Program) SetLoopCap(n int) {
	if n > 0 {
		p.loopCap = n
		p.I.SetLoopCap(n)
	}
}

// Env is the global environment compiled top-level code runs in.
func (p *Program) Env() *runtime.Environment { return p.I.Global }

// Run executes the compiled body, converting escaped runtime errors and
// control signals into the error the evaluator would have returned.
func (p *Program) Run(body func(p *Program, env *runtime.Environment)) error {
	_, err := runtime.Catch(p.I.Global, func(env *runtime.Environment) runtime.Value {
		body(p, env)
		return nil
	})
	return err
}

// Main is the entry point emitted into compiled binaries: host
// capabilities, program arguments, and the interpreter's error reporting.
func Main(body func(p *Program, env *runtime.Environment)) {
	caps := capability.Defaults()
	caps.Args = os.Args[1:]
	p := New(caps)
	if err := p.Run(body); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (p *Program) fail(err error) {
	panic(err)
}

func (p *Program) must(v runtime.Value, err error) runtime.Value {
	if err != nil {
		p.fail(err)
	}
	return v
}

//-----------------------------------------------------------------------------
// Values and name resolution
//-----------------------------------------------------------------------------

// Ident resolves a bare word: the environment, then defined functions,
// then the word itself as text.
func (p *Program) Ident(env *runtime.Environment, name string) runtime.Value {
	return p.I.ResolveName(name, env)
}

// Get reads a variable that must exist, as list statements do.
func (p *Program) Get(env *runtime.Environment, name string, line int) runtime.Value {
	v, err := env.Get(name, line)
	if err != nil {
		p.fail(err)
	}
	return v
}

// Truthy reduces a value in condition position to its boolean weight.
func (p *Program) Truthy(v runtime.Value) bool { return runtime.Truthy(v) }

// Bool wraps a host boolean.
func (p *Program) Bool(b bool) runtime.Value { return runtime.BoolValue{Val: b} }

// Interp concatenates the display forms of interpolated parts.
func (p *Program) Interp(parts ...runtime.Value) runtime.Value {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(runtime.Display(part))
	}
	return runtime.TextValue{Val: b.String()}
}

// List builds a list value from already-evaluated elements.
func (p *Program) List(elements ...runtime.Value) runtime.Value {
	return &runtime.ListValue{Elements: elements}
}

// Dict builds a dictionary from alternating key/value pairs, rejecting
// unhashable keys.
func (p *Program) Dict(line int, pairs ...runtime.Value) runtime.Value {
	dict := runtime.NewDict()
	for n := 0; n+1 < len(pairs); n += 2 {
		key := pairs[n]
		if err := runtime.DictKeyable(key, line); err != nil {
			p.fail(err)
		}
		dict.Set(runtime.KeyText(key), pairs[n+1])
	}
	return dict
}

//-----------------------------------------------------------------------------
// Operators
//-----------------------------------------------------------------------------

func (p *Program) Neg(line int, v runtime.Value) runtime.Value {
	return p.must(runtime.Negate(v, line))
}

func (p *Program) Binary(line int, op string, left, right runtime.Value) runtime.Value {
	return p.must(runtime.ApplyBinary(op, left, right, line))
}

func (p *Program) Compare(line int, op string, left, right runtime.Value) runtime.Value {
	ok, err := runtime.Compare(op, left, right, line)
	if err != nil {
		p.fail(err)
	}
	return runtime.BoolValue{Val: ok}
}

func (p *Program) TypeIs(v runtime.Value, expected string, negated bool) runtime.Value {
	ok := runtime.CheckType(v, expected)
	if negated {
		ok = !ok
	}
	return runtime.BoolValue{Val: ok}
}

// Matches is the loose equality Check statements select cases with.
func (p *Program) Matches(a, b runtime.Value) bool { return runtime.LooseEquals(a, b) }

//-----------------------------------------------------------------------------
// Collections and text
//-----------------------------------------------------------------------------

func (p *Program) Index(line int, list, idx runtime.Value) runtime.Value {
	return p.must(runtime.ListIndex(list, p.IntOf(line, idx), line))
}

func (p *Program) DictGet(line int, dict, key runtime.Value) runtime.Value {
	return p.must(runtime.DictGet(dict, key, line))
}

func (p *Program) DictHas(line int, dict, key runtime.Value) runtime.Value {
	return p.must(runtime.DictHas(dict, key, line))
}

func (p *Program) DictKeys(line int, dict runtime.Value) runtime.Value {
	return p.must(runtime.DictKeyList(dict, line))
}

func (p *Program) CharAt(line int, s, idx runtime.Value) runtime.Value {
	return p.must(runtime.CharAt(s, p.IntOf(line, idx), line))
}

func (p *Program) Slice(line int, s, start, end runtime.Value) runtime.Value {
	return runtime.SliceText(s, p.IntOf(line, start), p.IntOf(line, end))
}

func (p *Program) Length(line int, v runtime.Value) runtime.Value {
	return p.must(runtime.LengthValue(v, line))
}

func (p *Program) Upper(v runtime.Value) runtime.Value {
	return runtime.TextValue{Val: strings.ToUpper(runtime.Display(v))}
}

func (p *Program) Lower(v runtime.Value) runtime.Value {
	return runtime.TextValue{Val: strings.ToLower(runtime.Display(v))}
}

func (p *Program) Trim(v runtime.Value) runtime.Value {
	return runtime.TextValue{Val: strings.TrimSpace(runtime.Display(v))}
}

func (p *Program) Split(src, delim runtime.Value) runtime.Value {
	return runtime.SplitText(runtime.Display(src), runtime.Display(delim))
}

func (p *Program) Join(line int, list, sep runtime.Value) runtime.Value {
	return p.must(runtime.JoinList(list, runtime.Display(sep), line))
}

func (p *Program) Replace(src, find, repl runtime.Value) runtime.Value {
	return runtime.TextValue{Val: strings.ReplaceAll(runtime.Display(src), runtime.Display(find), runtime.Display(repl))}
}

func (p *Program) RepeatText(line int, s, count runtime.Value) runtime.Value {
	return runtime.RepeatText(runtime.Display(s), p.IntOf(line, count))
}

func (p *Program) Contains(line int, hay, needle runtime.Value) runtime.Value {
	return p.must(runtime.ContainsValue(hay, needle, line))
}

func (p *Program) IndexOf(line int, item, list runtime.Value) runtime.Value {
	return p.must(runtime.IndexOfValue(item, list, line))
}

//-----------------------------------------------------------------------------
// Numbers
//-----------------------------------------------------------------------------

// NumOf coerces a value for the named arithmetic operation.
func (p *Program) NumOf(line int, op string, v runtime.Value) float64 {
	n, err := runtime.NumberArg(v, op, line)
	if err != nil {
		p.fail(err)
	}
	return n
}

// IntOf truncates a value used in index or count position.
func (p *Program) IntOf(line int, v runtime.Value) int {
	n, err := runtime.ToNumber(v, line)
	if err != nil {
		p.fail(err)
	}
	return int(n)
}

func (p *Program) Round(line int, v runtime.Value) runtime.Value {
	return runtime.RoundValue(p.NumOf(line, "round", v), nil)
}

func (p *Program) RoundTo(line int, v, places runtime.Value) runtime.Value {
	n := p.NumOf(line, "round", v)
	pl := p.IntOf(line, places)
	return runtime.RoundValue(n, &pl)
}

func (p *Program) Abs(line int, v runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: math.Abs(p.NumOf(line, "absolute value", v))}
}

func (p *Program) Sqrt(line int, v runtime.Value) runtime.Value {
	return p.must(runtime.SqrtValue(p.NumOf(line, "square root", v), line))
}

func (p *Program) Floor(line int, v runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: math.Floor(p.NumOf(line, "floor", v))}
}

func (p *Program) Ceiling(line int, v runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: math.Ceil(p.NumOf(line, "ceiling", v))}
}

func (p *Program) Power(line int, base, exp runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: math.Pow(p.NumOf(line, "power", base), p.NumOf(line, "power", exp))}
}

func (p *Program) Min(line int, a, b runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: math.Min(p.NumOf(line, "minimum", a), p.NumOf(line, "minimum", b))}
}

func (p *Program) Max(line int, a, b runtime.Value) runtime.Value {
	return runtime.NumberValue{Val: math.Max(p.NumOf(line, "maximum", a), p.NumOf(line, "maximum", b))}
}

func (p *Program) Random(line int, low, high runtime.Value) runtime.Value {
	return runtime.RandomBetween(p.Caps.Rand, p.NumOf(line, "random", low), p.NumOf(line, "random", high))
}

func (p *Program) AsNumber(line int, v runtime.Value) runtime.Value {
	return p.must(runtime.AsNumberValue(v, line))
}

func (p *Program) AsText(v runtime.Value) runtime.Value {
	return runtime.TextValue{Val: runtime.Display(v)}
}

//-----------------------------------------------------------------------------
// Side effects: output, input, files, time
//-----------------------------------------------------------------------------

// Say prints the display forms of its parts separated by single spaces.
func (p *Program) Say(parts ...runtime.Value) {
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		words = append(words, runtime.Display(part))
	}
	p.Caps.Output.Print(strings.Join(words, " "))
}

// Display prints a single value on its own line.
func (p *Program) Display(v runtime.Value) {
	p.Caps.Output.Print(runtime.Display(v))
}

// Ask prompts for a variable and stores the reply, as a number when the
// whole line parses as one.
func (p *Program) Ask(env *runtime.Environment, variable string) {
	raw, err := p.Caps.Input.ReadLine(fmt.Sprintf(runtime.AskPromptFormat, variable))
	if err != nil {
		raw = ""
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && strings.TrimSpace(raw) != "" {
		env.Assign(variable, runtime.NumberValue{Val: f})
	} else {
		env.Assign(variable, runtime.TextValue{Val: raw})
	}
}

func (p *Program) FileContents(line int, file runtime.Value) runtime.Value {
	path := runtime.Display(file)
	content, err := p.Caps.Files.Read(path)
	if err != nil {
		p.fail(runtime.Errorf(line, runtime.MsgFileReadFailed, line, path, err))
	}
	return runtime.TextValue{Val: content}
}

func (p *Program) FileExists(file runtime.Value) runtime.Value {
	return runtime.BoolValue{Val: p.Caps.Files.Exists(runtime.Display(file))}
}

func (p *Program) WriteFile(line int, content, file runtime.Value) {
	path := runtime.Display(file)
	if err := p.Caps.Files.Write(path, runtime.Display(content)); err != nil {
		p.fail(runtime.Errorf(line, runtime.MsgFileWriteFailed, line, path, err))
	}
}

func (p *Program) AppendFile(line int, content, file runtime.Value) {
	path := runtime.Display(file)
	if err := p.Caps.Files.Append(path, runtime.Display(content)); err != nil {
		p.fail(runtime.Errorf(line, runtime.MsgFileAppendFailed, line, path, err))
	}
}

func (p *Program) TimeOp(op string) runtime.Value {
	return runtime.TimeValue(p.Caps.Now(), op)
}

func (p *Program) Args() runtime.Value {
	args := make([]runtime.Value, 0, len(p.Caps.Args))
	for _, a := range p.Caps.Args {
		args = append(args, runtime.TextValue{Val: a})
	}
	return &runtime.ListValue{Elements: args}
}

func (p *Program) EnvVar(name runtime.Value) runtime.Value {
	if v, ok := p.Caps.LookupEnv(runtime.Display(name)); ok {
		return runtime.TextValue{Val: v}
	}
	return runtime.Nothing
}

//-----------------------------------------------------------------------------
// JSON, HTTP, regex
//-----------------------------------------------------------------------------

func (p *Program) ParseJSON(line int, text runtime.Value) runtime.Value {
	tv, ok := text.(runtime.TextValue)
	if !ok {
		p.fail(runtime.Errorf(line, runtime.MsgJSONParseRequire, line))
	}
	val, err := runtime.ParseJSON(tv.Val)
	if err != nil {
		p.fail(runtime.Errorf(line, runtime.MsgJSONParseInvalid, line, err))
	}
	return val
}

func (p *Program) ToJSON(line int, v runtime.Value) runtime.Value {
	text, err := runtime.EncodeJSON(v)
	if err != nil {
		p.fail(runtime.Errorf(line, runtime.MsgJSONEncodeFailed, line, err))
	}
	return runtime.TextValue{Val: text}
}

func (p *Program) HTTPGet(line int, url runtime.Value) runtime.Value {
	uv, ok := url.(runtime.TextValue)
	if !ok {
		p.fail(runtime.Errorf(line, runtime.MsgURLNotText, line))
	}
	body, err := p.Caps.Network.Get(uv.Val)
	if err != nil {
		p.fail(runtime.Errorf(line, runtime.MsgHTTPGetFailed, line, err))
	}
	return runtime.JSONOrText(body)
}

func (p *Program) HTTPPost(line int, url, payload runtime.Value) runtime.Value {
	uv, ok := url.(runtime.TextValue)
	if !ok {
		p.fail(runtime.Errorf(line, runtime.MsgURLNotText, line))
	}
	encoded, err := runtime.EncodeJSON(payload)
	if err != nil {
		p.fail(runtime.Errorf(line, runtime.MsgJSONPayload, line, err))
	}
	body, nerr := p.Caps.Network.Post(uv.Val, []byte(encoded))
	if nerr != nil {
		p.fail(runtime.Errorf(line, runtime.MsgHTTPPostFailed, line, nerr))
	}
	return runtime.JSONOrText(body)
}

func (p *Program) RegexFind(line int, pattern, text runtime.Value) runtime.Value {
	return p.must(runtime.RegexFind(runtime.Display(pattern), runtime.Display(text), line))
}

func (p *Program) RegexTest(line int, pattern, text runtime.Value) runtime.Value {
	return p.must(runtime.RegexTest(runtime.Display(pattern), runtime.Display(text), line))
}

//-----------------------------------------------------------------------------
// Functions, lambdas, classes
//-----------------------------------------------------------------------------

func paramList(names []string) []ast.Param {
	params := make([]ast.Param, len(names))
	for n, name := range names {
		params[n] = ast.Param{Name: name}
	}
	return params
}

// DefineFunction registers a compiled function under its source name.
// thunks aligns with params; a non-nil entry supplies that parameter's
// default value.
func (p *Program) DefineFunction(name string, params []string, thunks []runtime.CompiledBody, async bool, body runtime.CompiledBody) {
	p.I.RegisterFunction(name, &runtime.FunctionValue{
		Name:          name,
		Params:        paramList(params),
		DefaultThunks: thunks,
		Async:         async,
		Compiled:      body,
		Closure:       p.I.Global,
	})
}

// Lambda builds a compiled function value closing over env.
func (p *Program) Lambda(env *runtime.Environment, params []string, thunks []runtime.CompiledBody, async bool, body runtime.CompiledBody) runtime.Value {
	return &runtime.FunctionValue{
		Params:        paramList(params),
		DefaultThunks: thunks,
		Async:         async,
		Compiled:      body,
		Closure:       env,
	}
}

// DefineClass registers a class and its declared properties.
func (p *Program) DefineClass(name, parent string, properties ...string) {
	p.I.DefineClass(&ast.ClassDef{Name: name, Parent: parent, Properties: properties})
}

// DefineMethod registers a compiled method on a class.
func (p *Program) DefineMethod(className, name string, params []string, thunks []runtime.CompiledBody, async bool, body runtime.CompiledBody) {
	p.I.DefineMethod(className, name, &runtime.FunctionValue{
		Name:          name,
		Params:        paramList(params),
		DefaultThunks: thunks,
		Async:         async,
		Compiled:      body,
	})
}

// Return raises a "give back" out of the enclosing compiled function.
func (p *Program) Return(v runtime.Value) {
	panic(runtime.ReturnSignal{Value: v})
}

// Stop leaves the enclosing loop.
func (p *Program) Stop() { panic(runtime.StopSignal{}) }

// Skip moves the enclosing loop to its next turn.
func (p *Program) Skip() { panic(runtime.SkipSignal{}) }

//-----------------------------------------------------------------------------
// Calls
//-----------------------------------------------------------------------------

// Call invokes a function by name with already-evaluated arguments.
func (p *Program) Call(env *runtime.Environment, line int, name string, args ...runtime.Value) runtime.Value {
	return p.must(p.I.CallName(name, args, env, line))
}

// CallOn dispatches a method call on an object or module namespace.
func (p *Program) CallOn(env *runtime.Environment, line int, obj runtime.Value, name string, args ...runtime.Value) runtime.Value {
	return p.must(p.I.CallOn(obj, name, args, env, line))
}

// Chain continues a call chain, refusing to chain off nothing.
func (p *Program) Chain(env *runtime.Environment, line int, current runtime.Value, name string, args ...runtime.Value) runtime.Value {
	if current == nil || current.Kind() == runtime.KindNothing {
		p.fail(runtime.Errorf(line, runtime.MsgChainOnNothing, line, name))
	}
	return p.must(p.I.CallOn(current, name, args, env, line))
}

// Apply resolves and calls the callable "mapping" and "applying" take.
func (p *Program) Apply(line int, fn runtime.Value, args ...runtime.Value) runtime.Value {
	return p.must(p.I.Apply(fn, args, line))
}

// MapOver applies fn to each element of list, building a new list.
func (p *Program) MapOver(line int, fn, list runtime.Value) runtime.Value {
	lst, ok := list.(*runtime.ListValue)
	if !ok {
		p.fail(runtime.Errorf(line, runtime.MsgMappingNeedsList, line))
	}
	result := make([]runtime.Value, 0, len(lst.Elements))
	for _, item := range lst.Elements {
		result = append(result, p.must(p.I.Apply(fn, []runtime.Value{item}, line)))
	}
	return &runtime.ListValue{Elements: result}
}

// Filter keeps the elements for which keep returns true, binding each
// element to the named loop variable in a child environment. msg is the
// not-a-list complaint of the surface form being compiled.
func (p *Program) Filter(line int, list runtime.Value, env *runtime.Environment, varName string, keep func(env *runtime.Environment) bool, msg string) runtime.Value {
	lst, ok := list.(*runtime.ListValue)
	if !ok {
		p.fail(runtime.Errorf(line, msg, line))
	}
	var result []runtime.Value
	for _, item := range lst.Elements {
		filterEnv := runtime.NewEnvironment(env)
		filterEnv.SetLocal(varName, item)
		if keep(filterEnv) {
			result = append(result, item)
		}
	}
	return &runtime.ListValue{Elements: result}
}

// NewInstance constructs an object and sets the given property pairs.
func (p *Program) NewInstance(line int, className string, pairs ...runtime.Value) runtime.Value {
	val, err := p.I.NewInstance(className, line)
	if err != nil {
		p.fail(err)
	}
	obj := val.(*runtime.ObjectValue)
	for n := 0; n+1 < len(pairs); n += 2 {
		obj.Properties.Set(runtime.Display(pairs[n]), pairs[n+1])
	}
	return obj
}

// PropertyOf reads a property, dictionary entry, or module export.
func (p *Program) PropertyOf(line int, obj runtime.Value, name string) runtime.Value {
	return p.must(runtime.PropertyOf(obj, name, line))
}

// Wait blocks on an async task handle.
func (p *Program) Wait(line int, v runtime.Value) runtime.Value {
	return p.must(runtime.WaitFor(v, line))
}

// Import loads a module file and binds it into env.
func (p *Program) Import(env *runtime.Environment, line int, file, alias string, names ...string) {
	if err := p.I.ImportModule(line, file, alias, names, env); err != nil {
		p.fail(err)
	}
}

//-----------------------------------------------------------------------------
// Loops
//-----------------------------------------------------------------------------

// RepeatCount reads the repeat count, which must be a number.
func (p *Program) RepeatCount(line int, v runtime.Value) int {
	num, ok := v.(runtime.NumberValue)
	if !ok {
		p.fail(runtime.Errorf(line, runtime.MsgRepeatNotNumber, line, runtime.Display(v)))
	}
	return int(num.Val)
}

// GuardRepeat aborts a counted loop that has hit the runaway threshold.
func (p *Program) GuardRepeat(line, n int) {
	if n >= p.loopCap {
		p.fail(runtime.Errorf(line, runtime.MsgLoopGuard))
	}
}

// GuardWhile aborts a While loop that has run too many turns.
func (p *Program) GuardWhile(line, iterations int) {
	if iterations > p.loopCap {
		p.fail(runtime.Errorf(line, runtime.MsgLoopGuard))
	}
}

// IterItems snapshots a For Each iterable: a list's elements, or the
// characters of text.
func (p *Program) IterItems(line int, iterable runtime.Value) []runtime.Value {
	switch v := iterable.(type) {
	case runtime.TextValue:
		items := make([]runtime.Value, 0, len(v.Val))
		for _, r := range v.Val {
			items = append(items, runtime.TextValue{Val: string(r)})
		}
		return items
	case *runtime.ListValue:
		return append([]runtime.Value(nil), v.Elements...)
	default:
		p.fail(runtime.Errorf(line, runtime.MsgForEachNotList, line))
		return nil
	}
}

// RangeStep validates a For range step.
func (p *Program) RangeStep(line int, v runtime.Value) int {
	step := p.IntOf(line, v)
	if step == 0 {
		p.fail(runtime.Errorf(line, runtime.MsgRangeStepZero, line))
	}
	return step
}

// LoopBody runs one loop turn in a child environment. It reports true
// when the body asked to stop the loop; a skip simply ends the turn.
// Everything else keeps unwinding.
func (p *Program) LoopBody(env *runtime.Environment, body func(env *runtime.Environment)) (stopped bool) {
	defer func() {
		switch r := recover(); r.(type) {
		case nil:
		case runtime.StopSignal:
			stopped = true
		case runtime.SkipSignal:
		default:
			panic(r)
		}
	}()
	body(runtime.NewEnvironment(env))
	return false
}

//-----------------------------------------------------------------------------
// Error handling
//-----------------------------------------------------------------------------

// TryCatch runs try in a child environment and, on any failure including
// an escaping control signal, binds its message and runs catch.
func (p *Program) TryCatch(env *runtime.Environment, errVar string, try, catch func(env *runtime.Environment)) {
	err := catchAll(runtime.NewEnvironment(env), try)
	if err == nil {
		return
	}
	catchEnv := runtime.NewEnvironment(env)
	catchEnv.SetLocal(errVar, runtime.TextValue{Val: err.Error()})
	catch(catchEnv)
}

// Attempt runs try in the current environment and rescues only runtime
// failures; control signals keep travelling. The bound message carries
// the call traceback when one accumulated.
func (p *Program) Attempt(env *runtime.Environment, errVar string, try, catch func(env *runtime.Environment)) {
	err := catchAll(env, try)
	if err == nil {
		return
	}
	rerr, ok := err.(*runtime.Error)
	if !ok {
		p.fail(err)
	}
	msg := rerr.Message
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
	catchEnv.SetLocal(errVar, runtime.TextValue{Val: msg})
	catch(catchEnv)
}

func catchAll(env *runtime.Environment, body func(env *runtime.Environment)) error {
	_, err := runtime.Catch(env, func(env *runtime.Environment) runtime.Value {
		body(env)
		return nil
	})
	return err
}

// Throw raises a user error with the display form of its message.
func (p *Program) Throw(line int, msg runtime.Value) {
	p.fail(runtime.Errorf(line, runtime.MsgThrow, line, runtime.Display(msg)))
}

// Assert fails the program when the condition does not hold.
func (p *Program) Assert(line int, ok bool) {
	if !ok {
		p.fail(runtime.Errorf(line, runtime.MsgAssertFailed, line))
	}
}

//-----------------------------------------------------------------------------
// List, dictionary, and property statements
//-----------------------------------------------------------------------------

func (p *Program) namedList(env *runtime.Environment, line int, name string) *runtime.ListValue {
	val := p.Get(env, name, line)
	lst, ok := val.(*runtime.ListValue)
	if !ok {
		p.fail(runtime.Errorf(line, runtime.MsgNotAList, line, name))
	}
	return lst
}

func (p *Program) AddToList(env *runtime.Environment, line int, name string, v runtime.Value) {
	lst := p.namedList(env, line, name)
	lst.Elements = append(lst.Elements, v)
}

func (p *Program) RemoveFromList(env *runtime.Environment, line int, name string, idx runtime.Value) {
	lst := p.namedList(env, line, name)
	if err := runtime.RemoveAt(lst, p.IntOf(line, idx), line); err != nil {
		p.fail(err)
	}
}

func (p *Program) SortList(env *runtime.Environment, line int, name string) {
	runtime.SortValues(p.namedList(env, line, name).Elements)
}

func (p *Program) SetProperty(line int, obj runtime.Value, name string, v runtime.Value) {
	if err := runtime.SetPropertyOn(obj, name, v, line); err != nil {
		p.fail(err)
	}
}

func (p *Program) SetDictEntry(line int, dict, key, v runtime.Value) {
	if err := runtime.SetDictEntry(dict, key, v, line); err != nil {
		p.fail(err)
	}
}

func (p *Program) RemoveDictEntry(line int, dict, key runtime.Value) {
	if err := runtime.RemoveDictEntry(dict, key, line); err != nil {
		p.fail(err)
	}
}

//-----------------------------------------------------------------------------
// Tests
//-----------------------------------------------------------------------------

// AddTest queues a test block for a later "Run the tests.".
func (p *Program) AddTest(name string, body func(env *runtime.Environment)) {
	p.tests = append(p.tests, runtime.NamedTest{Name: name, Run: func() error {
		return catchAll(runtime.NewEnvironment(p.I.Global), body)
	}})
}

// RunTests reports every queued test in declaration order.
func (p *Program) RunTests() {
	runtime.RunTestReport(p.Caps.Output.Print, p.tests)
}
