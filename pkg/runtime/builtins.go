package runtime

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prose-lang/prose/pkg/ast"
)

// Built-in value operations shared by the evaluator and by programs the
// code generator emits. Keeping them here means indexing rules, coercions
// and the exact error sentences exist in exactly one place.

func Negate(v Value, line int) (Value, error) {
	num, ok := v.(NumberValue)
	if !ok {
		return nil, Errorf(line, "Line %d: Cannot negate '%s'.", line, Display(v))
	}
	return NumberValue{Val: -num.Val}, nil
}

func LengthValue(v Value, line int) (Value, error) {
	switch val := v.(type) {
	case TextValue:
		return NumberValue{Val: float64(len([]rune(val.Val)))}, nil
	case *ListValue:
		return NumberValue{Val: float64(len(val.Elements))}, nil
	}
	return nil, Errorf(line, "Line %d: Can only get length of a list or text.", line)
}

// ListIndex resolves 1-based user indexing against a list value.
func ListIndex(listVal Value, idx, line int) (Value, error) {
	lst, ok := listVal.(*ListValue)
	if !ok {
		return nil, Errorf(line, "Line %d: Can only index into a list.", line)
	}
	if idx < 1 || idx > len(lst.Elements) {
		return nil, Errorf(line, "Line %d: Index %d out of range (list has %d items).", line, idx, len(lst.Elements))
	}
	return lst.Elements[idx-1], nil
}

func DictGet(dictVal, key Value, line int) (Value, error) {
	dict, ok := dictVal.(*DictValue)
	if !ok {
		return nil, Errorf(line, "Line %d: Can only get a value from a dictionary.", line)
	}
	k := KeyText(key)
	val, found := dict.Get(k)
	if !found {
		return nil, Errorf(line, "Line %d: The dictionary does not have the key '%s'.", line, k)
	}
	return val, nil
}

func DictHas(dictVal, key Value, line int) (Value, error) {
	dict, ok := dictVal.(*DictValue)
	if !ok {
		return nil, Errorf(line, "Line %d: 'has the key' can only be used on a dictionary.", line)
	}
	return BoolValue{Val: dict.Has(KeyText(key))}, nil
}

func DictKeyList(dictVal Value, line int) (Value, error) {
	dict, ok := dictVal.(*DictValue)
	if !ok {
		return nil, Errorf(line, "Line %d: Can only get keys from a dictionary.", line)
	}
	keys := make([]Value, 0, dict.Len())
	for _, k := range dict.Keys() {
		keys = append(keys, TextValue{Val: k})
	}
	return &ListValue{Elements: keys}, nil
}

func SplitText(src, delim string) Value {
	parts := strings.Split(src, delim)
	elements := make([]Value, 0, len(parts))
	for _, p := range parts {
		elements = append(elements, TextValue{Val: p})
	}
	return &ListValue{Elements: elements}
}

func JoinList(listVal Value, sep string, line int) (Value, error) {
	lst, ok := listVal.(*ListValue)
	if !ok {
		return nil, Errorf(line, "Line %d: 'join' needs a list.", line)
	}
	parts := make([]string, 0, len(lst.Elements))
	for _, el := range lst.Elements {
		parts = append(parts, Display(el))
	}
	return TextValue{Val: strings.Join(parts, sep)}, nil
}

func RepeatText(s string, n int) Value {
	if n < 0 {
		n = 0
	}
	return TextValue{Val: strings.Repeat(s, n)}
}

func ContainsValue(hay, needle Value, line int) (Value, error) {
	switch h := hay.(type) {
	case TextValue:
		return BoolValue{Val: strings.Contains(h.Val, Display(needle))}, nil
	case *ListValue:
		for _, el := range h.Elements {
			if LooseEquals(el, needle) {
				return BoolValue{Val: true}, nil
			}
		}
		return BoolValue{Val: false}, nil
	}
	return nil, Errorf(line, "Line %d: 'contains' needs a list or text.", line)
}

// IndexOfValue is 1-based; 0 means absent.
func IndexOfValue(item, container Value, line int) (Value, error) {
	switch c := container.(type) {
	case *ListValue:
		for n, el := range c.Elements {
			if LooseEquals(el, item) {
				return NumberValue{Val: float64(n + 1)}, nil
			}
		}
		return NumberValue{Val: 0}, nil
	case TextValue:
		idx := strings.Index(c.Val, Display(item))
		if idx < 0 {
			return NumberValue{Val: 0}, nil
		}
		return NumberValue{Val: float64(len([]rune(c.Val[:idx])) + 1)}, nil
	}
	return nil, Errorf(line, "Line %d: 'index of' needs a list or text.", line)
}

// NumberArg unwraps a Number operand for the named math builtin.
func NumberArg(v Value, op string, line int) (float64, error) {
	num, ok := v.(NumberValue)
	if !ok {
		return 0, Errorf(line, "Line %d: '%s' is not a number, so I cannot use '%s'.", line, Display(v), op)
	}
	return num.Val, nil
}

// RoundValue rounds half to even, optionally at a decimal place.
func RoundValue(v float64, places *int) Value {
	if places == nil {
		return NumberValue{Val: math.RoundToEven(v)}
	}
	shift := math.Pow(10, float64(*places))
	return NumberValue{Val: math.RoundToEven(v*shift) / shift}
}

func SqrtValue(v float64, line int) (Value, error) {
	if v < 0 {
		return nil, Errorf(line, "Line %d: I cannot take the square root of a negative number.", line)
	}
	return NumberValue{Val: math.Sqrt(v)}, nil
}

func AsNumberValue(v Value, line int) (Value, error) {
	if num, ok := v.(NumberValue); ok {
		return num, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(Display(v)), 64)
	if err != nil {
		return nil, Errorf(line, "Line %d: I could not convert '%s' to a number. Please make sure it looks like a number.", line, Display(v))
	}
	return NumberValue{Val: f}, nil
}

// CharAt resolves 1-based character indexing over runes.
func CharAt(v Value, idx, line int) (Value, error) {
	s := []rune(Display(v))
	if idx < 1 || idx > len(s) {
		return nil, Errorf(line, "Line %d: Character index %d out of bounds for text of length %d.", line, idx, len(s))
	}
	return TextValue{Val: string(s[idx-1])}, nil
}

// SliceText is the 1-based inclusive-start "substring of X from A to B",
// clamped at both ends.
func SliceText(v Value, start, end int) Value {
	s := []rune(Display(v))
	start--
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return TextValue{Val: ""}
	}
	return TextValue{Val: string(s[start:end])}
}

// DictKeyable rejects collection keys for dictionary literals and writes.
func DictKeyable(key Value, line int) error {
	if key.Kind() == KindList || key.Kind() == KindDict {
		return Errorf(line, "Line %d: A list or dictionary cannot be used as a key.", line)
	}
	return nil
}

func WaitFor(v Value, line int) (Value, error) {
	task, ok := v.(*TaskValue)
	if !ok {
		return nil, Errorf(line, "Line %d: Cannot 'waiting for' something that is not an active background task.", line)
	}
	result, err := task.Await()
	if err != nil {
		return nil, err
	}
	if result == nil {
		return Nothing, nil
	}
	return result, nil
}

// ArityDesc reports whether got arguments satisfy the parameter list and
// describes the accepted count ("3" or "between 1 and 3") for diagnostics.
// thunks, when non-nil, marks which params of a compiled function carry
// defaults; interpreted params carry theirs as Default expressions.
func ArityDesc(params []ast.Param, thunks []CompiledBody, got int) (string, bool) {
	min := 0
	for n, p := range params {
		hasDefault := p.Default != nil
		if !hasDefault && n < len(thunks) && thunks[n] != nil {
			hasDefault = true
		}
		if !hasDefault {
			min++
		}
	}
	desc := strconv.Itoa(len(params))
	if min != len(params) {
		desc = fmt.Sprintf("between %d and %d", min, len(params))
	}
	return desc, got >= min && got <= len(params)
}

// RandomBetween picks inside [lo, hi]: whole numbers when both bounds are
// whole, otherwise a float rounded to six places.
func RandomBetween(r *rand.Rand, lo, hi float64) Value {
	if lo == math.Trunc(lo) && hi == math.Trunc(hi) && hi >= lo {
		n := r.Intn(int(hi)-int(lo)+1) + int(lo)
		return NumberValue{Val: float64(n)}
	}
	v := lo + r.Float64()*(hi-lo)
	return NumberValue{Val: math.Round(v*1e6) / 1e6}
}

// TimeValue renders the "current ..." time expressions.
func TimeValue(now time.Time, op string) Value {
	switch op {
	case "year":
		return NumberValue{Val: float64(now.Year())}
	case "timestamp":
		return NumberValue{Val: float64(now.Unix())}
	default:
		return TextValue{Val: now.Format(TimeFormat)}
	}
}

// JSONOrText decodes an HTTP response body as JSON when it parses,
// otherwise gives the raw text back.
func JSONOrText(body string) Value {
	if parsed, err := ParseJSON(body); err == nil {
		return parsed
	}
	return TextValue{Val: body}
}

// RegexFind gives back the capture groups as a list, the whole match when
// the pattern has no groups, or nothing when there is no match.
func RegexFind(pattern, text string, line int) (Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, Errorf(line, MsgRegexInvalid, line, err)
	}
	match := re.FindStringSubmatch(text)
	if match == nil {
		return Nothing, nil
	}
	if len(match) == 1 {
		return TextValue{Val: match[0]}, nil
	}
	groups := make([]Value, 0, len(match)-1)
	for _, g := range match[1:] {
		groups = append(groups, TextValue{Val: g})
	}
	return &ListValue{Elements: groups}, nil
}

// RegexTest reports whether the pattern matches anywhere in the text.
func RegexTest(pattern, text string, line int) (Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, Errorf(line, MsgRegexInvalid, line, err)
	}
	return BoolValue{Val: re.MatchString(text)}, nil
}

// PropertyOf reads "the P of O" for objects, dictionaries, and imported
// namespaces.
func PropertyOf(obj Value, name string, line int) (Value, error) {
	switch o := obj.(type) {
	case *ObjectValue:
		val, ok := o.Properties.Get(name)
		if !ok {
			return nil, Errorf(line, MsgPropertyNotFound, line, name, o.ClassName)
		}
		return val, nil
	case *DictValue:
		val, ok := o.Get(name)
		if !ok {
			return nil, Errorf(line, MsgDictKeyNotFound, line, name)
		}
		return val, nil
	case *ModuleValue:
		val, ok := o.Bindings.Lookup(name)
		if !ok {
			return nil, Errorf(line, MsgExportNotFound, line, name)
		}
		return val, nil
	default:
		return nil, Errorf(line, MsgPropertyTarget, line, obj.Kind())
	}
}

// SetPropertyOn writes "Set the P of O to V" targets.
func SetPropertyOn(obj Value, prop string, val Value, line int) error {
	switch target := obj.(type) {
	case *ObjectValue:
		target.Properties.Set(prop, val)
	case *DictValue:
		target.Set(prop, val)
	default:
		return Errorf(line, MsgSetPropertyTarget, line)
	}
	return nil
}

// SetDictEntry stores a keyed value, rejecting unhashable keys.
func SetDictEntry(dictVal, key, val Value, line int) error {
	dict, ok := dictVal.(*DictValue)
	if !ok {
		return Errorf(line, MsgSetDictTarget, line)
	}
	if err := DictKeyable(key, line); err != nil {
		return err
	}
	dict.Set(KeyText(key), val)
	return nil
}

// RemoveDictEntry drops a key; removing an absent key is not an error.
func RemoveDictEntry(dictVal, key Value, line int) error {
	dict, ok := dictVal.(*DictValue)
	if !ok {
		return Errorf(line, MsgRemoveDictTarget, line)
	}
	dict.Delete(KeyText(key))
	return nil
}

// RemoveAt deletes the 1-based index from the list in place.
func RemoveAt(lst *ListValue, idx, line int) error {
	n := idx - 1
	if n < 0 || n >= len(lst.Elements) {
		return Errorf(line, MsgItemOutOfRange, line, n+1, len(lst.Elements))
	}
	lst.Elements = append(lst.Elements[:n], lst.Elements[n+1:]...)
	return nil
}

// SortValues orders numbers numerically before text lexicographically;
// anything else sorts by its display form at the end.
func SortValues(elements []Value) {
	rank := func(v Value) int {
		switch v.Kind() {
		case KindNumber:
			return 0
		case KindText:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(elements, func(a, b int) bool {
		va, vb := elements[a], elements[b]
		ra, rb := rank(va), rank(vb)
		if ra != rb {
			return ra < rb
		}
		if ra == 0 {
			return va.(NumberValue).Val < vb.(NumberValue).Val
		}
		return Display(va) < Display(vb)
	})
}
