package runtime

import (
	"math"
	"strconv"
	"strings"
)

// Display renders a value exactly as Prose shows it to the user. Both the
// evaluator and generated programs call this, so output stays identical.
func Display(v Value) string {
	switch val := v.(type) {
	case nil, NothingValue:
		return "nothing"
	case BoolValue:
		if val.Val {
			return "true"
		}
		return "false"
	case NumberValue:
		return FormatNumber(val.Val)
	case TextValue:
		return val.Val
	case *ListValue:
		parts := make([]string, 0, len(val.Elements))
		for _, el := range val.Elements {
			parts = append(parts, Display(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *DictValue:
		parts := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			item, _ := val.Get(k)
			parts = append(parts, k+": "+Display(item))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *ObjectValue:
		return "<Object " + val.ClassName + " " + Display(val.Properties) + ">"
	case *FunctionValue:
		return "<function>"
	case NativeFunctionValue:
		return "<function>"
	case *ModuleValue:
		return "<module " + val.Name + ">"
	case *TaskValue:
		return "<task>"
	default:
		return "nothing"
	}
}

// FormatNumber renders whole values without a fractional part.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// KeyText converts a dictionary key value to its storage form.
func KeyText(v Value) string { return Display(v) }

// Truthy reports the boolean weight of a value: false, zero, empty text,
// empty collections, and nothing are false; everything else is true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, NothingValue:
		return false
	case BoolValue:
		return val.Val
	case NumberValue:
		return val.Val != 0
	case TextValue:
		return val.Val != ""
	case *ListValue:
		return len(val.Elements) > 0
	case *DictValue:
		return val.Len() > 0
	default:
		return true
	}
}

// LooseEquals compares forgivingly: same-kind values compare directly,
// otherwise both sides are tried as numbers, and failing that their
// display text is compared case-insensitively.
func LooseEquals(a, b Value) bool {
	if a == nil {
		a = Nothing
	}
	if b == nil {
		b = Nothing
	}
	if a.Kind() == b.Kind() {
		return sameKindEquals(a, b)
	}
	an, aok := numeric(a)
	bn, bok := numeric(b)
	if aok && bok {
		return an == bn
	}
	return strings.EqualFold(Display(a), Display(b))
}

func sameKindEquals(a, b Value) bool {
	switch av := a.(type) {
	case NothingValue:
		return true
	case NumberValue:
		return av.Val == b.(NumberValue).Val
	case TextValue:
		return av.Val == b.(TextValue).Val
	case BoolValue:
		return av.Val == b.(BoolValue).Val
	case *ListValue:
		bv := b.(*ListValue)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !LooseEquals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *DictValue:
		bv := b.(*DictValue)
		if av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			bval, ok := bv.Get(k)
			if !ok {
				return false
			}
			aval, _ := av.Get(k)
			if !LooseEquals(aval, bval) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// numeric extracts a float from values that carry one: numbers, booleans,
// and text that parses as a number.
func numeric(v Value) (float64, bool) {
	switch val := v.(type) {
	case NumberValue:
		return val.Val, true
	case BoolValue:
		if val.Val {
			return 1, true
		}
		return 0, true
	case TextValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.Val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToNumber coerces a value for ordering comparisons.
func ToNumber(v Value, line int) (float64, error) {
	if n, ok := numeric(v); ok {
		return n, nil
	}
	return 0, Errorf(line, "Line %d: '%s' is not a number — I need one for this comparison.", line, Display(v))
}
