package runtime

import "math"

// ApplyBinary evaluates an arithmetic operator. Joining anything with text
// via "plus" concatenates the display forms with a single space between
// them; two lists concatenate into a new list.
func ApplyBinary(op string, left, right Value, line int) (Value, error) {
	if op == "plus" {
		if ll, ok := left.(*ListValue); ok {
			if rl, ok := right.(*ListValue); ok {
				joined := make([]Value, 0, len(ll.Elements)+len(rl.Elements))
				joined = append(joined, ll.Elements...)
				joined = append(joined, rl.Elements...)
				return &ListValue{Elements: joined}, nil
			}
		}
		if left.Kind() == KindText || right.Kind() == KindText {
			return TextValue{Val: Display(left) + " " + Display(right)}, nil
		}
	}
	ln, err := assertNumber(left, op, line)
	if err != nil {
		return nil, err
	}
	rn, err := assertNumber(right, op, line)
	if err != nil {
		return nil, err
	}
	switch op {
	case "plus":
		return NumberValue{Val: ln + rn}, nil
	case "minus":
		return NumberValue{Val: ln - rn}, nil
	case "times":
		return NumberValue{Val: ln * rn}, nil
	case "divided_by":
		if rn == 0 {
			return nil, Errorf(line, "Line %d: I cannot divide by zero.", line)
		}
		return NumberValue{Val: ln / rn}, nil
	case "modulo":
		if rn == 0 {
			return nil, Errorf(line, "Line %d: I cannot take the remainder of dividing by zero.", line)
		}
		return NumberValue{Val: floorMod(ln, rn)}, nil
	}
	return nil, Errorf(line, "Line %d: Unknown operator '%s'.", line, op)
}

// floorMod gives the remainder the sign of the divisor, the way Prose
// arithmetic defines modulo.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func assertNumber(v Value, op string, line int) (float64, error) {
	if n, ok := v.(NumberValue); ok {
		return n.Val, nil
	}
	return 0, Errorf(line, "Line %d: '%s' is not a number, so I cannot use '%s'.", line, Display(v), op)
}

// Compare evaluates a comparison operator to a boolean.
func Compare(op string, left, right Value, line int) (bool, error) {
	switch op {
	case "equals":
		return LooseEquals(left, right), nil
	case "not_equals":
		return !LooseEquals(left, right), nil
	case "has_key":
		dict, ok := left.(*DictValue)
		if !ok {
			return false, Errorf(line, "Line %d: 'has the key' can only be used on a dictionary.", line)
		}
		return dict.Has(KeyText(right)), nil
	}
	ln, err := ToNumber(left, line)
	if err != nil {
		return false, err
	}
	rn, err := ToNumber(right, line)
	if err != nil {
		return false, err
	}
	switch op {
	case "greater_than":
		return ln > rn, nil
	case "less_than":
		return ln < rn, nil
	case "greater_equal":
		return ln >= rn, nil
	case "less_equal":
		return ln <= rn, nil
	}
	return false, Errorf(line, "Line %d: Unknown comparison '%s'.", line, op)
}

// CheckType implements "X is a number / text / list / boolean /
// dictionary / nothing".
func CheckType(v Value, expected string) bool {
	switch expected {
	case "number":
		return v.Kind() == KindNumber
	case "text":
		return v.Kind() == KindText
	case "list":
		return v.Kind() == KindList
	case "boolean":
		return v.Kind() == KindBool
	case "dictionary":
		return v.Kind() == KindDict
	case "nothing":
		return v.Kind() == KindNothing
	default:
		return false
	}
}
