package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON decodes JSON into runtime values, keeping object keys in
// their source order so dictionaries display the way the document reads.
func ParseJSON(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	val, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	// trailing garbage after the document is an error
	if dec.More() {
		return nil, fmt.Errorf("unexpected content after JSON value")
	}
	return val, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			dict := NewDict()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("invalid object key")
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				dict.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return dict, nil
		case '[':
			var elements []Value
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				elements = append(elements, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return &ListValue{Elements: elements}, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return TextValue{Val: t}, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return NumberValue{Val: f}, nil
	case bool:
		return BoolValue{Val: t}, nil
	case nil:
		return Nothing, nil
	default:
		return nil, fmt.Errorf("unexpected JSON token %v", tok)
	}
}

// EncodeJSON renders a value as JSON with ", " and ": " separators, the
// format the evaluator has always produced.
func EncodeJSON(v Value) (string, error) {
	var b strings.Builder
	if err := writeJSON(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeJSON(b *strings.Builder, v Value) error {
	switch val := v.(type) {
	case nil, NothingValue:
		b.WriteString("null")
	case BoolValue:
		if val.Val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case NumberValue:
		b.WriteString(FormatNumber(val.Val))
	case TextValue:
		quoted, err := json.Marshal(val.Val)
		if err != nil {
			return err
		}
		b.Write(quoted)
	case *ListValue:
		b.WriteByte('[')
		for n, el := range val.Elements {
			if n > 0 {
				b.WriteString(", ")
			}
			if err := writeJSON(b, el); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case *DictValue:
		b.WriteByte('{')
		for n, k := range val.Keys() {
			if n > 0 {
				b.WriteString(", ")
			}
			quoted, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(quoted)
			b.WriteString(": ")
			item, _ := val.Get(k)
			if err := writeJSON(b, item); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("a %s is not JSON serializable", v.Kind())
	}
	return nil
}
