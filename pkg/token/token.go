// Package token defines the lexical vocabulary shared by the lexer,
// parser, and diagnostics.
package token

import "fmt"

// Kind identifies the token category.
type Kind int

const (
	Word Kind = iota
	Number
	Comma
	Period
	Colon
	LBrace
	RBrace
	QuotedText
	InterpText // quoted text containing {expr} interpolation
	Plus
	Minus
	Star
	Slash
	Percent
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	EndOfInput
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Number:
		return "number"
	case Comma:
		return "comma"
	case Period:
		return "period"
	case Colon:
		return "colon"
	case LBrace:
		return "left brace"
	case RBrace:
		return "right brace"
	case QuotedText:
		return "quoted text"
	case InterpText:
		return "interpolated text"
	case Plus:
		return "plus sign"
	case Minus:
		return "minus sign"
	case Star:
		return "star"
	case Slash:
		return "slash"
	case Percent:
		return "percent sign"
	case Equal:
		return "equals sign"
	case NotEqual:
		return "not-equal sign"
	case Less:
		return "less-than sign"
	case LessEqual:
		return "less-or-equal sign"
	case Greater:
		return "greater-than sign"
	case GreaterEqual:
		return "greater-or-equal sign"
	case EndOfInput:
		return "end of input"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Token is a single lexeme with its source line. Column positions are not
// tracked: Prose diagnostics speak in whole lines.
type Token struct {
	Kind Kind
	Text string
	Line int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, line=%d)", t.Kind, t.Text, t.Line)
}
