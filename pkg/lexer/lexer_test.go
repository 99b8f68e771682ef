package lexer

import (
	"strings"
	"testing"

	"github.com/prose-lang/prose/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func TestTokenizeSimpleSentence(t *testing.T) {
	toks, err := Tokenize("Let x be 5.")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []token.Kind{token.Word, token.Word, token.Word, token.Number, token.Period, token.EndOfInput}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count: got %d want %d (%v)", len(got), len(want), toks)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
	if toks[3].Text != "5" {
		t.Fatalf("number text: got %q", toks[3].Text)
	}
}

func TestTokenizePunctuationWithoutSpaces(t *testing.T) {
	toks, err := Tokenize("a,b.c:")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []token.Kind{token.Word, token.Comma, token.Word, token.Period, token.Word, token.Colon, token.EndOfInput}
	for i, k := range kinds(toks) {
		if k != want[i] {
			t.Fatalf("token %d: got %s want %s", i, k, want[i])
		}
	}
}

func TestTokenizeDecimalVersusTerminator(t *testing.T) {
	toks, err := Tokenize("Let pi be 3.14.")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[3].Kind != token.Number || toks[3].Text != "3.14" {
		t.Fatalf("decimal: got %v", toks[3])
	}
	if toks[4].Kind != token.Period {
		t.Fatalf("terminator: got %v", toks[4])
	}
}

func TestTokenizeQuotedEscapes(t *testing.T) {
	toks, err := Tokenize(`Say "a\nb\t\{c\"d\\".`)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[1].Kind != token.QuotedText {
		t.Fatalf("kind: got %s", toks[1].Kind)
	}
	if toks[1].Text != "a\nb\t{c\"d\\" {
		t.Fatalf("escapes: got %q", toks[1].Text)
	}
}

func TestTokenizeInterpolatedString(t *testing.T) {
	toks, err := Tokenize(`Say "hello {name}".`)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[1].Kind != token.InterpText {
		t.Fatalf("kind: got %s", toks[1].Kind)
	}
	if toks[1].Text != "hello {name}" {
		t.Fatalf("text: got %q", toks[1].Text)
	}
}

func TestTokenizeUnclosedString(t *testing.T) {
	_, err := Tokenize("Let a be 1.\nSay \"oops.")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got != "Line 2: Unclosed string." {
		t.Fatalf("message: got %q", got)
	}
}

func TestTokenizeComments(t *testing.T) {
	src := "Note: this whole line vanishes\nLet x be 1. --- trailing words\nLet y be 2. // more\nLet z be x ... y.\n"
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	for _, tok := range toks {
		if tok.Kind == token.Word && (tok.Text == "trailing" || tok.Text == "more" || tok.Text == "this") {
			t.Fatalf("comment text leaked: %v", tok)
		}
	}
	// The Note: line is blanked, not removed, so line numbers survive.
	if toks[0].Text != "Let" || toks[0].Line != 2 {
		t.Fatalf("line preservation: got %v", toks[0])
	}
}

func TestTokenizeMathSymbols(t *testing.T) {
	toks, err := Tokenize("1 + 2 - 3 * 4 / 5 % 6 = 7 != 8 < 9 <= 10 > 11 >= 12")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []token.Kind{
		token.Number, token.Plus, token.Number, token.Minus, token.Number,
		token.Star, token.Number, token.Slash, token.Number, token.Percent,
		token.Number, token.Equal, token.Number, token.NotEqual, token.Number,
		token.Less, token.Number, token.LessEqual, token.Number,
		token.Greater, token.Number, token.GreaterEqual, token.Number,
		token.EndOfInput,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestTokenizeBadCharacter(t *testing.T) {
	_, err := Tokenize("Let x be 5 @.")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "do not understand the character '@'") {
		t.Fatalf("message: got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "on line 1") {
		t.Fatalf("line: got %q", err.Error())
	}
}

func TestTokenizeBareExclamationRejected(t *testing.T) {
	_, err := Tokenize("Say hi !")
	if err == nil {
		t.Fatalf("expected error")
	}
}
