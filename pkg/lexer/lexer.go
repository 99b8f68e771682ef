// Package lexer turns Prose source text into tokens.
//
// Prose keeps punctuation minimal: commas, periods, colons, braces, quotes,
// and the math symbols + - * / % = < > <= >= !=. A line whose first
// non-blank content is "Note:" is a comment; "---" and "//" comment to end
// of line; a bare ellipsis "..." is skipped entirely.
package lexer

import (
	"fmt"
	"strings"

	"github.com/prose-lang/prose/pkg/token"
)

// Error is a lexical failure with the offending line attached.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Tokenize scans the whole source and returns its tokens, ending with an
// EndOfInput token. The token stream is only returned when the entire
// source is lexically valid.
func Tokenize(source string) ([]token.Token, error) {
	lx := &lexer{src: stripNoteLines(source), line: 1}
	return lx.run()
}

// stripNoteLines blanks comment lines in place so that later tokens keep
// their original line numbers.
func stripNoteLines(source string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(source, "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimLeft(line, " \t")), "note:") {
			b.WriteString("\n")
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

type lexer struct {
	src  string
	pos  int
	line int
}

func (lx *lexer) errBadChar(ch byte) error {
	return &Error{
		Line: lx.line,
		Message: fmt.Sprintf("I am sorry, but I do not understand the character '%c' on line %d. "+
			"Prose allows letters, digits, spaces, quotes, commas, periods, colons, and math symbols (+ - * / %% = < > !).", ch, lx.line),
	}
}

func (lx *lexer) run() ([]token.Token, error) {
	var out []token.Token
	for lx.pos < len(lx.src) {
		lx.skipSpace()
		if lx.pos >= len(lx.src) {
			break
		}
		ch := lx.src[lx.pos]
		switch {
		case ch == '.':
			if lx.pos+2 < len(lx.src) && lx.src[lx.pos+1] == '.' && lx.src[lx.pos+2] == '.' {
				lx.pos += 3
				continue
			}
			out = append(out, lx.emit(token.Period, "."))
		case ch == ',':
			out = append(out, lx.emit(token.Comma, ","))
		case ch == ':':
			out = append(out, lx.emit(token.Colon, ":"))
		case ch == '{':
			out = append(out, lx.emit(token.LBrace, "{"))
		case ch == '}':
			out = append(out, lx.emit(token.RBrace, "}"))
		case ch == '"':
			tok, err := lx.readQuoted()
			if err != nil {
				return nil, err
			}
			out = append(out, tok)
		case ch == '+':
			out = append(out, lx.emit(token.Plus, "+"))
		case ch == '-':
			if lx.pos+2 < len(lx.src) && lx.src[lx.pos+1] == '-' && lx.src[lx.pos+2] == '-' {
				lx.skipToLineEnd()
				continue
			}
			out = append(out, lx.emit(token.Minus, "-"))
		case ch == '*':
			out = append(out, lx.emit(token.Star, "*"))
		case ch == '/':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '/' {
				lx.skipToLineEnd()
				continue
			}
			out = append(out, lx.emit(token.Slash, "/"))
		case ch == '%':
			out = append(out, lx.emit(token.Percent, "%"))
		case ch == '!':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '=' {
				out = append(out, lx.emit2(token.NotEqual, "!="))
			} else {
				return nil, lx.errBadChar(ch)
			}
		case ch == '<':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '=' {
				out = append(out, lx.emit2(token.LessEqual, "<="))
			} else {
				out = append(out, lx.emit(token.Less, "<"))
			}
		case ch == '>':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '=' {
				out = append(out, lx.emit2(token.GreaterEqual, ">="))
			} else {
				out = append(out, lx.emit(token.Greater, ">"))
			}
		case ch == '=':
			out = append(out, lx.emit(token.Equal, "="))
		case isDigit(ch):
			out = append(out, lx.readNumber())
		case isWordStart(ch):
			out = append(out, lx.readWord())
		default:
			return nil, lx.errBadChar(ch)
		}
	}
	out = append(out, token.Token{Kind: token.EndOfInput, Line: lx.line})
	return out, nil
}

func (lx *lexer) emit(kind token.Kind, text string) token.Token {
	tok := token.Token{Kind: kind, Text: text, Line: lx.line}
	lx.pos++
	return tok
}

func (lx *lexer) emit2(kind token.Kind, text string) token.Token {
	tok := token.Token{Kind: kind, Text: text, Line: lx.line}
	lx.pos += 2
	return tok
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ', '\t', '\r':
			lx.pos++
		case '\n':
			lx.pos++
			lx.line++
		default:
			return
		}
	}
}

func (lx *lexer) skipToLineEnd() {
	for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
		lx.pos++
	}
}

// readNumber consumes a digit run with at most one interior decimal point.
// A period not followed by a digit is left for the sentence terminator.
func (lx *lexer) readNumber() token.Token {
	start := lx.pos
	line := lx.line
	for lx.pos < len(lx.src) {
		ch := lx.src[lx.pos]
		if isDigit(ch) {
			lx.pos++
			continue
		}
		if ch == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1]) {
			lx.pos++
			continue
		}
		break
	}
	return token.Token{Kind: token.Number, Text: lx.src[start:lx.pos], Line: line}
}

func (lx *lexer) readWord() token.Token {
	start := lx.pos
	line := lx.line
	lx.pos++
	for lx.pos < len(lx.src) && isWordPart(lx.src[lx.pos]) {
		lx.pos++
	}
	return token.Token{Kind: token.Word, Text: lx.src[start:lx.pos], Line: line}
}

// readQuoted consumes a "..." span. Escapes \n \t \{ \" \\ are resolved
// here; an unescaped { marks the text as interpolated so the parser can
// split it into literal and expression parts.
func (lx *lexer) readQuoted() (token.Token, error) {
	startLine := lx.line
	lx.pos++ // opening quote
	var buf strings.Builder
	hasInterp := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		if c == '"' {
			lx.pos++
			kind := token.QuotedText
			if hasInterp {
				kind = token.InterpText
			}
			return token.Token{Kind: kind, Text: buf.String(), Line: startLine}, nil
		}
		if c == '\\' && lx.pos+1 < len(lx.src) {
			switch lx.src[lx.pos+1] {
			case 'n':
				buf.WriteByte('\n')
				lx.pos += 2
				continue
			case 't':
				buf.WriteByte('\t')
				lx.pos += 2
				continue
			case '{':
				buf.WriteByte('{')
				lx.pos += 2
				continue
			case '"':
				buf.WriteByte('"')
				lx.pos += 2
				continue
			case '\\':
				buf.WriteByte('\\')
				lx.pos += 2
				continue
			}
		}
		if c == '{' {
			hasInterp = true
		}
		if c == '\n' {
			lx.line++
		}
		buf.WriteByte(c)
		lx.pos++
	}
	return token.Token{}, &Error{Line: startLine, Message: fmt.Sprintf("Line %d: Unclosed string.", startLine)}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isWordStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordPart(ch byte) bool { return isWordStart(ch) || isDigit(ch) }
