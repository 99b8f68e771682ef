package parser

import (
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/lexer"
	"github.com/prose-lang/prose/pkg/token"
)

// stopWords terminate bareword text collection inside expressions. A word
// in this set always means grammar, never prose.
var stopWords = map[string]bool{
	"plus": true, "minus": true, "times": true, "divided": true, "modulo": true,
	"is": true, "equals": true,
	"then": true, "do": true, "following": true, "end": true, "otherwise": true,
	"and": true, "or": true, "with": true, "that": true, "does": true,
	"takes": true, "back": true,
	"greater": true, "less": true, "equal": true, "not": true, "than": true, "to": true,
	"result": true, "of": true, "calling": true, "repeat": true, "while": true, "if": true,
	"give": true, "define": true, "call": true, "ask": true, "say": true,
	"display": true, "let": true,
	"be": true, "function": true, "called": true, "user": true, "for": true,
	"add": true, "remove": true, "each": true, "in": true, "from": true,
	"item": true, "stop": true, "skip": true,
	"containing": true, "length": true, "uppercase": true, "lowercase": true,
	"a": true, "an": true,
	"error": true, "sort": true, "split": true, "join": true, "replace": true,
	"trim": true, "round": true,
	"absolute": true, "value": true, "square": true, "root": true,
	"floor": true, "ceiling": true,
	"random": true, "number": true, "between": true, "minimum": true,
	"maximum": true, "power": true,
	"index": true, "by": true, "places": true, "place": true, "contains": true, "as": true,
	"dictionary": true, "keys": true, "set": true, "has": true, "exists": true,
	"json": true, "parsed": true,
	"fetching": true, "posting": true, "payload": true, "url": true,
	"class": true, "method": true,
	"properties": true, "new": true, "on": true, "parameters": true,
	"over": true, "where": true, "extends": true, "enum": true, "check": true, "when": true,
	"test": true, "assert": true, "run": true, "tests": true,
	"command": true, "arguments": true,
	"environment": true, "variable": true, "mapping": true, "filtering": true,
	"matching": true, "pattern": true, "gives": true, "values": true,
}

//-----------------------------------------------------------------------------
// Conditions
//-----------------------------------------------------------------------------

// parseCondition reads a condition with optional "and" / "or" chaining.
// Connectives associate left and share one precedence level.
func (p *parser) parseCondition() ast.Expression {
	line := p.cur().Line
	left := p.parseSingleCondition()
	for p.wordIs("and", "or") {
		connective := strings.ToLower(p.advance().Text)
		right := p.parseSingleCondition()
		left = &ast.Logical{Left: left, Connective: connective, Right: right, Line: line}
	}
	return left
}

func (p *parser) parseSingleCondition() ast.Expression {
	line := p.cur().Line

	// "file F exists"
	if p.matchWord("file") {
		file := p.parseExpr()
		p.expectWord("exists")
		return &ast.FileExists{File: file, Line: line}
	}

	left := p.parseExpr()

	// Expressions that are already boolean stand alone as conditions.
	switch left.(type) {
	case *ast.Contains, *ast.BoolLiteral:
		return left
	}

	tok := p.cur()
	var op string
	switch tok.Kind {
	case token.Greater:
		p.advance()
		op = ast.CmpGreater
	case token.GreaterEqual:
		p.advance()
		op = ast.CmpGreaterEqual
	case token.Less:
		p.advance()
		op = ast.CmpLess
	case token.LessEqual:
		p.advance()
		op = ast.CmpLessEqual
	case token.Equal:
		p.advance()
		op = ast.CmpEquals
	case token.NotEqual:
		p.advance()
		op = ast.CmpNotEquals
	default:
		switch {
		case p.matchWord("equals"):
			op = ast.CmpEquals
		case p.matchWord("is"):
			switch {
			case p.matchWord("greater"):
				p.expectWord("than")
				op = ast.CmpGreater
				if p.matchWord("or") {
					p.expectWord("equal")
					p.expectWord("to")
					op = ast.CmpGreaterEqual
				}
			case p.matchWord("less"):
				p.expectWord("than")
				op = ast.CmpLess
				if p.matchWord("or") {
					p.expectWord("equal")
					p.expectWord("to")
					op = ast.CmpLessEqual
				}
			case p.matchWord("equal"):
				p.expectWord("to")
				op = ast.CmpEquals
			case p.matchWord("not"):
				op = ast.CmpNotEquals
				if p.matchWord("equal") {
					p.expectWord("to")
				}
			case p.matchWord("a"):
				typeTok := p.advance()
				typeWord := strings.ToLower(typeTok.Text)
				switch typeWord {
				case "number", "text", "list", "boolean":
					return &ast.TypeCheck{Expr: left, Expected: typeWord, Line: line}
				}
				p.failf(line, "After 'is a' I expected 'number', 'text', 'list', or 'boolean' but found '%s'.", typeTok.Text)
			case p.wordIs("number", "text", "list", "boolean"):
				typeWord := strings.ToLower(p.advance().Text)
				return &ast.TypeCheck{Expr: left, Expected: typeWord, Line: line}
			default:
				// bare "is X"
				op = ast.CmpEquals
			}
		case p.matchWord("has"):
			p.expectWord("the")
			p.expectWord("key")
			key := p.parseExpr()
			return &ast.DictHasKey{Dict: left, Key: key, Line: line}
		default:
			p.failf(line, "I expected a comparison operator (like 'is greater than', '>', '=', etc.) but found '%s'.", tok.Text)
		}
	}

	right := p.parseExpr()
	return &ast.Compare{Left: left, Op: op, Right: right, Line: line}
}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

// parseExpr handles the additive level plus the loosely-binding postfix
// forms "contains" and "as a number / as text".
func (p *parser) parseExpr() ast.Expression {
	line := p.cur().Line
	left := p.parseTerm()

	for {
		switch {
		case p.wordIs("plus", "minus") || p.cur().Kind == token.Plus || p.cur().Kind == token.Minus:
			tok := p.advance()
			op := ast.OpMinus
			if tok.Kind == token.Plus || strings.EqualFold(tok.Text, "plus") {
				op = ast.OpPlus
			}
			right := p.parseTerm()
			left = &ast.Binary{Left: left, Op: op, Right: right, Line: line}

		case p.matchWord("contains"):
			right := p.parseExpr()
			left = &ast.Contains{Haystack: left, Needle: right, Line: line}

		case p.wordIs("as"):
			saved := p.pos
			p.advance()
			p.matchWord("a")
			if p.matchWord("number", "numbers") {
				left = &ast.AsNumber{Expr: left, Line: line}
			} else if p.matchWord("text") {
				left = &ast.AsText{Expr: left, Line: line}
			} else {
				p.pos = saved
				return left
			}

		default:
			return left
		}
	}
}

func (p *parser) parseTerm() ast.Expression {
	line := p.cur().Line
	left := p.parseFactor()
	for p.wordIs("times", "divided", "modulo") ||
		p.cur().Kind == token.Star || p.cur().Kind == token.Slash || p.cur().Kind == token.Percent {
		tok := p.advance()
		var op string
		switch {
		case tok.Kind == token.Slash:
			op = ast.OpDividedBy
		case tok.Kind == token.Percent:
			op = ast.OpModulo
		case strings.EqualFold(tok.Text, "divided"):
			p.expectWord("by")
			op = ast.OpDividedBy
		case strings.EqualFold(tok.Text, "modulo"):
			op = ast.OpModulo
		default:
			op = ast.OpTimes
		}
		right := p.parseFactor()
		left = &ast.Binary{Left: left, Op: op, Right: right, Line: line}
	}
	return left
}

func (p *parser) parseFactor() ast.Expression {
	tok := p.cur()
	line := tok.Line

	switch tok.Kind {
	case token.Minus:
		p.advance()
		return &ast.UnaryMinus{Operand: p.parseFactor(), Line: line}
	case token.Number:
		p.advance()
		return &ast.NumberLiteral{Value: numberValue(tok.Text), Line: line}
	case token.QuotedText:
		p.advance()
		return &ast.TextLiteral{Value: tok.Text, Line: line}
	case token.InterpText:
		p.advance()
		return p.parseInterpolated(tok.Text, line)
	}

	if tok.Kind != token.Word {
		p.failf(line, "I expected a value (number, word, true, false, a list, etc.) but found '%s'.", tok.Text)
	}

	switch val := strings.ToLower(tok.Text); val {
	case "true":
		p.advance()
		return &ast.BoolLiteral{Value: true, Line: line}
	case "false":
		p.advance()
		return &ast.BoolLiteral{Value: false, Line: line}
	case "nothing", "empty":
		p.advance()
		return &ast.NothingLiteral{Line: line}

	case "a", "an":
		if p.peek(1).Kind == token.Word {
			switch strings.ToLower(p.peek(1).Text) {
			case "list", "empty", "dictionary", "new", "function":
				return p.parseIndefiniteForm(line)
			}
		}

	case "waiting":
		p.advance()
		p.expectWord("for")
		return &ast.Wait{Expr: p.parseExpr(), Line: line}

	case "all":
		// "all X in LIST where CONDITION"
		p.advance()
		varTok := p.advance()
		p.expectWord("in")
		source := p.parseFactor()
		p.expectWord("where")
		cond := p.parseCondition()
		return &ast.AllWhere{VarName: varTok.Text, Source: source, Condition: cond, Line: line}

	case "the":
		if p.peek(1).Kind == token.Word {
			if expr, ok := p.parseTheForm(line); ok {
				return expr
			}
		}

	case "keys":
		p.advance()
		p.expectWord("of")
		return &ast.DictKeys{Dict: p.parseFactor(), Line: line}

	case "substring":
		saved := p.pos
		p.advance()
		if p.matchWord("of") {
			str := p.parseFactor()
			p.expectWord("from")
			start := p.parseFactor()
			p.expectWord("to")
			end := p.parseFactor()
			return &ast.StringSlice{Str: str, Start: start, End: end, Line: line}
		}
		p.pos = saved
		p.advance()
		return &ast.Identifier{Name: "substring", Line: line}

	case "character":
		saved := p.pos
		p.advance()
		if p.canStartIndex() {
			index := p.parseFactor()
			if p.matchWord("of") {
				str := p.parseFactor()
				return &ast.StringIndex{Str: str, Index: index, Line: line}
			}
		}
		p.pos = saved
		p.advance()
		return &ast.Identifier{Name: "character", Line: line}

	case "item":
		saved := p.pos
		p.advance()
		if p.canStartIndex() {
			index := p.parseFactor()
			if p.matchWord("of") {
				listTok := p.advance()
				if listTok.Kind != token.Word {
					p.failf(line, "Expected list name after 'of'.")
				}
				list := &ast.Identifier{Name: listTok.Text, Line: line}
				return &ast.ListAccess{List: list, Index: index, Line: line}
			}
		}
		p.pos = saved
		p.advance()
		return &ast.Identifier{Name: "item", Line: line}

	case "uppercase":
		p.advance()
		p.expectWord("of")
		return &ast.UppercaseOf{Expr: p.parseFactor(), Line: line}

	case "lowercase":
		p.advance()
		p.expectWord("of")
		return &ast.LowercaseOf{Expr: p.parseFactor(), Line: line}

	case "trim":
		p.advance()
		return &ast.TrimOf{Expr: p.parseFactor(), Line: line}

	case "split":
		p.advance()
		source := p.parseFactor()
		p.expectWord("by")
		delim := p.parseFactor()
		return &ast.SplitBy{Source: source, Delimiter: delim, Line: line}

	case "join":
		p.advance()
		list := p.parseFactor()
		p.expectWord("with")
		sep := p.parseFactor()
		return &ast.JoinWith{List: list, Separator: sep, Line: line}

	case "replace":
		p.advance()
		find := p.parseFactor()
		p.expectWord("in")
		source := p.parseFactor()
		p.expectWord("with")
		repl := p.parseFactor()
		return &ast.ReplaceIn{Source: source, Find: find, Replacement: repl, Line: line}

	case "round":
		p.advance()
		expr := p.parseFactor()
		if p.matchWord("to") {
			places := p.parseFactor()
			p.matchWord("places", "place")
			return &ast.RoundOf{Expr: expr, Places: places, Line: line}
		}
		return &ast.RoundOf{Expr: expr, Line: line}

	case "absolute":
		p.advance()
		p.expectWord("value")
		p.expectWord("of")
		return &ast.AbsOf{Expr: p.parseFactor(), Line: line}

	case "square":
		p.advance()
		p.expectWord("root")
		p.expectWord("of")
		return &ast.SqrtOf{Expr: p.parseFactor(), Line: line}

	case "floor":
		p.advance()
		p.expectWord("of")
		return &ast.FloorOf{Expr: p.parseFactor(), Line: line}

	case "ceiling":
		p.advance()
		p.expectWord("of")
		return &ast.CeilingOf{Expr: p.parseFactor(), Line: line}

	case "random":
		p.advance()
		p.expectWord("number")
		p.expectWord("between")
		low := p.parseFactor()
		p.expectWord("and")
		high := p.parseFactor()
		return &ast.RandomBetween{Low: low, High: high, Line: line}

	case "minimum":
		p.advance()
		p.expectWord("of")
		a := p.parseFactor()
		p.expectWord("and")
		b := p.parseFactor()
		return &ast.MinOf{Left: a, Right: b, Line: line}

	case "maximum":
		p.advance()
		p.expectWord("of")
		a := p.parseFactor()
		p.expectWord("and")
		b := p.parseFactor()
		return &ast.MaxOf{Left: a, Right: b, Line: line}

	case "power":
		p.advance()
		p.expectWord("of")
		base := p.parseFactor()
		p.expectWord("to")
		exp := p.parseFactor()
		return &ast.PowerOf{Base: base, Exp: exp, Line: line}

	case "index":
		p.advance()
		p.expectWord("of")
		item := p.parseFactor()
		p.expectWord("in")
		list := p.parseFactor()
		return &ast.IndexOf{Item: item, List: list, Line: line}

	case "repeat":
		p.advance()
		expr := p.parseFactor()
		count := p.parseFactor()
		p.matchWord("times")
		return &ast.RepeatText{Expr: expr, Count: count, Line: line}

	case "as":
		// prefix form: "as a number X" / "as text X"
		p.advance()
		p.matchWord("a")
		typeWord := strings.ToLower(p.advance().Text)
		expr := p.parseFactor()
		switch typeWord {
		case "number", "numbers":
			return &ast.AsNumber{Expr: expr, Line: line}
		case "text":
			return &ast.AsText{Expr: expr, Line: line}
		}
		p.failf(line, "After 'as' expected 'a number' or 'text'.")
	}

	// Bareword collection: consecutive non-keyword words fold into one
	// text literal, a lone word into an identifier.
	words := []string{tok.Text}
	p.advance()
	for p.cur().Kind == token.Word && !stopWords[strings.ToLower(p.cur().Text)] {
		words = append(words, p.cur().Text)
		p.advance()
	}
	if len(words) == 1 {
		return &ast.Identifier{Name: words[0], Line: line}
	}
	return &ast.TextLiteral{Value: strings.Join(words, " "), Line: line}
}

// canStartIndex reports whether the current token can begin an index
// expression in "item N of" / "character N of" without swallowing a
// following operator keyword.
func (p *parser) canStartIndex() bool {
	if p.cur().Kind != token.Number && p.cur().Kind != token.Word {
		return false
	}
	return !p.wordIs("is", "equals", "has", "and", "or", "plus", "minus", "times", "divided", "modulo")
}

// parseIndefiniteForm reads the constructor phrases introduced by "a" or
// "an": list and dictionary literals, new instances, and inline functions.
func (p *parser) parseIndefiniteForm(line int) ast.Expression {
	p.advance() // "a" / "an"
	switch strings.ToLower(p.cur().Text) {
	case "list":
		p.advance()
		if p.matchWord("containing") {
			return &ast.ListLiteral{Elements: p.parseArgList(), Line: line}
		}
		return &ast.ListLiteral{Line: line}

	case "dictionary":
		p.advance()
		if p.matchWord("containing") {
			return &ast.DictLiteral{Pairs: p.parseDictArgList(), Line: line}
		}
		return &ast.DictLiteral{Line: line}

	case "new":
		p.advance()
		classTok := p.advance()
		if classTok.Kind != token.Word {
			p.failf(line, "Expected a class name after 'new'.")
		}
		var args []ast.DictPair
		if p.matchWord("with") {
			args = p.parseDictArgList()
		}
		return &ast.NewInstance{ClassName: classTok.Text, Args: args, Line: line}

	case "function":
		p.advance()
		p.expectWord("that")
		var params []ast.Param
		if p.matchWord("takes") {
			if p.matchWord("no") {
				p.expectWord("parameters")
			} else {
				params = p.parseParamList()
			}
		}
		p.expectWord("and")
		if p.wordIs("gives") {
			p.expectWord("gives")
			p.expectWord("back")
			return &ast.Lambda{Params: params, Body: p.parseExpr(), Line: line}
		}
		if p.wordIs("does") {
			p.expectWord("does")
			p.expectWord("the")
			p.expectWord("following")
			p.expectPeriod()
			body := p.parseBlock("End")
			p.advance() // "End"
			p.expectWord("function")
			p.expectPeriod()
			return &ast.BlockLambda{Params: params, Body: body, Line: line}
		}
		p.failf(line, "Expected 'gives back' or 'does the following' after function parameters.")

	default: // "empty"
		p.advance()
		if p.matchWord("list") {
			return &ast.ListLiteral{Line: line}
		}
		if p.matchWord("dictionary") {
			return &ast.DictLiteral{Line: line}
		}
		p.failf(line, "Expected 'list' or 'dictionary' after 'an empty'.")
	}
	return nil
}

// parseTheForm reads the built-in phrases introduced by "the". It returns
// ok=false after rewinding when the words turn out to be plain prose.
func (p *parser) parseTheForm(line int) (ast.Expression, bool) {
	switch strings.ToLower(p.peek(1).Text) {
	case "length":
		p.advance()
		p.advance()
		p.expectWord("of")
		return &ast.LengthOf{Expr: p.parseFactor(), Line: line}, true

	case "value":
		p.advance()
		p.advance()
		p.expectWord("for")
		key := p.parseFactor()
		p.expectWord("in")
		dict := p.parseFactor()
		return &ast.DictAccess{Dict: dict, Key: key, Line: line}, true

	case "keys":
		p.advance()
		p.advance()
		p.expectWord("of")
		return &ast.DictKeys{Dict: p.parseFactor(), Line: line}, true

	case "contents":
		p.advance()
		p.advance()
		p.expectWord("of")
		p.expectWord("file")
		return &ast.FileContents{File: p.parseFactor(), Line: line}, true

	case "current":
		p.advance()
		p.advance()
		if p.matchWord("date") {
			p.expectWord("and")
			p.expectWord("time")
			return &ast.TimeOp{Op: "datetime", Line: line}, true
		}
		if p.matchWord("year") {
			return &ast.TimeOp{Op: "year", Line: line}, true
		}
		if p.matchWord("timestamp") {
			return &ast.TimeOp{Op: "timestamp", Line: line}, true
		}
		p.failf(line, "Expected 'date and time', 'year', or 'timestamp' after 'the current'.")

	case "command":
		p.advance()
		p.advance()
		p.expectWord("line")
		p.expectWord("arguments")
		return &ast.CommandLineArgs{Line: line}, true

	case "environment":
		p.advance()
		p.advance()
		p.expectWord("variable")
		return &ast.EnvironmentVariable{Name: p.parseFactor(), Line: line}, true

	case "json":
		saved := p.pos
		p.advance()
		p.advance()
		if p.matchWord("parsed") {
			p.expectWord("from")
			p.expectWord("text")
			return &ast.JSONParse{Text: p.parseFactor(), Line: line}, true
		}
		if p.matchWord("for") {
			return &ast.JSONString{Value: p.parseFactor(), Line: line}, true
		}
		p.pos = saved
		return nil, false

	case "result":
		saved := p.pos
		p.advance()
		p.advance()
		if p.matchWord("of") {
			if p.matchWord("fetching") {
				p.expectWord("url")
				return &ast.HTTPGet{URL: p.parseFactor(), Line: line}, true
			}
			if p.matchWord("posting") {
				p.expectWord("payload")
				payload := p.parseFactor()
				p.expectWord("to")
				p.expectWord("url")
				url := p.parseFactor()
				return &ast.HTTPPost{URL: url, Payload: payload, Line: line}, true
			}
			if p.matchWord("mapping") {
				fn := p.parseFactor()
				p.expectWord("over")
				list := p.parseFactor()
				return &ast.MapOver{Func: fn, List: list, Line: line}, true
			}
			if p.matchWord("filtering") {
				list := p.parseFactor()
				p.expectWord("where")
				cond := p.parseCondition()
				return &ast.FilterWhere{List: list, Condition: cond, Line: line}, true
			}
			if p.matchWord("matching") {
				p.expectWord("pattern")
				pattern := p.parseFactor()
				p.expectWord("in")
				text := p.parseFactor()
				return &ast.RegexMatch{Pattern: pattern, Text: text, Line: line}, true
			}
		}
		p.pos = saved
		return nil, false

	default:
		// general property access: "the P of O"
		saved := p.pos
		p.advance() // "the"
		propTok := p.advance()
		if propTok.Kind == token.Word && p.matchWord("of") {
			obj := p.parseFactor()
			return &ast.PropertyAccess{Object: obj, Property: propTok.Text, Line: line}, true
		}
		p.pos = saved
		return nil, false
	}
	return nil, false
}

// parseInterpolated splits raw interpolated text into literal segments and
// embedded expressions. Each {hole} is lexed and parsed on its own with a
// synthetic trailing period.
func (p *parser) parseInterpolated(raw string, line int) ast.Expression {
	var parts []ast.Expression
	var buf strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] != '{' {
			buf.WriteByte(raw[i])
			i++
			continue
		}
		if buf.Len() > 0 {
			parts = append(parts, &ast.TextLiteral{Value: buf.String(), Line: line})
			buf.Reset()
		}
		depth := 1
		i++
		start := i
		for i < len(raw) {
			if raw[i] == '{' {
				depth++
			} else if raw[i] == '}' {
				depth--
				if depth == 0 {
					break
				}
			}
			i++
		}
		if depth != 0 {
			p.failf(line, "Unclosed '{' in interpolated string.")
		}
		exprStr := strings.TrimSpace(raw[start:i])
		i++ // closing '}'
		if exprStr == "" {
			p.failf(line, "Empty interpolation {} in string.")
		}
		toks, err := lexer.Tokenize(exprStr + ".")
		if err != nil {
			panic(&Error{Line: line, Message: err.Error()})
		}
		inner := &parser{tokens: toks}
		parts = append(parts, inner.parseExpr())
	}
	if buf.Len() > 0 {
		parts = append(parts, &ast.TextLiteral{Value: buf.String(), Line: line})
	}
	return &ast.InterpolatedText{Parts: parts, Line: line}
}
