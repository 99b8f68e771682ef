// Package parser turns a token stream into a syntax tree. The grammar is
// recursive descent with single-token lookahead plus positional rollback:
// several phrases ("the result of calling", "item N of", "as a number")
// share a prefix with plain prose, so the parser saves its position, tries
// the structured reading, and rewinds when the phrase does not complete.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prose-lang/prose/pkg/ast"
	"github.com/prose-lang/prose/pkg/lexer"
	"github.com/prose-lang/prose/pkg/token"
)

// Error is a syntax diagnostic. Message carries the full friendly text
// including the line prefix.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Parse tokenizes and parses a whole source file.
func Parse(source string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-lexed token stream. The stream must end
// with an EndOfInput token, which lexer.Tokenize guarantees.
func ParseTokens(toks []token.Token) (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			prog, err = nil, perr
		}
	}()
	p := &parser{tokens: toks}
	prog = &ast.Program{}
	for p.cur().Kind != token.EndOfInput {
		prog.Statements = append(prog.Statements, p.parseStatement())
	}
	return prog, nil
}

type parser struct {
	tokens []token.Token
	pos    int
}

//-----------------------------------------------------------------------------
// Token utilities
//-----------------------------------------------------------------------------

func (p *parser) cur() token.Token {
	return p.tokens[p.pos]
}

func (p *parser) peek(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

// advance returns the current token and moves past it, sticking at the
// trailing EndOfInput token.
func (p *parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) wordIs(words ...string) bool {
	tok := p.cur()
	if tok.Kind != token.Word {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(tok.Text, w) {
			return true
		}
	}
	return false
}

func (p *parser) matchWord(words ...string) bool {
	if p.wordIs(words...) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectWord(words ...string) token.Token {
	tok := p.advance()
	if tok.Kind == token.Word {
		for _, w := range words {
			if strings.EqualFold(tok.Text, w) {
				return tok
			}
		}
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = "'" + w + "'"
	}
	p.failf(tok.Line, "I expected %s but found '%s'.", strings.Join(quoted, " or "), tok.Text)
	return tok
}

func (p *parser) expectPeriod() {
	tok := p.advance()
	if tok.Kind != token.Period {
		p.failf(tok.Line, "I expected a period to end the statement but found '%s'.", tok.Text)
	}
}

func (p *parser) expectComma() {
	tok := p.advance()
	if tok.Kind != token.Comma {
		p.failf(tok.Line, "I expected a comma but found '%s'.", tok.Text)
	}
}

func (p *parser) expectRBrace() {
	tok := p.advance()
	if tok.Kind != token.RBrace {
		p.failf(tok.Line, "I expected a closing '}' but found '%s'.", tok.Text)
	}
}

func (p *parser) failf(line int, format string, args ...any) {
	panic(&Error{Line: line, Message: fmt.Sprintf("Line %d: ", line) + fmt.Sprintf(format, args...)})
}

func numberValue(text string) float64 {
	v, _ := strconv.ParseFloat(text, 64)
	return v
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

func (p *parser) parseBlock(endKeywords ...string) []ast.Statement {
	var stmts []ast.Statement
	for p.cur().Kind != token.EndOfInput {
		if p.wordIs(endKeywords...) {
			break
		}
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *parser) parseStatement() ast.Statement {
	tok := p.cur()
	line := tok.Line

	if tok.Kind != token.Word {
		p.failf(line, "I expected a keyword to start a statement but found '%s'.", tok.Text)
	}

	switch strings.ToLower(tok.Text) {
	case "let":
		return p.parseLet()
	case "display":
		return p.parseDisplay()
	case "say":
		return p.parseSay()
	case "ask":
		return p.parseAsk()
	case "if":
		return p.parseIf()
	case "repeat":
		return p.parseRepeat()
	case "while":
		return p.parseWhile()
	case "for":
		return p.parseFor()
	case "define":
		return p.parseDefine()
	case "call":
		return p.parseCall()
	case "give":
		return p.parseGiveBack()
	case "add":
		return p.parseAddDispatch()
	case "set":
		return p.parseSetDispatch()
	case "write":
		return p.parseWriteFile()
	case "append":
		return p.parseAppendFile()
	case "import":
		return p.parseImport()
	case "throw":
		return p.parseThrow()
	case "attempt":
		return p.parseAttempt()
	case "remove":
		if p.peek(1).Kind == token.Word && strings.EqualFold(p.peek(1).Text, "the") {
			return p.parseRemoveDictValue()
		}
		return p.parseRemoveFromList()
	case "stop":
		p.advance()
		p.expectWord("loop")
		p.expectPeriod()
		return &ast.StopStmt{Line: line}
	case "skip":
		p.advance()
		p.expectWord("to")
		p.expectWord("next")
		p.expectPeriod()
		return &ast.SkipStmt{Line: line}
	case "try":
		return p.parseTry()
	case "sort":
		return p.parseSortList()
	case "check":
		return p.parseCheck()
	case "test":
		return p.parseTestBlock()
	case "assert":
		return p.parseAssert()
	case "run":
		return p.parseRunDispatch()
	case "create":
		return p.parseCreateWindow()
	case "when":
		return p.parseWhen()
	}
	p.failf(line, "I do not understand the keyword '%s'. "+
		"💡 Common keywords: Let, Say, If, While, Repeat, For, Define, Call, "+
		"Add, Set, Remove, Write, Append, Import, Create, Run, When, Stop, Skip.", tok.Text)
	return nil
}

func (p *parser) parseLet() ast.Statement {
	line := p.cur().Line
	p.advance() // "Let"

	nameTok := p.advance()
	if nameTok.Kind != token.Word {
		p.failf(line, "After 'Let' I expected a variable name.")
	}
	varName := nameTok.Text
	p.expectWord("be")

	// "Let X be the result of calling F [on obj] [with args] [then call G ...]."
	if p.wordIs("the") {
		saved := p.pos
		p.advance()
		if p.matchWord("result") && p.matchWord("of") && p.matchWord("calling") {
			funcTok := p.advance()
			if funcTok.Kind != token.Word {
				p.failf(line, "Expected function name after 'calling'.")
			}
			var obj ast.Expression
			if p.matchWord("on") {
				obj = p.parseExpr()
			}
			var args []ast.Expression
			if p.matchWord("with") {
				if p.wordIs("no") && strings.EqualFold(p.peek(1).Text, "parameters") {
					p.advance()
					p.advance()
				} else {
					args = p.parseArgList()
				}
			}
			chained := p.parseChainedCalls()
			p.expectPeriod()
			return &ast.LetResultStmt{
				Variable: varName,
				FuncName: funcTok.Text,
				Args:     args,
				Object:   obj,
				Chained:  chained,
				Line:     line,
			}
		}
		p.pos = saved
	}

	expr := p.parseExpr()
	p.expectPeriod()
	return &ast.LetStmt{Name: varName, Expr: expr, Line: line}
}

func (p *parser) parseDisplay() ast.Statement {
	line := p.cur().Line
	p.advance()
	expr := p.parseExpr()
	p.expectPeriod()
	return &ast.DisplayStmt{Expr: expr, Line: line}
}

func (p *parser) parseSay() ast.Statement {
	line := p.cur().Line
	p.advance()
	parts := []ast.Expression{p.parseSayPart()}
	for p.cur().Kind == token.Comma {
		p.advance()
		parts = append(parts, p.parseSayPart())
	}
	p.expectPeriod()
	return &ast.SayStmt{Parts: parts, Line: line}
}

// parseSayPart reads one comma-delimited chunk of a Say statement. Chunks
// route to the expression grammar only when they unambiguously start one;
// everything else is folded into a bareword text literal or identifier.
func (p *parser) parseSayPart() ast.Expression {
	tok := p.cur()

	isNum := tok.Kind == token.Number
	isNegNum := tok.Kind == token.Minus && p.peek(1).Kind == token.Number
	if isNum || isNegNum {
		// A standalone number is evaluated; a number followed by more
		// words ("3 plus 5 equals") stays a text label.
		after := p.peek(1)
		if isNegNum {
			after = p.peek(2)
		}
		if after.Kind == token.Comma || after.Kind == token.Period || after.Kind == token.EndOfInput {
			return p.parseExpr()
		}
	}
	if tok.Kind == token.Word {
		switch strings.ToLower(tok.Text) {
		case "uppercase", "lowercase", "item", "an", "length":
			return p.parseExpr()
		case "a":
			if p.peek(1).Kind == token.Word {
				switch strings.ToLower(p.peek(1).Text) {
				case "list", "empty":
					return p.parseExpr()
				}
			}
		case "the":
			if nxt := p.peek(1); nxt.Kind == token.Word {
				switch strings.ToLower(nxt.Text) {
				case "length", "json", "result", "keys", "value", "contents", "current":
					return p.parseExpr()
				}
				// "the P of O" property access
				if p.peek(2).Kind == token.Word && strings.EqualFold(p.peek(2).Text, "of") {
					return p.parseExpr()
				}
			}
		}
	}
	if tok.Kind == token.QuotedText || tok.Kind == token.InterpText {
		return p.parseExpr()
	}

	var words []string
	for p.cur().Kind == token.Number || p.cur().Kind == token.Word {
		words = append(words, p.cur().Text)
		p.advance()
	}
	if len(words) == 0 {
		p.failf(p.cur().Line, "Nothing to say here.")
	}
	if len(words) == 1 {
		w := words[0]
		switch strings.ToLower(w) {
		case "true":
			return &ast.BoolLiteral{Value: true, Line: tok.Line}
		case "false":
			return &ast.BoolLiteral{Value: false, Line: tok.Line}
		}
		if v, err := strconv.ParseFloat(w, 64); err == nil {
			return &ast.NumberLiteral{Value: v, Line: tok.Line}
		}
		return &ast.Identifier{Name: w, Line: tok.Line}
	}
	return &ast.TextLiteral{Value: strings.Join(words, " "), Line: tok.Line}
}

func (p *parser) parseAsk() ast.Statement {
	line := p.cur().Line
	p.advance()
	p.expectWord("the")
	p.expectWord("user")
	p.expectWord("for")
	varTok := p.advance()
	if varTok.Kind != token.Word {
		p.failf(line, "Expected a variable name after 'Ask the user for'.")
	}
	p.expectPeriod()
	return &ast.AskStmt{Variable: varTok.Text, Line: line}
}

func (p *parser) parseIf() ast.Statement {
	line := p.cur().Line
	p.advance()
	condition := p.parseCondition()
	p.expectWord("then")
	p.expectWord("do")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()
	thenBody := p.parseBlock("Otherwise", "End")
	var elseBody []ast.Statement
	if p.matchWord("Otherwise") {
		p.expectWord("do")
		p.expectWord("the")
		p.expectWord("following")
		p.expectPeriod()
		elseBody = p.parseBlock("End")
	}
	p.expectWord("End")
	p.expectWord("if")
	p.expectPeriod()
	return &ast.IfStmt{Condition: condition, Then: thenBody, Else: elseBody, Line: line}
}

func (p *parser) parseRepeat() ast.Statement {
	line := p.cur().Line
	p.advance()
	count := p.parseFactor()
	p.expectWord("times")
	p.expectWord("do")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()
	body := p.parseBlock("End")
	p.expectWord("End")
	p.expectWord("repeat")
	p.expectPeriod()
	return &ast.RepeatStmt{Count: count, Body: body, Line: line}
}

func (p *parser) parseWhile() ast.Statement {
	line := p.cur().Line
	p.advance()
	condition := p.parseCondition()
	p.expectWord("do")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()
	body := p.parseBlock("End")
	p.expectWord("End")
	p.expectWord("while")
	p.expectPeriod()
	return &ast.WhileStmt{Condition: condition, Body: body, Line: line}
}

func (p *parser) parseFor() ast.Statement {
	line := p.cur().Line
	p.advance() // "For"
	p.expectWord("each")
	varTok := p.advance()
	if varTok.Kind != token.Word {
		p.failf(line, "Expected a variable name after 'For each'.")
	}

	if p.matchWord("from") {
		// "For each X from A to B [step S] do the following."
		from := p.parseExpr()
		p.expectWord("to")
		to := p.parseExpr()
		var step ast.Expression
		if p.matchWord("step") {
			step = p.parseExpr()
		}
		p.expectWord("do")
		p.expectWord("the")
		p.expectWord("following")
		p.expectPeriod()
		body := p.parseBlock("End")
		p.advance() // "End"
		p.expectWord("for")
		p.expectPeriod()
		return &ast.ForRangeStmt{Var: varTok.Text, From: from, To: to, Step: step, Body: body, Line: line}
	}

	p.expectWord("in")
	iterable := p.parseExpr()
	p.expectWord("do")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()
	body := p.parseBlock("End")
	p.advance() // "End"
	p.expectWord("for")
	p.expectPeriod()
	return &ast.ForEachStmt{Var: varTok.Text, Iterable: iterable, Body: body, Line: line}
}

func (p *parser) parseDefine() ast.Statement {
	line := p.cur().Line
	p.advance() // "Define"
	if !p.matchWord("a", "an") {
		p.failf(line, "Expected 'a' or 'an' after 'Define'.")
	}
	isAsync := p.matchWord("async")

	switch strings.ToLower(p.cur().Text) {
	case "function":
		return p.parseFunctionDef(line, isAsync)
	case "class":
		return p.parseClassDef(line)
	case "method":
		return p.parseMethodDef(line, isAsync)
	case "enum":
		return p.parseEnumDef(line)
	}
	p.failf(line, "Expected 'function', 'class', 'method', or 'enum' after 'Define a/an'.")
	return nil
}

func (p *parser) parseFunctionDef(line int, isAsync bool) ast.Statement {
	p.advance() // "function"
	p.expectWord("called")
	nameTok := p.advance()
	if nameTok.Kind != token.Word {
		p.failf(line, "Expected a function name after 'called'.")
	}

	p.expectWord("that")
	params := p.parseSignatureParams()
	p.expectWord("and")
	p.expectWord("does")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()
	body := p.parseBlock("End")
	p.advance() // "End"
	p.expectWord("function")
	p.expectPeriod()
	return &ast.FunctionDef{Name: nameTok.Text, Params: params, Body: body, Async: isAsync, Line: line}
}

// parseSignatureParams reads "takes X, Y and Z" or "with no parameters"
// after the "that" of a function or method header.
func (p *parser) parseSignatureParams() []ast.Param {
	if p.matchWord("takes") {
		if p.matchWord("no") {
			p.expectWord("parameters")
			return nil
		}
		return p.parseParamList()
	}
	if p.matchWord("with") {
		p.expectWord("no")
		p.expectWord("parameters")
	}
	return nil
}

func (p *parser) parseClassDef(line int) ast.Statement {
	p.advance() // "class"
	p.expectWord("called")
	nameTok := p.advance()
	if nameTok.Kind != token.Word {
		p.failf(line, "Expected a class name.")
	}

	parent := ""
	if p.matchWord("that") {
		p.expectWord("extends")
		parentTok := p.advance()
		if parentTok.Kind != token.Word {
			p.failf(line, "Expected a parent class name after 'extends'.")
		}
		parent = parentTok.Text
	}

	var props []string
	if p.matchWord("with") {
		p.expectWord("properties")
		for _, pd := range p.parseParamList() {
			props = append(props, pd.Name)
		}
	}
	p.expectPeriod()
	return &ast.ClassDef{Name: nameTok.Text, Properties: props, Parent: parent, Line: line}
}

func (p *parser) parseEnumDef(line int) ast.Statement {
	p.advance() // "enum"
	p.expectWord("called")
	nameTok := p.advance()
	if nameTok.Kind != token.Word {
		p.failf(line, "Expected an enum name.")
	}
	p.expectWord("with")
	p.expectWord("values")
	var values []string
	for _, pd := range p.parseParamList() {
		values = append(values, pd.Name)
	}
	p.expectPeriod()
	return &ast.EnumDef{Name: nameTok.Text, Values: values, Line: line}
}

func (p *parser) parseMethodDef(line int, isAsync bool) ast.Statement {
	p.advance() // "method"
	p.expectWord("called")
	nameTok := p.advance()
	if nameTok.Kind != token.Word {
		p.failf(line, "Expected a method name.")
	}

	p.expectWord("for")
	classTok := p.advance()
	if classTok.Kind != token.Word {
		p.failf(line, "Expected a class name for the method.")
	}

	p.expectWord("that")
	params := p.parseSignatureParams()
	p.expectWord("and")
	p.expectWord("does")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()

	body := p.parseBlock("End")
	p.advance() // "End"
	p.expectWord("method")
	p.expectPeriod()
	return &ast.MethodDef{
		ClassName: classTok.Text,
		Name:      nameTok.Text,
		Params:    params,
		Body:      body,
		Async:     isAsync,
		Line:      line,
	}
}

func (p *parser) parseParamList() []ast.Param {
	var params []ast.Param
	for {
		if p.wordIs("and") {
			saved := p.pos
			p.advance()
			if p.wordIs("does", "following", "with", "gives") {
				p.pos = saved
				return params
			}
			paramTok := p.advance()
			if paramTok.Kind != token.Word {
				p.failf(p.cur().Line, "Expected a parameter name.")
			}
			params = append(params, ast.Param{Name: paramTok.Text, Default: p.parseParamDefault()})
			return params
		}
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}
		if p.cur().Kind == token.Word && !p.wordIs("and", "does", "following", "that", "with") {
			name := p.advance().Text
			params = append(params, ast.Param{Name: name, Default: p.parseParamDefault()})
			continue
		}
		return params
	}
}

func (p *parser) parseParamDefault() ast.Expression {
	if p.matchWord("defaulting") {
		p.expectWord("to")
		return p.parseExpr()
	}
	return nil
}

func (p *parser) parseCall() ast.Statement {
	line := p.cur().Line
	p.advance()
	nameTok := p.advance()
	if nameTok.Kind != token.Word {
		p.failf(line, "Expected a function name after 'Call'.")
	}

	var obj ast.Expression
	if p.matchWord("on") {
		obj = p.parseExpr()
	}

	var args []ast.Expression
	if p.matchWord("with") {
		if p.wordIs("no") && strings.EqualFold(p.peek(1).Text, "parameters") {
			p.advance()
			p.advance()
		} else {
			args = p.parseArgList()
		}
	}

	chained := p.parseChainedCalls()
	p.expectPeriod()
	return &ast.CallStmt{Name: nameTok.Text, Args: args, Object: obj, Chained: chained, Line: line}
}

// parseChainedCalls reads zero or more "then call M [with args]" links.
func (p *parser) parseChainedCalls() []ast.ChainedCall {
	var chained []ast.ChainedCall
	for p.matchWord("then") {
		p.expectWord("call")
		nameTok := p.advance()
		if nameTok.Kind != token.Word {
			p.failf(p.cur().Line, "Expected a method name after 'then call'.")
		}
		var args []ast.Expression
		if p.matchWord("with") {
			if p.wordIs("no") && strings.EqualFold(p.peek(1).Text, "parameters") {
				p.advance()
				p.advance()
			} else {
				args = p.parseArgList()
			}
		}
		chained = append(chained, ast.ChainedCall{Name: nameTok.Text, Args: args, Line: nameTok.Line})
	}
	return chained
}

func (p *parser) parseArgList() []ast.Expression {
	args := []ast.Expression{p.parseExpr()}
	for p.cur().Kind == token.Comma {
		p.advance()
		args = append(args, p.parseExpr())
	}
	return args
}

func (p *parser) parseDictArgList() []ast.DictPair {
	var pairs []ast.DictPair
	for {
		key := p.parseExpr()
		if p.cur().Kind != token.Colon {
			p.failf(p.cur().Line, "Expected a colon ':' after dictionary key.")
		}
		p.advance()
		value := p.parseExpr()
		pairs = append(pairs, ast.DictPair{Key: key, Value: value})
		if p.cur().Kind != token.Comma {
			return pairs
		}
		p.advance()
	}
}

func (p *parser) parseGiveBack() ast.Statement {
	line := p.cur().Line
	p.advance()
	p.expectWord("back")
	expr := p.parseExpr()
	p.expectPeriod()
	return &ast.GiveBackStmt{Expr: expr, Line: line}
}

// parseAddDispatch distinguishes list append from the widget forms
// "Add a button/label ..." and "Add an input ...".
func (p *parser) parseAddDispatch() ast.Statement {
	line := p.cur().Line
	if p.peek(1).Kind == token.Word && (strings.EqualFold(p.peek(1).Text, "a") || strings.EqualFold(p.peek(1).Text, "an")) {
		saved := p.pos
		p.advance() // "Add"
		p.advance() // "a" / "an"
		if p.wordIs("button", "label", "input") {
			return p.parseAddWidget(line, strings.ToLower(p.cur().Text))
		}
		p.pos = saved
	}
	return p.parseAddToList()
}

func (p *parser) parseAddToList() ast.Statement {
	line := p.cur().Line
	p.advance() // "Add"
	value := p.parseExpr()
	p.expectWord("to")
	listTok := p.advance()
	if listTok.Kind != token.Word {
		p.failf(line, "Expected a list variable name after 'to'.")
	}
	p.expectPeriod()
	return &ast.AddToListStmt{Value: value, ListName: listTok.Text, Line: line}
}

func (p *parser) parseRemoveFromList() ast.Statement {
	line := p.cur().Line
	p.advance() // "Remove"
	p.expectWord("item")
	index := p.parseExpr()
	p.expectWord("from")
	listTok := p.advance()
	if listTok.Kind != token.Word {
		p.failf(line, "Expected a list variable name after 'from'.")
	}
	p.expectPeriod()
	return &ast.RemoveFromListStmt{Index: index, ListName: listTok.Text, Line: line}
}

// parseSetDispatch distinguishes "Set the value for K in D to V." from
// "Set the P of O to V.".
func (p *parser) parseSetDispatch() ast.Statement {
	line := p.cur().Line
	p.advance() // "Set"
	p.expectWord("the")

	if p.wordIs("value") && strings.EqualFold(p.peek(1).Text, "for") {
		p.advance() // "value"
		p.expectWord("for")
		key := p.parseExpr()
		p.expectWord("in")
		dict := p.parseExpr()
		p.expectWord("to")
		value := p.parseExpr()
		p.expectPeriod()
		return &ast.SetDictValueStmt{Dict: dict, Key: key, Value: value, Line: line}
	}

	propTok := p.advance()
	if propTok.Kind != token.Word {
		p.failf(line, "Expected a property name after 'the'.")
	}
	p.expectWord("of")
	obj := p.parseExpr()
	p.expectWord("to")
	value := p.parseExpr()
	p.expectPeriod()
	return &ast.SetPropertyStmt{Object: obj, Property: propTok.Text, Value: value, Line: line}
}

func (p *parser) parseRemoveDictValue() ast.Statement {
	line := p.cur().Line
	p.advance() // "Remove"
	p.expectWord("the")
	p.expectWord("value")
	p.expectWord("for")
	key := p.parseExpr()
	p.expectWord("in")
	dict := p.parseExpr()
	p.expectPeriod()
	return &ast.RemoveDictValueStmt{Dict: dict, Key: key, Line: line}
}

func (p *parser) parseWriteFile() ast.Statement {
	line := p.cur().Line
	p.advance() // "Write"
	content := p.parseExpr()
	p.expectWord("to")
	p.expectWord("file")
	file := p.parseExpr()
	p.expectPeriod()
	return &ast.WriteFileStmt{Content: content, File: file, Line: line}
}

func (p *parser) parseAppendFile() ast.Statement {
	line := p.cur().Line
	p.advance() // "Append"
	content := p.parseExpr()
	p.expectWord("to")
	p.expectWord("file")
	file := p.parseExpr()
	p.expectPeriod()
	return &ast.AppendFileStmt{Content: content, File: file, Line: line}
}

func (p *parser) parseImport() ast.Statement {
	line := p.cur().Line
	p.advance() // "Import"

	var names []string
	if p.cur().Kind == token.LBrace {
		p.advance()
		for p.cur().Kind != token.RBrace {
			nameTok := p.advance()
			if nameTok.Kind != token.Word {
				p.failf(line, "Expected an identifier to import.")
			}
			names = append(names, nameTok.Text)
			if p.cur().Kind == token.Comma {
				p.advance()
			}
		}
		p.expectRBrace()
		p.expectWord("from")
	} else if p.matchWord("functions") {
		p.expectWord("from")
	}

	file := p.parseExpr()

	alias := ""
	if p.matchWord("as") {
		aliasTok := p.advance()
		if aliasTok.Kind != token.Word {
			p.failf(line, "Expected an alias name after 'as'.")
		}
		alias = aliasTok.Text
	}

	p.expectPeriod()
	return &ast.ImportStmt{File: file, Alias: alias, Names: names, Line: line}
}

func (p *parser) parseThrow() ast.Statement {
	line := p.cur().Line
	p.advance() // "Throw"
	p.expectWord("error")
	msg := p.parseExpr()
	p.expectPeriod()
	return &ast.ThrowStmt{Message: msg, Line: line}
}

func (p *parser) parseTry() ast.Statement {
	line := p.cur().Line
	p.advance() // "Try"
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()
	tryBody := p.parseBlock("Handle")
	p.expectWord("Handle")
	p.expectWord("error")
	errorVar := "error"
	if p.matchWord("and") {
		p.expectWord("save")
		p.expectWord("it")
		p.expectWord("as")
		errorVar = p.advance().Text
	}
	p.expectPeriod()
	catchBody := p.parseBlock("End")
	p.expectWord("End")
	p.expectWord("try")
	p.expectPeriod()
	return &ast.TryCatchStmt{TryBody: tryBody, ErrorVar: errorVar, CatchBody: catchBody, Line: line}
}

func (p *parser) parseAttempt() ast.Statement {
	line := p.cur().Line
	p.advance() // "Attempt"
	p.expectWord("to")
	p.expectWord("do")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()

	tryBody := p.parseBlock("Rescue")

	p.advance() // "Rescue"
	p.expectWord("error")
	p.expectWord("as")
	varTok := p.advance()
	if varTok.Kind != token.Word {
		p.failf(line, "Expected a variable name after 'as'.")
	}
	p.expectPeriod()

	catchBody := p.parseBlock("End")
	p.advance() // "End"
	p.expectWord("attempt")
	p.expectPeriod()
	return &ast.AttemptStmt{TryBody: tryBody, ErrorVar: varTok.Text, CatchBody: catchBody, Line: line}
}

func (p *parser) parseSortList() ast.Statement {
	line := p.cur().Line
	p.advance() // "Sort"
	listTok := p.advance()
	if listTok.Kind != token.Word {
		p.failf(line, "Expected a list variable name after 'Sort'.")
	}
	p.expectPeriod()
	return &ast.SortListStmt{ListName: listTok.Text, Line: line}
}

func (p *parser) parseCheck() ast.Statement {
	line := p.cur().Line
	p.advance() // "Check"
	expr := p.parseExpr()
	p.expectPeriod()

	var cases []ast.CheckCase
	var otherwise []ast.Statement
	for p.cur().Kind != token.EndOfInput {
		if p.wordIs("End") {
			break
		}
		if p.matchWord("When") {
			caseVal := p.parseFactor()
			p.expectComma()
			var body []ast.Statement
			for p.cur().Kind != token.EndOfInput && !p.wordIs("When", "Otherwise", "End") {
				body = append(body, p.parseStatement())
			}
			cases = append(cases, ast.CheckCase{Value: caseVal, Body: body})
			continue
		}
		if p.matchWord("Otherwise") {
			if p.cur().Kind == token.Comma {
				p.advance()
			}
			for p.cur().Kind != token.EndOfInput && !p.wordIs("End") {
				otherwise = append(otherwise, p.parseStatement())
			}
			continue
		}
		p.failf(p.cur().Line, "Expected 'When', 'Otherwise', or 'End' inside Check block.")
	}

	p.expectWord("End")
	p.expectWord("check")
	p.expectPeriod()
	return &ast.CheckStmt{Expr: expr, Cases: cases, Otherwise: otherwise, Line: line}
}

func (p *parser) parseTestBlock() ast.Statement {
	line := p.cur().Line
	p.advance() // "Test"
	nameTok := p.cur()
	if nameTok.Kind != token.QuotedText && nameTok.Kind != token.InterpText {
		p.failf(line, "Expected a quoted test name after 'Test'.")
	}
	p.advance()
	p.expectPeriod()
	body := p.parseBlock("End")
	p.expectWord("End")
	p.expectWord("test")
	p.expectPeriod()
	return &ast.TestBlock{Name: nameTok.Text, Body: body, Line: line}
}

func (p *parser) parseAssert() ast.Statement {
	line := p.cur().Line
	p.advance() // "Assert"
	cond := p.parseCondition()
	p.expectPeriod()
	return &ast.AssertStmt{Condition: cond, Line: line}
}

// parseRunDispatch distinguishes "Run all tests." from "Run <window>.".
func (p *parser) parseRunDispatch() ast.Statement {
	line := p.cur().Line
	p.advance() // "Run"
	if p.wordIs("all") {
		p.expectWord("all")
		p.expectWord("tests")
		p.expectPeriod()
		return &ast.RunTestsStmt{Line: line}
	}
	window := p.parseExpr()
	p.expectPeriod()
	return &ast.RunWindowStmt{Window: window, Line: line}
}

func (p *parser) parseCreateWindow() ast.Statement {
	line := p.cur().Line
	p.advance() // "Create"
	p.expectWord("a")
	p.expectWord("window")
	p.expectWord("called")
	nameTok := p.advance()
	p.expectWord("with")
	p.expectWord("title")
	title := p.parseFactor()
	p.expectWord("and")
	p.expectWord("size")
	width := p.parseFactor()
	p.expectWord("by")
	height := p.parseFactor()
	p.expectPeriod()
	return &ast.CreateWindowStmt{VarName: nameTok.Text, Title: title, Width: width, Height: height, Line: line}
}

func (p *parser) parseAddWidget(line int, widgetType string) ast.Statement {
	p.advance() // widget type word
	varName := ""
	var label, callback, row, col, colspan ast.Expression

	if widgetType == "input" {
		if p.matchWord("called") {
			varName = p.advance().Text
		}
	} else {
		label = p.parseFactor()
		if p.matchWord("called") {
			varName = p.advance().Text
		}
	}

	p.expectWord("to")
	winTok := p.advance()
	window := &ast.Identifier{Name: winTok.Text, Line: winTok.Line}

	// Grid position reads bare numbers or names; parseFactor would
	// swallow the following keywords.
	if p.matchWord("at") {
		p.expectWord("row")
		row = p.simpleOperand()
		p.expectWord("column")
		col = p.simpleOperand()
		if p.matchWord("spanning") {
			colspan = p.simpleOperand()
			p.matchWord("columns", "column")
		}
	}

	if widgetType == "button" && p.matchWord("that") {
		p.expectWord("does")
		p.expectWord("the")
		p.expectWord("following")
		p.expectPeriod()
		body := p.parseBlock("End")
		p.advance() // "End"
		p.expectWord("button")
		p.expectPeriod()
		callback = &ast.BlockLambda{Body: body, Line: line}
	} else {
		p.expectPeriod()
	}

	return &ast.AddWidgetStmt{
		WidgetType: widgetType,
		Window:     window,
		Label:      label,
		VarName:    varName,
		Callback:   callback,
		Row:        row,
		Col:        col,
		Colspan:    colspan,
		Line:       line,
	}
}

func (p *parser) simpleOperand() ast.Expression {
	tok := p.advance()
	if tok.Kind == token.Number {
		return &ast.NumberLiteral{Value: numberValue(tok.Text), Line: tok.Line}
	}
	return &ast.Identifier{Name: tok.Text, Line: tok.Line}
}

func (p *parser) parseWhen() ast.Statement {
	line := p.cur().Line
	p.advance() // "When"

	event := "generic"
	var widget ast.Expression

	if p.matchWord("user") {
		p.expectWord("presses")
		key := strings.ToLower(p.advance().Text)
		switch key {
		case "enter":
			event = "enter"
		case "escape":
			event = "escape"
		default:
			event = "key:" + key
		}
		if p.matchWord("on") {
			w := p.advance()
			widget = &ast.Identifier{Name: w.Text, Line: w.Line}
		}
	} else if p.matchWord("window") {
		p.expectWord("closes")
		event = "close"
	} else {
		w := p.advance()
		widget = &ast.Identifier{Name: w.Text, Line: w.Line}
		p.expectWord("changes")
		event = "change"
	}

	p.expectWord("do")
	p.expectWord("the")
	p.expectWord("following")
	p.expectPeriod()
	body := p.parseBlock("End")
	p.advance() // "End"
	p.expectWord("when")
	p.expectPeriod()
	return &ast.WhenStmt{Event: event, Widget: widget, Body: body, Line: line}
}
