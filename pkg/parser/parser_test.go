package parser

import (
	"strings"
	"testing"

	"github.com/prose-lang/prose/pkg/ast"
)

func parseOne(t *testing.T, source string) ast.Statement {
	t.Helper()
	prog, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", source, err)
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("Parse(%q) produced %d statements, want 1", source, len(prog.Statements))
	}
	return prog.Statements[0]
}

func parseErr(t *testing.T, source string) string {
	t.Helper()
	_, err := Parse(source)
	if err == nil {
		t.Fatalf("Parse(%q) succeeded, want error", source)
	}
	return err.Error()
}

func TestLetWithPrecedence(t *testing.T) {
	stmt := parseOne(t, "Let x be 10 plus 5 times 2.")
	let, ok := stmt.(*ast.LetStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LetStmt", stmt)
	}
	if let.Name != "x" {
		t.Errorf("name = %q, want x", let.Name)
	}
	outer, ok := let.Expr.(*ast.Binary)
	if !ok || outer.Op != ast.OpPlus {
		t.Fatalf("outer expr = %#v, want plus", let.Expr)
	}
	inner, ok := outer.Right.(*ast.Binary)
	if !ok || inner.Op != ast.OpTimes {
		t.Fatalf("right side = %#v, want times", outer.Right)
	}
}

func TestLetResultOfCalling(t *testing.T) {
	stmt := parseOne(t, "Let total be the result of calling add with 1, 2.")
	lr, ok := stmt.(*ast.LetResultStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LetResultStmt", stmt)
	}
	if lr.Variable != "total" || lr.FuncName != "add" || len(lr.Args) != 2 {
		t.Errorf("got %q <- %q with %d args", lr.Variable, lr.FuncName, len(lr.Args))
	}
}

func TestLetResultOnObjectWithChain(t *testing.T) {
	stmt := parseOne(t, "Let r be the result of calling greet on p with no parameters then call shout.")
	lr, ok := stmt.(*ast.LetResultStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LetResultStmt", stmt)
	}
	if lr.Object == nil {
		t.Error("object receiver missing")
	}
	if len(lr.Args) != 0 {
		t.Errorf("args = %d, want 0", len(lr.Args))
	}
	if len(lr.Chained) != 1 || lr.Chained[0].Name != "shout" {
		t.Errorf("chain = %#v", lr.Chained)
	}
}

func TestLetRollsBackToPropertyAccess(t *testing.T) {
	// "the ... of ..." that is not "the result of calling" must rewind and
	// parse as property access.
	stmt := parseOne(t, "Let n be the age of person.")
	let := stmt.(*ast.LetStmt)
	pa, ok := let.Expr.(*ast.PropertyAccess)
	if !ok {
		t.Fatalf("got %T, want *ast.PropertyAccess", let.Expr)
	}
	if pa.Property != "age" {
		t.Errorf("property = %q, want age", pa.Property)
	}
}

func TestSayPartsMixed(t *testing.T) {
	stmt := parseOne(t, "Say hello there, name, 42.")
	say := stmt.(*ast.SayStmt)
	if len(say.Parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(say.Parts))
	}
	if txt, ok := say.Parts[0].(*ast.TextLiteral); !ok || txt.Value != "hello there" {
		t.Errorf("part 0 = %#v, want text literal \"hello there\"", say.Parts[0])
	}
	if id, ok := say.Parts[1].(*ast.Identifier); !ok || id.Name != "name" {
		t.Errorf("part 1 = %#v, want identifier name", say.Parts[1])
	}
	if num, ok := say.Parts[2].(*ast.NumberLiteral); !ok || num.Value != 42 {
		t.Errorf("part 2 = %#v, want number 42", say.Parts[2])
	}
}

func TestSayNumberFollowedByWordsStaysText(t *testing.T) {
	stmt := parseOne(t, "Say 3 plus 5 equals.")
	say := stmt.(*ast.SayStmt)
	txt, ok := say.Parts[0].(*ast.TextLiteral)
	if !ok || txt.Value != "3 plus 5 equals" {
		t.Fatalf("part = %#v, want the literal label", say.Parts[0])
	}
}

func TestBarewordStopsAtKeyword(t *testing.T) {
	stmt := parseOne(t, "Let x be total score plus 1.")
	let := stmt.(*ast.LetStmt)
	bin := let.Expr.(*ast.Binary)
	txt, ok := bin.Left.(*ast.TextLiteral)
	if !ok || txt.Value != "total score" {
		t.Fatalf("left = %#v, want text \"total score\"", bin.Left)
	}
}

func TestIfOtherwise(t *testing.T) {
	src := `If x is greater than 10 then do the following.
Say big.
Otherwise do the following.
Say small.
End if.`
	stmt := parseOne(t, src)
	iff := stmt.(*ast.IfStmt)
	cmp, ok := iff.Condition.(*ast.Compare)
	if !ok || cmp.Op != ast.CmpGreater {
		t.Fatalf("condition = %#v", iff.Condition)
	}
	if len(iff.Then) != 1 || len(iff.Else) != 1 {
		t.Errorf("then/else = %d/%d, want 1/1", len(iff.Then), len(iff.Else))
	}
}

func TestCompoundCondition(t *testing.T) {
	src := `While x is less than 5 and y is not equal to 0 do the following.
Say loop.
End while.`
	stmt := parseOne(t, src)
	while := stmt.(*ast.WhileStmt)
	logical, ok := while.Condition.(*ast.Logical)
	if !ok || logical.Connective != "and" {
		t.Fatalf("condition = %#v", while.Condition)
	}
	right, ok := logical.Right.(*ast.Compare)
	if !ok || right.Op != ast.CmpNotEquals {
		t.Errorf("right = %#v", logical.Right)
	}
}

func TestSymbolComparisons(t *testing.T) {
	src := `If x >= 3 then do the following.
Say yes.
End if.`
	stmt := parseOne(t, src)
	cmp := stmt.(*ast.IfStmt).Condition.(*ast.Compare)
	if cmp.Op != ast.CmpGreaterEqual {
		t.Errorf("op = %q, want greater_equal", cmp.Op)
	}
}

func TestTypeCheckCondition(t *testing.T) {
	src := `If x is a number then do the following.
Say numeric.
End if.`
	stmt := parseOne(t, src)
	tc, ok := stmt.(*ast.IfStmt).Condition.(*ast.TypeCheck)
	if !ok || tc.Expected != "number" {
		t.Fatalf("condition = %#v", stmt.(*ast.IfStmt).Condition)
	}
}

func TestHasKeyCondition(t *testing.T) {
	src := `If ages has the key "bob" then do the following.
Say found.
End if.`
	stmt := parseOne(t, src)
	hk, ok := stmt.(*ast.IfStmt).Condition.(*ast.DictHasKey)
	if !ok {
		t.Fatalf("condition = %#v, want *ast.DictHasKey", stmt.(*ast.IfStmt).Condition)
	}
	if key, ok := hk.Key.(*ast.TextLiteral); !ok || key.Value != "bob" {
		t.Errorf("key = %#v", hk.Key)
	}
}

func TestFileExistsCondition(t *testing.T) {
	src := `If file "notes.txt" exists then do the following.
Say present.
End if.`
	stmt := parseOne(t, src)
	if _, ok := stmt.(*ast.IfStmt).Condition.(*ast.FileExists); !ok {
		t.Fatalf("condition = %#v, want *ast.FileExists", stmt.(*ast.IfStmt).Condition)
	}
}

func TestForRangeWithStep(t *testing.T) {
	src := `For each i from 1 to 10 step 2 do the following.
Say i.
End for.`
	stmt := parseOne(t, src)
	fr := stmt.(*ast.ForRangeStmt)
	if fr.Var != "i" || fr.Step == nil {
		t.Fatalf("range loop = %#v", fr)
	}
}

func TestFunctionDefWithDefault(t *testing.T) {
	src := `Define a function called greet that takes name, greeting defaulting to "Hello" and does the following.
Say greeting, name.
End function.`
	stmt := parseOne(t, src)
	fd := stmt.(*ast.FunctionDef)
	if fd.Name != "greet" || len(fd.Params) != 2 {
		t.Fatalf("def = %#v", fd)
	}
	if fd.Params[0].Default != nil || fd.Params[1].Default == nil {
		t.Errorf("defaults wrong: %#v", fd.Params)
	}
}

func TestAsyncFunctionDef(t *testing.T) {
	src := `Define an async function called work that takes no parameters and does the following.
Say working.
End function.`
	stmt := parseOne(t, src)
	fd := stmt.(*ast.FunctionDef)
	if !fd.Async {
		t.Error("async flag not set")
	}
	if len(fd.Params) != 0 {
		t.Errorf("params = %d, want 0", len(fd.Params))
	}
}

func TestClassAndMethod(t *testing.T) {
	src := `Define a class called Dog that extends Animal with properties name, breed.
Define a method called speak for Dog that takes no parameters and does the following.
Say woof.
End method.`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cd := prog.Statements[0].(*ast.ClassDef)
	if cd.Parent != "Animal" || len(cd.Properties) != 2 {
		t.Fatalf("class = %#v", cd)
	}
	md := prog.Statements[1].(*ast.MethodDef)
	if md.ClassName != "Dog" || md.Name != "speak" {
		t.Fatalf("method = %#v", md)
	}
}

func TestCollectionLiterals(t *testing.T) {
	stmt := parseOne(t, "Let xs be a list containing 1, 2, 3.")
	list := stmt.(*ast.LetStmt).Expr.(*ast.ListLiteral)
	if len(list.Elements) != 3 {
		t.Errorf("elements = %d, want 3", len(list.Elements))
	}

	stmt = parseOne(t, `Let ages be a dictionary containing "alice": 30, "bob": 25.`)
	dict := stmt.(*ast.LetStmt).Expr.(*ast.DictLiteral)
	if len(dict.Pairs) != 2 {
		t.Errorf("pairs = %d, want 2", len(dict.Pairs))
	}

	stmt = parseOne(t, "Let xs be an empty list.")
	if list := stmt.(*ast.LetStmt).Expr.(*ast.ListLiteral); len(list.Elements) != 0 {
		t.Errorf("empty list got %d elements", len(list.Elements))
	}
}

func TestNewInstance(t *testing.T) {
	stmt := parseOne(t, `Let p be a new Person with name: "Alice", age: 30.`)
	ni := stmt.(*ast.LetStmt).Expr.(*ast.NewInstance)
	if ni.ClassName != "Person" || len(ni.Args) != 2 {
		t.Fatalf("instance = %#v", ni)
	}
}

func TestLambdaForms(t *testing.T) {
	stmt := parseOne(t, "Let double be a function that takes n and gives back n times 2.")
	lam := stmt.(*ast.LetStmt).Expr.(*ast.Lambda)
	if len(lam.Params) != 1 || lam.Params[0].Name != "n" {
		t.Fatalf("lambda = %#v", lam)
	}

	// A block lambda swallows its own "End function." period, so it reads
	// naturally mid-expression.
	src := `Let doubled be the result of mapping a function that takes n and does the following.
Give back n times 2.
End function. over nums.`
	stmt = parseOne(t, src)
	mo := stmt.(*ast.LetStmt).Expr.(*ast.MapOver)
	bl, ok := mo.Func.(*ast.BlockLambda)
	if !ok {
		t.Fatalf("func = %#v, want *ast.BlockLambda", mo.Func)
	}
	if len(bl.Body) != 1 {
		t.Fatalf("block lambda body = %d statements", len(bl.Body))
	}
}

func TestItemAccessAndRollback(t *testing.T) {
	stmt := parseOne(t, "Let x be item 2 of scores.")
	la := stmt.(*ast.LetStmt).Expr.(*ast.ListAccess)
	if idx, ok := la.Index.(*ast.NumberLiteral); !ok || idx.Value != 2 {
		t.Fatalf("index = %#v", la.Index)
	}

	// bare "item" with no "of" stays an identifier
	stmt = parseOne(t, "Say item.")
	say := stmt.(*ast.SayStmt)
	if id, ok := say.Parts[0].(*ast.Identifier); !ok || id.Name != "item" {
		t.Fatalf("part = %#v, want identifier item", say.Parts[0])
	}
}

func TestStringBuiltins(t *testing.T) {
	stmt := parseOne(t, `Let parts be split names by ",".`)
	if _, ok := stmt.(*ast.LetStmt).Expr.(*ast.SplitBy); !ok {
		t.Fatalf("got %T, want *ast.SplitBy", stmt.(*ast.LetStmt).Expr)
	}

	stmt = parseOne(t, `Let s be substring of word from 2 to 4.`)
	if _, ok := stmt.(*ast.LetStmt).Expr.(*ast.StringSlice); !ok {
		t.Fatalf("got %T, want *ast.StringSlice", stmt.(*ast.LetStmt).Expr)
	}

	stmt = parseOne(t, `Let s be replace "a" in word with "b".`)
	if _, ok := stmt.(*ast.LetStmt).Expr.(*ast.ReplaceIn); !ok {
		t.Fatalf("got %T, want *ast.ReplaceIn", stmt.(*ast.LetStmt).Expr)
	}
}

func TestAsConversionPostfix(t *testing.T) {
	stmt := parseOne(t, "Let n be answer as a number.")
	if _, ok := stmt.(*ast.LetStmt).Expr.(*ast.AsNumber); !ok {
		t.Fatalf("got %T, want *ast.AsNumber", stmt.(*ast.LetStmt).Expr)
	}
}

func TestCheckStatement(t *testing.T) {
	src := `Check color.
When "red",
Say stop.
When "green",
Say go.
Otherwise,
Say wait.
End check.`
	stmt := parseOne(t, src)
	chk := stmt.(*ast.CheckStmt)
	if len(chk.Cases) != 2 || len(chk.Otherwise) != 1 {
		t.Fatalf("cases = %d, otherwise = %d", len(chk.Cases), len(chk.Otherwise))
	}
}

func TestTryHandle(t *testing.T) {
	src := `Try the following.
Throw error "boom".
Handle error and save it as e.
Say e.
End try.`
	stmt := parseOne(t, src)
	tc := stmt.(*ast.TryCatchStmt)
	if tc.ErrorVar != "e" || len(tc.TryBody) != 1 || len(tc.CatchBody) != 1 {
		t.Fatalf("try = %#v", tc)
	}
}

func TestAttemptRescue(t *testing.T) {
	src := `Attempt to do the following.
Say risky.
Rescue error as problem.
Say problem.
End attempt.`
	stmt := parseOne(t, src)
	at := stmt.(*ast.AttemptStmt)
	if at.ErrorVar != "problem" {
		t.Fatalf("attempt = %#v", at)
	}
}

func TestImportForms(t *testing.T) {
	stmt := parseOne(t, "Import math.")
	imp := stmt.(*ast.ImportStmt)
	if imp.Alias != "" || imp.Names != nil {
		t.Fatalf("import = %#v", imp)
	}

	stmt = parseOne(t, `Import "helpers.prose" as tools.`)
	imp = stmt.(*ast.ImportStmt)
	if imp.Alias != "tools" {
		t.Fatalf("import = %#v", imp)
	}

	stmt = parseOne(t, `Import {add, subtract} from "mathlib.prose".`)
	imp = stmt.(*ast.ImportStmt)
	if len(imp.Names) != 2 || imp.Names[0] != "add" {
		t.Fatalf("import = %#v", imp)
	}
}

func TestInterpolatedText(t *testing.T) {
	stmt := parseOne(t, `Say "score is {points plus 1}!".`)
	say := stmt.(*ast.SayStmt)
	it, ok := say.Parts[0].(*ast.InterpolatedText)
	if !ok {
		t.Fatalf("part = %#v, want *ast.InterpolatedText", say.Parts[0])
	}
	if len(it.Parts) != 3 {
		t.Fatalf("segments = %d, want 3", len(it.Parts))
	}
	if _, ok := it.Parts[1].(*ast.Binary); !ok {
		t.Errorf("middle segment = %#v, want binary expression", it.Parts[1])
	}
}

func TestAllWhereAndFiltering(t *testing.T) {
	stmt := parseOne(t, "Let adults be all p in people where p is greater than 17.")
	aw := stmt.(*ast.LetStmt).Expr.(*ast.AllWhere)
	if aw.VarName != "p" {
		t.Fatalf("filter var = %q", aw.VarName)
	}

	stmt = parseOne(t, "Let evens be the result of filtering nums where item modulo 2 is equal to 0.")
	if _, ok := stmt.(*ast.LetStmt).Expr.(*ast.FilterWhere); !ok {
		t.Fatalf("got %T, want *ast.FilterWhere", stmt.(*ast.LetStmt).Expr)
	}
}

func TestTestBlockAndRunTests(t *testing.T) {
	src := `Test "addition works".
Assert 1 plus 1 is equal to 2.
End test.
Run all tests.`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tb := prog.Statements[0].(*ast.TestBlock)
	if tb.Name != "addition works" || len(tb.Body) != 1 {
		t.Fatalf("test block = %#v", tb)
	}
	if _, ok := prog.Statements[1].(*ast.RunTestsStmt); !ok {
		t.Fatalf("got %T, want *ast.RunTestsStmt", prog.Statements[1])
	}
}

func TestUnknownKeywordError(t *testing.T) {
	msg := parseErr(t, "Frobnicate the widget.")
	if !strings.Contains(msg, "I do not understand the keyword 'Frobnicate'") {
		t.Errorf("message = %q", msg)
	}
	if !strings.HasPrefix(msg, "Line 1:") {
		t.Errorf("message missing line prefix: %q", msg)
	}
}

func TestMissingPeriodError(t *testing.T) {
	msg := parseErr(t, "Let x be 5")
	if !strings.Contains(msg, "I expected a period to end the statement") {
		t.Errorf("message = %q", msg)
	}
}

func TestExpectedComparisonError(t *testing.T) {
	src := `If x banana 3 then do the following.
Say no.
End if.`
	msg := parseErr(t, src)
	if !strings.Contains(msg, "I expected a comparison operator") {
		t.Errorf("message = %q", msg)
	}
}
