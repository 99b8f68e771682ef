package interp

import (
	"strings"
	"testing"

	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/parser"
)

type captureOutput struct {
	lines []string
}

func (c *captureOutput) Print(line string) { c.lines = append(c.lines, line) }

type scriptedInput struct {
	prompts []string
	lines   []string
}

func (s *scriptedInput) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", nil
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type memFiles struct {
	files map[string]string
}

func newMemFiles() *memFiles { return &memFiles{files: map[string]string{}} }

func (m *memFiles) Read(path string) (string, error) {
	content, ok := m.files[path]
	if !ok {
		return "", &pathError{path: path}
	}
	return content, nil
}

func (m *memFiles) Write(path, content string) error {
	m.files[path] = content
	return nil
}

func (m *memFiles) Append(path, content string) error {
	m.files[path] += content
	return nil
}

func (m *memFiles) Exists(path string) bool {
	_, ok := m.files[path]
	return ok
}

type pathError struct{ path string }

func (e *pathError) Error() string { return "no such file: " + e.path }

type harness struct {
	out   *captureOutput
	in    *scriptedInput
	files *memFiles
	caps  *capability.Set
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		out:   &captureOutput{},
		in:    &scriptedInput{},
		files: newMemFiles(),
	}
	h.caps = capability.Defaults()
	h.caps.Output = h.out
	h.caps.Input = h.in
	h.caps.Files = h.files
	return h
}

func (h *harness) run(t *testing.T, source string) error {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return New(h.caps).Run(prog)
}

// runOK runs a program and returns the printed lines, failing on any error.
func runOK(t *testing.T, source string) []string {
	t.Helper()
	h := newHarness(t)
	if err := h.run(t, source); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return h.out.lines
}

// runErr runs a program that must fail and returns the error message.
func runErr(t *testing.T, source string) string {
	t.Helper()
	h := newHarness(t)
	err := h.run(t, source)
	if err == nil {
		t.Fatalf("run succeeded, want error\noutput: %v", h.out.lines)
	}
	return err.Error()
}

func wantLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %d lines %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	lines := runOK(t, "Let x be 10 plus 5 times 2.\nSay x.")
	wantLines(t, lines, []string{"20"})
}

func TestTextInterpolation(t *testing.T) {
	lines := runOK(t, "Let points be 7.\nSay \"score is {points plus 1}!\".")
	wantLines(t, lines, []string{"score is 8!"})
}

func TestUndeclaredIdentifierFallsBackToItsName(t *testing.T) {
	lines := runOK(t, "Say hello.")
	wantLines(t, lines, []string{"hello"})
}

func TestIfOtherwise(t *testing.T) {
	src := `Let x be 3.
If x is greater than 10 then do the following.
Say big.
Otherwise do the following.
Say small.
End if.`
	wantLines(t, runOK(t, src), []string{"small"})
}

func TestWhileLoop(t *testing.T) {
	src := `Let n be 0.
While n is less than 3 do the following.
Let n be n plus 1.
End while.
Say n.`
	wantLines(t, runOK(t, src), []string{"3"})
}

func TestWhileStopAndSkip(t *testing.T) {
	src := `Let n be 0.
Let seen be 0.
While n is less than 10 do the following.
Let n be n plus 1.
If n is equal to 2 then do the following.
Skip to next.
End if.
If n is greater than 4 then do the following.
Stop loop.
End if.
Let seen be seen plus 1.
End while.
Say seen.`
	// n runs 1..5; 2 is skipped, 5 stops before counting.
	wantLines(t, runOK(t, src), []string{"3"})
}

func TestLoopGuard(t *testing.T) {
	h := newHarness(t)
	prog, err := parser.Parse(`While true do the following.
Let x be 1.
End while.`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	i := New(h.caps)
	i.SetLoopCap(50)
	runErrMsg := i.Run(prog)
	if runErrMsg == nil {
		t.Fatal("infinite loop did not trip the guard")
	}
	want := "I have been repeating this loop for far too long. Please check your While condition."
	if runErrMsg.Error() != want {
		t.Fatalf("guard message = %q, want %q", runErrMsg.Error(), want)
	}
}

func TestRepeatLoop(t *testing.T) {
	src := `Let n be 0.
Repeat 4 times do the following.
Let n be n plus 2.
End repeat.
Say n.`
	wantLines(t, runOK(t, src), []string{"8"})
}

func TestForEachOverList(t *testing.T) {
	src := `Let xs be a list containing 1, 2, 3.
Let total be 0.
For each x in xs do the following.
Let total be total plus x.
End for.
Say total.`
	wantLines(t, runOK(t, src), []string{"6"})
}

func TestForEachOverTextIteratesCharacters(t *testing.T) {
	src := `Let word be "héy".
For each letter in word do the following.
Say letter.
End for.`
	wantLines(t, runOK(t, src), []string{"h", "é", "y"})
}

func TestForEachOnNumberFails(t *testing.T) {
	src := `For each x in 5 do the following.
Say x.
End for.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "I can only use 'For each' on a list or text.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestForRangeWithStep(t *testing.T) {
	src := `Let total be 0.
For each i from 1 to 9 step 2 do the following.
Let total be total plus i.
End for.
Say total.`
	wantLines(t, runOK(t, src), []string{"25"})
}

func TestForRangeZeroStep(t *testing.T) {
	src := `For each i from 1 to 5 step 0 do the following.
Say i.
End for.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "step cannot be zero") {
		t.Fatalf("message = %q", msg)
	}
}

func TestFunctionCallAndGiveBack(t *testing.T) {
	src := `Define a function called add that takes a, b and does the following.
Give back a plus b.
End function.
Let total be the result of calling add with 2, 3.
Say total.`
	wantLines(t, runOK(t, src), []string{"5"})
}

func TestFunctionDefaultParameter(t *testing.T) {
	src := `Define a function called greet that takes name, greeting defaulting to "Hello" and does the following.
Give back greeting plus name.
End function.
Let r be the result of calling greet with "Ada".
Say r.`
	// plus joins text operands with a space
	wantLines(t, runOK(t, src), []string{"Hello Ada"})
}

func TestFunctionArityError(t *testing.T) {
	src := `Define a function called add that takes a, b and does the following.
Give back a plus b.
End function.
Call add with 1.`
	msg := runErr(t, src)
	want := "Line 4: 'add' needs 2 argument(s), but I was given 1."
	if msg != want {
		t.Fatalf("message = %q, want %q", msg, want)
	}
}

func TestUnknownFunctionError(t *testing.T) {
	msg := runErr(t, "Call vanish with 1.")
	if !strings.Contains(msg, "I could not find a function called 'vanish'.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestClosuresCaptureDefiningScope(t *testing.T) {
	src := `Define a function called make_adder that takes n and does the following.
Give back a function that takes x and gives back x plus n.
End function.
Let add5 be the result of calling make_adder with 5.
Let r be the result of calling add5 with 3.
Say r.`
	wantLines(t, runOK(t, src), []string{"8"})
}

func TestLambdaArityError(t *testing.T) {
	src := `Let double be a function that takes n and gives back n times 2.
Let r be the result of calling double with 1, 2.
Say r.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "'double' needs 1 argument(s), but I was given 2.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestGiveBackOutsideFunction(t *testing.T) {
	msg := runErr(t, "Give back 5.")
	if msg != "'Give back' can only be used inside a function." {
		t.Fatalf("message = %q", msg)
	}
}

func TestStopOutsideLoop(t *testing.T) {
	msg := runErr(t, "Stop loop.")
	if msg != "'Stop loop.' can only be used inside a loop." {
		t.Fatalf("message = %q", msg)
	}
}

func TestSkipOutsideLoop(t *testing.T) {
	msg := runErr(t, "Skip to next.")
	if msg != "'Skip to next.' can only be used inside a loop." {
		t.Fatalf("message = %q", msg)
	}
}

func TestClassMethodsAndInheritance(t *testing.T) {
	src := `Define a class called Animal with properties name.
Define a method called describe for Animal that takes no parameters and does the following.
Give back name plus "the animal".
End method.
Define a class called Dog that extends Animal with properties name.
Define a method called fetch for Dog that takes no parameters and does the following.
Give back the name of self.
End method.
Let d be a new Dog with name: "Rex".
Let r be the result of calling fetch on d with no parameters.
Say r.
Let s be the result of calling describe on d with no parameters.
Say s.`
	wantLines(t, runOK(t, src), []string{"Rex", "Rex the animal"})
}

func TestMethodNotFound(t *testing.T) {
	src := `Define a class called Cat with properties name.
Let c be a new Cat with name: "Momo".
Call purr on c with no parameters.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "Method 'purr' not found for class 'Cat'.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestUnknownClassError(t *testing.T) {
	msg := runErr(t, `Let g be a new Ghost with name: "Boo".`)
	if !strings.Contains(msg, "Class 'Ghost' not found.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestSetPropertyAndMutation(t *testing.T) {
	src := `Define a class called Counter with properties count.
Let c be a new Counter with count: 0.
Set the count of c to 5.
Say the count of c.`
	wantLines(t, runOK(t, src), []string{"5"})
}

func TestListAppendRemoveSort(t *testing.T) {
	src := `Let xs be a list containing 3, 1, 2.
Add 5 to xs.
Remove item 1 from xs.
Sort xs.
Say xs.`
	wantLines(t, runOK(t, src), []string{"[1, 2, 5]"})
}

func TestListIndexIsOneBased(t *testing.T) {
	src := `Let xs be a list containing 10, 20, 30.
Say item 2 of xs.`
	wantLines(t, runOK(t, src), []string{"20"})
}

func TestRemoveOutOfRange(t *testing.T) {
	src := `Let xs be a list containing 1, 2, 3.
Remove item 5 from xs.`
	msg := runErr(t, src)
	want := "Line 2: Item 5 is out of range (list has 3 items)."
	if msg != want {
		t.Fatalf("message = %q, want %q", msg, want)
	}
}

func TestIndexOutOfRange(t *testing.T) {
	src := `Let xs be a list containing 1, 2.
Say item 9 of xs.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "Index 9 out of range (list has 2 items).") {
		t.Fatalf("message = %q", msg)
	}
}

func TestDictSetGetAndKeys(t *testing.T) {
	src := `Let ages be a dictionary containing "bob": 25.
Set the value for "alice" in ages to 30.
Say the value for "alice" in ages.
If ages has the key "bob" then do the following.
Say found.
End if.
Say the keys of ages.`
	wantLines(t, runOK(t, src), []string{"30", "found", "[bob, alice]"})
}

func TestDictMissingKey(t *testing.T) {
	src := `Let ages be a dictionary containing "bob": 25.
Say the value for "zoe" in ages.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "The dictionary does not have the key 'zoe'.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestFilteringKeepsSourceOrder(t *testing.T) {
	src := `Let scores be a list containing 45, 78, 90, 60, 88, 95.
Let high be the result of filtering scores where item is greater than 70.
Say high.`
	wantLines(t, runOK(t, src), []string{"[78, 90, 88, 95]"})
}

func TestMappingWithLambda(t *testing.T) {
	src := `Let nums be a list containing 1, 2, 3.
Let doubled be the result of mapping a function that takes n and gives back n times 2 over nums.
Say doubled.`
	wantLines(t, runOK(t, src), []string{"[2, 4, 6]"})
}

func TestAllWhereFiltering(t *testing.T) {
	src := `Let nums be a list containing 1, 5, 2, 8.
Let big be all n in nums where n is greater than 3.
Say big.`
	wantLines(t, runOK(t, src), []string{"[5, 8]"})
}

func TestThrowAndTryHandle(t *testing.T) {
	src := `Try the following.
Throw error "boom".
Handle error and save it as e.
Say e.
End try.`
	wantLines(t, runOK(t, src), []string{"Line 2: boom"})
}

func TestAttemptReportsTraceback(t *testing.T) {
	src := `Define a function called explode that takes no parameters and does the following.
Throw error "bad".
End function.
Attempt to do the following.
Call explode with no parameters.
Rescue error as problem.
Say problem.
End attempt.`
	lines := runOK(t, src)
	if len(lines) != 1 {
		t.Fatalf("got %d lines %q, want 1", len(lines), lines)
	}
	if !strings.Contains(lines[0], "Line 2: bad") {
		t.Errorf("missing original error in %q", lines[0])
	}
	if !strings.Contains(lines[0], "Traceback (most recent call last):") {
		t.Errorf("missing traceback header in %q", lines[0])
	}
	if !strings.Contains(lines[0], "in function 'explode' at line 5") {
		t.Errorf("missing frame in %q", lines[0])
	}
}

func TestCheckStatement(t *testing.T) {
	src := `Let color be "green".
Check color.
When "red",
Say halt.
When "green",
Say go.
Otherwise,
Say wait.
End check.`
	wantLines(t, runOK(t, src), []string{"go"})
}

func TestBuiltInTestRunner(t *testing.T) {
	src := `Test "math works".
Assert 1 plus 1 is equal to 2.
End test.
Test "failing".
Assert 1 is equal to 2.
End test.
Run all tests.`
	lines := runOK(t, src)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{
		"  Running 2 test(s)...",
		"  ✓ math works",
		"  ✗ failing",
		"    → Line 5: Assertion failed.",
		"  Results: 1 passed, 1 failed, 2 total",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("output missing %q:\n%s", want, joined)
		}
	}
}

func TestJSONEncodingUsesInsertionOrder(t *testing.T) {
	src := `Let d be a dictionary containing "b": 1, "a": "two".
Say the json for d.`
	wantLines(t, runOK(t, src), []string{`{"b": 1, "a": "two"}`})
}

func TestJSONParsing(t *testing.T) {
	src := `Let xs be the json parsed from text "[1, 2, 3]".
Say item 2 of xs.
Say the length of xs.`
	wantLines(t, runOK(t, src), []string{"2", "3"})
}

func TestJSONParseError(t *testing.T) {
	src := `Let xs be the json parsed from text "not json".
Say xs.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "Invalid JSON text format.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestStringBuiltins(t *testing.T) {
	src := `Let shout be uppercase of "hey".
Say shout.
Let parts be split "a,b,c" by ",".
Say the length of parts.
Let joined be join parts with "-".
Say joined.
Let pos be index of "b" in parts.
Say pos.`
	wantLines(t, runOK(t, src), []string{"HEY", "3", "a-b-c", "2"})
}

func TestAsNumberConversion(t *testing.T) {
	src := `Let n be "41" as a number.
Let next be n plus 1.
Say next.`
	wantLines(t, runOK(t, src), []string{"42"})
}

func TestAsNumberFailure(t *testing.T) {
	msg := runErr(t, `Let n be "forty" as a number.`)
	if !strings.Contains(msg, "I could not convert 'forty' to a number.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestAskCoercesNumericInput(t *testing.T) {
	h := newHarness(t)
	h.in.lines = []string{"42"}
	err := h.run(t, "Ask the user for age.\nLet next be age plus 1.\nSay next.")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wantLines(t, h.out.lines, []string{"43"})
	if len(h.in.prompts) != 1 || h.in.prompts[0] != "Please enter a value for age: " {
		t.Errorf("prompts = %q", h.in.prompts)
	}
}

func TestFileWriteAppendReadExists(t *testing.T) {
	src := `Write "hello" to file "out.txt".
Append " world" to file "out.txt".
Say the contents of file "out.txt".
If file "out.txt" exists then do the following.
Say present.
End if.`
	wantLines(t, runOK(t, src), []string{"hello world", "present"})
}

func TestEnvironmentVariableAndArgs(t *testing.T) {
	h := newHarness(t)
	h.caps.Args = []string{"alpha", "beta"}
	h.caps.LookupEnv = func(name string) (string, bool) {
		if name == "PROSE_HOME" {
			return "/opt/prose", true
		}
		return "", false
	}
	src := `Let home be the environment variable "PROSE_HOME".
Say home.
Let missing be the environment variable "MISSING".
Say missing.
Let args be the command line arguments.
Say args.`
	if err := h.run(t, src); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wantLines(t, h.out.lines, []string{"/opt/prose", "nothing", "[alpha, beta]"})
}

func TestStringModuleImport(t *testing.T) {
	src := `Import string.
Let r be the result of calling string_startsWith with "hello", "he".
Say r.
Let s be the result of calling string_substring with "hello", 1, 3.
Say s.`
	wantLines(t, runOK(t, src), []string{"true", "el"})
}

func TestCollectionsModuleImport(t *testing.T) {
	src := `Import collections.
Let xs be a list containing 3, 1, 3, 2.
Let u be the result of calling collections_unique with xs.
Say u.
Let r be the result of calling collections_reverse with u.
Say r.`
	wantLines(t, runOK(t, src), []string{"[3, 1, 2]", "[2, 1, 3]"})
}

func TestDatabaseModule(t *testing.T) {
	h := newHarness(t)
	defer h.caps.Storage.Close()
	src := `Import database as db.
Call create_table on db with "users", "name", "age".
Call save on db with "users", "Ada", "36".
Call save on db with "users", "Grace", "45".
Let n be the result of calling count on db with "users".
Say n.
Let rows be the result of calling find_all on db with "users".
Let first be item 1 of rows.
Say the name of first.
Call delete_where on db with "users", "name", "Ada".
Let m be the result of calling count on db with "users".
Say m.`
	if err := h.run(t, src); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wantLines(t, h.out.lines, []string{"2", "Ada", "1"})
}

func TestFileImportWithAlias(t *testing.T) {
	h := newHarness(t)
	h.files.files["mathlib.prose"] = `Define a function called triple that takes n and does the following.
Give back n times 3.
End function.`
	src := `Import "mathlib.prose" as tools.
Let r be the result of calling triple on tools with 7.
Say r.`
	if err := h.run(t, src); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wantLines(t, h.out.lines, []string{"21"})
}

func TestFileImportSpecificNames(t *testing.T) {
	h := newHarness(t)
	h.files.files["mathlib.prose"] = `Define a function called double that takes n and does the following.
Give back n times 2.
End function.`
	src := `Import {double} from "mathlib.prose".
Let r be the result of calling double with 4.
Say r.`
	if err := h.run(t, src); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	wantLines(t, h.out.lines, []string{"8"})
}

func TestFileImportMissingName(t *testing.T) {
	h := newHarness(t)
	h.files.files["mathlib.prose"] = "Let x be 1."
	err := h.run(t, `Import {ghost} from "mathlib.prose".`)
	if err == nil || !strings.Contains(err.Error(), "Cannot import 'ghost' because it was not found in 'mathlib.prose'.") {
		t.Fatalf("err = %v", err)
	}
}

func TestAsyncFunctionAndWait(t *testing.T) {
	src := `Define an async function called work that takes n and does the following.
Give back n times 2.
End function.
Let t be the result of calling work with 21.
Let r be waiting for t.
Say r.`
	wantLines(t, runOK(t, src), []string{"42"})
}

func TestWaitingForNonTask(t *testing.T) {
	src := `Let x be 5.
Let r be waiting for x.
Say r.`
	msg := runErr(t, src)
	if !strings.Contains(msg, "Cannot 'waiting for' something that is not an active background task.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestHeadlessGUIRefusesWindows(t *testing.T) {
	msg := runErr(t, `Create a window called win with title "Calc" and size 300 by 400.`)
	if !strings.Contains(msg, "GUI support is not available in this build.") {
		t.Fatalf("message = %q", msg)
	}
}

func TestLoopVariableLeaksLikeAssignment(t *testing.T) {
	src := `Let xs be a list containing 1, 2, 3.
For each x in xs do the following.
Let y be x.
End for.
Say x.`
	wantLines(t, runOK(t, src), []string{"3"})
}

func TestMathRoundingBuiltins(t *testing.T) {
	src := `Let a be round 2.5.
Say a.
Let b be round 3.7.
Say b.
Let c be absolute value of -4.
Say c.
Let d be square root of 9.
Say d.
Let e be floor of 2.9.
Say e.
Let f be ceiling of 2.1.
Say f.`
	wantLines(t, runOK(t, src), []string{"2", "4", "4", "3", "2", "3"})
}

func TestNegativeSquareRoot(t *testing.T) {
	msg := runErr(t, "Let r be square root of -1.")
	if !strings.Contains(msg, "I cannot take the square root of a negative number.") {
		t.Fatalf("message = %q", msg)
	}
}
