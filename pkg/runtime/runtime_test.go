package runtime

import "testing"

func TestDisplayScalars(t *testing.T) {
	cases := []struct {
		in   Value
		want string
	}{
		{Nothing, "nothing"},
		{BoolValue{Val: true}, "true"},
		{BoolValue{Val: false}, "false"},
		{NumberValue{Val: 5}, "5"},
		{NumberValue{Val: 5.0}, "5"},
		{NumberValue{Val: 3.14}, "3.14"},
		{NumberValue{Val: -2}, "-2"},
		{TextValue{Val: "hello"}, "hello"},
	}
	for _, tc := range cases {
		if got := Display(tc.in); got != tc.want {
			t.Fatalf("Display(%v): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayCollections(t *testing.T) {
	list := NewList(NumberValue{Val: 1}, TextValue{Val: "two"}, BoolValue{Val: true})
	if got := Display(list); got != "[1, two, true]" {
		t.Fatalf("list: got %q", got)
	}
	dict := NewDict()
	dict.Set("name", TextValue{Val: "Ada"})
	dict.Set("age", NumberValue{Val: 36})
	if got := Display(dict); got != "{name: Ada, age: 36}" {
		t.Fatalf("dict: got %q", got)
	}
}

func TestDictOrderAfterDelete(t *testing.T) {
	d := NewDict()
	d.Set("a", NumberValue{Val: 1})
	d.Set("b", NumberValue{Val: 2})
	d.Set("c", NumberValue{Val: 3})
	d.Delete("b")
	d.Set("b", NumberValue{Val: 4})
	got := d.Keys()
	want := []string{"a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys: got %v want %v", got, want)
		}
	}
}

func TestPlusJoinsTextWithSpace(t *testing.T) {
	v, err := ApplyBinary("plus", TextValue{Val: "Hello"}, TextValue{Val: "world"}, 1)
	if err != nil {
		t.Fatalf("plus: %v", err)
	}
	if v.(TextValue).Val != "Hello world" {
		t.Fatalf("got %q", v.(TextValue).Val)
	}
	v, err = ApplyBinary("plus", TextValue{Val: "total:"}, NumberValue{Val: 7}, 1)
	if err != nil {
		t.Fatalf("plus: %v", err)
	}
	if v.(TextValue).Val != "total: 7" {
		t.Fatalf("got %q", v.(TextValue).Val)
	}
}

func TestPlusConcatenatesLists(t *testing.T) {
	a := NewList(NumberValue{Val: 1})
	b := NewList(NumberValue{Val: 2})
	v, err := ApplyBinary("plus", a, b, 1)
	if err != nil {
		t.Fatalf("plus: %v", err)
	}
	if got := Display(v); got != "[1, 2]" {
		t.Fatalf("got %q", got)
	}
	if len(a.Elements) != 1 || len(b.Elements) != 1 {
		t.Fatalf("operands mutated")
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := ApplyBinary("divided_by", NumberValue{Val: 1}, NumberValue{Val: 0}, 3)
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "Line 3: I cannot divide by zero." {
		t.Fatalf("message: %q", err.Error())
	}
}

func TestModuloByZero(t *testing.T) {
	_, err := ApplyBinary("modulo", NumberValue{Val: 5}, NumberValue{Val: 0}, 4)
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "Line 4: I cannot take the remainder of dividing by zero." {
		t.Fatalf("message: %q", err.Error())
	}
}

func TestModuloSignFollowsDivisor(t *testing.T) {
	v, err := ApplyBinary("modulo", NumberValue{Val: -7}, NumberValue{Val: 3}, 1)
	if err != nil {
		t.Fatalf("modulo: %v", err)
	}
	if v.(NumberValue).Val != 2 {
		t.Fatalf("got %v", v.(NumberValue).Val)
	}
}

func TestArithmeticRejectsText(t *testing.T) {
	_, err := ApplyBinary("minus", TextValue{Val: "apple"}, NumberValue{Val: 1}, 9)
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "Line 9: 'apple' is not a number, so I cannot use 'minus'." {
		t.Fatalf("message: %q", err.Error())
	}
}

func TestLooseEquals(t *testing.T) {
	if !LooseEquals(NumberValue{Val: 5}, TextValue{Val: "5"}) {
		t.Fatalf("5 should equal \"5\"")
	}
	if !LooseEquals(TextValue{Val: "YES"}, TextValue{Val: "YES"}) {
		t.Fatalf("same text")
	}
	if LooseEquals(NumberValue{Val: 5}, NumberValue{Val: 6}) {
		t.Fatalf("5 != 6")
	}
	if !LooseEquals(BoolValue{Val: true}, NumberValue{Val: 1}) {
		t.Fatalf("true should equal 1")
	}
	if !LooseEquals(Nothing, Nothing) {
		t.Fatalf("nothing equals nothing")
	}
	a := NewList(NumberValue{Val: 1}, TextValue{Val: "2"})
	b := NewList(NumberValue{Val: 1}, NumberValue{Val: 2})
	if !LooseEquals(a, b) {
		t.Fatalf("element-wise loose equality")
	}
}

func TestEnvironmentScoping(t *testing.T) {
	global := NewEnvironment(nil)
	global.SetLocal("x", NumberValue{Val: 1})
	child := NewEnvironment(global)

	v, err := child.Get("x", 1)
	if err != nil {
		t.Fatalf("get through parent: %v", err)
	}
	if v.(NumberValue).Val != 1 {
		t.Fatalf("got %v", v)
	}

	// Assign updates the frame that owns the name.
	child.Assign("x", NumberValue{Val: 2})
	v, _ = global.Get("x", 1)
	if v.(NumberValue).Val != 2 {
		t.Fatalf("assign should reach owning frame, got %v", v)
	}

	// SetLocal shadows without touching the parent.
	child.SetLocal("x", NumberValue{Val: 9})
	v, _ = global.Get("x", 1)
	if v.(NumberValue).Val != 2 {
		t.Fatalf("shadow leaked, got %v", v)
	}

	_, err = child.Get("missing", 7)
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "Line 7: I could not find a variable called 'missing'. Please make sure you have declared it before using it."
	if err.Error() != want {
		t.Fatalf("message: %q", err.Error())
	}
}

func TestTaskAwait(t *testing.T) {
	task := NewTask()
	go task.Resolve(NumberValue{Val: 42})
	v, err := task.Await()
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if v.(NumberValue).Val != 42 {
		t.Fatalf("got %v", v)
	}
}
