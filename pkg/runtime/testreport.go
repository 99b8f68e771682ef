package runtime

import (
	"fmt"
	"strings"
)

// NamedTest is one "Test that ..." block queued for "Run all tests."
type NamedTest struct {
	Name string
	Run  func() error
}

// RunTestReport executes the queued tests in order and prints the report.
// Both execution backends render their test output through this function.
func RunTestReport(print func(string), tests []NamedTest) {
	sep := strings.Repeat("=", 50)
	passed, failed := 0, 0
	print("\n" + sep)
	print(fmt.Sprintf("  Running %d test(s)...", len(tests)))
	print(sep + "\n")
	for _, test := range tests {
		if err := test.Run(); err != nil {
			print("  ✗ " + test.Name)
			print("    → " + err.Error())
			failed++
		} else {
			print("  ✓ " + test.Name)
			passed++
		}
	}
	print("\n" + sep)
	print(fmt.Sprintf("  Results: %d passed, %d failed, %d total", passed, failed, passed+failed))
	print(sep + "\n")
}
