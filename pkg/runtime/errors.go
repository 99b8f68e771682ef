package runtime

import "fmt"

// Error is a Prose runtime failure. Message is the complete friendly
// sentence shown to the user; Line is 0 when no source line applies.
// Stack accumulates call frames as the error unwinds, innermost first.
type Error struct {
	Line    int
	Message string
	Stack   []string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds a runtime error whose message already includes any line
// prefix the caller wants.
func Errorf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}
