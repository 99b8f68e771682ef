package runtime

import "fmt"

// Environment is one scope frame: a name table plus a pointer to the
// enclosing frame. Function bodies chain off the function's defining
// environment, which is what makes closures work.
type Environment struct {
	vars   map[string]Value
	parent *Environment
}

func NewEnvironment(parent *Environment) *Environment {
	return &Environment{vars: map[string]Value{}, parent: parent}
}

// Get resolves a name, walking outward through enclosing frames.
func (e *Environment) Get(name string, line int) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, nil
		}
	}
	return nil, &Error{Line: line, Message: fmt.Sprintf(
		"Line %d: I could not find a variable called '%s'. Please make sure you have declared it before using it.", line, name)}
}

// Lookup is Get without the friendly error, for callers that probe.
func (e *Environment) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Assign updates the nearest frame that already holds the name, or defines
// the name in the outermost frame when no frame has it.
func (e *Environment) Assign(name string, value Value) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = value
			return
		}
		if env.parent == nil {
			env.vars[name] = value
			return
		}
	}
}

// SetLocal defines or overwrites the name in this frame only.
func (e *Environment) SetLocal(name string, value Value) {
	e.vars[name] = value
}

// Parent returns the enclosing frame, nil at the top.
func (e *Environment) Parent() *Environment { return e.parent }

// EachLocal visits every binding in this frame only.
func (e *Environment) EachLocal(fn func(name string, v Value)) {
	for name, v := range e.vars {
		fn(name, v)
	}
}
