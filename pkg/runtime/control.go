package runtime

// Control-flow signals travel as errors so loops and call frames can
// absorb them. Their Error text doubles as the diagnostic when one escapes
// to the top level. Generated code raises the same signals as panics and
// Catch converts them back to errors at the function boundary.

type ReturnSignal struct{ Value Value }

func (ReturnSignal) Error() string { return MsgGiveBackOutsideFunction }

type StopSignal struct{}

func (StopSignal) Error() string { return MsgStopOutsideLoop }

type SkipSignal struct{}

func (SkipSignal) Error() string { return MsgSkipOutsideLoop }

// CompiledBody is a function or default-value body produced by the code
// generator. Failures and control flow surface as panics carrying *Error
// or one of the signal types.
type CompiledBody func(env *Environment) Value

// Catch runs a compiled body and converts panicking runtime errors and
// control signals into the error forms the evaluator works with. Any
// other panic is a bug and keeps unwinding.
func Catch(env *Environment, body CompiledBody) (val Value, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch sig := r.(type) {
		case *Error:
			val, err = nil, sig
		case ReturnSignal:
			val, err = nil, sig
		case StopSignal:
			val, err = nil, sig
		case SkipSignal:
			val, err = nil, sig
		default:
			panic(r)
		}
	}()
	return body(env), nil
}
