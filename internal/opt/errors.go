package opt

import "fmt"

// InvariantError reports an internal invariant violation (spec §7): a pass
// produced ill-formed SSA, a required lookup missed, or the float pass's
// end-of-pass phase assertion failed. These are bugs, not user errors;
// the driver identifies the offending function by name/arity exactly as
// spec §6's diagnostic surface requires.
type InvariantError struct {
	Func   string // "name/arity"
	Pass   string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal error in %s: pass %q: %s", e.Func, e.Pass, e.Reason)
}

func fail(funcNameArity, pass, reason string, args ...interface{}) {
	panic(&InvariantError{Func: funcNameArity, Pass: pass, Reason: fmt.Sprintf(reason, args...)})
}
