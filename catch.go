package opt

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

// CatchOptimizerError recovers a panic raised anywhere inside one call to
// Optimizer.Optimize and turns it into an error, adapted from the teacher's
// opt.CatchOptimizerError. It lets the search and builder code raise
// AssertionFailedf (and the OptError constructors above) as panics instead
// of threading error returns through every recursive call, which is safe
// here because a single Optimize call never shares its arena or mutates
// state outside of it (§5: one Optimizer instance, one thread, one arena).
func CatchOptimizerError() error {
	r := recover()
	if r == nil {
		return nil
	}
	err, ok := r.(error)
	if !ok {
		// A panic whose value is not an error (e.g. panic("...") with a
		// string) is not something we can classify; let it keep
		// propagating rather than mask it as an optimizer error. Runtime
		// faults such as a nil dereference or an index out of range are
		// runtime.Error values and are handled below.
		panic(r)
	}
	if errors.HasInterface(err, (*runtime.Error)(nil)) {
		return NewInternal(errors.HandleAsAssertionFailure(err), "runtime error during optimization")
	}
	var oe *OptError
	if errors.As(err, &oe) {
		return oe
	}
	return NewInternal(err, "optimizer invariant violated")
}
