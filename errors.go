package opt

import (
	"github.com/cockroachdb/errors"
)

// Kind distinguishes the fatal error categories the optimizer can return,
// per §7. Every Kind aborts the whole Optimize call; nothing is recovered
// inside the optimizer itself.
type Kind int

const (
	// InvalidInput means the logical plan references undefined names, has
	// type mismatches, or uses an unsupported construct.
	InvalidInput Kind = iota + 1
	// CatalogErrorKind means a table was not found, had no scannable
	// layout, or required an unsupported cast.
	CatalogErrorKind
	// OverBudget means the context was cancelled or the node-expansion
	// budget was exceeded. The error carries no plan; Optimize returns it
	// with a nil plan.
	OverBudget
	// Internal means a broken invariant: arena exhaustion, memo
	// inconsistency, or cost overflow.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case CatalogErrorKind:
		return "CatalogError"
	case OverBudget:
		return "OverBudget"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// OptError wraps an underlying error with the Kind the optimizer classified
// it as, so callers can branch with errors.As without parsing messages.
type OptError struct {
	Kind Kind
	err  error
}

func (e *OptError) Error() string { return e.Kind.String() + ": " + e.err.Error() }
func (e *OptError) Unwrap() error { return e.err }

// NewInvalidInput builds an InvalidInput OptError.
func NewInvalidInput(format string, args ...interface{}) error {
	return &OptError{Kind: InvalidInput, err: errors.Newf(format, args...)}
}

// NewCatalogError builds a CatalogError OptError.
func NewCatalogError(format string, args ...interface{}) error {
	return &OptError{Kind: CatalogErrorKind, err: errors.Newf(format, args...)}
}

// NewOverBudget builds an OverBudget OptError.
func NewOverBudget(format string, args ...interface{}) error {
	return &OptError{Kind: OverBudget, err: errors.Newf(format, args...)}
}

// NewInternal builds an Internal OptError, wrapping cause if present.
func NewInternal(cause error, format string, args ...interface{}) error {
	err := errors.Newf(format, args...)
	if cause != nil {
		err = errors.Wrapf(cause, format, args...)
	}
	return &OptError{Kind: Internal, err: err}
}

// KindOf reports the Kind of err if it (or something it wraps) is an
// *OptError, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var oe *OptError
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return 0, false
}
