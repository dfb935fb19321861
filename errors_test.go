package opt

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestKindOfClassifiesOptErrors(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{NewInvalidInput("bad input %d", 1), InvalidInput},
		{NewCatalogError("no such table %q", "t"), CatalogErrorKind},
		{NewOverBudget("search exhausted"), OverBudget},
		{NewInternal(nil, "invariant broken"), Internal},
	}
	for _, c := range cases {
		kind, ok := KindOf(c.err)
		if !ok || kind != c.want {
			t.Fatalf("expected %v, got %v (ok=%v)", c.want, kind, ok)
		}
	}
}

func TestKindOfRejectsPlainErrors(t *testing.T) {
	if _, ok := KindOf(errors.New("not an OptError")); ok {
		t.Fatalf("expected a plain error to not classify as an OptError")
	}
}

func TestNewInternalWrapsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternal(cause, "wrapping context")
	if !errors.Is(err, cause) {
		t.Fatalf("expected NewInternal to preserve the cause in the error chain")
	}
}

func TestKindString(t *testing.T) {
	if InvalidInput.String() != "InvalidInput" {
		t.Fatalf("unexpected Kind.String(): %s", InvalidInput.String())
	}
	if Kind(99).String() != "Unknown" {
		t.Fatalf("expected an undefined Kind to stringify as Unknown")
	}
}
