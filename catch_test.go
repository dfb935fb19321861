package opt

import "testing"

func recoverWith(fn func()) (err error) {
	defer func() {
		err = CatchOptimizerError()
	}()
	fn()
	return nil
}

func TestCatchOptimizerErrorNoPanic(t *testing.T) {
	if err := recoverWith(func() {}); err != nil {
		t.Fatalf("expected no error when fn does not panic, got %v", err)
	}
}

func TestCatchOptimizerErrorPassesThroughOptError(t *testing.T) {
	err := recoverWith(func() { panic(NewInvalidInput("bad plan")) })
	kind, ok := KindOf(err)
	if !ok || kind != InvalidInput {
		t.Fatalf("expected the panicked OptError's Kind to survive unchanged, got %v ok=%v", kind, ok)
	}
}

func TestCatchOptimizerErrorClassifiesRuntimeError(t *testing.T) {
	err := recoverWith(func() {
		var s []int
		_ = s[0]
	})
	kind, ok := KindOf(err)
	if !ok || kind != Internal {
		t.Fatalf("expected a runtime panic to be classified Internal, got %v ok=%v", kind, ok)
	}
}

func TestCatchOptimizerErrorRepanicsOnNonError(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a non-error panic value to keep propagating")
		}
	}()
	_ = recoverWith(func() { panic("not an error") })
}
