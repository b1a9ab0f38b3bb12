package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Conflictf("ya existe")
	if KindOf(err) != KindConflict {
		t.Fatalf("KindOf = %v, want KindConflict", KindOf(err))
	}

	wrapped := fmt.Errorf("guardando cuenta: %w", err)
	if !IsKind(wrapped, KindConflict) {
		t.Fatal("IsKind should see through wrapping")
	}

	if KindOf(errors.New("plain")) != 0 {
		t.Fatal("plain errors have no kind")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("deadlock")
	err := Wrap(KindConflict, "no se pudo aplicar el movimiento", cause)

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause should be reachable via errors.Is")
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("KindOf = %v, want KindConflict", KindOf(err))
	}
}
