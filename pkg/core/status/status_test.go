package status

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesSentinel(t *testing.T) {
	err := New("availability.Apply", NotFound, "snapshot %q is not registered", "pass1")

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is(err, ErrNotFound), got %v", err)
	}
	if errors.Is(err, ErrNotAllowed) {
		t.Errorf("NotFound error must not match ErrNotAllowed")
	}
	if IsFatal(err) {
		t.Errorf("protocol errors are recoverable")
	}

	want := `availability.Apply: NOT_FOUND: snapshot "pass1" is not registered`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	inner := Fatalf("features.DensityWeightContribution", Failure, "zero perpendicular distance")
	wrapped := fmt.Errorf("event 42: %w", inner)

	if got := CodeOf(wrapped); got != Failure {
		t.Errorf("CodeOf = %s, want %s", got, Failure)
	}
	if !IsFatal(wrapped) {
		t.Errorf("fatal flag lost through wrapping")
	}
	if !errors.Is(wrapped, ErrFailure) {
		t.Errorf("wrapped fatal error should still match ErrFailure")
	}
}

func TestCodeOfForeignAndNil(t *testing.T) {
	if got := CodeOf(nil); got != Success {
		t.Errorf("CodeOf(nil) = %s", got)
	}
	if got := CodeOf(errors.New("boom")); got != Failure {
		t.Errorf("CodeOf(foreign) = %s", got)
	}
	if IsFatal(errors.New("boom")) {
		t.Errorf("foreign errors are not fatal")
	}
}

func TestCodeString(t *testing.T) {
	tests := map[Code]string{
		Success:       "SUCCESS",
		AlreadyExists: "ALREADY_EXISTS",
		NotAllowed:    "NOT_ALLOWED",
		Code(200):     "UNRECOGNIZED",
	}
	for code, want := range tests {
		if code.String() != want {
			t.Errorf("Code(%d).String() = %q, want %q", code, code.String(), want)
		}
	}
}
