package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrBackendFailure, "docker exec failed").
		WithCause(root).
		WithRetryable(true)

	if GetErrorCode(err) != ErrBackendFailure {
		t.Fatalf("expected code %s, got %s", ErrBackendFailure, GetErrorCode(err))
	}
	if !err.Retryable {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got != "[BACKEND_FAILURE] docker exec failed: root" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("run aborted: %w", NewConfigError("missing %s", "container"))

	if !errors.Is(wrapped, NewError(ErrConfigInvalid, "")) {
		t.Fatalf("expected errors.Is to match on code through wrapping")
	}
	if errors.Is(wrapped, NewError(ErrProtocolViolation, "")) {
		t.Fatalf("different codes must not match")
	}
	if !IsErrorCode(wrapped, ErrConfigInvalid) {
		t.Fatalf("expected IsErrorCode to see through wrapping")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}
