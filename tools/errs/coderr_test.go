package errs

import (
	"fmt"
	"testing"
)

func TestWithDetailCopies(t *testing.T) {
	e := ErrRoomAccess.WithDetail("room chat:42")
	if e.Detail != "room chat:42" {
		t.Fatalf("detail = %q", e.Detail)
	}
	if ErrRoomAccess.Detail != "" {
		t.Fatalf("predefined error mutated: %q", ErrRoomAccess.Detail)
	}
	if e.Code != ErrRoomAccess.Code {
		t.Fatalf("code changed: %d", e.Code)
	}

	e2 := e.WithDetail("second")
	if e2.Detail != "room chat:42, second" {
		t.Fatalf("chained detail = %q", e2.Detail)
	}
}

func TestUnwrapThroughWrapping(t *testing.T) {
	err := ErrValidation.WrapMsg("roomId is required")
	wrapped := fmt.Errorf("handler: %w", err)

	ce, ok := Unwrap(wrapped)
	if !ok {
		t.Fatalf("Unwrap failed on %v", wrapped)
	}
	if ce.Code != ValidationErr {
		t.Fatalf("code = %d, want %d", ce.Code, ValidationErr)
	}
}

func TestUnwrapPlainError(t *testing.T) {
	if _, ok := Unwrap(fmt.Errorf("plain")); ok {
		t.Fatalf("plain error must not unwrap to a CodeError")
	}
	if _, ok := Unwrap(nil); ok {
		t.Fatalf("nil must not unwrap")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := ErrNotMember.WithDetail("room chat:42").WrapMsg("send")
	if !ErrNotMember.Is(err) {
		t.Fatalf("Is must match same code through detail and wrapping")
	}
	if ErrRoomAccess.Is(err) {
		t.Fatalf("Is must not match a different code")
	}
}

func TestErrorString(t *testing.T) {
	e := NewCodeError(1301, "malformed payload")
	if got := e.Error(); got != "1301 malformed payload" {
		t.Fatalf("Error() = %q", got)
	}
	if got := e.WithDetail("missing event").Error(); got != "1301 malformed payload missing event" {
		t.Fatalf("Error() with detail = %q", got)
	}
}
