package windowz

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewCallbackError(t *testing.T) {
	item := "test-item"
	err := errors.New("test panic")
	callback := "update"

	before := time.Now()
	cbErr := NewCallbackError(item, err, callback)
	after := time.Now()

	// Verify all fields are set correctly
	if cbErr.Item != item {
		t.Errorf("Expected Item to be %q, got %q", item, cbErr.Item)
	}

	if !errors.Is(cbErr.Err, err) {
		t.Errorf("Expected Err to be %v, got %v", err, cbErr.Err)
	}

	if cbErr.Callback != callback {
		t.Errorf("Expected Callback to be %q, got %q", callback, cbErr.Callback)
	}

	// Verify timestamp is reasonable (between before and after)
	if cbErr.Timestamp.Before(before) || cbErr.Timestamp.After(after) {
		t.Errorf("Expected Timestamp to be between %v and %v, got %v", before, after, cbErr.Timestamp)
	}
}

func TestCallbackError_Error(t *testing.T) {
	item := 42
	err := errors.New("division by zero")
	cbErr := NewCallbackError(item, err, "expire")

	msg := cbErr.Error()
	for _, want := range []string{"expire", "division by zero", "42"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error message to contain %q, got %q", want, msg)
		}
	}
}

func TestCallbackError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	cbErr := NewCallbackError("item", inner, "update")

	if !errors.Is(cbErr, inner) {
		t.Error("Expected errors.Is to find the wrapped error")
	}
	if cbErr.Unwrap() != inner { //nolint:errorlint // direct identity check intended
		t.Error("Expected Unwrap to return the wrapped error")
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Option: "window length", Reason: "must be positive"}

	msg := err.Error()
	if !strings.Contains(msg, "window length") {
		t.Errorf("Expected message to name the option, got %q", msg)
	}
	if !strings.Contains(msg, "must be positive") {
		t.Errorf("Expected message to carry the reason, got %q", msg)
	}
}

func TestPanicError(t *testing.T) {
	inner := errors.New("typed panic")
	if got := panicError(inner); got != inner { //nolint:errorlint // identity check intended
		t.Errorf("Expected error panic values to pass through, got %v", got)
	}

	got := panicError("string panic")
	if got == nil || !strings.Contains(got.Error(), "string panic") {
		t.Errorf("Expected non-error panic value to be wrapped, got %v", got)
	}
}
