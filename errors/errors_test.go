package errors

import (
	"fmt"
	"testing"
)

func TestSessiondError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeSessionNotFound, "session not found")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeScanIO, "read failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeScanIO) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeSessionNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("session_id", "abc").WithDetail("page", 2)
	if detailed.Details["session_id"] != "abc" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := SessionNotFound("52ee0272")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}
	if err.Details["session_id"] != "52ee0272" {
		t.Error("SessionNotFound should include session_id detail")
	}

	err = ScanIO("/tmp/x.jsonl", fmt.Errorf("permission denied"))
	if err.Code != ErrCodeScanIO {
		t.Errorf("expected code %s, got %s", ErrCodeScanIO, err.Code)
	}
	if err.Details["path"] != "/tmp/x.jsonl" {
		t.Error("ScanIO should include path detail")
	}
	if GetCode(err) != ErrCodeScanIO {
		t.Error("GetCode should return the wrapped code")
	}
}
