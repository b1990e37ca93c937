package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestWithDetails(t *testing.T) {
	err := NewAppError(ErrCodeCommandFailed, "No clipboard utility available").
		WithDetails("install xclip, xsel, or wl-clipboard")

	if !strings.Contains(err.Error(), "install xclip") {
		t.Errorf("Error() = %q, want details included", err.Error())
	}
	if err.Details != "install xclip, xsel, or wl-clipboard" {
		t.Errorf("Details = %q", err.Details)
	}
}

func TestGetAppError(t *testing.T) {
	orig := NotFoundError("save file x.save")
	if got := GetAppError(orig); got != orig {
		t.Errorf("GetAppError returned %v, want the original error", got)
	}

	// Wrapped application errors are still found.
	wrapped := Wrap(orig, ErrCodeCommandFailed, "load failed")
	if got := GetAppError(wrapped); got.Code != ErrCodeCommandFailed {
		t.Errorf("wrapped code = %s", got.Code)
	}

	// Foreign errors become internal errors keeping their message.
	foreign := GetAppError(errors.New("disk on fire"))
	if foreign.Code != ErrCodeInternalError {
		t.Errorf("foreign code = %s, want %s", foreign.Code, ErrCodeInternalError)
	}
	if foreign.Message != "disk on fire" {
		t.Errorf("foreign message = %q", foreign.Message)
	}
}
