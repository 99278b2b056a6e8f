package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNewUpstreamError_Unauthorized_ReturnsSentinel(t *testing.T) {
	err := NewUpstreamError(http.StatusUnauthorized, "token expired")
	if err != ErrUnauthorized {
		t.Errorf("401 should map to the ErrUnauthorized sentinel, got %v", err)
	}
}

func TestNewUpstreamError_UsesServerMessage(t *testing.T) {
	err := NewUpstreamError(http.StatusUnprocessableEntity, "email is already taken")
	if err.Message != "email is already taken" {
		t.Errorf("Message = %q, want server message", err.Message)
	}
	if err.Category != "validation" {
		t.Errorf("Category = %q, want validation for 4xx", err.Category)
	}
	if err.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", err.Status)
	}
}

func TestNewUpstreamError_EmptyMessage_UsesDefault(t *testing.T) {
	err := NewUpstreamError(http.StatusBadGateway, "")
	if err.Message == "" {
		t.Error("empty server message should fall back to a default message")
	}
	if err.Category != "system" {
		t.Errorf("Category = %q, want system for 5xx", err.Category)
	}
}

func TestIsUnauthorized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", ErrUnauthorized, true},
		{"wrapped sentinel", fmt.Errorf("fetch failed: %w", ErrUnauthorized), true},
		{"other api error", NewValidationError("invalid"), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnauthorized(tt.err); got != tt.want {
				t.Errorf("IsUnauthorized(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAsAPIError_PassesThroughAPIError(t *testing.T) {
	orig := NewValidationError("入力が不正です。")
	got := AsAPIError(fmt.Errorf("wrapped: %w", orig))
	if got != orig {
		t.Errorf("AsAPIError should unwrap to the original *APIError, got %v", got)
	}
}

func TestAsAPIError_WrapsUnknownErrors(t *testing.T) {
	got := AsAPIError(errors.New("connection refused"))
	if got.Code != ErrCodeUpstreamFailed {
		t.Errorf("Code = %q, want %q", got.Code, ErrCodeUpstreamFailed)
	}
	if got.Category != "system" {
		t.Errorf("Category = %q, want system", got.Category)
	}
	if got.Message == "" {
		t.Error("wrapped error should carry a user-facing message")
	}
}

func TestAsAPIError_Nil(t *testing.T) {
	if got := AsAPIError(nil); got != nil {
		t.Errorf("AsAPIError(nil) = %v, want nil", got)
	}
}

func TestNewResourceNotFoundError_JapaneseLabel(t *testing.T) {
	err := NewResourceNotFoundError("customers", "abc-123")
	if err.Code != ErrCodeResourceNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeResourceNotFound)
	}
	want := "指定された顧客が見つかりません: abc-123"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestNewInvalidBaseURLError(t *testing.T) {
	err := NewInvalidBaseURLError("disallowed scheme: ftp")
	if err.Code != ErrCodeInvalidBaseURL {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidBaseURL)
	}
	if !strings.Contains(err.Message, "disallowed scheme: ftp") {
		t.Errorf("Message should carry the validation detail, got %q", err.Message)
	}
}

func TestAPIError_ErrorString(t *testing.T) {
	err := &APIError{Code: "X", Message: "msg"}
	if err.Error() != "[X] msg" {
		t.Errorf("Error() = %q, want [X] msg", err.Error())
	}
}
