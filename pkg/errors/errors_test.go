package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "booking not found",
			},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("write conflict"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: write conflict)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAppError_StatusCodeDefaultsToInternal(t *testing.T) {
	err := &AppError{Code: CodeConflict, Message: "no status"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusInternalServerError)
	}
}

func TestLifecycleErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFoundWithID("Booking", "b1"), CodeNotFound, http.StatusNotFound},
		{"forbidden", Forbidden("not the owner"), CodeForbidden, http.StatusForbidden},
		{"invalid transition", InvalidTransition("booking", "approved", "approved"), CodeInvalidTransition, http.StatusConflict},
		{"already checked in", AlreadyCheckedIn("b1"), CodeAlreadyCheckedIn, http.StatusConflict},
		{"duplicate tenant", DuplicateTenant("b1"), CodeDuplicateTenant, http.StatusConflict},
		{"capacity", CapacityExceeded("r1", 1, 1), CodeCapacityExceeded, http.StatusConflict},
		{"validation", Validation("bad body", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("missing id"), CodeInvalidInput, http.StatusBadRequest},
		{"unavailable", Unavailable("Kafka"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

func TestInvalidTransition_Details(t *testing.T) {
	err := InvalidTransition("booking", "rejected", "approved")

	if err.Details["from"] != "rejected" || err.Details["to"] != "approved" {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if !strings.Contains(err.Message, `"rejected"`) {
		t.Errorf("message should name the current status, got %s", err.Message)
	}
}

func TestAsAppError_UnwrapsChains(t *testing.T) {
	appErr := CapacityExceeded("r1", 1, 1)
	wrapped := fmt.Errorf("check-capacity step failed: %w", appErr)

	if !IsAppError(wrapped) {
		t.Fatalf("IsAppError() should see through wrapping")
	}
	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should return the wrapped AppError")
	}
	if !HasCode(wrapped, CodeCapacityExceeded) {
		t.Errorf("HasCode() should match the wrapped code")
	}
	if HasCode(wrapped, CodeNotFound) {
		t.Errorf("HasCode() should not match a different code")
	}
}

func TestAsAppError_RegularError(t *testing.T) {
	regularErr := errors.New("regular error")

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
	if HasCode(regularErr, CodeInternal) {
		t.Errorf("HasCode() should be false for a non-AppError")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Tenant", "t1").ToJSON())

	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(jsonStr, "Tenant not found") {
		t.Errorf("ToJSON() should contain error message")
	}
}
