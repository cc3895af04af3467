package errors

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeConnectionFailed, "Connection failed"),
			expected: "[ROI1001] ERROR: Connection failed",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithSuggestions("Check network", "Verify credentials"),
			expected: "[ROI1001] ERROR: Connection failed\nSuggestions:\n  1. Check network\n  2. Verify credentials",
		},
		{
			name: "error with context",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithContext("account", "xy12345").
				WithContext("port", 443),
			expected: "[ROI1001] ERROR: Connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("database connection refused")

	appErr := Wrap(baseErr, ErrCodeConnectionFailed, "Failed to connect to Snowflake")

	if appErr.Cause != baseErr {
		t.Error("Wrapped error should contain original error as cause")
	}

	if appErr.Code != ErrCodeConnectionFailed {
		t.Errorf("Expected code %s, got %s", ErrCodeConnectionFailed, appErr.Code)
	}
}

func TestDuplicateKeyError(t *testing.T) {
	err := DuplicateKeyError("registrations", "device_id", "dev-42")

	if err.Code != ErrCodeDuplicateKey {
		t.Errorf("Expected code %s, got %s", ErrCodeDuplicateKey, err.Code)
	}
	if err.Severity != SeverityCritical {
		t.Errorf("Expected critical severity, got %s", err.Severity)
	}
	if err.Context["feed"] != "registrations" || err.Context["value"] != "dev-42" {
		t.Errorf("Expected feed and value in context, got %v", err.Context)
	}
}

func TestRetryLogic(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	config := &RetryConfig{
		MaxRetries:   maxAttempts - 1,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       false,
		RetryableError: func(err error) bool {
			return true
		},
	}

	ctx := context.Background()

	err := Retry(ctx, config, func(ctx context.Context) error {
		attempts++
		if attempts < maxAttempts {
			return New(ErrCodeConnectionTimeout, "Timeout").AsRecoverable()
		}
		return nil
	})

	if err != nil {
		t.Error("Expected retry to succeed")
	}

	if attempts != maxAttempts {
		t.Errorf("Expected %d attempts, got %d", maxAttempts, attempts)
	}
}

func TestCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 100*time.Millisecond)
	ctx := context.Background()

	err := cb.Execute(ctx, func() error {
		return fmt.Errorf("failure 1")
	})
	if err == nil {
		t.Error("Expected error")
	}

	// Second failure opens the circuit
	err = cb.Execute(ctx, func() error {
		return fmt.Errorf("failure 2")
	})
	if err == nil {
		t.Error("Expected error")
	}

	err = cb.Execute(ctx, func() error {
		return nil
	})
	if err == nil {
		t.Error("Expected circuit breaker to be open")
	}

	time.Sleep(150 * time.Millisecond)

	// Half-open now, success should close it
	err = cb.Execute(ctx, func() error {
		return nil
	})
	if err != nil {
		t.Error("Expected success after reset")
	}

	if cb.GetState() != "closed" {
		t.Errorf("Expected circuit to be closed, got %s", cb.GetState())
	}
}

func TestErrorCodes(t *testing.T) {
	err1 := New(ErrCodeConnectionFailed, "Test")
	if GetErrorCode(err1) != ErrCodeConnectionFailed {
		t.Error("Failed to extract error code from AppError")
	}

	err2 := fmt.Errorf("regular error")
	if GetErrorCode(err2) != ErrCodeInternal {
		t.Error("Should return internal error code for non-AppError")
	}
}

func TestErrorSeverity(t *testing.T) {
	tests := []struct {
		severity ErrorSeverity
		err      *AppError
	}{
		{
			severity: SeverityCritical,
			err:      New(ErrCodeInternal, "Critical error").WithSeverity(SeverityCritical),
		},
		{
			severity: SeverityWarning,
			err:      New(ErrCodeValidationFailed, "Warning").WithSeverity(SeverityWarning),
		},
	}

	for _, tt := range tests {
		if tt.err.Severity != tt.severity {
			t.Errorf("Expected severity %s, got %s", tt.severity, tt.err.Severity)
		}
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(ValidationError("workers", -1, "must be positive")) {
		t.Error("Validation errors should be recoverable")
	}
	if IsRecoverable(DuplicateKeyError("campaign_costs", "campaign_id", "c-1")) {
		t.Error("Duplicate key errors should not be recoverable")
	}
}
