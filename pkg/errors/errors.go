package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Warehouse connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "ROI1001"
	ErrCodeConnectionTimeout    ErrorCode = "ROI1002"
	ErrCodeAuthenticationFailed ErrorCode = "ROI1003"
	ErrCodeNetworkUnavailable   ErrorCode = "ROI1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound     ErrorCode = "ROI2001"
	ErrCodeConfigInvalid      ErrorCode = "ROI2002"
	ErrCodeEnvironmentUnknown ErrorCode = "ROI2003"

	// Feed ingestion errors (3xxx)
	ErrCodeFeedRead        ErrorCode = "ROI3001"
	ErrCodeFeedHeader      ErrorCode = "ROI3002"
	ErrCodeMalformedRecord ErrorCode = "ROI3003"
	ErrCodeDuplicateKey    ErrorCode = "ROI3004"

	// Pipeline errors (4xxx)
	ErrCodeMissingCostReference ErrorCode = "ROI4001"
	ErrCodePipelineStage        ErrorCode = "ROI4002"
	ErrCodeAnomalyThreshold     ErrorCode = "ROI4003"

	// File system errors (5xxx)
	ErrCodeFileNotFound  ErrorCode = "ROI5001"
	ErrCodeFileOperation ErrorCode = "ROI5002"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "ROI6001"
	ErrCodeRequiredField    ErrorCode = "ROI6002"

	// Materialization errors (7xxx)
	ErrCodeSQLExecution      ErrorCode = "ROI7001"
	ErrCodeMaterializeFailed ErrorCode = "ROI7002"
	ErrCodeNoResults         ErrorCode = "ROI7003"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "ROI9001"
	ErrCodeTimeout            ErrorCode = "ROI9002"
	ErrCodeResourceExhausted  ErrorCode = "ROI9003"
	ErrCodeServiceUnavailable ErrorCode = "ROI9004"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit some properties
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a warehouse connection error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		WithSuggestions(
			"Check your network connection",
			"Verify the Snowflake endpoint is accessible",
			"Check firewall settings",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'roiflow setup' to reconfigure",
		)
}

// FeedError creates a feed ingestion error
func FeedError(message string, feed string, cause error) *AppError {
	return Wrap(cause, ErrCodeFeedRead, message).
		WithContext("feed", feed).
		WithSuggestions(
			"Verify the feed source exists and is readable",
			"Check the feed column layout against the expected schema",
		)
}

// DuplicateKeyError creates a fatal duplicate-key error. Duplicate device IDs
// in the registration feed or duplicate campaign IDs in the cost reference
// violate downstream uniqueness invariants, so the run aborts before any
// output is materialized.
func DuplicateKeyError(feed, key, value string) *AppError {
	return New(ErrCodeDuplicateKey, fmt.Sprintf("Duplicate %s %q in %s feed", key, value, feed)).
		WithSeverity(SeverityCritical).
		WithContext("feed", feed).
		WithContext("key", key).
		WithContext("value", value).
		WithSuggestions(
			"Deduplicate the source feed before running the pipeline",
			"Check the upstream export for accidental fan-out",
		)
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	if strings.Contains(message, "permission") || strings.Contains(message, "access denied") {
		_ = err.WithSuggestions(
			"Check user permissions in Snowflake",
			"Verify the role has required privileges",
		)
	} else if strings.Contains(message, "timeout") {
		err.Code = ErrCodeTimeout
		_ = err.WithSuggestions(
			"Increase the query timeout setting",
			"Check Snowflake warehouse size",
		)
	}

	return err
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
