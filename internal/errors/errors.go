// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// kernel, tolerance, statistical) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types carrying a cause implement Unwrap() to support errors.Is()
// and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
const (
	ExitSuccess        = 0   // Benchmark ran and the report passed.
	ExitErrorGeneric   = 1   // A generic error prevented the benchmark from completing.
	ExitErrorTimeout   = 2   // A deadline expired.
	ExitErrorBenchmark = 3   // The benchmark completed but the report carries a failure.
	ExitErrorConfig    = 4   // Invalid configuration.
	ExitErrorCanceled  = 130 // Canceled by signal (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// KernelError reports a failed call into a numerical kernel (SpMV,
// preconditioner, solver, halo exchange). Kernel errors are logged and
// counted; they never abort the benchmark.
type KernelError struct {
	// Kernel names the failing operation, e.g. "spmv" or "cg/optimized".
	Kernel string
	// Code is the kernel-specific return code, 0 when the kernel has none.
	Code int
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a message naming the kernel and its return code.
func (e KernelError) Error() string {
	msg := fmt.Sprintf("error in call to %s", e.Kernel)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s: code %d", msg, e.Code)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e KernelError) Unwrap() error { return e.Cause }

// NewKernelError creates a KernelError for the given kernel and return code.
func NewKernelError(kernel string, code int) error {
	return KernelError{Kernel: kernel, Code: code}
}

// AsKernelError wraps err as a KernelError for kernel. A nil err stays nil
// and an existing KernelError is returned unchanged.
func AsKernelError(kernel string, err error) error {
	if err == nil {
		return nil
	}
	var ke KernelError
	if errors.As(err, &ke) {
		return err
	}
	return KernelError{Kernel: kernel, Cause: err}
}

// ToleranceFailure records that the optimized solver did not reduce the
// residual as far as the reference solver did.
type ToleranceFailure struct {
	// ScaledResidual is the ratio the optimized solver reached.
	ScaledResidual float64
	// Target is the ratio the reference solver reached.
	Target float64
}

// Error returns the error message for a ToleranceFailure.
func (e ToleranceFailure) Error() string {
	return fmt.Sprintf("failed to reduce the residual: scaled residual %g exceeds target %g", e.ScaledResidual, e.Target)
}

// StatisticalRejection records that the normality test rejected the scaled
// residual samples of the timed runs.
type StatisticalRejection struct {
	// Test names the rejecting test.
	Test string
	// Reason explains why the samples were rejected.
	Reason string
}

// Error returns the error message for a StatisticalRejection.
func (e StatisticalRejection) Error() string {
	return fmt.Sprintf("%s rejected the samples: %s", e.Test, e.Reason)
}

// ServerError represents errors that occur in the HTTP server component.
// It wraps an underlying error with additional context specific to the server operation.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError represents an error due to invalid input validation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}
