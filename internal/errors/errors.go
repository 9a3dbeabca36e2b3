package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Configuration errors - missing or invalid configuration
	ErrorTypeConfig ErrorType = iota
	// Validation errors - bad repository reference or invalid input
	ErrorTypeValidation
	// ToolUnavailable errors - the git binary could not be found
	ErrorTypeToolUnavailable
	// Command errors - git exited non-zero outside the benign empty case
	ErrorTypeCommand
	// Timeout errors - an external command exceeded its deadline
	ErrorTypeTimeout
	// Database errors - statistics store failures
	ErrorTypeDatabase
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - fails the current unit of work (a day) only
	SeverityMedium
	// SeverityHigh - significant issue, may impact functionality
	SeverityHigh
	// SeverityCritical - must be addressed, stops the whole run
	SeverityCritical
)

// Error represents a structured error with context
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is matches any *Error of the same type, so callers can test
// errors.Is(err, &Error{Type: ErrorTypeTimeout}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal returns true if this error should stop the whole run
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity),
		e.Type.String(),
		e.Message))

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}

	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	if e.StackTrace != "" {
		sb.WriteString(fmt.Sprintf("Stack trace:\n%s\n", e.StackTrace))
	}

	return sb.String()
}

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeToolUnavailable:
		return "TOOL_UNAVAILABLE"
	case ErrorTypeCommand:
		return "COMMAND"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeDatabase:
		return "DATABASE"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// captureStackTrace captures the current stack trace
func captureStackTrace(skip int) string {
	var sb strings.Builder
	for i := skip; i < skip+10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}
		sb.WriteString(fmt.Sprintf("  %s:%d %s\n", file, line, fn.Name()))
	}
	return sb.String()
}

// New creates a new error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      err,
		Context:    make(map[string]interface{}),
		StackTrace: captureStackTrace(2),
	}
}

// Convenience constructors for the engine's error taxonomy

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ValidationError creates a validation error. A bad repository reference
// aborts the run before any day is processed.
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityCritical, message)
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityCritical, fmt.Sprintf(format, args...))
}

// ToolUnavailableError wraps a failure to locate or start the git binary
func ToolUnavailableError(err error, message string) *Error {
	return Wrap(err, ErrorTypeToolUnavailable, SeverityCritical, message)
}

// CommandErrorf creates an error for a git invocation that exited non-zero.
// It is scoped to the day being processed.
func CommandErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeCommand, SeverityMedium, fmt.Sprintf(format, args...))
}

// TimeoutError wraps a deadline expiry on an external command
func TimeoutError(err error, message string) *Error {
	return Wrap(err, ErrorTypeTimeout, SeverityLow, message)
}

// DatabaseError wraps a statistics store error
func DatabaseError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabase, SeverityMedium, message)
}

// DatabaseErrorf wraps a statistics store error with formatting
func DatabaseErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeDatabase, SeverityMedium, fmt.Sprintf(format, args...))
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal checks if an error is fatal (should stop the run)
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}

	return false
}

// GetSeverity returns the severity of an error
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity
	}

	return SeverityMedium
}

// GetType returns the type of an error
func GetType(err error) ErrorType {
	if err == nil {
		return ErrorTypeInternal
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}

	return ErrorTypeInternal
}

// HasType reports whether any error in err's chain is an *Error of errType
func HasType(err error, errType ErrorType) bool {
	return stderrors.Is(err, &Error{Type: errType})
}

// Is forwards to the standard library so callers need a single import
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library so callers need a single import
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
