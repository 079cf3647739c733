// Package taskerrors implements the error taxonomy of spec §7: typed
// wrappers the executor's retry policy classifies on, plus the
// plan-level and task-level error kinds specific to the task graph.
package taskerrors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType classifies an error for retry logic.
type ErrorType int

const (
	ErrorTypeTransient ErrorType = iota
	ErrorTypePermanent
	ErrorTypeDegraded
)

// TransientError wraps an error that can be retried.
type TransientError struct {
	Err     error
	Message string
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps an error that must not be retried.
type PermanentError struct {
	Err     error
	Message string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}
func (e *PermanentError) Unwrap() error { return e.Err }

// DegradedError wraps an error where a fallback result is acceptable.
type DegradedError struct {
	Err             error
	FallbackContent string
	Message         string
}

func (e *DegradedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("degraded error: %v", e.Err)
}
func (e *DegradedError) Unwrap() error { return e.Err }

// PlanValidationError — dependency unresolved, cycle detected, or a
// sanity gate tripped. Not retried; a user-facing apology is returned.
type PlanValidationError struct{ Reason string }

func (e *PlanValidationError) Error() string { return "plan rejected: " + e.Reason }

// ToolTransportError — network/timeout/5xx talking to a tool transport.
// Retried per policy, then fallback tool if set, else surfaced as task
// failure.
type ToolTransportError struct {
	Tool string
	Err  error
}

func (e *ToolTransportError) Error() string {
	return fmt.Sprintf("tool %q transport error: %v", e.Tool, e.Err)
}
func (e *ToolTransportError) Unwrap() error { return e.Err }

// ToolDomainError — the tool ran but returned success:false. Treated
// like ToolTransportError for retry policy, but the message is
// surfaced verbatim to the composer.
type ToolDomainError struct {
	Tool    string
	Message string
}

func (e *ToolDomainError) Error() string {
	return fmt.Sprintf("tool %q reported failure: %s", e.Tool, e.Message)
}

// ParameterResolutionError — an upstream referenced in parameters
// produced no value. Fatal for the dependent task; never retried.
type ParameterResolutionError struct {
	TaskID    string
	ParamName string
	FromTask  string
	Path      string
}

func (e *ParameterResolutionError) Error() string {
	return fmt.Sprintf("task %q: parameter %q references %s.%s which resolved to no value",
		e.TaskID, e.ParamName, e.FromTask, e.Path)
}

// ConfirmationTimeoutError — pending confirmation context expired.
type ConfirmationTimeoutError struct{ SessionID string }

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("confirmation for session %q timed out", e.SessionID)
}

// SystemError — any uncaught failure inside the executor loop, mapped
// to the "system" pseudo-task id.
type SystemError struct{ Err error }

func (e *SystemError) Error() string { return fmt.Sprintf("system error: %v", e.Err) }
func (e *SystemError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}
	var pve *PlanValidationError
	if errors.As(err, &pve) {
		return false
	}
	var pre *ParameterResolutionError
	if errors.As(err, &pre) {
		return false
	}
	var tte *ToolTransportError
	if errors.As(err, &tte) {
		return true
	}
	var tde *ToolDomainError
	if errors.As(err, &tde) {
		return true
	}
	if isNetworkError(err) {
		return true
	}
	if isSyscallError(err) {
		return true
	}
	return false
}

// IsPermanent reports whether err must never be retried.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return true
	}
	var pve *PlanValidationError
	if errors.As(err, &pve) {
		return true
	}
	var pre *ParameterResolutionError
	if errors.As(err, &pre) {
		return true
	}
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return false
	}
	lowerErr := strings.ToLower(err.Error())
	for _, pattern := range []string{"not found", "permission denied", "invalid", "unauthorized", "forbidden", "bad request"} {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}
	return false
}

// IsDegraded reports whether err allows continuing with a fallback.
func IsDegraded(err error) bool {
	var degradedErr *DegradedError
	return errors.As(err, &degradedErr)
}

// GetErrorType classifies err into the three-way taxonomy.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}
	if IsDegraded(err) {
		return ErrorTypeDegraded
	}
	if IsTransient(err) {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

// FormatForUser renders err as a user-friendly apology and hint, never
// a raw stack trace, per spec §4.9 / §7.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}

	var tde *ToolDomainError
	if errors.As(err, &tde) {
		return fmt.Sprintf("Sorry, that step ran into a problem: %s", tde.Message)
	}
	var cte *ConfirmationTimeoutError
	if errors.As(err, &cte) {
		return "Sorry, I waited too long for your confirmation, so I dropped that request. Please ask again."
	}
	var pve *PlanValidationError
	if errors.As(err, &pve) {
		return "Sorry, I couldn't work out a safe plan for that request. Could you rephrase it?"
	}
	var se *SystemError
	if errors.As(err, &se) {
		return "Sorry, something went wrong on my end. Please try again."
	}

	lowerErr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerErr, "connection refused"):
		return "Sorry, one of the services I depend on isn't reachable right now. Please try again shortly."
	case strings.Contains(lowerErr, "rate limit") || strings.Contains(lowerErr, "429"):
		return "Sorry, I'm being rate-limited right now. Please try again in a moment."
	case strings.Contains(lowerErr, "timeout") || strings.Contains(lowerErr, "deadline exceeded"):
		return "Sorry, that took too long to respond. Please try again."
	case strings.Contains(lowerErr, "unauthorized") || strings.Contains(lowerErr, "401"):
		return "Sorry, I couldn't authenticate that request."
	case strings.Contains(lowerErr, "permission denied") || strings.Contains(lowerErr, "403"):
		return "Sorry, you don't have permission for that."
	case strings.Contains(lowerErr, "not found") || strings.Contains(lowerErr, "404"):
		return "Sorry, I couldn't find that."
	default:
		return "Sorry, I ran into a problem handling that request."
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "timeout", "deadline exceeded", "network", "dns", "connection reset", "broken pipe"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func isSyscallError(err error) bool {
	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.EPIPE, syscall.ETIMEDOUT, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return true
		}
	}
	return false
}

// NewTransientError builds a TransientError with a user-friendly message.
func NewTransientError(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError builds a PermanentError with a user-friendly message.
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}

// NewDegradedError builds a DegradedError carrying fallback content.
func NewDegradedError(err error, message, fallback string) *DegradedError {
	return &DegradedError{Err: err, Message: message, FallbackContent: fallback}
}
