package service

import "fmt"

// Reason is a machine-readable failure class surfaced to API consumers.
type Reason string

const (
	ReasonMissingParameter      Reason = "missing-parameter"
	ReasonPrivate               Reason = "private"
	ReasonUnavailable           Reason = "unavailable"
	ReasonNoCaptions            Reason = "no-captions"
	ReasonNoCaptionsForLanguage Reason = "no-captions-for-language"
	ReasonFetchFailed           Reason = "fetch-failed"
	ReasonRateLimited           Reason = "rate-limited"
)

// ResolveError is the structured failure type for resolution operations.
type ResolveError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

func newError(reason Reason, format string, args ...any) *ResolveError {
	return &ResolveError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func wrapError(reason Reason, cause error, format string, args ...any) *ResolveError {
	return &ResolveError{Reason: reason, Message: fmt.Sprintf(format, args...), Cause: cause}
}
