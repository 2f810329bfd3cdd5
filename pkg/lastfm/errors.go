package lastfm

import (
	"errors"
	"fmt"
)

// Error represents a Last.fm API error.
//
// The Error type carries the Last.fm error code and message. It
// implements error, and provides additional methods for retry logic.
type Error struct {
	Code    int    // Last.fm error code
	Message string // Error message from Last.fm
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
}

// Is checks if the target error is a Last.fm error with the same code.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Temporary returns true if the error is temporary and the request
// should be retried.
//
// The following Last.fm error codes are considered temporary:
//   - 11: Service Offline - temporarily unavailable
//   - 16: Service Temporarily Unavailable
//   - 29: Rate Limit Exceeded
func (e *Error) Temporary() bool {
	switch e.Code {
	case ErrCodeServiceOffline, ErrCodeTempUnavailable, ErrCodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

// NotFound reports whether the error means the requested user, album
// or track does not exist.
func (e *Error) NotFound() bool {
	return e.Code == ErrCodeInvalidParameters
}

// Common Last.fm error codes.
const (
	ErrCodeInvalidService      = 2
	ErrCodeInvalidMethod       = 3
	ErrCodeInvalidFormat       = 5
	ErrCodeInvalidParameters   = 6
	ErrCodeInvalidResourceSpec = 7
	ErrCodeOperationFailed     = 8
	ErrCodeInvalidAPIKey       = 10
	ErrCodeServiceOffline      = 11
	ErrCodeTempUnavailable     = 16
	ErrCodeSuspendedAPIKey     = 26
	ErrCodeRateLimitExceeded   = 29
)

// ErrInvalidConfig is returned when client configuration is invalid.
var ErrInvalidConfig = errors.New("lastfm: invalid configuration")

// IsNotFound reports whether err is a Last.fm "not found" error.
func IsNotFound(err error) bool {
	var lastfmErr *Error
	if errors.As(err, &lastfmErr) {
		return lastfmErr.NotFound()
	}
	return false
}
