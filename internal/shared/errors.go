package shared

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks client-side validation failures.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks state conflicts (date overlaps, invalid transitions).
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the session lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates a missing or anonymous session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUpstream indicates the PHP backend could not be reached or answered garbage.
	ErrUpstream = errors.New("backend unavailable")
	// ErrRejected indicates the PHP backend reported a business failure.
	ErrRejected = errors.New("rejected by backend")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage collapses an error chain into the single line shown to the
// operator. Upstream transport details are hidden.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstream):
		return "The hotel service is unavailable, please try again"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrUnauthorized):
		return "Please sign in to continue"
	case errors.Is(err, ErrForbidden):
		return "You are not allowed to perform this action"
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
