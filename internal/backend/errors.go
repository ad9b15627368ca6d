package backend

import (
	"fmt"

	"github.com/hotelia/frontdesk/internal/shared"
)

var (
	// ErrTransport covers network failures and non-2xx answers.
	ErrTransport = fmt.Errorf("%w: transport", shared.ErrUpstream)
	// ErrDecode covers bodies that are not valid JSON or not the expected shape.
	ErrDecode = fmt.Errorf("%w: unreadable response", shared.ErrUpstream)
	// ErrRejected matches every RejectedError.
	ErrRejected = shared.ErrRejected
)

// RejectedError is a business failure reported by the backend.
type RejectedError struct {
	Action  string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s rejected: %s", e.Action, e.Message)
	}
	return e.Action + " rejected"
}

// Unwrap ties the error to ErrRejected.
func (e *RejectedError) Unwrap() error { return ErrRejected }

// UserMessage returns the backend's own message when it sent one.
func (e *RejectedError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "The request was not accepted, please review and try again"
}
