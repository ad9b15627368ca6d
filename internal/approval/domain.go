// Package approval turns a pending online booking into an approved one:
// staff pick the stay dates, assign physical rooms, review the receipt and
// submit.
package approval

import (
	"time"

	"github.com/google/uuid"

	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/shared"
)

// State of the room selection.
type State string

const (
	StateSelecting State = "selecting"
	StateReady     State = "ready"
	StateSubmitted State = "submitted"
)

// flowError is a guard failure with a message fit for the operator.
type flowError struct {
	kind error
	msg  string
}

func (e *flowError) Error() string       { return e.msg }
func (e *flowError) Unwrap() error       { return e.kind }
func (e *flowError) UserMessage() string { return e.msg }

var (
	ErrRoomConflict        error = &flowError{shared.ErrConflict, "Room is already booked for these dates"}
	ErrSelectionFull       error = &flowError{shared.ErrConflict, "All required rooms are already selected"}
	ErrAlreadySubmitted    error = &flowError{shared.ErrConflict, "This approval was already submitted"}
	ErrSelectionIncomplete error = &flowError{shared.ErrValidation, "Select the required number of rooms first"}
	ErrDatesMissing        error = &flowError{shared.ErrValidation, "Set the check-in and check-out dates first"}
	ErrNoApproval          error = &flowError{shared.ErrNotFound, "No approval in progress"}
)

// RoomSelection is a physical room assigned during approval.
type RoomSelection struct {
	RoomID     string  `json:"room_id"`
	RoomNumber string  `json:"room_number"`
	RoomType   string  `json:"room_type"`
	UnitPrice  float64 `json:"unit_price"`
}

// Context is the in-progress approval of one booking by one staff session.
type Context struct {
	ID            uuid.UUID        `json:"id"`
	BookingID     string           `json:"booking_id"`
	Booking       bookings.Booking `json:"booking"`
	CheckIn       time.Time        `json:"check_in"`
	CheckOut      time.Time        `json:"check_out"`
	RequiredRooms int              `json:"required_rooms"`
	Selected      []RoomSelection  `json:"selected"`
	State         State            `json:"state"`
	StaffID       string           `json:"staff_id"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// HasDates reports whether both stay dates are set.
func (c *Context) HasDates() bool {
	return !c.CheckIn.IsZero() && !c.CheckOut.IsZero()
}

// Nights of the chosen stay.
func (c *Context) Nights() int {
	return billing.Nights(c.CheckIn, c.CheckOut)
}

// IsSelected reports whether roomID is part of the selection.
func (c *Context) IsSelected(roomID string) bool {
	return c.indexOf(roomID) >= 0
}

// Toggle adds or removes a room. Adding is refused when the room conflicts
// with the stay or the selection is already complete.
func (c *Context) Toggle(room RoomSelection, conflict bool) error {
	if c.State == StateSubmitted {
		return ErrAlreadySubmitted
	}
	if i := c.indexOf(room.RoomID); i >= 0 {
		c.Selected = append(c.Selected[:i], c.Selected[i+1:]...)
		c.refresh()
		return nil
	}
	if conflict {
		return ErrRoomConflict
	}
	if len(c.Selected) >= c.RequiredRooms {
		return ErrSelectionFull
	}
	c.Selected = append(c.Selected, room)
	c.refresh()
	return nil
}

// Confirm is the guard in front of the receipt.
func (c *Context) Confirm() error {
	switch {
	case c.State == StateSubmitted:
		return ErrAlreadySubmitted
	case !c.HasDates():
		return ErrDatesMissing
	case len(c.Selected) != c.RequiredRooms:
		return ErrSelectionIncomplete
	}
	return nil
}

func (c *Context) refresh() {
	if c.State == StateSubmitted {
		return
	}
	if len(c.Selected) == c.RequiredRooms {
		c.State = StateReady
	} else {
		c.State = StateSelecting
	}
}

func (c *Context) indexOf(roomID string) int {
	for i, s := range c.Selected {
		if s.RoomID == roomID {
			return i
		}
	}
	return -1
}

func (c *Context) roomLines() []billing.RoomLine {
	lines := make([]billing.RoomLine, 0, len(c.Selected))
	for _, s := range c.Selected {
		label := s.RoomType
		if s.RoomNumber != "" {
			label = s.RoomType + " " + s.RoomNumber
		}
		lines = append(lines, billing.RoomLine{RoomID: s.RoomID, Label: label, UnitPrice: s.UnitPrice})
	}
	return lines
}

// Candidate is a room offered for the stay.
type Candidate struct {
	RoomSelection
	Status    string `json:"status"`
	Requested bool   `json:"requested"`
	Conflict  bool   `json:"conflict"`
	Selected  bool   `json:"selected"`
}

// Receipt is the review step before submitting.
type Receipt struct {
	BookingID    string          `json:"booking_id"`
	Reference    string          `json:"reference"`
	CustomerName string          `json:"customer_name"`
	CheckIn      time.Time       `json:"check_in"`
	CheckOut     time.Time       `json:"check_out"`
	Rooms        []RoomSelection `json:"rooms"`
	Summary      billing.Summary `json:"summary"`
	Display      billing.Display `json:"display"`
}

// Result is returned after a successful submit.
type Result struct {
	BookingID string          `json:"booking_id"`
	RefID     uuid.UUID       `json:"ref_id"`
	Summary   billing.Summary `json:"summary"`
}
