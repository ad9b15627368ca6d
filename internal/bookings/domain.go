// Package bookings lists bookings, moves them through their lifecycle and
// creates walk-in and customer bookings.
package bookings

import (
	"strings"
	"time"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/billing"
)

// Status enumerates booking statuses as the backend spells them.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusConfirmed  Status = "Confirmed"
	StatusApproved   Status = "Approved"
	StatusCheckedIn  Status = "Checked-In"
	StatusCheckedOut Status = "Checked-Out"
	StatusDeclined   Status = "Declined"
	StatusCancelled  Status = "Cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusDeclined, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusApproved:  {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseStatus normalizes a status string, accepting any casing and
// "Checked In" spelled with a space.
func ParseStatus(s string) Status {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
	for _, st := range []Status{StatusPending, StatusConfirmed, StatusApproved, StatusCheckedIn, StatusCheckedOut, StatusDeclined, StatusCancelled} {
		if strings.ToLower(string(st)) == key {
			return st
		}
	}
	if key == "canceled" {
		return StatusCancelled
	}
	return Status(strings.TrimSpace(s))
}

// RequestedRoom is one line of the rooms a guest asked for.
type RequestedRoom struct {
	RoomTypeID string  `json:"room_type_id"`
	RoomType   string  `json:"room_type"`
	Count      int     `json:"count"`
	UnitPrice  float64 `json:"unit_price"`
}

// Booking is a stay as the backend stores it.
type Booking struct {
	ID             string          `json:"id"`
	Reference      string          `json:"reference"`
	CustomerID     string          `json:"customer_id,omitempty"`
	CustomerName   string          `json:"customer_name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Walkin         bool            `json:"walkin"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	Adults         int             `json:"adults"`
	Children       int             `json:"children"`
	Status         Status          `json:"status"`
	TotalAmount    float64         `json:"total_amount"`
	VAT            float64         `json:"vat"`
	Downpayment    float64         `json:"downpayment"`
	Balance        *float64        `json:"balance,omitempty"`
	RequestedRooms []RequestedRoom `json:"requested_rooms"`
	CreatedAt      time.Time       `json:"created_at,omitempty"`
}

// Totals returns the persisted amounts for the calculator fallback.
func (b Booking) Totals() billing.BookingTotals {
	return billing.BookingTotals{
		TotalAmount: b.TotalAmount,
		VAT:         b.VAT,
		Downpayment: b.Downpayment,
		Balance:     b.Balance,
	}
}

// RequiredRooms is how many rooms must be assigned on approval, at least one.
func (b Booking) RequiredRooms() int {
	n := 0
	for _, r := range b.RequestedRooms {
		if r.Count > 0 {
			n += r.Count
		} else {
			n++
		}
	}
	if n < 1 {
		return 1
	}
	return n
}

// Nights is the length of the booked stay.
func (b Booking) Nights() int {
	return billing.Nights(b.CheckIn, b.CheckOut)
}

// Filter narrows the booking list.
type Filter struct {
	Status  Status
	Search  string
	Online  bool
	Page    int
	PerPage int
}

// Guest identifies the customer of a walk-in booking.
type Guest struct {
	FirstName string `json:"first_name" validate:"required,personname"`
	LastName  string `json:"last_name" validate:"required,personname"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phmobile"`
}

// WalkInRoom is a specific room assigned at the desk.
type WalkInRoom struct {
	RoomID    string  `json:"room_id" validate:"required"`
	RoomType  string  `json:"room_type"`
	UnitPrice float64 `json:"unit_price" validate:"gt=0"`
}

// WalkInRequest creates a booking for a guest without an online account.
type WalkInRequest struct {
	Guest    Guest        `json:"guest"`
	CheckIn  string       `json:"check_in" validate:"required"`
	CheckOut string       `json:"check_out" validate:"required"`
	Adults   int          `json:"adults" validate:"gte=1"`
	Children int          `json:"children" validate:"gte=0"`
	Rooms    []WalkInRoom `json:"rooms" validate:"required,min=1,dive"`
	Paid     float64      `json:"amount_paid" validate:"gte=0"`
	Method   string       `json:"payment_method" validate:"omitempty,oneof=cash gcash card bank_transfer"`
}

// RoomRequest asks for a number of rooms of one type.
type RoomRequest struct {
	RoomTypeID string `json:"room_type_id" validate:"required"`
	Count      int    `json:"count" validate:"gte=0"`
}

// CustomerBookingRequest is a booking placed from the customer portal.
type CustomerBookingRequest struct {
	CheckIn  string        `json:"check_in" validate:"required"`
	CheckOut string        `json:"check_out" validate:"required"`
	Adults   int           `json:"adults" validate:"gte=1"`
	Children int           `json:"children" validate:"gte=0"`
	Rooms    []RoomRequest `json:"rooms" validate:"required,min=1,dive"`
}

// Created is the outcome of a booking submission.
type Created struct {
	BookingID string          `json:"booking_id,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Summary   billing.Summary `json:"summary"`
	Display   billing.Display `json:"display"`
}

type requestedRoomRecord struct {
	RoomTypeID backend.ID     `json:"room_type_id"`
	RoomType   string         `json:"roomtype_name"`
	Count      backend.Int    `json:"room_count"`
	UnitPrice  backend.Number `json:"roomtype_price"`
}

type bookingRecord struct {
	ID          backend.ID            `json:"booking_id"`
	Reference   string                `json:"reference_no"`
	CustomerID  backend.ID            `json:"customers_id"`
	FirstName   string                `json:"customers_fname"`
	LastName    string                `json:"customers_lname"`
	FullName    string                `json:"fullname"`
	Email       string                `json:"customers_email"`
	Phone       string                `json:"customers_phone"`
	WalkinID    backend.ID            `json:"customers_walk_in_id"`
	CheckIn     backend.Time          `json:"booking_checkin_dateandtime"`
	CheckOut    backend.Time          `json:"booking_checkout_dateandtime"`
	Adults      backend.Int           `json:"adult"`
	Children    backend.Int           `json:"children"`
	Status      string                `json:"booking_status"`
	TotalAmount backend.Number        `json:"booking_total_amount"`
	VAT         backend.Number        `json:"booking_vat"`
	Downpayment backend.Number        `json:"booking_downpayment"`
	Balance     *backend.Number       `json:"booking_balance"`
	RoomDetails []requestedRoomRecord `json:"room_details"`
	CreatedAt   backend.Time          `json:"booking_created_at"`
}

func (r bookingRecord) booking() Booking {
	name := strings.TrimSpace(r.FullName)
	if name == "" {
		name = strings.TrimSpace(r.FirstName + " " + r.LastName)
	}
	b := Booking{
		ID:           r.ID.String(),
		Reference:    r.Reference,
		CustomerID:   r.CustomerID.String(),
		CustomerName: name,
		Email:        r.Email,
		Phone:        r.Phone,
		Walkin:       r.WalkinID != "" && r.WalkinID != "0",
		CheckIn:      r.CheckIn.Time,
		CheckOut:     r.CheckOut.Time,
		Adults:       int(r.Adults),
		Children:     int(r.Children),
		Status:       ParseStatus(r.Status),
		TotalAmount:  r.TotalAmount.Float64(),
		VAT:          r.VAT.Float64(),
		Downpayment:  r.Downpayment.Float64(),
		CreatedAt:    r.CreatedAt.Time,
	}
	if r.Balance != nil {
		v := r.Balance.Float64()
		b.Balance = &v
	}
	for _, d := range r.RoomDetails {
		b.RequestedRooms = append(b.RequestedRooms, RequestedRoom{
			RoomTypeID: d.RoomTypeID.String(),
			RoomType:   d.RoomType,
			Count:      int(d.Count),
			UnitPrice:  d.UnitPrice.Float64(),
		})
	}
	return b
}
