// Package rooms serves room types, availability search and the physical
// room inventory used when assigning rooms.
package rooms

import (
	"time"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/format"
)

// Session keys holding the last search, shared with the booking form.
const (
	SessionCheckIn  = "checkIn"
	SessionCheckOut = "checkOut"
	SessionAdult    = "adult"
	SessionChildren = "children"
)

// RoomType is a sellable category of room.
type RoomType struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Capacity    int     `json:"capacity"`
	Image       string  `json:"image,omitempty"`
}

// Criteria are the inputs of an availability search.
type Criteria struct {
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`
	Adults   int    `json:"adults" validate:"gte=1,lte=20"`
	Children int    `json:"children" validate:"gte=0,lte=20"`
}

// Guests is the party size.
func (c Criteria) Guests() int { return c.Adults + c.Children }

// Availability is a room type with the number of free rooms for a stay.
type Availability struct {
	RoomType
	Available    int             `json:"available"`
	RoomsNeeded  int             `json:"rooms_needed"`
	Fits         bool            `json:"fits"`
	StayTotal    float64         `json:"stay_total"`
	DisplayPrice string          `json:"display_price"`
	Summary      billing.Display `json:"summary"`
}

// SearchResult answers an availability search.
type SearchResult struct {
	Criteria Criteria       `json:"criteria"`
	Nights   int            `json:"nights"`
	Rooms    []Availability `json:"rooms"`
}

// Interval is a half-open date range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open ranges intersect.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Room is a physical room with the stays already assigned to it.
type Room struct {
	ID       string     `json:"id"`
	Number   string     `json:"number"`
	TypeID   string     `json:"type_id"`
	TypeName string     `json:"type_name"`
	Price    float64    `json:"price"`
	Status   string     `json:"status"`
	Booked   []Interval `json:"booked"`
}

// ConflictsWith reports whether any booked stay overlaps stay.
func (r Room) ConflictsWith(stay Interval) bool {
	for _, b := range r.Booked {
		if b.Overlaps(stay) {
			return true
		}
	}
	return false
}

type roomTypeRecord struct {
	ID          backend.ID     `json:"roomtype_id"`
	Name        string         `json:"roomtype_name"`
	Description string         `json:"roomtype_description"`
	Price       backend.Number `json:"roomtype_price"`
	Capacity    backend.Int    `json:"max_capacity"`
	Image       string         `json:"roomtype_image"`
	Available   backend.Int    `json:"available_count"`
}

func (r roomTypeRecord) roomType() RoomType {
	capacity := int(r.Capacity)
	if capacity <= 0 {
		capacity = 2
	}
	return RoomType{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price.Float64(),
		Capacity:    capacity,
		Image:       r.Image,
	}
}

type stayRecord struct {
	CheckIn  backend.Time `json:"checkin_date"`
	CheckOut backend.Time `json:"checkout_date"`
}

type roomRecord struct {
	ID       backend.ID     `json:"roomnumber_id"`
	Number   string         `json:"roomnumber_name"`
	TypeID   backend.ID     `json:"roomtype_id"`
	TypeName string         `json:"roomtype_name"`
	Price    backend.Number `json:"roomtype_price"`
	Status   string         `json:"room_status"`
	Bookings []stayRecord   `json:"bookings"`
}

func (r roomRecord) room() Room {
	room := Room{
		ID:       r.ID.String(),
		Number:   r.Number,
		TypeID:   r.TypeID.String(),
		TypeName: r.TypeName,
		Price:    r.Price.Float64(),
		Status:   r.Status,
	}
	if room.Number == "" {
		room.Number = room.ID
	}
	for _, b := range r.Bookings {
		if b.CheckIn.IsZero() || b.CheckOut.IsZero() {
			continue
		}
		// Stays are compared by calendar day; a noon checkout frees the room
		// for a check-in on the same date.
		room.Booked = append(room.Booked, Interval{
			Start: format.CalendarDate(b.CheckIn.Time),
			End:   format.CalendarDate(b.CheckOut.Time),
		})
	}
	return room
}
