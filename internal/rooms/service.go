package rooms

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/format"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Service answers room queries from the backend.
type Service struct {
	backend backend.Caller
	now     func() time.Time
}

// NewService builds Service instance.
func NewService(caller backend.Caller) *Service {
	return &Service{backend: caller, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Types lists every room type.
func (s *Service) Types(ctx context.Context) ([]RoomType, error) {
	resp, err := s.backend.Call(ctx, backend.Customer, "getRoomTypes", nil)
	if err != nil {
		return nil, fmt.Errorf("room types: %w", err)
	}
	var records []roomTypeRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("room types: %w", err)
	}
	types := make([]RoomType, 0, len(records))
	for _, r := range records {
		types = append(types, r.roomType())
	}
	return types, nil
}

// NightlyRates maps room type ids to their nightly price.
func (s *Service) NightlyRates(ctx context.Context) (map[string]float64, error) {
	types, err := s.Types(ctx)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]float64, len(types))
	for _, t := range types {
		rates[t.ID] = t.Price
	}
	return rates, nil
}

// Search lists room types free for the whole stay.
func (s *Service) Search(ctx context.Context, c Criteria) (SearchResult, error) {
	if err := shared.Validate(c); err != nil {
		return SearchResult{}, err
	}
	in, out, err := s.stay(c)
	if err != nil {
		return SearchResult{}, err
	}
	resp, err := s.backend.Call(ctx, backend.Customer, "getAvailableRooms", map[string]any{
		"checkIn":  in.Format("2006-01-02"),
		"checkOut": out.Format("2006-01-02"),
		"adult":    c.Adults,
		"children": c.Children,
	})
	if err != nil {
		return SearchResult{}, fmt.Errorf("search rooms: %w", err)
	}
	var records []roomTypeRecord
	if err := resp.DecodeList(&records); err != nil {
		return SearchResult{}, fmt.Errorf("search rooms: %w", err)
	}
	nights := billing.Nights(in, out)
	result := SearchResult{Criteria: c, Nights: nights, Rooms: make([]Availability, 0, len(records))}
	for _, r := range records {
		rt := r.roomType()
		available := int(r.Available)
		if available <= 0 {
			continue
		}
		needed := (c.Guests() + rt.Capacity - 1) / rt.Capacity
		summary := billing.ComputeSelection([]billing.RoomLine{{RoomID: rt.ID, Label: rt.Name, UnitPrice: rt.Price, Quantity: needed}}, nights)
		result.Rooms = append(result.Rooms, Availability{
			RoomType:     rt,
			Available:    available,
			RoomsNeeded:  needed,
			Fits:         available >= needed,
			StayTotal:    billing.Round2(summary.GrandTotal),
			DisplayPrice: format.Currency(rt.Price),
			Summary:      summary.Display(),
		})
	}
	return result, nil
}

// Quote prices a prospective customer booking.
func (s *Service) Quote(ctx context.Context, c Criteria, rooms []bookings.RoomRequest) (billing.Summary, error) {
	if err := shared.Validate(c); err != nil {
		return billing.Summary{}, err
	}
	if len(rooms) == 0 {
		return billing.Summary{}, shared.Invalid("rooms", "Select at least one room")
	}
	in, out, err := s.stay(c)
	if err != nil {
		return billing.Summary{}, err
	}
	rates, err := s.NightlyRates(ctx)
	if err != nil {
		return billing.Summary{}, err
	}
	lines := make([]billing.RoomLine, 0, len(rooms))
	for _, r := range rooms {
		price, ok := rates[r.RoomTypeID]
		if !ok {
			return billing.Summary{}, shared.Invalid("rooms", fmt.Sprintf("Room type %s is not available", r.RoomTypeID))
		}
		lines = append(lines, billing.RoomLine{RoomID: r.RoomTypeID, UnitPrice: price, Quantity: r.Count})
	}
	return billing.ComputeSelection(lines, billing.Nights(in, out)), nil
}

// Inventory lists physical rooms with their booked stays.
func (s *Service) Inventory(ctx context.Context) ([]Room, error) {
	resp, err := s.backend.Call(ctx, backend.Admin, "getRoomsWithBookings", nil)
	if err != nil {
		return nil, fmt.Errorf("room inventory: %w", err)
	}
	var records []roomRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("room inventory: %w", err)
	}
	out := make([]Room, 0, len(records))
	for _, r := range records {
		out = append(out, r.room())
	}
	return out, nil
}

func (s *Service) stay(c Criteria) (time.Time, time.Time, error) {
	in, err := format.ParseDate(c.CheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, shared.Invalid("check_in", "Enter a valid check-in date")
	}
	out, err := format.ParseDate(c.CheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, shared.Invalid("check_out", "Enter a valid check-out date")
	}
	return bookings.ValidateStay(in, out, s.now(), true)
}

// Remember stores the search in the session for the booking form.
func Remember(sess *shared.Session, c Criteria) {
	if sess == nil {
		return
	}
	sess.Set(SessionCheckIn, c.CheckIn)
	sess.Set(SessionCheckOut, c.CheckOut)
	sess.Set(SessionAdult, strconv.Itoa(c.Adults))
	sess.Set(SessionChildren, strconv.Itoa(c.Children))
}

// Recall returns the last search stored in the session.
func Recall(sess *shared.Session) (Criteria, bool) {
	if sess == nil || strings.TrimSpace(sess.Get(SessionCheckIn)) == "" {
		return Criteria{}, false
	}
	adults, _ := strconv.Atoi(sess.Get(SessionAdult))
	children, _ := strconv.Atoi(sess.Get(SessionChildren))
	return Criteria{
		CheckIn:  sess.Get(SessionCheckIn),
		CheckOut: sess.Get(SessionCheckOut),
		Adults:   adults,
		Children: children,
	}, true
}
