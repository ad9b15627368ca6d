package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/format"
	"github.com/hotelia/frontdesk/internal/shared"
)

// RateLookup resolves nightly prices by room type id.
type RateLookup interface {
	NightlyRates(ctx context.Context) (map[string]float64, error)
}

// Notifier is told when figures shown on the dashboard change.
type Notifier interface {
	DashboardChanged(ctx context.Context) error
}

// Service handles booking operations against the backend.
type Service struct {
	backend  backend.Caller
	rates    RateLookup
	audit    shared.AuditSink
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance. rates, audit and notifier may be nil.
func NewService(caller backend.Caller, rates RateLookup, audit shared.AuditSink, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: caller, rates: rates, audit: audit, notifier: notifier, logger: logger, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Page is one page of the booking list.
type Page struct {
	Bookings   []Booking         `json:"bookings"`
	Pagination shared.Pagination `json:"pagination"`
}

// All fetches every booking from the backend, newest first.
func (s *Service) All(ctx context.Context) ([]Booking, error) {
	resp, err := s.backend.Call(ctx, backend.Admin, "getBookingsWithBillingStatus", nil)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	var records []bookingRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	out := make([]Booking, 0, len(records))
	for _, r := range records {
		out = append(out, r.booking())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// List filters and paginates the booking list locally.
func (s *Service) List(ctx context.Context, filter Filter) (Page, error) {
	all, err := s.All(ctx)
	if err != nil {
		return Page{}, err
	}
	matched := make([]Booking, 0, len(all))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, b := range all {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.Online && b.Walkin {
			continue
		}
		if search != "" && !matches(b, search) {
			continue
		}
		matched = append(matched, b)
	}
	p := shared.NewPagination(filter.Page, filter.PerPage, len(matched))
	start, end := p.Bounds()
	return Page{Bookings: matched[start:end], Pagination: p}, nil
}

func matches(b Booking, needle string) bool {
	for _, field := range []string{b.Reference, b.CustomerName, b.Email, b.Phone, b.ID} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// PendingRequests lists online bookings waiting for approval, oldest first.
func (s *Service) PendingRequests(ctx context.Context) ([]Booking, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]Booking, 0)
	for _, b := range all {
		if b.Status == StatusPending && !b.Walkin {
			pending = append(pending, b)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}

// Get returns one booking.
func (s *Service) Get(ctx context.Context, id string) (Booking, error) {
	if strings.TrimSpace(id) == "" {
		return Booking{}, shared.Invalid("id", "booking id is required")
	}
	all, err := s.All(ctx)
	if err != nil {
		return Booking{}, err
	}
	for _, b := range all {
		if b.ID == id {
			return b, nil
		}
	}
	return Booking{}, fmt.Errorf("booking %s: %w", id, shared.ErrNotFound)
}

// CheckIn moves an approved or confirmed booking to Checked-In.
func (s *Service) CheckIn(ctx context.Context, actor, id string) (Booking, error) {
	return s.transition(ctx, actor, id, StatusCheckedIn)
}

// CheckOut moves a checked-in booking to Checked-Out.
func (s *Service) CheckOut(ctx context.Context, actor, id string) (Booking, error) {
	return s.transition(ctx, actor, id, StatusCheckedOut)
}

// Cancel cancels a booking that has not been checked in.
func (s *Service) Cancel(ctx context.Context, actor, id string) (Booking, error) {
	return s.transition(ctx, actor, id, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, actor, id string, to Status) (Booking, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if !CanTransition(current.Status, to) {
		return Booking{}, fmt.Errorf("%w: cannot move booking from %s to %s", shared.ErrConflict, current.Status, to)
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "changeBookingStatus", map[string]any{
		"booking_id":     id,
		"booking_status": string(to),
		"employee_id":    actor,
	})
	if err != nil {
		return Booking{}, fmt.Errorf("update booking %s: %w", id, err)
	}
	if err := resp.Check(); err != nil {
		return Booking{}, fmt.Errorf("update booking %s: %w", id, err)
	}
	s.record(ctx, actor, "booking."+strings.ToLower(string(to)), id, map[string]any{"from": string(current.Status), "to": string(to)})
	s.notify(ctx)
	return s.Get(ctx, id)
}

// CreateWalkIn books rooms at the desk. Check-in may be today.
func (s *Service) CreateWalkIn(ctx context.Context, actor string, req WalkInRequest) (Created, error) {
	req.Guest.FirstName = strings.TrimSpace(req.Guest.FirstName)
	req.Guest.LastName = strings.TrimSpace(req.Guest.LastName)
	req.Guest.Email = strings.TrimSpace(req.Guest.Email)
	req.Guest.Phone = strings.ReplaceAll(req.Guest.Phone, " ", "")
	if err := shared.Validate(req); err != nil {
		return Created{}, err
	}
	checkIn, checkOut, err := s.stay(req.CheckIn, req.CheckOut, false)
	if err != nil {
		return Created{}, err
	}
	if err := uniqueRooms(req.Rooms); err != nil {
		return Created{}, err
	}

	lines := make([]billing.RoomLine, 0, len(req.Rooms))
	for _, r := range req.Rooms {
		lines = append(lines, billing.RoomLine{RoomID: r.RoomID, Label: r.RoomType, UnitPrice: r.UnitPrice})
	}
	summary := billing.ComputeSelection(lines, billing.Nights(checkIn, checkOut)).Rounded()

	roomIDs := make([]string, 0, len(req.Rooms))
	for _, r := range req.Rooms {
		roomIDs = append(roomIDs, r.RoomID)
	}
	resp, err := s.backend.Call(ctx, backend.Admin, "addWalkInBooking", map[string]any{
		"customers_walk_in_fname":      req.Guest.FirstName,
		"customers_walk_in_lname":      req.Guest.LastName,
		"customers_walk_in_email":      req.Guest.Email,
		"customers_walk_in_phone":      req.Guest.Phone,
		"booking_checkin_dateandtime":  checkIn.Format("2006-01-02"),
		"booking_checkout_dateandtime": checkOut.Format("2006-01-02"),
		"adult":                        req.Adults,
		"children":                     req.Children,
		"room_ids":                     roomIDs,
		"booking_totalAmount":          summary.GrandTotal,
		"booking_vat":                  summary.VAT,
		"booking_downpayment":          summary.Downpayment,
		"booking_balance":              summary.Balance,
		"amount_paid":                  billing.Round2(req.Paid),
		"payment_method":               req.Method,
		"employee_id":                  actor,
	})
	if err != nil {
		return Created{}, fmt.Errorf("walk-in booking: %w", err)
	}
	if err := resp.Check(); err != nil {
		return Created{}, fmt.Errorf("walk-in booking: %w", err)
	}
	created := createdFrom(resp, summary)
	s.record(ctx, actor, "booking.walkin", firstNonEmpty(created.BookingID, created.Reference, "new"), map[string]any{"rooms": roomIDs, "grand_total": summary.GrandTotal})
	s.notify(ctx)
	return created, nil
}

// CreateCustomerBooking books rooms for a signed-in customer. Check-in must
// be a future date.
func (s *Service) CreateCustomerBooking(ctx context.Context, customerID string, req CustomerBookingRequest) (Created, error) {
	if err := shared.Validate(req); err != nil {
		return Created{}, err
	}
	checkIn, checkOut, err := s.stay(req.CheckIn, req.CheckOut, true)
	if err != nil {
		return Created{}, err
	}
	if s.rates == nil {
		return Created{}, errors.New("room rates unavailable")
	}
	rates, err := s.rates.NightlyRates(ctx)
	if err != nil {
		return Created{}, fmt.Errorf("customer booking: %w", err)
	}
	var lines []billing.RoomLine
	var details []map[string]any
	for _, r := range req.Rooms {
		price, ok := rates[r.RoomTypeID]
		if !ok {
			return Created{}, shared.Invalid("rooms", fmt.Sprintf("Room type %s is not available", r.RoomTypeID))
		}
		count := r.Count
		if count <= 0 {
			count = 1
		}
		lines = append(lines, billing.RoomLine{RoomID: r.RoomTypeID, UnitPrice: price, Quantity: count})
		details = append(details, map[string]any{"roomTypeId": r.RoomTypeID, "count": count})
	}
	summary := billing.ComputeSelection(lines, billing.Nights(checkIn, checkOut)).Rounded()

	resp, err := s.backend.Call(ctx, backend.Customer, "customerBookingWithAccount", map[string]any{
		"customerId": customerID,
		"bookingDetails": map[string]any{
			"checkIn":     checkIn.Format("2006-01-02"),
			"checkOut":    checkOut.Format("2006-01-02"),
			"adult":       req.Adults,
			"children":    req.Children,
			"totalAmount": summary.GrandTotal,
			"vat":         summary.VAT,
			"downpayment": summary.Downpayment,
			"balance":     summary.Balance,
		},
		"roomDetails": details,
	})
	if err != nil {
		return Created{}, fmt.Errorf("customer booking: %w", err)
	}
	if err := resp.Check(); err != nil {
		return Created{}, fmt.Errorf("customer booking: %w", err)
	}
	created := createdFrom(resp, summary)
	s.audited(ctx, shared.AuditLog{ActorID: customerID, Role: shared.RoleCustomer, Action: "booking.request", Entity: "booking", EntityID: firstNonEmpty(created.BookingID, created.Reference, "new"), Meta: map[string]any{"grand_total": summary.GrandTotal}})
	s.notify(ctx)
	return created, nil
}

// ListCustomerBookings returns the customer's own bookings.
func (s *Service) ListCustomerBookings(ctx context.Context, customerID string) ([]Booking, error) {
	if customerID == "" {
		return nil, shared.ErrUnauthorized
	}
	resp, err := s.backend.Call(ctx, backend.Customer, "getCustomerBookings", map[string]any{"customers_id": customerID})
	if err != nil {
		return nil, fmt.Errorf("customer bookings: %w", err)
	}
	var records []bookingRecord
	if err := resp.DecodeList(&records); err != nil {
		return nil, fmt.Errorf("customer bookings: %w", err)
	}
	out := make([]Booking, 0, len(records))
	for _, r := range records {
		out = append(out, r.booking())
	}
	return out, nil
}

// CancelCustomerBooking cancels one of the customer's pending bookings.
func (s *Service) CancelCustomerBooking(ctx context.Context, customerID, bookingID string) error {
	own, err := s.ListCustomerBookings(ctx, customerID)
	if err != nil {
		return err
	}
	var target *Booking
	for i := range own {
		if own[i].ID == bookingID {
			target = &own[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("booking %s: %w", bookingID, shared.ErrNotFound)
	}
	if target.Status != StatusPending {
		return fmt.Errorf("%w: only pending bookings can be cancelled", shared.ErrConflict)
	}
	resp, err := s.backend.Call(ctx, backend.Customer, "cancelBooking", map[string]any{
		"booking_id":   bookingID,
		"customers_id": customerID,
	})
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if err := resp.Check(); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	s.audited(ctx, shared.AuditLog{ActorID: customerID, Role: shared.RoleCustomer, Action: "booking.cancelled", Entity: "booking", EntityID: bookingID})
	s.notify(ctx)
	return nil
}

// stay parses and orders the stay dates. future requires check-in after
// today; otherwise check-in may be today.
func (s *Service) stay(in, out string, future bool) (time.Time, time.Time, error) {
	checkIn, err := format.ParseDate(in)
	if err != nil {
		return time.Time{}, time.Time{}, shared.Invalid("check_in", "Enter a valid check-in date")
	}
	checkOut, err := format.ParseDate(out)
	if err != nil {
		return time.Time{}, time.Time{}, shared.Invalid("check_out", "Enter a valid check-out date")
	}
	return ValidateStay(checkIn, checkOut, s.now(), future)
}

// ValidateStay checks the calendar order of a stay relative to today.
func ValidateStay(checkIn, checkOut, now time.Time, future bool) (time.Time, time.Time, error) {
	in := format.CalendarDate(checkIn)
	out := format.CalendarDate(checkOut)
	today := format.CalendarDate(now)
	if !out.After(in) {
		return time.Time{}, time.Time{}, shared.Invalid("check_out", "Check-out must be after check-in")
	}
	if future && !in.After(today) {
		return time.Time{}, time.Time{}, shared.Invalid("check_in", "Check-in must be a future date")
	}
	if !future && in.Before(today) {
		return time.Time{}, time.Time{}, shared.Invalid("check_in", "Check-in cannot be in the past")
	}
	return in, out, nil
}

func uniqueRooms(rooms []WalkInRoom) error {
	seen := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		if _, ok := seen[r.RoomID]; ok {
			return shared.Invalid("rooms", fmt.Sprintf("Room %s was selected twice", r.RoomID))
		}
		seen[r.RoomID] = struct{}{}
	}
	return nil
}

func createdFrom(resp backend.Response, summary billing.Summary) Created {
	created := Created{Summary: summary, Display: summary.Display()}
	var ids struct {
		BookingID backend.ID `json:"booking_id"`
		Reference string     `json:"reference_no"`
	}
	if err := resp.DecodeObject(&ids); err == nil {
		created.BookingID = ids.BookingID.String()
		created.Reference = ids.Reference
	}
	return created
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *Service) record(ctx context.Context, actor, action, id string, meta map[string]any) {
	_, role := shared.Actor(ctx)
	s.audited(ctx, shared.AuditLog{ActorID: actor, Role: role, Action: action, Entity: "booking", EntityID: id, Meta: meta})
}

func (s *Service) audited(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit log", slog.String("action", log.Action), slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.DashboardChanged(ctx); err != nil {
		s.logger.Warn("dashboard refresh", slog.Any("error", err))
	}
}
