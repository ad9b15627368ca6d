package approval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/format"
	"github.com/hotelia/frontdesk/internal/rooms"
	"github.com/hotelia/frontdesk/internal/shared"
)

// BookingSource reads bookings.
type BookingSource interface {
	PendingRequests(ctx context.Context) ([]bookings.Booking, error)
	Get(ctx context.Context, id string) (bookings.Booking, error)
}

// RoomSource lists physical rooms with their booked stays.
type RoomSource interface {
	Inventory(ctx context.Context) ([]rooms.Room, error)
}

// ContextStore persists approval contexts per session.
type ContextStore interface {
	Load(ctx context.Context, sessionID string) (*Context, error)
	Save(ctx context.Context, sessionID string, c *Context) error
	Delete(ctx context.Context, sessionID string) error
}

// HistorySource lists earlier decisions for a booking. ApprovalRecorder
// implements it.
type HistorySource interface {
	History(ctx context.Context, bookingID string) ([]shared.ApprovalLog, error)
}

// Notifier is told when bookings change.
type Notifier interface {
	DashboardChanged(ctx context.Context) error
}

// Deps groups the collaborators of Service.
type Deps struct {
	Backend   backend.Caller
	Bookings  BookingSource
	Rooms     RoomSource
	Store     ContextStore
	Approvals shared.ApprovalSink
	Audit     shared.AuditSink
	Notifier  Notifier
	Logger    *slog.Logger
}

// Service runs the approval flow.
type Service struct {
	deps Deps
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListRequests returns online bookings waiting for approval.
func (s *Service) ListRequests(ctx context.Context) ([]bookings.Booking, error) {
	return s.deps.Bookings.PendingRequests(ctx)
}

// Begin starts a fresh approval for bookingID, replacing any previous one
// held by the session.
func (s *Service) Begin(ctx context.Context, sessionID, staffID, bookingID string) (*Context, error) {
	b, err := s.deps.Bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != bookings.StatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", shared.ErrConflict, bookingID, b.Status)
	}
	c := &Context{
		ID:            uuid.New(),
		BookingID:     b.ID,
		Booking:       b,
		CheckIn:       b.CheckIn,
		CheckOut:      b.CheckOut,
		RequiredRooms: b.RequiredRooms(),
		Selected:      []RoomSelection{},
		State:         StateSelecting,
		StaffID:       staffID,
	}
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Current returns the session's approval.
func (s *Service) Current(ctx context.Context, sessionID string) (*Context, error) {
	return s.deps.Store.Load(ctx, sessionID)
}

// Abandon drops the session's approval.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	return s.deps.Store.Delete(ctx, sessionID)
}

// SetDates changes the stay. Selected rooms that conflict with the new
// dates are dropped.
func (s *Service) SetDates(ctx context.Context, sessionID, checkIn, checkOut string) (*Context, error) {
	c, err := s.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.State == StateSubmitted {
		return nil, ErrAlreadySubmitted
	}
	in, err := format.ParseDate(checkIn)
	if err != nil {
		return nil, shared.Invalid("check_in", "Enter a valid check-in date")
	}
	out, err := format.ParseDate(checkOut)
	if err != nil {
		return nil, shared.Invalid("check_out", "Enter a valid check-out date")
	}
	in, out = format.CalendarDate(in), format.CalendarDate(out)
	if !out.After(in) {
		return nil, shared.Invalid("check_out", "Check-out must be after check-in")
	}
	c.CheckIn, c.CheckOut = in, out

	if len(c.Selected) > 0 {
		inventory, err := s.inventory(ctx)
		if err != nil {
			return nil, err
		}
		stay := rooms.Interval{Start: in, End: out}
		kept := c.Selected[:0]
		for _, sel := range c.Selected {
			if room, ok := inventory[sel.RoomID]; ok && room.ConflictsWith(stay) {
				continue
			}
			kept = append(kept, sel)
		}
		c.Selected = kept
	}
	c.refresh()
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Rooms lists candidate rooms for the stay, requested types first.
func (s *Service) Rooms(ctx context.Context, sessionID string) ([]Candidate, error) {
	c, err := s.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.HasDates() {
		return nil, ErrDatesMissing
	}
	list, err := s.deps.Rooms.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	requested := make(map[string]bool, len(c.Booking.RequestedRooms))
	for _, r := range c.Booking.RequestedRooms {
		requested[r.RoomTypeID] = true
	}
	stay := rooms.Interval{Start: c.CheckIn, End: c.CheckOut}
	out := make([]Candidate, 0, len(list))
	for _, room := range list {
		out = append(out, Candidate{
			RoomSelection: selectionOf(room),
			Status:        room.Status,
			Requested:     requested[room.TypeID],
			Conflict:      room.ConflictsWith(stay),
			Selected:      c.IsSelected(room.ID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Requested != out[j].Requested {
			return out[i].Requested
		}
		return out[i].RoomNumber < out[j].RoomNumber
	})
	return out, nil
}

// Toggle selects or deselects a room.
func (s *Service) Toggle(ctx context.Context, sessionID, roomID string) (*Context, error) {
	c, err := s.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.State == StateSubmitted {
		return nil, ErrAlreadySubmitted
	}
	var (
		selection RoomSelection
		conflict  bool
	)
	if !c.IsSelected(roomID) {
		if !c.HasDates() {
			return nil, ErrDatesMissing
		}
		inventory, err := s.inventory(ctx)
		if err != nil {
			return nil, err
		}
		room, ok := inventory[roomID]
		if !ok {
			return nil, fmt.Errorf("room %s: %w", roomID, shared.ErrNotFound)
		}
		selection = selectionOf(room)
		conflict = room.ConflictsWith(rooms.Interval{Start: c.CheckIn, End: c.CheckOut})
	} else {
		selection = RoomSelection{RoomID: roomID}
	}
	if err := c.Toggle(selection, conflict); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ConfirmSelection checks that the approval may move on to the receipt.
func (s *Service) ConfirmSelection(ctx context.Context, sessionID string) (*Context, error) {
	c, err := s.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Confirm(); err != nil {
		return nil, err
	}
	return c, nil
}

// Receipt prices the selection. The balance is shown as computed, without
// clamping.
func (s *Service) Receipt(ctx context.Context, sessionID string) (Receipt, error) {
	c, err := s.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return Receipt{}, err
	}
	return receiptOf(c), nil
}

// Submit approves the booking with the selected rooms.
func (s *Service) Submit(ctx context.Context, sessionID string) (Result, error) {
	c, err := s.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if err := c.Confirm(); err != nil {
		return Result{}, err
	}
	summary := receiptOf(c).Summary.Rounded()
	roomIDs := make([]string, 0, len(c.Selected))
	for _, sel := range c.Selected {
		roomIDs = append(roomIDs, sel.RoomID)
	}
	resp, err := s.deps.Backend.Call(ctx, backend.Admin, "approveCustomerBooking", map[string]any{
		"booking_id":                   c.BookingID,
		"room_ids":                     roomIDs,
		"booking_checkin_dateandtime":  c.CheckIn.Format("2006-01-02"),
		"booking_checkout_dateandtime": c.CheckOut.Format("2006-01-02"),
		"booking_totalAmount":          summary.GrandTotal,
		"booking_vat":                  summary.VAT,
		"booking_downpayment":          summary.Downpayment,
		"booking_balance":              summary.Balance,
		"employee_id":                  c.StaffID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("approve booking %s: %w", c.BookingID, err)
	}
	if err := resp.Check(); err != nil {
		return Result{}, fmt.Errorf("approve booking %s: %w", c.BookingID, err)
	}

	c.State = StateSubmitted
	if err := s.save(ctx, sessionID, c); err != nil {
		s.deps.Logger.Warn("mark approval submitted", slog.String("booking_id", c.BookingID), slog.Any("error", err))
	}
	s.decided(ctx, shared.ApprovalLog{
		RefID:     c.ID,
		BookingID: c.BookingID,
		ActorID:   c.StaffID,
		Action:    shared.ApprovalApprove,
		Note:      strings.Join(roomIDs, ","),
	}, map[string]any{"rooms": roomIDs, "grand_total": summary.GrandTotal, "source": string(summary.Source)})
	if err := s.deps.Store.Delete(ctx, sessionID); err != nil {
		s.deps.Logger.Warn("drop approval", slog.String("booking_id", c.BookingID), slog.Any("error", err))
	}
	return Result{BookingID: c.BookingID, RefID: c.ID, Summary: summary}, nil
}

// Decline rejects a pending booking.
func (s *Service) Decline(ctx context.Context, sessionID, staffID, bookingID, reason string) error {
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return shared.Invalid("reason", "Reason must be at most 500 characters")
	}
	b, err := s.deps.Bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if !bookings.CanTransition(b.Status, bookings.StatusDeclined) {
		return fmt.Errorf("%w: booking %s is %s", shared.ErrConflict, bookingID, b.Status)
	}
	resp, err := s.deps.Backend.Call(ctx, backend.Admin, "declineCustomerBooking", map[string]any{
		"booking_id":  bookingID,
		"reason":      reason,
		"employee_id": staffID,
	})
	if err != nil {
		return fmt.Errorf("decline booking %s: %w", bookingID, err)
	}
	if err := resp.Check(); err != nil {
		return fmt.Errorf("decline booking %s: %w", bookingID, err)
	}

	refID := uuid.New()
	if c, err := s.deps.Store.Load(ctx, sessionID); err == nil && c.BookingID == bookingID {
		refID = c.ID
		if err := s.deps.Store.Delete(ctx, sessionID); err != nil {
			s.deps.Logger.Warn("drop approval", slog.String("booking_id", bookingID), slog.Any("error", err))
		}
	}
	s.decided(ctx, shared.ApprovalLog{
		RefID:     refID,
		BookingID: bookingID,
		ActorID:   staffID,
		Action:    shared.ApprovalReject,
		Note:      reason,
	}, map[string]any{"reason": reason})
	return nil
}

// History returns recorded decisions for bookingID, oldest first. It is empty
// when the recorder keeps no history.
func (s *Service) History(ctx context.Context, bookingID string) ([]shared.ApprovalLog, error) {
	if strings.TrimSpace(bookingID) == "" {
		return nil, shared.Invalid("booking_id", "booking id is required")
	}
	src, ok := s.deps.Approvals.(HistorySource)
	if !ok {
		return []shared.ApprovalLog{}, nil
	}
	logs, err := src.History(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("approval history: %w", err)
	}
	if logs == nil {
		logs = []shared.ApprovalLog{}
	}
	return logs, nil
}

func (s *Service) decided(ctx context.Context, log shared.ApprovalLog, meta map[string]any) {
	log.At = s.now()
	if s.deps.Approvals != nil {
		if err := s.deps.Approvals.Record(ctx, log); err != nil {
			s.deps.Logger.Warn("approval log", slog.String("booking_id", log.BookingID), slog.Any("error", err))
		}
	}
	if s.deps.Audit != nil {
		_, role := shared.Actor(ctx)
		entry := shared.AuditLog{
			ActorID:  log.ActorID,
			Role:     role,
			Action:   "booking." + strings.ToLower(string(log.Action)),
			Entity:   "booking",
			EntityID: log.BookingID,
			Meta:     meta,
			At:       log.At,
		}
		if err := s.deps.Audit.Record(ctx, entry); err != nil {
			s.deps.Logger.Warn("audit log", slog.String("action", entry.Action), slog.Any("error", err))
		}
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.DashboardChanged(ctx); err != nil {
			s.deps.Logger.Warn("dashboard refresh", slog.Any("error", err))
		}
	}
}

func (s *Service) save(ctx context.Context, sessionID string, c *Context) error {
	c.UpdatedAt = s.now()
	return s.deps.Store.Save(ctx, sessionID, c)
}

func (s *Service) inventory(ctx context.Context) (map[string]rooms.Room, error) {
	list, err := s.deps.Rooms.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]rooms.Room, len(list))
	for _, r := range list {
		out[r.ID] = r
	}
	return out, nil
}

func selectionOf(room rooms.Room) RoomSelection {
	return RoomSelection{
		RoomID:     room.ID,
		RoomNumber: room.Number,
		RoomType:   room.TypeName,
		UnitPrice:  room.Price,
	}
}

func receiptOf(c *Context) Receipt {
	summary := billing.Compute(c.roomLines(), c.Nights(), c.Booking.Totals())
	return Receipt{
		BookingID:    c.BookingID,
		Reference:    c.Booking.Reference,
		CustomerName: c.Booking.CustomerName,
		CheckIn:      c.CheckIn,
		CheckOut:     c.CheckOut,
		Rooms:        c.Selected,
		Summary:      summary,
		Display:      summary.Display(),
	}
}
