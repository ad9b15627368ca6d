package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/backend/backendtest"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/format"
	"github.com/hotelia/frontdesk/internal/rooms"
	"github.com/hotelia/frontdesk/internal/shared"
	_ "github.com/hotelia/frontdesk/testing"
)

const sessionID = "sess-1"

func day(d int) time.Time {
	return time.Date(2025, 7, d, 0, 0, 0, 0, format.Manila)
}

type bookingStub map[string]bookings.Booking

func (b bookingStub) PendingRequests(context.Context) ([]bookings.Booking, error) {
	var out []bookings.Booking
	for _, bk := range b {
		if bk.Status == bookings.StatusPending && !bk.Walkin {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (b bookingStub) Get(_ context.Context, id string) (bookings.Booking, error) {
	bk, ok := b[id]
	if !ok {
		return bookings.Booking{}, shared.ErrNotFound
	}
	return bk, nil
}

type inventoryStub []rooms.Room

func (i inventoryStub) Inventory(context.Context) ([]rooms.Room, error) { return i, nil }

type approvalSpy struct{ logs []shared.ApprovalLog }

func (s *approvalSpy) Record(_ context.Context, log shared.ApprovalLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func (s *approvalSpy) History(_ context.Context, bookingID string) ([]shared.ApprovalLog, error) {
	var out []shared.ApprovalLog
	for _, l := range s.logs {
		if l.BookingID == bookingID {
			out = append(out, l)
		}
	}
	return out, nil
}

type auditSpy struct{ logs []shared.AuditLog }

func (s *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type notifierSpy struct{ calls int }

func (n *notifierSpy) DashboardChanged(context.Context) error {
	n.calls++
	return nil
}

type fixture struct {
	svc       *Service
	fake      *backendtest.Fake
	mr        *miniredis.Miniredis
	approvals *approvalSpy
	audit     *auditSpy
	notifier  *notifierSpy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		fake:      backendtest.New(),
		mr:        mr,
		approvals: &approvalSpy{},
		audit:     &auditSpy{},
		notifier:  &notifierSpy{},
	}
	f.svc = NewService(Deps{
		Backend: f.fake,
		Bookings: bookingStub{
			"10": {
				ID: "10", Reference: "REF-10", CustomerName: "Ana Reyes", Status: bookings.StatusPending,
				CheckIn: day(2), CheckOut: day(4),
				TotalAmount: 5000, VAT: 600, Downpayment: 2500,
				RequestedRooms: []bookings.RequestedRoom{{RoomTypeID: "2", Count: 1}, {RoomTypeID: "3", Count: 1}},
			},
			"11": {ID: "11", Status: bookings.StatusApproved},
		},
		Rooms: inventoryStub{
			{ID: "101", Number: "101", TypeID: "2", TypeName: "Deluxe", Price: 2000, Booked: []rooms.Interval{{Start: day(1), End: day(3)}}},
			{ID: "102", Number: "102", TypeID: "2", TypeName: "Deluxe", Price: 2000},
			{ID: "201", Number: "201", TypeID: "3", TypeName: "Family", Price: 3000},
			{ID: "301", Number: "301", TypeID: "4", TypeName: "Suite", Price: 5000},
		},
		Store:     NewStore(client, 2*time.Hour),
		Approvals: f.approvals,
		Audit:     f.audit,
		Notifier:  f.notifier,
	}).WithClock(func() time.Time { return time.Date(2025, 7, 1, 9, 0, 0, 0, format.Manila) })
	return f
}

func TestBeginStoresContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)
	assert.Equal(t, 2, c.RequiredRooms)
	assert.Equal(t, StateSelecting, c.State)
	assert.Equal(t, "7", c.StaffID)
	assert.True(t, f.mr.Exists("approval:"+sessionID))
	assert.Equal(t, 2*time.Hour, f.mr.TTL("approval:"+sessionID))

	loaded, err := f.svc.Current(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, loaded.ID)
	assert.True(t, loaded.CheckIn.Equal(day(2)))

	_, err = f.svc.Begin(ctx, sessionID, "7", "11")
	assert.ErrorIs(t, err, shared.ErrConflict)
	_, err = f.svc.Begin(ctx, sessionID, "7", "404")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestContextExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)

	f.mr.FastForward(3 * time.Hour)
	_, err = f.svc.Current(ctx, sessionID)
	assert.ErrorIs(t, err, ErrNoApproval)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConflictingRoomIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)

	list, err := f.svc.Rooms(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	byID := map[string]Candidate{}
	for _, c := range list {
		byID[c.RoomID] = c
	}
	// Booked [Jul 1, Jul 3) overlaps the requested [Jul 2, Jul 4).
	assert.True(t, byID["101"].Conflict)
	assert.False(t, byID["102"].Conflict)
	assert.False(t, byID["301"].Requested)
	assert.Equal(t, "301", list[3].RoomID)

	_, err = f.svc.Toggle(ctx, sessionID, "101")
	assert.ErrorIs(t, err, ErrRoomConflict)

	c, err := f.svc.Toggle(ctx, sessionID, "102")
	require.NoError(t, err)
	assert.True(t, c.IsSelected("102"))
	assert.False(t, c.IsSelected("101"))
}

func TestSetDatesDropsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)

	_, err = f.svc.SetDates(ctx, sessionID, "2025-07-05", "2025-07-07")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, sessionID, "101")
	require.NoError(t, err)
	c, err := f.svc.Toggle(ctx, sessionID, "201")
	require.NoError(t, err)
	assert.Equal(t, StateReady, c.State)

	c, err = f.svc.SetDates(ctx, sessionID, "2025-07-02", "2025-07-04")
	require.NoError(t, err)
	assert.Equal(t, []RoomSelection{{RoomID: "201", RoomNumber: "201", RoomType: "Family", UnitPrice: 3000}}, c.Selected)
	assert.Equal(t, StateSelecting, c.State)

	_, err = f.svc.SetDates(ctx, sessionID, "2025-07-04", "2025-07-04")
	var fields shared.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "check_out")
}

func TestToggleNeedsDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)
	c.CheckIn, c.CheckOut = time.Time{}, time.Time{}
	require.NoError(t, f.svc.deps.Store.Save(ctx, sessionID, c))

	_, err = f.svc.Toggle(ctx, sessionID, "102")
	assert.ErrorIs(t, err, ErrDatesMissing)
	_, err = f.svc.Rooms(ctx, sessionID)
	assert.ErrorIs(t, err, ErrDatesMissing)
}

func TestReceiptFallsBackToBookingTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)

	receipt, err := f.svc.Receipt(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, billing.SourceBooking, receipt.Summary.Source)
	assert.InDelta(t, 4400, receipt.Summary.Subtotal, 1e-6)
	assert.InDelta(t, 2500, receipt.Summary.Balance, 1e-6)
	assert.Equal(t, "₱4,400.00", receipt.Display.Subtotal)
}

func TestSubmitApprovesSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fake.On("approveCustomerBooking", `{"success":true,"message":"Booking approved"}`)

	begun, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, sessionID)
	assert.ErrorIs(t, err, ErrSelectionIncomplete)
	assert.Empty(t, f.fake.Calls("approveCustomerBooking"))

	_, err = f.svc.Toggle(ctx, sessionID, "102")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, sessionID, "201")
	require.NoError(t, err)
	_, err = f.svc.ConfirmSelection(ctx, sessionID)
	require.NoError(t, err)

	receipt, err := f.svc.Receipt(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, billing.SourceSelection, receipt.Summary.Source)
	assert.InDelta(t, 10000, receipt.Summary.Subtotal, 1e-6)
	assert.Equal(t, "₱11,200.00", receipt.Display.GrandTotal)

	result, err := f.svc.Submit(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "10", result.BookingID)
	assert.Equal(t, begun.ID, result.RefID)
	assert.InDelta(t, 5600, result.Summary.Balance, 1e-6)

	var sent struct {
		BookingID string   `json:"booking_id"`
		RoomIDs   []string `json:"room_ids"`
		Total     float64  `json:"booking_totalAmount"`
		VAT       float64  `json:"booking_vat"`
		CheckIn   string   `json:"booking_checkin_dateandtime"`
		Employee  string   `json:"employee_id"`
	}
	calls := f.fake.Calls("approveCustomerBooking")
	require.Len(t, calls, 1)
	require.NoError(t, calls[0].Decode(&sent))
	assert.Equal(t, "10", sent.BookingID)
	assert.Equal(t, []string{"102", "201"}, sent.RoomIDs)
	assert.InDelta(t, 11200, sent.Total, 1e-6)
	assert.InDelta(t, 1200, sent.VAT, 1e-6)
	assert.Equal(t, "2025-07-02", sent.CheckIn)
	assert.Equal(t, "7", sent.Employee)

	require.Len(t, f.approvals.logs, 1)
	assert.Equal(t, shared.ApprovalApprove, f.approvals.logs[0].Action)
	assert.Equal(t, begun.ID, f.approvals.logs[0].RefID)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, "booking.approve", f.audit.logs[0].Action)
	assert.Equal(t, 1, f.notifier.calls)

	assert.False(t, f.mr.Exists("approval:"+sessionID))
	_, err = f.svc.Current(ctx, sessionID)
	assert.ErrorIs(t, err, ErrNoApproval)
}

func TestSubmitKeepsContextWhenRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fake.On("approveCustomerBooking", `{"success":false,"message":"Room 102 is no longer available"}`)

	_, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)
	for _, id := range []string{"102", "201"} {
		_, err = f.svc.Toggle(ctx, sessionID, id)
		require.NoError(t, err)
	}

	_, err = f.svc.Submit(ctx, sessionID)
	require.ErrorIs(t, err, shared.ErrRejected)
	assert.Equal(t, "Room 102 is no longer available", shared.UserSafeMessage(err))

	c, err := f.svc.Current(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, StateReady, c.State)
	assert.Empty(t, f.approvals.logs)
	assert.Zero(t, f.notifier.calls)
}

func TestDeclineRecordsRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fake.On("declineCustomerBooking", `1`)

	begun, err := f.svc.Begin(ctx, sessionID, "7", "10")
	require.NoError(t, err)

	require.NoError(t, f.svc.Decline(ctx, sessionID, "7", "10", " No rooms left "))

	var sent map[string]string
	require.NoError(t, f.fake.Calls("declineCustomerBooking")[0].Decode(&sent))
	assert.Equal(t, "No rooms left", sent["reason"])

	require.Len(t, f.approvals.logs, 1)
	log := f.approvals.logs[0]
	assert.Equal(t, shared.ApprovalReject, log.Action)
	assert.Equal(t, begun.ID, log.RefID)
	assert.Equal(t, "No rooms left", log.Note)
	assert.False(t, f.mr.Exists("approval:"+sessionID))

	err = f.svc.Decline(ctx, sessionID, "7", "11", "")
	assert.ErrorIs(t, err, shared.ErrConflict)

	history, err := f.svc.History(ctx, "10")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, shared.ApprovalReject, history[0].Action)

	history, err = f.svc.History(ctx, "11")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestListRequests(t *testing.T) {
	f := newFixture(t)
	list, err := f.svc.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "10", list[0].ID)
}
