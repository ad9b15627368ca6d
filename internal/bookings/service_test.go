package bookings_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/backend/backendtest"
	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/format"
	"github.com/hotelia/frontdesk/internal/shared"
	_ "github.com/hotelia/frontdesk/testing"
)

const bookingsFixture = `[
	{"booking_id":1,"reference_no":"REF-1","customers_fname":"Ana","customers_lname":"Reyes","booking_status":"Pending",
	 "booking_checkin_dateandtime":"2025-07-10","booking_checkout_dateandtime":"2025-07-12",
	 "booking_total_amount":"5000","booking_vat":"600","booking_downpayment":"2500",
	 "room_details":[{"room_type_id":2,"roomtype_name":"Deluxe","room_count":"2","roomtype_price":"2000"}],
	 "booking_created_at":"2025-06-01 10:00:00"},
	{"booking_id":"2","reference_no":"REF-2","fullname":"Ben Cruz","booking_status":"Approved","customers_walk_in_id":"0",
	 "booking_created_at":"2025-06-02 10:00:00"},
	{"booking_id":3,"reference_no":"REF-3","fullname":"Carla Lim","booking_status":"Checked In","customers_walk_in_id":7,
	 "booking_created_at":"2025-06-03 10:00:00"}
]`

type notifierSpy struct{ calls int }

func (n *notifierSpy) DashboardChanged(context.Context) error {
	n.calls++
	return nil
}

type rates map[string]float64

func (r rates) NightlyRates(context.Context) (map[string]float64, error) { return r, nil }

func fixedNow() time.Time {
	return time.Date(2025, 7, 1, 9, 0, 0, 0, format.Manila)
}

func newService(fake *backendtest.Fake, notifier bookings.Notifier) *bookings.Service {
	return bookings.NewService(fake, rates{"2": 2000, "3": 3000}, nil, notifier, nil).WithClock(fixedNow)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, bookings.CanTransition(bookings.StatusPending, bookings.StatusApproved))
	assert.True(t, bookings.CanTransition(bookings.StatusPending, bookings.StatusDeclined))
	assert.True(t, bookings.CanTransition(bookings.StatusConfirmed, bookings.StatusCheckedIn))
	assert.True(t, bookings.CanTransition(bookings.StatusApproved, bookings.StatusCancelled))
	assert.True(t, bookings.CanTransition(bookings.StatusCheckedIn, bookings.StatusCheckedOut))
	assert.False(t, bookings.CanTransition(bookings.StatusPending, bookings.StatusCheckedIn))
	assert.False(t, bookings.CanTransition(bookings.StatusCheckedIn, bookings.StatusCancelled))
	assert.False(t, bookings.CanTransition(bookings.StatusCheckedOut, bookings.StatusCheckedIn))
	assert.False(t, bookings.CanTransition(bookings.StatusDeclined, bookings.StatusApproved))
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc := newService(backendtest.New().On("getBookingsWithBillingStatus", bookingsFixture), nil)

	page, err := svc.List(context.Background(), bookings.Filter{PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page.Bookings, 2)
	assert.Equal(t, "3", page.Bookings[0].ID)
	assert.Equal(t, bookings.StatusCheckedIn, page.Bookings[0].Status)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	page, err = svc.List(context.Background(), bookings.Filter{Search: "reyes"})
	require.NoError(t, err)
	require.Len(t, page.Bookings, 1)
	assert.Equal(t, "Ana Reyes", page.Bookings[0].CustomerName)
	assert.Equal(t, 2, page.Bookings[0].RequiredRooms())

	pending, err := svc.PendingRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "1", pending[0].ID)
}

func TestPendingRequestsEmptyIsNotNil(t *testing.T) {
	svc := newService(backendtest.New().On("getBookingsWithBillingStatus", `[]`), nil)

	pending, err := svc.PendingRequests(context.Background())
	require.NoError(t, err)
	require.NotNil(t, pending)
	raw, err := json.Marshal(map[string]any{"requests": pending})
	require.NoError(t, err)
	assert.JSONEq(t, `{"requests":[]}`, string(raw))
}

func TestCheckInGuardsTransition(t *testing.T) {
	notifier := &notifierSpy{}
	fake := backendtest.New().
		On("getBookingsWithBillingStatus", bookingsFixture).
		On("changeBookingStatus", `1`)
	svc := newService(fake, notifier)

	_, err := svc.CheckIn(context.Background(), "9", "1")
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Empty(t, fake.Calls("changeBookingStatus"))

	_, err = svc.CheckIn(context.Background(), "9", "2")
	require.NoError(t, err)
	require.Len(t, fake.Calls("changeBookingStatus"), 1)
	var sent map[string]string
	require.NoError(t, fake.Calls("changeBookingStatus")[0].Decode(&sent))
	assert.Equal(t, "Checked-In", sent["booking_status"])
	assert.Equal(t, 1, notifier.calls)

	_, err = svc.Get(context.Background(), "404")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func walkIn(checkIn, checkOut string) bookings.WalkInRequest {
	return bookings.WalkInRequest{
		Guest:    bookings.Guest{FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.ph", Phone: "0917 123 4567"},
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Adults:   2,
		Rooms:    []bookings.WalkInRoom{{RoomID: "101", UnitPrice: 2000}, {RoomID: "102", UnitPrice: 3000}},
	}
}

func TestCreateWalkInComputesSummary(t *testing.T) {
	fake := backendtest.New().On("addWalkInBooking", `{"success":true,"booking_id":55,"reference_no":"WALK-55"}`)
	svc := newService(fake, nil)

	created, err := svc.CreateWalkIn(context.Background(), "9", walkIn("2025-07-01", "2025-07-03"))
	require.NoError(t, err)
	assert.Equal(t, "55", created.BookingID)
	assert.Equal(t, "WALK-55", created.Reference)
	assert.InDelta(t, 11200, created.Summary.GrandTotal, 1e-6)
	assert.Equal(t, "₱5,600.00", created.Display.Downpayment)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(fake.Calls("addWalkInBooking")[0].Payload, &sent))
	assert.Equal(t, "09171234567", sent["customers_walk_in_phone"])
	assert.InDelta(t, 1200, sent["booking_vat"], 1e-6)
	assert.Equal(t, "2025-07-03", sent["booking_checkout_dateandtime"])
}

func TestCreateWalkInValidation(t *testing.T) {
	fake := backendtest.New()
	svc := newService(fake, nil)

	_, err := svc.CreateWalkIn(context.Background(), "9", walkIn("2025-06-30", "2025-07-02"))
	requireField(t, err, "check_in")

	_, err = svc.CreateWalkIn(context.Background(), "9", walkIn("2025-07-02", "2025-07-02"))
	requireField(t, err, "check_out")

	req := walkIn("2025-07-01", "2025-07-02")
	req.Guest.Phone = "12345"
	req.Adults = 0
	_, err = svc.CreateWalkIn(context.Background(), "9", req)
	requireField(t, err, "phone")
	requireField(t, err, "adults")

	req = walkIn("2025-07-01", "2025-07-02")
	req.Rooms = nil
	_, err = svc.CreateWalkIn(context.Background(), "9", req)
	requireField(t, err, "rooms")

	req = walkIn("2025-07-01", "2025-07-02")
	req.Rooms[1].RoomID = "101"
	_, err = svc.CreateWalkIn(context.Background(), "9", req)
	requireField(t, err, "rooms")

	assert.Empty(t, fake.Calls(""))
}

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, field)
}

func TestCustomerBookingRequiresFutureCheckIn(t *testing.T) {
	fake := backendtest.New().On("customerBookingWithAccount", `1`)
	svc := newService(fake, nil)
	req := bookings.CustomerBookingRequest{
		CheckIn: "2025-07-01", CheckOut: "2025-07-03", Adults: 2,
		Rooms: []bookings.RoomRequest{{RoomTypeID: "2", Count: 1}, {RoomTypeID: "3"}},
	}

	_, err := svc.CreateCustomerBooking(context.Background(), "44", req)
	requireField(t, err, "check_in")

	req.CheckIn, req.CheckOut = "2025-07-02", "2025-07-04"
	created, err := svc.CreateCustomerBooking(context.Background(), "44", req)
	require.NoError(t, err)
	assert.InDelta(t, 10000, created.Summary.Subtotal, 1e-6)

	var sent struct {
		CustomerID string `json:"customerId"`
		Details    struct {
			TotalAmount float64 `json:"totalAmount"`
		} `json:"bookingDetails"`
		Rooms []struct {
			RoomTypeID string `json:"roomTypeId"`
			Count      int    `json:"count"`
		} `json:"roomDetails"`
	}
	require.NoError(t, fake.Calls("customerBookingWithAccount")[0].Decode(&sent))
	assert.Equal(t, "44", sent.CustomerID)
	assert.InDelta(t, 11200, sent.Details.TotalAmount, 1e-6)
	require.Len(t, sent.Rooms, 2)
	assert.Equal(t, 1, sent.Rooms[1].Count)

	req.Rooms = []bookings.RoomRequest{{RoomTypeID: "99"}}
	_, err = svc.CreateCustomerBooking(context.Background(), "44", req)
	requireField(t, err, "rooms")
}

func TestCancelCustomerBookingOnlyWhilePending(t *testing.T) {
	fake := backendtest.New().
		On("getCustomerBookings", `{"status":"success","data":[{"booking_id":1,"booking_status":"Pending"},{"booking_id":2,"booking_status":"Approved"}]}`).
		On("cancelBooking", `{"status":"success"}`)
	svc := newService(fake, nil)

	require.ErrorIs(t, svc.CancelCustomerBooking(context.Background(), "44", "2"), shared.ErrConflict)
	require.ErrorIs(t, svc.CancelCustomerBooking(context.Background(), "44", "3"), shared.ErrNotFound)
	require.NoError(t, svc.CancelCustomerBooking(context.Background(), "44", "1"))
	require.Len(t, fake.Calls("cancelBooking"), 1)
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, bookings.StatusCheckedOut, bookings.ParseStatus("checked out"))
	assert.Equal(t, bookings.StatusCancelled, bookings.ParseStatus("Canceled"))
	assert.Equal(t, bookings.Status(""), bookings.ParseStatus(""))
}
