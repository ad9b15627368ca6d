package rooms_test

import (
	"context"
	"errors"
	"testing"
	"time"

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

const typesFixture = `{"status":"success","data":[
	{"roomtype_id":2,"roomtype_name":"Deluxe","roomtype_price":"2000.00","max_capacity":"2"},
	{"roomtype_id":"3","roomtype_name":"Family","roomtype_price":3000,"max_capacity":4,"available_count":0}
]}`

func fixedNow() time.Time {
	return time.Date(2025, 7, 1, 9, 0, 0, 0, format.Manila)
}

func newService(fake *backendtest.Fake) *rooms.Service {
	return rooms.NewService(fake).WithClock(fixedNow)
}

func TestNightlyRates(t *testing.T) {
	fake := backendtest.New().On("getRoomTypes", typesFixture)
	rates, err := newService(fake).NightlyRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"2": 2000, "3": 3000}, rates)
}

func TestSearchSkipsSoldOutAndCountsRooms(t *testing.T) {
	fake := backendtest.New().On("getAvailableRooms", `[
		{"roomtype_id":2,"roomtype_name":"Deluxe","roomtype_price":"2000","max_capacity":2,"available_count":"1"},
		{"roomtype_id":3,"roomtype_name":"Family","roomtype_price":"3000","max_capacity":4,"available_count":"0"},
		{"roomtype_id":4,"roomtype_name":"Suite","roomtype_price":"5000","max_capacity":2,"available_count":3}
	]`)
	c := rooms.Criteria{CheckIn: "2025-07-02", CheckOut: "2025-07-04", Adults: 3, Children: 0}

	result, err := newService(fake).Search(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Nights)
	require.Len(t, result.Rooms, 2)

	deluxe := result.Rooms[0]
	assert.Equal(t, 2, deluxe.RoomsNeeded)
	assert.False(t, deluxe.Fits)

	suite := result.Rooms[1]
	assert.True(t, suite.Fits)
	// 2 rooms x 5000 x 2 nights, plus VAT.
	assert.InDelta(t, 22400, suite.StayTotal, 1e-6)
	assert.Equal(t, "₱5,000.00", suite.DisplayPrice)

	var sent map[string]any
	require.NoError(t, fake.Calls("getAvailableRooms")[0].Decode(&sent))
	assert.Equal(t, "2025-07-02", sent["checkIn"])
	assert.Equal(t, "2025-07-04", sent["checkOut"])
	assert.EqualValues(t, 3, sent["adult"])
}

func TestSearchValidatesDates(t *testing.T) {
	fake := backendtest.New()
	svc := newService(fake)
	ctx := context.Background()

	cases := map[string]struct {
		criteria rooms.Criteria
		field    string
	}{
		"check-in today":      {rooms.Criteria{CheckIn: "2025-07-01", CheckOut: "2025-07-03", Adults: 1}, "check_in"},
		"check-out same day":  {rooms.Criteria{CheckIn: "2025-07-03", CheckOut: "2025-07-03", Adults: 1}, "check_out"},
		"unparsable check-in": {rooms.Criteria{CheckIn: "soon", CheckOut: "2025-07-03", Adults: 1}, "check_in"},
		"no adults":           {rooms.Criteria{CheckIn: "2025-07-02", CheckOut: "2025-07-03"}, "adults"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Search(ctx, tc.criteria)
			var fields shared.FieldErrors
			require.True(t, errors.As(err, &fields), "got %v", err)
			assert.Contains(t, fields, tc.field)
		})
	}
	assert.Empty(t, fake.Calls(""))
}

func TestQuoteMatchesCalculator(t *testing.T) {
	fake := backendtest.New().On("getRoomTypes", typesFixture)
	c := rooms.Criteria{CheckIn: "2025-07-02", CheckOut: "2025-07-04", Adults: 2}

	summary, err := newService(fake).Quote(context.Background(), c, []bookings.RoomRequest{
		{RoomTypeID: "2", Count: 1},
		{RoomTypeID: "3", Count: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, billing.SourceSelection, summary.Source)
	assert.InDelta(t, 10000, summary.Subtotal, 1e-6)
	assert.InDelta(t, 11200, summary.GrandTotal, 1e-6)
	assert.InDelta(t, 5600, summary.Balance, 1e-6)

	_, err = newService(fake).Quote(context.Background(), c, []bookings.RoomRequest{{RoomTypeID: "9", Count: 1}})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestInventoryConflicts(t *testing.T) {
	fake := backendtest.New().On("getRoomsWithBookings", `[
		{"roomnumber_id":101,"roomtype_id":2,"roomtype_name":"Deluxe","roomtype_price":"2000",
		 "bookings":[{"checkin_date":"2025-07-01","checkout_date":"2025-07-03"},{"checkin_date":"0000-00-00","checkout_date":""}]}
	]`)
	list, err := newService(fake).Inventory(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	room := list[0]
	assert.Equal(t, "101", room.Number)
	require.Len(t, room.Booked, 1)

	day := func(d int) time.Time { return time.Date(2025, 7, d, 0, 0, 0, 0, format.Manila) }
	assert.True(t, room.ConflictsWith(rooms.Interval{Start: day(2), End: day(4)}))
	assert.False(t, room.ConflictsWith(rooms.Interval{Start: day(3), End: day(5)}))
	assert.False(t, room.ConflictsWith(rooms.Interval{Start: day(1), End: day(1)}))
}

func TestInventoryComparesCalendarDays(t *testing.T) {
	fake := backendtest.New().On("getRoomsWithBookings", `[
		{"roomnumber_id":102,"roomtype_id":2,"roomtype_name":"Deluxe","roomtype_price":"2000",
		 "bookings":[{"checkin_date":"2025-07-01 14:00:00","checkout_date":"2025-07-03 12:00:00"}]}
	]`)
	list, err := newService(fake).Inventory(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	room := list[0]
	require.Len(t, room.Booked, 1)

	day := func(d int) time.Time { return time.Date(2025, 7, d, 0, 0, 0, 0, format.Manila) }
	assert.True(t, room.Booked[0].End.Equal(day(3)))
	assert.False(t, room.ConflictsWith(rooms.Interval{Start: day(3), End: day(5)}))
	assert.True(t, room.ConflictsWith(rooms.Interval{Start: day(2), End: day(3)}))
}

func TestRememberAndRecall(t *testing.T) {
	sess := &shared.Session{ID: "s1"}
	_, ok := rooms.Recall(sess)
	assert.False(t, ok)

	want := rooms.Criteria{CheckIn: "2025-07-02", CheckOut: "2025-07-04", Adults: 2, Children: 1}
	rooms.Remember(sess, want)
	assert.Equal(t, "2025-07-02", sess.Get(rooms.SessionCheckIn))

	got, ok := rooms.Recall(sess)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
