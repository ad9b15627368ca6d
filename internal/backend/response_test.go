package backend_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/backend"
	"github.com/hotelia/frontdesk/internal/shared"
)

type row struct {
	ID     backend.ID     `json:"id"`
	Amount backend.Number `json:"amount"`
	Status string         `json:"status"`
}

func parse(t *testing.T, body string) backend.Response {
	t.Helper()
	resp, err := backend.Parse("test", []byte(body))
	require.NoError(t, err)
	return resp
}

func TestDecodeListShapes(t *testing.T) {
	shapes := map[string]int{
		`[{"id":1,"amount":"10.5"},{"id":"2","amount":3}]`:                 2,
		`{"data":[{"id":1,"amount":10}]}`:                                  1,
		`{"status":"success","data":[{"id":1},{"id":2},{"id":3}]}`:         3,
		`null`:                                                             0,
		``:                                                                 0,
		`{"status":"success","data":null}`:                                 0,
		"<br />\n<b>Notice</b>: Undefined index\n" + `[{"id":9,"amount":1}]`: 1,
	}
	for body, want := range shapes {
		var rows []row
		require.NoError(t, parse(t, body).DecodeList(&rows), body)
		require.Len(t, rows, want, body)
	}
}

func TestDecodeListErrorEnvelope(t *testing.T) {
	var rows []row
	err := parse(t, `{"status":"error","message":"Session expired"}`).DecodeList(&rows)
	require.ErrorIs(t, err, backend.ErrRejected)
	require.Equal(t, "Session expired", shared.UserSafeMessage(err))

	err = parse(t, `"hello"`).DecodeList(&rows)
	require.ErrorIs(t, err, backend.ErrDecode)
}

func TestDecodeObjectShapes(t *testing.T) {
	for _, body := range []string{
		`{"id":5,"amount":"1,200.50","status":"Pending"}`,
		`{"data":{"id":"5","amount":1200.5,"status":"Pending"}}`,
		`[{"id":5,"amount":1200.5,"status":"Pending"}]`,
	} {
		var got row
		require.NoError(t, parse(t, body).DecodeObject(&got), body)
		require.Equal(t, backend.ID("5"), got.ID)
		require.InDelta(t, 1200.5, got.Amount.Float64(), 1e-9)
		require.Equal(t, "Pending", got.Status)
	}

	var got row
	require.ErrorIs(t, parse(t, `null`).DecodeObject(&got), shared.ErrNotFound)
	require.ErrorIs(t, parse(t, `[]`).DecodeObject(&got), shared.ErrNotFound)
}

func TestOutcome(t *testing.T) {
	cases := map[string]bool{
		`1`:                      true,
		`0`:                      false,
		`-1`:                     false,
		`true`:                   true,
		`false`:                  false,
		`"1"`:                    true,
		`{"success":true}`:       true,
		`{"success":false}`:      false,
		`{"status":"success"}`:   true,
		`{"status":"error"}`:     false,
		`{"id":1,"status":"Pending"}`: true,
		`[]`:                     true,
		`null`:                   false,
	}
	for body, want := range cases {
		ok, _ := parse(t, body).Outcome()
		require.Equal(t, want, ok, body)
	}
}

func TestCheckCarriesMessage(t *testing.T) {
	err := parse(t, `{"status":"error","message":"Room already booked"}`).Check()
	var rejected *backend.RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "Room already booked", rejected.Message)

	err = parse(t, `-1`).Check()
	require.ErrorIs(t, err, shared.ErrRejected)
	require.NotEmpty(t, shared.UserSafeMessage(err))
}

func TestFlexibleScalars(t *testing.T) {
	var v struct {
		N backend.Number `json:"n"`
		E backend.Number `json:"e"`
		I backend.Int    `json:"i"`
		B backend.Bool   `json:"b"`
		Z backend.Bool   `json:"z"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"n":"2,500.75","e":"","i":"3","b":"1","z":0}`), &v))
	require.InDelta(t, 2500.75, v.N.Float64(), 1e-9)
	require.Zero(t, v.E)
	require.Equal(t, backend.Int(3), v.I)
	require.True(t, bool(v.B))
	require.False(t, bool(v.Z))

	require.Error(t, json.Unmarshal([]byte(`{"n":"abc"}`), &v))
}

func TestTimeDecoding(t *testing.T) {
	var v struct {
		A backend.Time `json:"a"`
		B backend.Time `json:"b"`
		C backend.Time `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2025-07-01 14:00:00","b":"0000-00-00 00:00:00","c":null}`), &v))
	require.Equal(t, 14, v.A.Hour())
	require.Equal(t, "Asia/Manila", v.A.Location().String())
	require.True(t, v.B.IsZero())
	require.True(t, v.C.IsZero())

	out, err := json.Marshal(v.C)
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}

func TestDecodeScalarShapes(t *testing.T) {
	cases := map[string]float64{
		`12`:                                 12,
		`"1,250.50"`:                         1250.5,
		`null`:                               0,
		`[]`:                                 0,
		`[{"total":"3"}]`:                    3,
		`{"count":7}`:                        7,
		`{"status":"success","data":4}`:      4,
		`{"status":"success","revenue":"9"}`: 9,
		`{"data":{"total":null}}`:            0,
	}
	for body, want := range cases {
		got, err := parse(t, body).DecodeScalar("count", "revenue", "total")
		require.NoError(t, err, body)
		require.InDelta(t, want, got, 1e-9, body)
	}

	_, err := parse(t, `{"a":1,"b":2}`).DecodeScalar("count")
	require.ErrorIs(t, err, backend.ErrDecode)
	_, err = parse(t, `{"status":"error","message":"no access"}`).DecodeScalar()
	require.ErrorIs(t, err, shared.ErrRejected)
}
