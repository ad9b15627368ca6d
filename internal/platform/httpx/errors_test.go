package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/shared"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		shared.ErrNotFound:                                  http.StatusNotFound,
		fmt.Errorf("walk-in: %w", shared.ErrValidation):     http.StatusBadRequest,
		fmt.Errorf("toggle: %w", shared.ErrConflict):        http.StatusConflict,
		shared.ErrInvalidCredentials:                        http.StatusUnauthorized,
		shared.ErrCSRFTokenMismatch:                         http.StatusForbidden,
		fmt.Errorf("approve: %w", shared.ErrRejected):       http.StatusUnprocessableEntity,
		fmt.Errorf("call admin.php: %w", shared.ErrUpstream): http.StatusBadGateway,
		fmt.Errorf("boom"):                                  http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("scan row: connection reset"))

	var problem ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	require.Equal(t, http.StatusInternalServerError, problem.Status)
	require.Empty(t, problem.Detail)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestRespondErrorFields(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("create employee: %w", shared.FieldErrors{"email": "Enter a valid email address"}))

	var problem ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Enter a valid email address", problem.Fields["email"])
}

func TestRespondErrorUpstreamIsOneLine(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("list bookings: %w", shared.ErrUpstream))

	var problem ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	require.Equal(t, http.StatusBadGateway, problem.Status)
	require.Equal(t, "The hotel service is unavailable, please try again", problem.Detail)
}
