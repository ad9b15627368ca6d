package bookings

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hotelia/frontdesk/internal/format"
	"github.com/hotelia/frontdesk/internal/platform/httpx"
	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Handler manages booking endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountAdminRoutes registers staff booking routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermBookingsView, rbac.PermBookingsManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermBookingsManage))
		r.Post("/walk-in", h.createWalkIn)
		r.Post("/{id}/check-in", h.checkIn)
		r.Post("/{id}/check-out", h.checkOut)
		r.Post("/{id}/cancel", h.cancel)
	})
}

// MountCustomerRoutes registers the customer's own booking routes.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermSelfService))
		r.Get("/", h.listOwn)
		r.Post("/", h.createOwn)
		r.Post("/{id}/cancel", h.cancelOwn)
	})
}

// bookingView adds display strings to a booking.
type bookingView struct {
	Booking
	Nights  int               `json:"nights"`
	Display map[string]string `json:"display"`
}

func present(b Booking) bookingView {
	return bookingView{
		Booking: b,
		Nights:  b.Nights(),
		Display: map[string]string{
			"check_in":     format.DateOnly(b.CheckIn),
			"check_out":    format.DateOnly(b.CheckOut),
			"created_at":   format.DateTime(b.CreatedAt),
			"total_amount": format.Currency(b.TotalAmount),
			"downpayment":  format.Currency(b.Downpayment),
		},
	}
}

func presentAll(list []Booking) []bookingView {
	out := make([]bookingView, 0, len(list))
	for _, b := range list {
		out = append(out, present(b))
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	result, err := h.service.List(r.Context(), Filter{
		Status:  ParseStatus(q.Get("status")),
		Search:  q.Get("q"),
		Online:  q.Get("online") == "1",
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.fail(w, "list bookings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"bookings":   presentAll(result.Bookings),
		"pagination": result.Pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, present(b))
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.CheckIn)
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.CheckOut)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.Cancel)
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor, id string) (Booking, error)) {
	actor, _ := shared.Actor(r.Context())
	b, err := fn(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "update booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, present(b))
}

func (h *Handler) createWalkIn(w http.ResponseWriter, r *http.Request) {
	var req WalkInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.Actor(r.Context())
	created, err := h.service.CreateWalkIn(r.Context(), actor, req)
	if err != nil {
		h.fail(w, "walk-in booking", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	customerID, _ := shared.Actor(r.Context())
	list, err := h.service.ListCustomerBookings(r.Context(), customerID)
	if err != nil {
		h.fail(w, "customer bookings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bookings": presentAll(list)})
}

func (h *Handler) createOwn(w http.ResponseWriter, r *http.Request) {
	var req CustomerBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customerID, _ := shared.Actor(r.Context())
	created, err := h.service.CreateCustomerBooking(r.Context(), customerID, req)
	if err != nil {
		h.fail(w, "customer booking", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) cancelOwn(w http.ResponseWriter, r *http.Request) {
	customerID, _ := shared.Actor(r.Context())
	if err := h.service.CancelCustomerBooking(r.Context(), customerID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "cancel booking", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
