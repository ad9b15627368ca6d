package billing

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hotelia/frontdesk/internal/platform/httpx"
	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Handler exposes billing endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountAdminRoutes registers staff billing routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermBillingView, rbac.PermBillingManage))
		r.Get("/charges/catalog", h.catalog)
		r.Get("/bookings/{bookingID}/charges", h.listCharges)
		r.Get("/bookings/{bookingID}/bill", h.bookingBill)
		r.Get("/invoices", h.listInvoices)
		r.Get("/invoices/{id}", h.getInvoice)
		r.Get("/invoices/{id}/pdf", h.invoicePDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermBillingManage))
		r.Post("/bookings/{bookingID}/charges", h.addCharge)
		r.Post("/bookings/{bookingID}/payments", h.recordPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermInvoicesManage))
		r.Post("/invoices", h.createInvoice)
	})
}

// MountCustomerRoutes registers the customer payment view.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleCustomer))
		r.Get("/bookings/{bookingID}/payment", h.customerPayment)
		r.Post("/bookings/{bookingID}/payments", h.recordPayment)
	})
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ChargeCatalog(r.Context())
	if err != nil {
		h.fail(w, "charge catalog", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) listCharges(w http.ResponseWriter, r *http.Request) {
	charges, err := h.service.ListCharges(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.fail(w, "list charges", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"charges": charges})
}

func (h *Handler) addCharge(w http.ResponseWriter, r *http.Request) {
	var input AddChargeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.BookingID = chi.URLParam(r, "bookingID")
	actor, _ := shared.Actor(r.Context())
	charges, err := h.service.AddCharge(r.Context(), actor, input)
	if err != nil {
		h.fail(w, "add charge", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"charges": charges})
}

func (h *Handler) bookingBill(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.BookingBill(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.fail(w, "booking bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) customerPayment(w http.ResponseWriter, r *http.Request) {
	customerID, _ := shared.Actor(r.Context())
	view, err := h.service.CustomerPayment(r.Context(), customerID, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.fail(w, "customer payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var input PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.BookingID = chi.URLParam(r, "bookingID")
	actor, _ := shared.Actor(r.Context())
	if err := h.service.RecordPayment(r.Context(), actor, input); err != nil {
		h.fail(w, "record payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.ListInvoices(r.Context())
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BookingID string `json:"booking_id"`
	}
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.Actor(r.Context())
	inv, err := h.service.CreateInvoice(r.Context(), actor, input.BookingID)
	if err != nil {
		h.fail(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"invoice": inv,
		"nights":  inv.Nights(),
	})
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	pdf, inv, err := h.service.InvoicePDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "invoice pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "invoice-"+inv.Number+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
