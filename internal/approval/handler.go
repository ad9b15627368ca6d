package approval

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hotelia/frontdesk/internal/platform/httpx"
	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Handler exposes the approval flow.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers approval routes under the admin router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermApprovalsManage))
		r.Get("/", h.listRequests)
		r.Post("/{bookingID}/begin", h.begin)
		r.Post("/{bookingID}/decline", h.decline)
		r.Get("/{bookingID}/history", h.history)
		r.Get("/current", h.current)
		r.Delete("/current", h.abandon)
		r.Put("/current/dates", h.setDates)
		r.Get("/current/rooms", h.rooms)
		r.Post("/current/rooms/{roomID}/toggle", h.toggle)
		r.Post("/current/confirm", h.confirm)
		r.Get("/current/receipt", h.receipt)
		r.Post("/current/submit", h.submit)
	})
}

type contextView struct {
	*Context
	Picked     int  `json:"picked"`
	CanProceed bool `json:"can_proceed"`
}

func present(c *Context) contextView {
	return contextView{Context: c, Picked: len(c.Selected), CanProceed: c.Confirm() == nil}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.History(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.fail(w, "approval history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"decisions": logs})
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRequests(r.Context())
	if err != nil {
		h.fail(w, "approval requests", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": list})
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	sess, staffID, ok := h.session(w, r)
	if !ok {
		return
	}
	c, err := h.service.Begin(r.Context(), sess.ID, staffID, chi.URLParam(r, "bookingID"))
	if err != nil {
		h.fail(w, "begin approval", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, present(c))
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	c, err := h.service.Current(r.Context(), sess.ID)
	if err != nil {
		h.fail(w, "load approval", err)
		return
	}
	httpx.JSON(w, http.StatusOK, present(c))
}

func (h *Handler) abandon(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.service.Abandon(r.Context(), sess.ID); err != nil {
		h.fail(w, "abandon approval", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDates(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.SetDates(r.Context(), sess.ID, req.CheckIn, req.CheckOut)
	if err != nil {
		h.fail(w, "approval dates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, present(c))
}

func (h *Handler) rooms(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	list, err := h.service.Rooms(r.Context(), sess.ID)
	if err != nil {
		h.fail(w, "approval rooms", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rooms": list})
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	c, err := h.service.Toggle(r.Context(), sess.ID, chi.URLParam(r, "roomID"))
	if err != nil {
		h.fail(w, "toggle room", err)
		return
	}
	httpx.JSON(w, http.StatusOK, present(c))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	c, err := h.service.ConfirmSelection(r.Context(), sess.ID)
	if err != nil {
		h.fail(w, "confirm selection", err)
		return
	}
	httpx.JSON(w, http.StatusOK, present(c))
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.Receipt(r.Context(), sess.ID)
	if err != nil {
		h.fail(w, "approval receipt", err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	result, err := h.service.Submit(r.Context(), sess.ID)
	if err != nil {
		h.fail(w, "submit approval", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	sess, staffID, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Decline(r.Context(), sess.ID, staffID, chi.URLParam(r, "bookingID"), req.Reason); err != nil {
		h.fail(w, "decline booking", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*shared.Session, string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return nil, "", false
	}
	return sess, sess.User(), true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
