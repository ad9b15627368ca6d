package rooms

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/platform/httpx"
	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/shared"
)

// Handler exposes room search and catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountPublicRoutes registers routes open to guests browsing the site.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/types", h.types)
	r.Post("/search", h.search)
	r.Get("/search", h.lastSearch)
	r.Post("/quote", h.quote)
}

// MountAdminRoutes registers the staff inventory view.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(rbac.PermRoomsView)).Get("/", h.inventory)
}

func (h *Handler) types(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.Types(r.Context())
	if err != nil {
		h.fail(w, "room types", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"room_types": types})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var c Criteria
	if err := httpx.DecodeJSON(r, &c); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Search(r.Context(), c)
	if err != nil {
		h.fail(w, "search rooms", err)
		return
	}
	Remember(shared.SessionFromContext(r.Context()), c)
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) lastSearch(w http.ResponseWriter, r *http.Request) {
	c, ok := Recall(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.JSON(w, http.StatusOK, map[string]any{"criteria": nil})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"criteria": c})
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Criteria
		Rooms []bookings.RoomRequest `json:"rooms"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Quote(r.Context(), req.Criteria, req.Rooms)
	if err != nil {
		h.fail(w, "quote", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summary": summary, "display": summary.Display()})
}

func (h *Handler) inventory(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Inventory(r.Context())
	if err != nil {
		h.fail(w, "room inventory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rooms": list})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
