package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hotelia/frontdesk/internal/approval"
	"github.com/hotelia/frontdesk/internal/auth"
	"github.com/hotelia/frontdesk/internal/billing"
	"github.com/hotelia/frontdesk/internal/bookings"
	"github.com/hotelia/frontdesk/internal/dashboard"
	"github.com/hotelia/frontdesk/internal/employees"
	"github.com/hotelia/frontdesk/internal/observability"
	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/rooms"
	"github.com/hotelia/frontdesk/internal/shared"
	"github.com/hotelia/frontdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	RoomsHandler     *rooms.Handler
	BookingsHandler  *bookings.Handler
	ApprovalHandler  *approval.Handler
	BillingHandler   *billing.Handler
	EmployeesHandler *employees.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi router with all routes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/rooms", params.RoomsHandler.MountPublicRoutes)

	// Staff portal: admins and front-desk employees.
	r.Route("/admin", func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireRole(shared.RoleAdmin, shared.RoleEmployee))
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		r.Route("/bookings", params.BookingsHandler.MountAdminRoutes)
		r.Route("/approvals", params.ApprovalHandler.MountRoutes)
		r.Route("/billing", params.BillingHandler.MountAdminRoutes)
		r.Route("/rooms", params.RoomsHandler.MountAdminRoutes)
		r.Route("/employees", params.EmployeesHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	r.Route("/customer", func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireRole(shared.RoleCustomer))
		r.Route("/bookings", params.BookingsHandler.MountCustomerRoutes)
		r.Route("/billing", params.BillingHandler.MountCustomerRoutes)
	})

	return r
}
