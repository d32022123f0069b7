// Package httptransport assembles the HTTP API: it mounts every feature
// handler on one chi router and layers the cross-cutting middleware. Business
// logic stays in the feature services; this package only routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "civreg/internal/account/handler"
	"civreg/internal/audit"
	caseshandler "civreg/internal/cases/handler"
	identityhandler "civreg/internal/identity/handler"
	"civreg/internal/platform/middleware"
	registrationhandler "civreg/internal/registration/handler"
	reportinghandler "civreg/internal/reporting/handler"
	"civreg/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger        *slog.Logger
	Tokens        middleware.TokenValidator
	Accounts      *accounthandler.Handler
	Identities    *identityhandler.Handler
	Cases         *caseshandler.Handler
	Registrations *registrationhandler.Handler
	Reports       *reportinghandler.Handler
	Audit         *audit.Handler

	// Health reports backend connectivity; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter wires the full API surface. Login and registration submission are
// public; everything else requires a bearer token, and the /admin subtree
// additionally requires the administrator role.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", d.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes.
	d.Accounts.Register(r)
	d.Registrations.RegisterPublic(r)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Tokens, d.Logger))

		d.Identities.Register(r)
		d.Cases.Register(r)
		d.Reports.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Logger))

			d.Registrations.RegisterAdmin(r)
			d.Reports.RegisterAdmin(r)
			d.Audit.Register(r)
		})
	})

	return r
}

func (d Deps) handleHealth(w http.ResponseWriter, r *http.Request) {
	if d.Health != nil {
		if err := d.Health(r.Context()); err != nil {
			d.Logger.ErrorContext(r.Context(), "health check failed", "error", err.Error())
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
