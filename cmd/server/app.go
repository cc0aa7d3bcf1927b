package main

import (
	"net/http"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/gate"
	"github.com/diewo77/go-quotes/internal/handlers"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/obs"
	"github.com/diewo77/go-quotes/internal/policy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates the application with all routes configured. Metrics are
// registered on reg and served from it.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, log zerolog.Logger, reg *prometheus.Registry) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	obs.MustRegisterDomainMetrics(reg)
	app.setupRoutes(reg)

	logged := obs.RequestLogger{Logger: log, Metrics: obs.NewHTTPMetrics("quotes", reg)}.Middleware(app.mux)
	app.handler = auth.Middleware(withLanguage(logged))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes(gatherer prometheus.Gatherer) {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /healthz", handlers.Health(a.db))
	a.mux.Handle("GET /metrics", obs.Handler(gatherer))

	// ─────────────────────────────────────────────────────────────────────────
	// Quotes
	// ─────────────────────────────────────────────────────────────────────────
	qh := a.routerCfg.QuoteHandler
	quote := func(action gate.Action, h http.HandlerFunc) http.Handler {
		return a.protect(models.ResourceQuote, action, h)
	}
	a.mux.Handle("GET /api/quotes", quote(gate.ActionList, qh.List))
	a.mux.Handle("POST /api/quotes", quote(gate.ActionCreate, qh.Create))
	a.mux.Handle("GET /api/quotes/export.xlsx", quote(gate.ActionExport, qh.Export))
	a.mux.Handle("GET /api/quotes/{id}", quote(gate.ActionView, qh.Get))
	a.mux.Handle("PUT /api/quotes/{id}", quote(gate.ActionUpdate, qh.Update))
	a.mux.Handle("DELETE /api/quotes/{id}", quote(gate.ActionDelete, qh.Delete))
	a.mux.Handle("GET /api/quotes/{id}/totals", quote(gate.ActionView, qh.Totals))
	a.mux.Handle("GET /api/quotes/{id}/pdf", quote(gate.ActionExport, qh.PDF))
	a.mux.Handle("POST /api/quotes/{id}/duplicate", quote(gate.ActionCreate, qh.Duplicate))
	a.mux.Handle("POST /api/quotes/{id}/items", quote(gate.ActionUpdate, qh.AddItem))
	a.mux.Handle("PATCH /api/quotes/{id}/items/{index}", quote(gate.ActionUpdate, qh.UpdateItem))
	a.mux.Handle("DELETE /api/quotes/{id}/items/{index}", quote(gate.ActionUpdate, qh.RemoveItem))
	a.mux.Handle("POST /api/quotes/{id}/items/{index}/move", quote(gate.ActionUpdate, qh.MoveItem))
	a.mux.Handle("PUT /api/quotes/{id}/financials", quote(gate.ActionUpdate, qh.SetFinancials))
	a.mux.Handle("PUT /api/quotes/{id}/status", quote(gate.ActionUpdate, qh.SetStatus))

	// ─────────────────────────────────────────────────────────────────────────
	// Clients and catalog
	// ─────────────────────────────────────────────────────────────────────────
	ch := a.routerCfg.ClientHandler
	a.mux.Handle("GET /api/clients", a.protect(models.ResourceClient, gate.ActionList, ch.List))
	a.mux.Handle("POST /api/clients", a.protect(models.ResourceClient, gate.ActionCreate, ch.Create))
	a.mux.Handle("GET /api/clients/{id}", a.protect(models.ResourceClient, gate.ActionView, ch.Get))
	a.mux.Handle("PUT /api/clients/{id}", a.protect(models.ResourceClient, gate.ActionUpdate, ch.Update))
	a.mux.Handle("DELETE /api/clients/{id}", a.protect(models.ResourceClient, gate.ActionDelete, ch.Delete))

	ph := a.routerCfg.ProductHandler
	a.mux.Handle("GET /api/products", a.protect(models.ResourceProduct, gate.ActionList, ph.List))
	a.mux.Handle("POST /api/products", a.protect(models.ResourceProduct, gate.ActionCreate, ph.Create))
	a.mux.Handle("GET /api/products/{id}", a.protect(models.ResourceProduct, gate.ActionView, ph.Get))
	a.mux.Handle("PUT /api/products/{id}", a.protect(models.ResourceProduct, gate.ActionUpdate, ph.Update))
	a.mux.Handle("DELETE /api/products/{id}", a.protect(models.ResourceProduct, gate.ActionDelete, ph.Delete))

	// ─────────────────────────────────────────────────────────────────────────
	// Company settings and dashboard
	// ─────────────────────────────────────────────────────────────────────────
	sh := a.routerCfg.CompanyHandler
	a.mux.Handle("GET /api/company", a.protect(models.ResourceCompany, gate.ActionView, sh.Get))
	a.mux.Handle("PUT /api/company", a.protect(models.ResourceCompany, gate.ActionUpdate, sh.Update))
	a.mux.Handle("GET /api/dashboard", a.protect(models.ResourceDashboard, gate.ActionView, a.routerCfg.DashboardHandler.Get))

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes (require the *:* permission)
	// ─────────────────────────────────────────────────────────────────────────
	aph := a.routerCfg.AdminProfileHandler
	auph := a.routerCfg.AdminUserProfileHandler
	a.mux.Handle("GET /api/admin/profiles", a.requireAdmin(aph.List))
	a.mux.Handle("POST /api/admin/profiles", a.requireAdmin(aph.Create))
	a.mux.Handle("PUT /api/admin/profiles/{id}", a.requireAdmin(aph.Update))
	a.mux.Handle("DELETE /api/admin/profiles/{id}", a.requireAdmin(aph.Delete))
	a.mux.Handle("PUT /api/admin/profiles/{id}/permissions", a.requireAdmin(aph.SavePermissions))
	a.mux.Handle("GET /api/admin/permissions", a.requireAdmin(aph.ListPermissions))
	a.mux.Handle("GET /api/admin/users", a.requireAdmin(auph.List))
	a.mux.Handle("PUT /api/admin/users/{id}/profile", a.requireAdmin(auph.AssignProfile))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// protect requires a session and the resource:action profile permission.
func (a *App) protect(resourceType string, action gate.Action, h http.HandlerFunc) http.Handler {
	return a.requireAuth(a.routerCfg.AuthGate.RequirePermission(resourceType, action)(h))
}

// requireAuth answers 401 without a valid session and tags the access log
// line with the user.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := auth.UserIDFromContext(r.Context()); ok {
			obs.SetUserID(r.Context(), uid)
		}
		next.ServeHTTP(w, r)
	}))
}

func (a *App) requireAdmin(h http.HandlerFunc) http.Handler {
	return a.requireAuth(a.routerCfg.AuthGate.RequireAdmin()(h))
}

// withLanguage resolves the request language: query (persisted as a
// cookie), then cookie, then Accept-Language.
func withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = i18n.Normalize(q)
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		if lang != i18n.FR && lang != i18n.EN {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
