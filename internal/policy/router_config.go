package policy

import (
	"time"

	"github.com/diewo77/go-quotes/internal/config"
	"github.com/diewo77/go-quotes/internal/handlers"
	"github.com/diewo77/go-quotes/internal/services"
	"gorm.io/gorm"
)

// RouterConfig holds the configured handlers and the gate the router wraps
// them with.
type RouterConfig struct {
	AuthGate *AuthGate

	// Admin handlers
	AdminProfileHandler     *handlers.AdminProfileHandler
	AdminUserProfileHandler *handlers.AdminUserProfileHandler

	// Business handlers
	QuoteHandler     *handlers.QuoteHandler
	ClientHandler    *handlers.ClientHandler
	ProductHandler   *handlers.ProductHandler
	CompanyHandler   *handlers.CompanyHandler
	DashboardHandler *handlers.DashboardHandler

	QuoteService *services.QuoteService
}

// NewRouterConfig wires the authorization gate, the quote service and every
// handler. Ownership (with admin bypass) is registered on all tenant
// resources, and the admin handlers invalidate the gate's profile cache.
func NewRouterConfig(db *gorm.DB, cfg *config.Config) *RouterConfig {
	ttl := time.Duration(cfg.App.AuthCacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	authGate := NewAuthGate(db, ttl)
	authGate.RegisterOwnership()

	quoteService := services.NewQuoteService(db, authGate, cfg.Quote)

	return &RouterConfig{
		AuthGate:                authGate,
		AdminProfileHandler:     handlers.NewAdminProfileHandler(db, authGate),
		AdminUserProfileHandler: handlers.NewAdminUserProfileHandler(db, authGate),
		QuoteHandler:            handlers.NewQuoteHandler(quoteService),
		ClientHandler:           handlers.NewClientHandler(db),
		ProductHandler:          handlers.NewProductHandler(db),
		CompanyHandler:          handlers.NewCompanyHandler(db, quoteService),
		DashboardHandler:        handlers.NewDashboardHandler(quoteService),
		QuoteService:            quoteService,
	}
}
