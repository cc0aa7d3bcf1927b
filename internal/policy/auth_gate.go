// Package policy binds the generic gate to this application: profiles come
// from the database, tenant resources are owner-only (admins excepted) and
// HTTP middleware answers with the JSON error shape of the API.
package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/gate"
	"gorm.io/gorm"
)

// AuthGate is the single authorization point. Resolved profiles are cached
// per user for the configured TTL; the admin handlers invalidate them.
type AuthGate struct {
	gate     *gate.HybridGate[uint]
	profiles *gate.CachedResolver[uint]
}

// NewAuthGate reads profiles from db and caches them for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	return newAuthGate(NewDBProfileResolver(db), cacheTTL)
}

func newAuthGate(resolver gate.ProfileResolver[uint], cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](resolver, cacheTTL)
	return &AuthGate{gate: gate.NewHybridGate[uint](cached), profiles: cached}
}

// RegisterPolicy adds a per-resource check run after the profile check.
func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[uint]) {
	ag.gate.Register(resourceType, p)
}

// Authorize checks the caller in ctx against both the profile permission
// and the policy of resourceType. It returns gate.ErrUnauthorized when
// either refuses, or when ctx carries no user.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.gate.Authorize(ctx, userID, action, resourceType, resource)
}

// CanProfile checks the profile permission only, before any resource is loaded.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.gate.CanProfile(ctx, userID, action, resourceType)
}

// IsAdmin reports whether userID's profile carries "*:*".
func (ag *AuthGate) IsAdmin(ctx context.Context, userID uint) bool {
	profile, err := ag.profiles.Resolve(ctx, userID)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(gate.PermissionSuperAdmin)
}

// InvalidateUser drops the cached profile of one user, after a reassignment.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.profiles.Invalidate(userID)
}

// InvalidateAll drops every cached profile, after a profile's permissions
// changed.
func (ag *AuthGate) InvalidateAll() {
	ag.profiles.InvalidateAll()
}

// RequirePermission answers 403 unless the caller's profile grants
// resourceType:action. Ownership is checked later, once the resource is loaded.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin answers 401 without a user and 403 for non-admins.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !ag.IsAdmin(r.Context(), userID) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
