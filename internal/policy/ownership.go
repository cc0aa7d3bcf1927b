package policy

import (
	"context"

	"github.com/diewo77/go-quotes/internal/gate"
	"github.com/diewo77/go-quotes/internal/models"
)

// Ownable is implemented by every tenant-scoped model (quotes, clients,
// products, company settings).
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy allows an action on a resource only to its owner.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can allows list/create (nil resource); profile permissions already gate
// those. A resource that is not Ownable is denied.
func (p *OwnershipPolicy) Can(_ context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return userID != 0 && ownable.GetUserID() == userID
}

// AdminBypassPolicy lets admins through and defers to inner for everyone else.
type AdminBypassPolicy struct {
	inner   gate.Policy[uint]
	isAdmin func(ctx context.Context, userID uint) bool
}

func NewAdminBypassPolicy(inner gate.Policy[uint], isAdmin func(ctx context.Context, userID uint) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	if p.isAdmin(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}

// RegisterOwnership installs the owner-or-admin policy on every tenant resource.
func (ag *AuthGate) RegisterOwnership() {
	owner := NewAdminBypassPolicy(NewOwnershipPolicy(), ag.IsAdmin)
	for _, res := range []string{models.ResourceQuote, models.ResourceClient, models.ResourceProduct, models.ResourceCompany} {
		ag.RegisterPolicy(res, owner)
	}
}
