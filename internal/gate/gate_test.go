package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		granted, requested Permission
		want               bool
	}{
		{"quote:update", "quote:update", true},
		{"quote:update", "quote:delete", false},
		{"quote:update", "client:update", false},
		{"quote:*", "quote:export", true},
		{"quote:*", "client:view", false},
		{PermissionSuperAdmin, "company:update", true},
		{"invalid", "invalid", true},
		{"invalid", "quote:view", false},
		{":*", "quote:view", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.granted.Matches(tt.requested), "%s covers %s", tt.granted, tt.requested)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := NewPermission("quote", ActionExport).Parse()
	assert.Equal(t, "quote", res)
	assert.Equal(t, ActionExport, act)

	res, act = Permission("invalid").Parse()
	assert.Empty(t, res)
	assert.Empty(t, act)
}

type ownedThing struct{ owner uint }

type ownerPolicy struct{}

func (ownerPolicy) Can(_ context.Context, user uint, _ Action, resource any) bool {
	r, ok := resource.(*ownedThing)
	return ok && r.owner == user
}

func TestHybridGate(t *testing.T) {
	resolver := NewStaticResolver[uint]()
	sales := NewStaticProfile(1, "sales",
		NewPermission("quote", WildcardAll),
		NewPermission("client", ActionView),
	)
	resolver.Set(1, sales)
	resolver.Set(2, sales)

	g := NewHybridGate[uint](resolver)
	g.Register("quote", ownerPolicy{})
	ctx := context.Background()

	assert.True(t, g.Can(ctx, 1, ActionCreate, "quote", nil))
	assert.True(t, g.Can(ctx, 1, ActionUpdate, "quote", &ownedThing{owner: 1}))
	assert.False(t, g.Can(ctx, 2, ActionUpdate, "quote", &ownedThing{owner: 1}), "permission without ownership")
	assert.False(t, g.Can(ctx, 1, ActionDelete, "client", nil), "missing permission")
	assert.True(t, g.Can(ctx, 1, ActionView, "client", &ownedThing{owner: 99}), "no policy registered for client")
	assert.False(t, g.Can(ctx, 3, ActionView, "quote", nil), "no profile")
	assert.ErrorIs(t, g.Authorize(ctx, 0, ActionView, "quote", nil), ErrUnauthorized)

	assert.True(t, g.CanProfile(ctx, 2, ActionDelete, "quote"))
	assert.False(t, g.CanProfile(ctx, 2, ActionDelete, "company"))
}

type countingResolver struct {
	calls   int
	profile Profile
	err     error
}

func (r *countingResolver) Resolve(context.Context, uint) (Profile, error) {
	r.calls++
	return r.profile, r.err
}

func TestCachedResolver(t *testing.T) {
	inner := &countingResolver{profile: NewStaticProfile(1, "viewer")}
	cached := NewCachedResolver[uint](inner, time.Minute)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }
	ctx := context.Background()

	for range 3 {
		p, err := cached.Resolve(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "viewer", p.Name())
	}
	assert.Equal(t, 1, inner.calls)

	inner.profile = NewStaticProfile(2, "admin")
	now = now.Add(2 * time.Minute)
	p, err := cached.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Name(), "expired entry is refreshed")
	assert.Equal(t, 2, inner.calls)

	cached.Invalidate(1)
	_, _ = cached.Resolve(ctx, 1)
	assert.Equal(t, 3, inner.calls)

	_, _ = cached.Resolve(ctx, 2)
	cached.InvalidateAll()
	_, _ = cached.Resolve(ctx, 1)
	_, _ = cached.Resolve(ctx, 2)
	assert.Equal(t, 6, inner.calls)
}

func TestCachedResolver_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("db down")
	inner := &countingResolver{err: boom}
	cached := NewCachedResolver[uint](inner, time.Minute)

	_, err := cached.Resolve(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	inner.err = nil
	inner.profile = NewStaticProfile(1, "viewer")
	p, err := cached.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "viewer", p.Name())
}

func TestStaticProfile_Permissions(t *testing.T) {
	p := NewStaticProfile(1, "viewer", "quote:view", "quote:list")
	perms := p.Permissions()
	perms[0] = PermissionSuperAdmin
	assert.False(t, p.HasPermission("company:update"))
	assert.True(t, p.HasPermission("quote:list"))
}
