package policy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/gate"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupGate seeds profiles and creates users 1 (admin), 2 (sales),
// 3 (viewer) and 4 (no profile).
func setupGate(t *testing.T) (*gorm.DB, *AuthGate) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb))

	profileID := func(name string) *uint {
		var p models.Profile
		require.NoError(t, gdb.Where("name = ?", name).First(&p).Error)
		return &p.ID
	}
	users := []models.User{
		{ID: 1, Email: "admin@example.com", ProfileID: profileID(db.ProfileAdmin)},
		{ID: 2, Email: "sales@example.com", ProfileID: profileID(db.ProfileSales)},
		{ID: 3, Email: "viewer@example.com", ProfileID: profileID(db.ProfileViewer)},
		{ID: 4, Email: "nobody@example.com"},
	}
	require.NoError(t, gdb.Create(&users).Error)

	ag := NewAuthGate(gdb, time.Minute)
	ag.RegisterOwnership()
	return gdb, ag
}

func asUser(id uint) context.Context {
	return auth.WithUserID(context.Background(), id)
}

func TestAuthGate_ProfilePermissions(t *testing.T) {
	_, ag := setupGate(t)

	tests := []struct {
		name     string
		user     uint
		action   gate.Action
		resource string
		want     bool
	}{
		{"admin anything", 1, gate.ActionDelete, models.ResourceCompany, true},
		{"sales creates quote", 2, gate.ActionCreate, models.ResourceQuote, true},
		{"sales exports quote", 2, gate.ActionExport, models.ResourceQuote, true},
		{"sales cannot edit catalog", 2, gate.ActionUpdate, models.ResourceProduct, false},
		{"viewer lists quotes", 3, gate.ActionList, models.ResourceQuote, true},
		{"viewer cannot update quote", 3, gate.ActionUpdate, models.ResourceQuote, false},
		{"no profile", 4, gate.ActionList, models.ResourceQuote, false},
		{"unknown user", 99, gate.ActionList, models.ResourceQuote, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ag.CanProfile(asUser(tt.user), tt.action, tt.resource))
		})
	}
	assert.False(t, ag.CanProfile(context.Background(), gate.ActionList, models.ResourceQuote), "anonymous")
}

func TestAuthGate_Ownership(t *testing.T) {
	_, ag := setupGate(t)
	mine := &models.Quote{UserID: 2}
	theirs := &models.Quote{UserID: 5}

	assert.NoError(t, ag.Authorize(asUser(2), gate.ActionUpdate, models.ResourceQuote, mine))
	assert.ErrorIs(t, ag.Authorize(asUser(2), gate.ActionUpdate, models.ResourceQuote, theirs), gate.ErrUnauthorized)
	assert.NoError(t, ag.Authorize(asUser(1), gate.ActionUpdate, models.ResourceQuote, theirs), "admin bypass")
	assert.ErrorIs(t, ag.Authorize(asUser(3), gate.ActionUpdate, models.ResourceQuote, &models.Quote{UserID: 3}), gate.ErrUnauthorized)
}

func TestAuthGate_InvalidateUser(t *testing.T) {
	gdb, ag := setupGate(t)
	require.True(t, ag.CanProfile(asUser(2), gate.ActionCreate, models.ResourceQuote))

	require.NoError(t, gdb.Model(&models.User{}).Where("id = ?", 2).Update("profile_id", nil).Error)
	assert.True(t, ag.CanProfile(asUser(2), gate.ActionCreate, models.ResourceQuote), "cached")

	ag.InvalidateUser(2)
	assert.False(t, ag.CanProfile(asUser(2), gate.ActionCreate, models.ResourceQuote))
}

func TestAuthGate_Middleware(t *testing.T) {
	_, ag := setupGate(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name    string
		handler http.Handler
		user    uint
		want    int
	}{
		{"permission granted", ag.RequirePermission(models.ResourceQuote, gate.ActionCreate)(ok), 2, http.StatusNoContent},
		{"permission denied", ag.RequirePermission(models.ResourceQuote, gate.ActionCreate)(ok), 3, http.StatusForbidden},
		{"admin only, admin", ag.RequireAdmin()(ok), 1, http.StatusNoContent},
		{"admin only, sales", ag.RequireAdmin()(ok), 2, http.StatusForbidden},
		{"admin only, anonymous", ag.RequireAdmin()(ok), 0, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != 0 {
				req = req.WithContext(asUser(tt.user))
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
