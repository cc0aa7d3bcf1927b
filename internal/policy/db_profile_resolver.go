package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-quotes/internal/gate"
	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

// DBProfileResolver reads a user's profile and its permissions from the
// database. The result is a detached gate.StaticProfile, safe to cache.
type DBProfileResolver struct {
	db *gorm.DB
}

func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{db: db}
}

// Resolve returns nil without error for an unknown user, a user without a
// profile, or a profile that was deleted since it was assigned. All three
// grant nothing.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	db := r.db.WithContext(ctx)

	var user models.User
	err := db.Select("id", "profile_id").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve profile of user %d: %w", userID, err)
	}
	if user.ProfileID == nil {
		return nil, nil
	}

	var profile models.Profile
	err = db.Preload("Permissions").First(&profile, *user.ProfileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve profile %d: %w", *user.ProfileID, err)
	}

	perms := make([]gate.Permission, 0, len(profile.Permissions))
	for _, p := range profile.Permissions {
		perms = append(perms, gate.NewPermission(p.ResourceType, gate.Action(p.Action)))
	}
	return gate.NewStaticProfile(profile.ID, profile.Name, perms...), nil
}
