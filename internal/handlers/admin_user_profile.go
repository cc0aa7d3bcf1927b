package handlers

import (
	"net/http"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/validation"
	"gorm.io/gorm"
)

// AdminUserProfileHandler handles user profile assignment.
type AdminUserProfileHandler struct {
	DB    *gorm.DB
	Cache CacheInvalidator
}

// NewAdminUserProfileHandler creates a new admin user profile handler.
func NewAdminUserProfileHandler(db *gorm.DB, cache CacheInvalidator) *AdminUserProfileHandler {
	return &AdminUserProfileHandler{DB: db, Cache: cache}
}

type assignReq struct {
	// ProfileID nil removes the profile, and with it every access.
	ProfileID *uint `json:"profile_id"`
}

// List returns all users with their profile.
func (h *AdminUserProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, limit := paging(r)
	db := h.DB.WithContext(r.Context()).Model(&models.User{})
	out := page[models.User]{Page: pg, Limit: limit}
	if err := db.Count(&out.Total).Error; err != nil {
		fail(w, r, err)
		return
	}
	if err := db.Preload("Profile").Order("email").Limit(limit).Offset((pg - 1) * limit).Find(&out.Items).Error; err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// AssignProfile sets or clears the profile of the user in the path.
func (h *AdminUserProfileHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return
	}
	var req assignReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	db := h.DB.WithContext(r.Context())

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		fail(w, r, err)
		return
	}
	if req.ProfileID != nil {
		var n int64
		if err := db.Model(&models.Profile{}).Where("id = ?", *req.ProfileID).Count(&n).Error; err != nil {
			fail(w, r, err)
			return
		}
		if n == 0 {
			v := make(validation.Violations)
			v.Add("profile_id", "unknown_reference")
			invalid(w, r, v)
			return
		}
	}

	if err := db.Model(&user).Update("profile_id", req.ProfileID).Error; err != nil {
		fail(w, r, err)
		return
	}
	if h.Cache != nil {
		h.Cache.InvalidateUser(userID)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"profile_id": req.ProfileID,
	})
}
