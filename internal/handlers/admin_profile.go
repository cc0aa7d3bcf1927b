package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/validation"
	"gorm.io/gorm"
)

// CacheInvalidator drops cached profiles after an admin change.
// policy.AuthGate implements it.
type CacheInvalidator interface {
	InvalidateUser(userID uint)
	InvalidateAll()
}

// AdminProfileHandler handles CRUD operations for profiles and their
// permissions.
type AdminProfileHandler struct {
	DB    *gorm.DB
	Cache CacheInvalidator
}

// NewAdminProfileHandler creates a new admin profile handler.
func NewAdminProfileHandler(db *gorm.DB, cache CacheInvalidator) *AdminProfileHandler {
	return &AdminProfileHandler{DB: db, Cache: cache}
}

type profileReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type permissionsReq struct {
	// Permissions are "resource:action" codes, e.g. "quote:update".
	Permissions []string `json:"permissions"`
}

func (h *AdminProfileHandler) invalidateAll() {
	if h.Cache != nil {
		h.Cache.InvalidateAll()
	}
}

// List returns all profiles with their permissions and users.
func (h *AdminProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Preload("Permissions").Preload("Users").Order("name").Find(&profiles).Error; err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (h *AdminProfileHandler) decode(w http.ResponseWriter, r *http.Request) (profileReq, bool) {
	var req profileReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if v := validation.Struct(req); !v.Empty() {
		invalid(w, r, v)
		return req, false
	}
	return req, true
}

// save stores profile, reporting a taken name as a validation failure.
func (h *AdminProfileHandler) save(w http.ResponseWriter, r *http.Request, profile *models.Profile) bool {
	err := h.DB.WithContext(r.Context()).Save(profile).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		v := make(validation.Violations)
		v.Add("name", "already_exists")
		invalid(w, r, v)
		return false
	}
	if err != nil {
		fail(w, r, err)
		return false
	}
	return true
}

// Create adds a profile without permissions.
func (h *AdminProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	profile := models.Profile{Name: req.Name, Description: req.Description}
	if !h.save(w, r, &profile) {
		return
	}
	httpx.JSON(w, http.StatusCreated, profile)
}

func (h *AdminProfileHandler) find(w http.ResponseWriter, r *http.Request, preload ...string) (*models.Profile, bool) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return nil, false
	}
	q := h.DB.WithContext(r.Context())
	for _, p := range preload {
		q = q.Preload(p)
	}
	var profile models.Profile
	if err := q.First(&profile, id).Error; err != nil {
		fail(w, r, err)
		return nil, false
	}
	return &profile, true
}

// Update renames a profile. System profiles keep their name.
func (h *AdminProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.find(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if profile.IsSystem && req.Name != profile.Name {
		httpx.JSONError(w, http.StatusForbidden, "cannot_rename_system_profile", nil)
		return
	}
	profile.Name = req.Name
	profile.Description = req.Description
	if !h.save(w, r, profile) {
		return
	}
	h.invalidateAll()
	httpx.JSON(w, http.StatusOK, profile)
}

// Delete removes an unused, non-system profile.
func (h *AdminProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.find(w, r, "Users")
	if !ok {
		return
	}
	if profile.IsSystem {
		httpx.JSONError(w, http.StatusForbidden, "cannot_delete_system_profile", nil)
		return
	}
	if len(profile.Users) > 0 {
		httpx.JSONError(w, http.StatusConflict, "profile_has_users", nil)
		return
	}
	if err := h.DB.WithContext(r.Context()).Delete(profile).Error; err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SavePermissions replaces the permission set of a profile. Unknown codes
// are rejected as a whole.
func (h *AdminProfileHandler) SavePermissions(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.find(w, r)
	if !ok {
		return
	}
	var req permissionsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}

	var all []models.Permission
	if err := h.DB.WithContext(r.Context()).Find(&all).Error; err != nil {
		fail(w, r, err)
		return
	}
	byCode := make(map[string]models.Permission, len(all))
	for _, p := range all {
		byCode[p.Code()] = p
	}
	permissions := make([]models.Permission, 0, len(req.Permissions))
	v := make(validation.Violations)
	for _, code := range req.Permissions {
		p, ok := byCode[strings.TrimSpace(code)]
		if !ok {
			v.Add("permissions", "unknown_reference")
			continue
		}
		permissions = append(permissions, p)
	}
	if !v.Empty() {
		invalid(w, r, v)
		return
	}

	if err := h.DB.WithContext(r.Context()).Model(profile).Association("Permissions").Replace(permissions); err != nil {
		fail(w, r, err)
		return
	}
	h.invalidateAll()
	profile.Permissions = permissions
	httpx.JSON(w, http.StatusOK, profile)
}

// ListPermissions returns every known permission.
func (h *AdminProfileHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	var permissions []models.Permission
	if err := h.DB.WithContext(r.Context()).Order("resource_type, action").Find(&permissions).Error; err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, permissions)
}
