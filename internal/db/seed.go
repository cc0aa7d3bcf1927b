package db

import (
	"errors"
	"strings"

	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

// Profile names seeded at startup.
const (
	ProfileAdmin  = "admin"
	ProfileViewer = "viewer"
	ProfileSales  = "sales"
)

type permissionSeed struct {
	ResourceType string
	Action       string
	Description  string
}

var permissionSeeds = []permissionSeed{
	// Superadmin wildcard
	{"*", "*", "Full system access"},
	// Quote permissions
	{"quote", "*", "All quote actions"},
	{"quote", "list", "List quotes"},
	{"quote", "view", "View quote details"},
	{"quote", "create", "Create quotes"},
	{"quote", "update", "Edit quotes"},
	{"quote", "delete", "Delete quotes"},
	{"quote", "export", "Export quotes to PDF and XLSX"},
	// Client permissions
	{"client", "*", "All client actions"},
	{"client", "list", "List clients"},
	{"client", "view", "View client details"},
	{"client", "create", "Create clients"},
	{"client", "update", "Edit clients"},
	{"client", "delete", "Delete clients"},
	// Product permissions
	{"product", "*", "All product actions"},
	{"product", "list", "List products"},
	{"product", "view", "View product details"},
	{"product", "create", "Create products"},
	{"product", "update", "Edit products"},
	{"product", "delete", "Delete products"},
	// Company settings
	{"company", "*", "All company settings"},
	{"company", "view", "View company settings"},
	{"company", "update", "Edit company settings"},
	// Dashboard
	{"dashboard", "view", "View dashboard"},
}

var profileSeeds = []struct {
	Name        string
	Description string
	Permissions []string // "resource:action" format
}{
	{
		Name:        ProfileAdmin,
		Description: "Full system administrator with all permissions",
		Permissions: []string{"*:*"},
	},
	{
		Name:        ProfileViewer,
		Description: "Read-only access to quotes, clients and the catalog",
		Permissions: []string{
			"quote:list",
			"quote:view",
			"quote:export",
			"client:list",
			"client:view",
			"product:list",
			"product:view",
			"company:view",
			"dashboard:view",
		},
	},
	{
		Name:        ProfileSales,
		Description: "Manage quotes and clients, read the catalog",
		Permissions: []string{
			"quote:*",
			"client:*",
			"product:list",
			"product:view",
			"company:view",
			"dashboard:view",
		},
	},
}

// SeedPermissions creates the core permissions for the application.
func SeedPermissions(db *gorm.DB) error {
	for _, p := range permissionSeeds {
		perm := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
		}
		// Use FirstOrCreate to avoid duplicates
		result := db.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the default system profiles with their permissions.
// Running it again resets the system profiles to their seeded permissions.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	for _, p := range profileSeeds {
		var profile models.Profile
		err := db.Where("name = ?", p.Name).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{
				Name:        p.Name,
				Description: p.Description,
				IsSystem:    true,
			}
			if err := db.Create(&profile).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			resource, action, _ := strings.Cut(code, ":")
			var perm models.Permission
			if err := db.Where("resource_type = ? AND action = ?", resource, action).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}
