// Package db opens the database, migrates the schema and seeds the
// authorization profiles.
package db

import (
	"fmt"
	"time"

	"github.com/diewo77/go-quotes/internal/config"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connection retry, to let Postgres start alongside the app.
var (
	connectAttempts = 10
	retryDelay      = 2 * time.Second
)

// Open connects with the configured driver and checks the connection.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	dialector, target, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	attempts := connectAttempts
	if cfg.Driver == config.DriverSQLite {
		attempts = 1
	}
	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("max", attempts).Msg("database connection failed")
		if i+1 < attempts {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	log.Info().Str("driver", cfg.Driver).Str("dsn", target).Msg("database connected")
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := NormalizeDSN(cfg.DSN())
		return postgres.Open(dsn), MaskDSN(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.Path), cfg.Path, nil
	default:
		return nil, "", fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth & Authorization
		&models.User{},
		&models.Profile{},
		&models.Permission{},
		// Business entities
		&models.CompanySettings{},
		&models.Client{},
		&models.Product{},
		&models.Quote{},
		&models.QuoteItem{},
	)
}

// Seed initializes the database with required seed data.
// Should be called after Migrate.
func Seed(db *gorm.DB) error {
	return SeedProfiles(db)
}

// Ping checks the underlying connection.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
