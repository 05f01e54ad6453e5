package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

// AutoRunEnabled reports whether a binary should bring the schema up on boot.
// Only dev deployments with BAZAAR_AUTO_MIGRATE set qualify.
func AutoRunEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev lints the migrations directory and applies pending migrations
// when AutoRunEnabled. Every other environment runs cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !AutoRunEnabled(cfg) {
		return nil
	}
	if err := ValidateDir(DefaultDir); err != nil {
		return fmt.Errorf("refusing dev auto-migrate: %w", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}

	before := schemaVersion(sqlDB, DefaultDir)
	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir, "schemaVersion": before})
	logg.Info(ctx, "dev auto-migrate: applying pending migrations")

	if err := Run(ctx, sqlDB, DefaultDir, CommandUp); err != nil {
		return err
	}

	after := schemaVersion(sqlDB, DefaultDir)
	if after == before {
		logg.Info(ctx, "dev auto-migrate: schema already current")
		return nil
	}
	logg.Info(logg.WithField(ctx, "appliedTo", after), "dev auto-migrate: schema upgraded")
	return nil
}

// schemaVersion is best effort; -1 means goose could not read its table yet.
func schemaVersion(sqlDB *sql.DB, dir string) int64 {
	if usePostgres(sqlDB, dir) != nil {
		return -1
	}
	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return -1
	}
	return version
}
