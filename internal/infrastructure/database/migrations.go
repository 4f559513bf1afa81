package database

import (
	"fmt"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/pkg/logger"
)

// schema lists the models in dependency order
var schema = []any{
	&models.AuthUser{},
	&models.User{},
	&models.Repository{},
}

// AutoMigrate creates or updates the tables, including the
// repositories_user_id_full_name_unique index
func (d *Database) AutoMigrate() error {
	if err := d.db.AutoMigrate(schema...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}

// RunMigrations runs all database migrations
func (d *Database) RunMigrations() error {
	d.log.Info("Running database migrations...", logger.Int("models", len(schema)))

	if err := d.AutoMigrate(); err != nil {
		d.log.Error("Database migration failed", logger.Error(err))
		return err
	}

	if !d.db.Migrator().HasIndex(&models.Repository{}, "repositories_user_id_full_name_unique") {
		return fmt.Errorf("missing unique index repositories_user_id_full_name_unique")
	}

	d.log.Info("Database migrations completed")
	return nil
}
