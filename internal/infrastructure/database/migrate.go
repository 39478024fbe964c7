package database

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
)

// RunMigrations brings the schema up to date. Postgres deployments use
// versioned SQL migrations from the /migrations directory; sqlite relies
// on gorm AutoMigrate since migrate has no sqlite driver wired here.
func RunMigrations(db *gorm.DB, cfg *config.DatabaseConfig) error {
	if cfg.Driver != "postgres" {
		return autoMigrate(db)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		cfg.DBName,
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to init migrate: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Account{},
		&domain.Task{},
		&domain.Group{},
		&domain.Message{},
		&domain.DeliveryLog{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
