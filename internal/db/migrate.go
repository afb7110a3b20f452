package db

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/diewo77/go-assets/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the sqlite3 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// coreTables must exist once migrations have run.
var coreTables = []string{"users", "assets", "asset_logs", "backups"}

// Migrate creates or updates the schema with gorm AutoMigrate. It is
// idempotent and safe to run on every startup.
func Migrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{}, &models.Asset{}, &models.AssetLog{}, &models.Backup{},
	}
	for _, m := range modelsToMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return checkTables(db)
}

// MigrateSQL applies the embedded SQL migrations to the sqlite file at path.
func MigrateSQL(db *gorm.DB, path string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("[DB] closing migrator: source=%v db=%v", srcErr, dbErr)
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return checkTables(db)
}

func checkTables(db *gorm.DB) error {
	for _, table := range coreTables {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}
