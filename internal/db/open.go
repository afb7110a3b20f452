package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/diewo77/go-assets/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. Unique-constraint violations
// are translated to gorm.ErrDuplicatedKey on every dialect.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	case config.DriverSQLite, "":
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	log.Printf("[DB] Connecting: %s", cfg.Redacted())
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Driver == config.DriverSQLite || cfg.Driver == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// one connection: every caller sees its own writes and the file is
		// never written by two connections at once.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Connect opens the database and wraps it in a Gateway able to reopen it.
func Connect(cfg config.DatabaseConfig) (*Gateway, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	path := ""
	if cfg.Driver == config.DriverSQLite || cfg.Driver == "" {
		path = cfg.Path
	}
	return NewGateway(db, func() (*gorm.DB, error) { return Open(cfg) }, path), nil
}
