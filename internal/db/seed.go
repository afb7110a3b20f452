package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/passwd"
	"gorm.io/gorm"
)

// DefaultAdminUsername is the account created on an empty database.
const DefaultAdminUsername = "admin"

// Seed creates the default administrator when no account with that
// username exists. Running it again is a no-op.
//
// The seeded password is a known value and must be changed after install;
// Seed logs a warning every time it creates the account.
func Seed(db *gorm.DB, adminPassword string) error {
	var existing models.User
	err := db.Where("username = ?", DefaultAdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := passwd.Hash(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Username:  DefaultAdminUsername,
		Password:  hash,
		Role:      models.RoleAdministrator,
		Email:     "admin@example.com",
		FullName:  "System Administrator",
		CreatedAt: time.Now(),
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("[DB] WARNING: created default account %q with the configured default password; change it now", DefaultAdminUsername)
	return nil
}
