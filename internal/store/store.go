// Package store persists assets, users and the asset action log.
//
// Lookups of a single record return (nil, nil) when it does not exist.
// Mutations of a missing record return apperr.ErrNotFound. Every database
// failure is logged and returned wrapped in apperr.ErrStorage.
package store

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/diewo77/go-assets/internal/apperr"
	"gorm.io/gorm"
)

// Clock returns the current time. Tests replace it to pin timestamps.
type Clock func() time.Time

func storageErr(op string, err error) error {
	if errors.Is(err, apperr.ErrStorage) {
		return err
	}
	log.Printf("[Repo] %s: %v", op, err)
	return fmt.Errorf("%w: %s: %v", apperr.ErrStorage, op, err)
}

// writeErr classifies an insert/update failure.
func writeErr(op, field, value string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate(field, value)
	}
	return storageErr(op, err)
}

func duplicate(field, value string) error {
	return fmt.Errorf("%w: %s %q already exists", apperr.ErrDuplicateKey, field, value)
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%w: %s %d", apperr.ErrNotFound, kind, id)
}
