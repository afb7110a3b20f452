package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diewo77/go-assets/internal/apperr"
	"gorm.io/gorm"
)

// Opener reopens the database after a Replace.
type Opener func() (*gorm.DB, error)

// Gateway hands out scoped access to one shared database handle.
//
// Do callers run concurrently with each other. Quiesce and Replace wait for
// in-flight Do calls to finish and block new ones until they return, which
// lets the backup manager copy or overwrite the database file safely.
type Gateway struct {
	mu   sync.RWMutex
	db   *gorm.DB
	open Opener
	path string
}

// NewGateway wraps db. path is the sqlite file backing db, empty for
// server databases; open may be nil when Replace is never needed.
func NewGateway(db *gorm.DB, open Opener, path string) *Gateway {
	return &Gateway{db: db, open: open, path: path}
}

// Path returns the database file path, or "" for server databases.
func (g *Gateway) Path() string { return g.path }

// Do runs fn with the handle bound to ctx. The handle must not be retained
// after fn returns.
func (g *Gateway) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return fmt.Errorf("%w: database is closed", apperr.ErrStorage)
	}
	return fn(g.db.WithContext(ctx))
}

// Quiesce runs fn while no other caller holds the database.
func (g *Gateway) Quiesce(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}

// Replace closes the pool, runs fn and reopens the database. The reopen is
// attempted even when fn or the close fails so the gateway stays usable; fn
// is skipped when the pool could not be closed.
func (g *Gateway) Replace(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open == nil {
		return fmt.Errorf("%w: gateway cannot reopen the database", apperr.ErrStorage)
	}

	var fnErr error
	if err := g.closeLocked(); err != nil {
		fnErr = fmt.Errorf("%w: close database: %v", apperr.ErrStorage, err)
	} else {
		fnErr = fn()
	}

	db, err := g.open()
	if err != nil {
		return fmt.Errorf("%w: reopen database: %v", apperr.ErrStorage, errors.Join(err, fnErr))
	}
	g.db = db
	return fnErr
}

// Close releases the pool. Later Do calls fail with ErrStorage.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closeLocked()
}

// closeLocked drops the handle only once its pool is closed.
func (g *Gateway) closeLocked() error {
	if g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	g.db = nil
	return nil
}
