package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-assets/internal/config"
	"github.com/diewo77/go-assets/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestGateway opens a migrated sqlite database in a temp dir.
func newTestGateway(t *testing.T) *db.Gateway {
	t.Helper()
	gw, err := db.Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "assets.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })
	require.NoError(t, gw.Do(context.Background(), func(tx *gorm.DB) error { return db.Migrate(tx) }))
	return gw
}

// stepClock advances one second per call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}
