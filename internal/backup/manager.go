// Package backup snapshots the sqlite database file, restores snapshots and
// expires old ones.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/db"
	"github.com/diewo77/go-assets/internal/ids"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/obs"
	"github.com/gofrs/flock"
	"gorm.io/gorm"
)

// File name conventions. Only files starting with Prefix take part in the
// retention sweep; pre-restore snapshots are kept until removed by hand.
const (
	Prefix           = "assets_backup_"
	PreRestorePrefix = "pre_restore_backup_"
	stampLayout      = "20060102_150405"
	dateLayout       = "20060102"
	lockName         = ".backup.lock"
)

// DefaultRetentionDays is how long a snapshot is kept.
const DefaultRetentionDays = 365

// Replicator copies a finished snapshot somewhere else.
type Replicator interface {
	Replicate(ctx context.Context, path string) error
}

// Options configures a Manager.
type Options struct {
	Dir           string
	RetentionDays int
	Replicator    Replicator // optional
	Clock         func() time.Time
}

// Manager owns the snapshot directory and the backups table.
type Manager struct {
	gw         *db.Gateway
	dir        string
	retention  int
	replicator Replicator
	now        func() time.Time

	mu   sync.Mutex
	lock *flock.Flock
}

// NewManager creates the snapshot directory if needed. The gateway must be
// backed by a sqlite file.
func NewManager(gw *db.Gateway, opts Options) (*Manager, error) {
	if gw.Path() == "" {
		return nil, errors.New("backups require a file-backed sqlite database")
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	m := &Manager{
		gw:         gw,
		dir:        dir,
		retention:  opts.RetentionDays,
		replicator: opts.Replicator,
		now:        opts.Clock,
		lock:       flock.New(filepath.Join(dir, lockName)),
	}
	if m.retention <= 0 {
		m.retention = DefaultRetentionDays
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Dir returns the absolute snapshot directory.
func (m *Manager) Dir() string { return m.dir }

// CreateBackup copies the live database into a new snapshot and records it.
// A failed copy is recorded with size 0 and an "error: ..." status. After a
// successful snapshot the retention sweep runs and the file is replicated
// when a Replicator is configured; neither step fails the backup.
func (m *Manager) CreateBackup(ctx context.Context) (*models.Backup, error) {
	unlock, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := m.now()
	name := snapshotName(Prefix, now)
	path := filepath.Join(m.dir, name)

	var size int64
	copyErr := m.gw.Quiesce(func() error {
		var err error
		size, err = copyFile(m.gw.Path(), path)
		return err
	})
	if copyErr != nil {
		_ = os.Remove(path)
		obs.BackupsTotal.WithLabelValues("error").Inc()
		log.Printf("[Backup] snapshot %s failed: %v", name, copyErr)
		row := models.Backup{Filename: name, Path: path, Size: 0, Status: "error: " + copyErr.Error(), CreatedAt: now}
		if err := m.record(ctx, &row); err != nil {
			log.Printf("[Backup] record failed snapshot: %v", err)
		}
		return nil, fmt.Errorf("%w: backup failed: %v", apperr.ErrStorage, copyErr)
	}

	row := models.Backup{Filename: name, Path: path, Size: size, Status: models.BackupSuccess, CreatedAt: now}
	if err := m.record(ctx, &row); err != nil {
		return nil, err
	}
	obs.BackupsTotal.WithLabelValues("success").Inc()
	log.Printf("[Backup] created %s (%d bytes)", name, size)

	if _, err := m.cleanup(ctx); err != nil {
		log.Printf("[Backup] retention sweep: %v", err)
	}
	if m.replicator != nil {
		if err := m.replicator.Replicate(ctx, path); err != nil {
			log.Printf("[Backup] replicate %s: %v", name, err)
		}
	}
	return &row, nil
}

// RestoreBackup replaces the live database with snapshot id. The current
// database is first saved as a pre-restore snapshot, which is recorded in
// the restored database once the swap is done.
func (m *Manager) RestoreBackup(ctx context.Context, id uint) error {
	unlock, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	var b models.Backup
	err = m.gw.Do(ctx, func(tx *gorm.DB) error { return tx.First(&b, id).Error })
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: backup %d", apperr.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: load backup %d: %v", apperr.ErrStorage, id, err)
	}
	if _, err := os.Stat(b.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", apperr.ErrFileMissing, b.Path)
		}
		return fmt.Errorf("%w: stat %s: %v", apperr.ErrStorage, b.Path, err)
	}

	now := m.now()
	preName := snapshotName(PreRestorePrefix, now)
	prePath := filepath.Join(m.dir, preName)
	var preSize int64
	err = m.gw.Replace(func() error {
		var err error
		if preSize, err = copyFile(m.gw.Path(), prePath); err != nil {
			_ = os.Remove(prePath)
			return fmt.Errorf("pre-restore snapshot: %w", err)
		}
		return replaceFile(b.Path, m.gw.Path())
	})
	if err != nil {
		obs.RestoresTotal.WithLabelValues("error").Inc()
		log.Printf("[Backup] restore of %s failed: %v", b.Filename, err)
		if errors.Is(err, apperr.ErrStorage) {
			return err
		}
		return fmt.Errorf("%w: restore %s: %v", apperr.ErrStorage, b.Filename, err)
	}
	obs.RestoresTotal.WithLabelValues("success").Inc()
	obs.BackupsTotal.WithLabelValues("pre_restore").Inc()
	log.Printf("[Backup] restored %s; previous database saved as %s", b.Filename, preName)

	row := models.Backup{
		Filename:  preName,
		Path:      prePath,
		Size:      preSize,
		Status:    "pre-restore backup before restoring " + b.Filename,
		CreatedAt: now,
	}
	if err := m.record(ctx, &row); err != nil {
		log.Printf("[Backup] record pre-restore snapshot: %v", err)
	}
	return nil
}

// CleanupOldBackups removes snapshots older than the retention period and
// marks their rows "deleted (expired)". It returns how many were removed.
func (m *Manager) CleanupOldBackups(ctx context.Context) (int, error) {
	unlock, err := m.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return m.cleanup(ctx)
}

func (m *Manager) cleanup(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: read backup dir: %v", apperr.ErrStorage, err)
	}
	// whole calendar days: a snapshot dated on the cutoff day is kept.
	limit := m.now().AddDate(0, 0, -m.retention)
	cutoff := time.Date(limit.Year(), limit.Month(), limit.Day(), 0, 0, 0, 0, time.Local)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, Prefix) {
			continue
		}
		day, ok := snapshotDate(name)
		if !ok {
			continue
		}
		if !day.Before(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, name)
		if err := os.Remove(path); err != nil {
			log.Printf("[Backup] remove expired %s: %v", name, err)
			continue
		}
		err := m.gw.Do(ctx, func(tx *gorm.DB) error {
			return tx.Model(&models.Backup{}).Where("filename = ?", name).Update("status", models.BackupExpired).Error
		})
		if err != nil {
			log.Printf("[Backup] mark %s expired: %v", name, err)
		}
		obs.BackupsExpired.Inc()
		removed++
		log.Printf("[Backup] removed expired snapshot %s", name)
	}
	return removed, nil
}

// ListBackups returns every recorded snapshot, newest first.
func (m *Manager) ListBackups(ctx context.Context) ([]models.Backup, error) {
	var out []models.Backup
	err := m.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Order("created_at DESC").Order("id DESC").Find(&out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list backups: %v", apperr.ErrStorage, err)
	}
	return out, nil
}

// acquire serializes backup work within the process and, through the lock
// file, with other processes sharing the directory.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	m.mu.Lock()
	ok, err := m.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !ok {
		m.mu.Unlock()
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, fmt.Errorf("%w: backup lock: %v", apperr.ErrStorage, err)
	}
	return func() {
		if err := m.lock.Unlock(); err != nil {
			log.Printf("[Backup] release lock: %v", err)
		}
		m.mu.Unlock()
	}, nil
}

func (m *Manager) record(ctx context.Context, row *models.Backup) error {
	err := m.gw.Do(ctx, func(tx *gorm.DB) error { return tx.Create(row).Error })
	if err != nil {
		return fmt.Errorf("%w: record backup: %v", apperr.ErrStorage, err)
	}
	return nil
}

func snapshotName(prefix string, t time.Time) string {
	return prefix + t.Format(stampLayout) + "_" + ids.Stamped(t) + ".db"
}

// snapshotDate extracts the YYYYMMDD date that follows Prefix.
func snapshotDate(name string) (time.Time, bool) {
	rest := strings.TrimPrefix(name, Prefix)
	if len(rest) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(dateLayout, rest[:len(dateLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// copyFile copies src to dst, syncs it and returns the bytes written.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// replaceFile atomically swaps dst for a copy of src via a temp file in
// dst's directory.
func replaceFile(src, dst string) error {
	tmp := dst + ".restore-" + ids.New()
	if _, err := copyFile(src, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
