package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/diewo77/go-assets/internal/backup"
	"github.com/diewo77/go-assets/internal/config"
	"github.com/diewo77/go-assets/internal/db"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/policy"
	"github.com/diewo77/go-assets/internal/store"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	gw      *db.Gateway
	assets  *store.AssetStore
	users   *store.UserStore
	authz   *policy.AuthGate
	assetSv *AssetService
	userSv  *UserService

	admin, std, doc, viewer *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gw, err := db.Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "assets.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })
	require.NoError(t, gw.Do(context.Background(), func(tx *gorm.DB) error { return db.Migrate(tx) }))

	e := &env{gw: gw}
	e.assets = store.NewAssetStore(gw).WithClock(func() time.Time { return testNow })
	e.users = store.NewUserStore(gw)
	e.authz = policy.NewAuthGate(e.users, time.Minute)
	e.assetSv = NewAssetService(e.assets, e.authz)
	e.assetSv.now = func() time.Time { return testNow }
	e.userSv = NewUserService(e.users, e.authz)

	e.admin = e.addUser(t, "admin", models.RoleAdministrator)
	e.std = e.addUser(t, "std", models.RoleStandard)
	e.doc = e.addUser(t, "doc", models.RoleDocumentController)
	e.viewer = e.addUser(t, "viewer", models.RoleViewOnly)
	return e
}

// addUser creates name with password name+"-pw".
func (e *env) addUser(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: name + "-pw", Role: role, FullName: name}
	_, err := e.users.Add(context.Background(), u)
	require.NoError(t, err)
	return u
}

func (e *env) addAsset(t *testing.T, serial, status string) uint {
	t.Helper()
	id, err := e.assetSv.Add(context.Background(), e.admin, &models.Asset{SerialNumber: serial, Category: "Laptop", Status: status})
	require.NoError(t, err)
	return id
}

func (e *env) backupService(t *testing.T) *BackupService {
	t.Helper()
	mgr, err := backup.NewManager(e.gw, backup.Options{Dir: filepath.Join(t.TempDir(), "backups")})
	require.NoError(t, err)
	return NewBackupService(mgr, e.userSv, e.authz)
}

func ptr[T any](v T) *T { return &v }
