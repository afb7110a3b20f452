package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/passwd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func addUser(t *testing.T, s *UserStore, username, password string, role models.Role) uint {
	t.Helper()
	id, err := s.Add(context.Background(), &models.User{Username: username, Password: password, Role: role, FullName: username})
	require.NoError(t, err)
	return id
}

func TestUserStore_AddHashesPassword(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(newTestGateway(t))
	id := addUser(t, s, "alice", "wonderland", models.RoleStandard)

	u, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NotEqual(t, "wonderland", u.Password)
	assert.True(t, passwd.Verify(u.Password, "wonderland"))
	assert.Nil(t, u.LastLogin)

	_, err = s.Add(ctx, &models.User{Username: "alice", Password: "x", Role: models.RoleViewOnly})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
}

func TestUserStore_Authenticate(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	s := NewUserStore(newTestGateway(t)).WithClock(clock.Now)
	id := addUser(t, s, "bob", "builder", models.RoleStandard)

	u, err := s.Authenticate(ctx, "bob", "wrong")
	require.NoError(t, err)
	assert.Nil(t, u)
	stored, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.LastLogin, "failed login must not touch last_login")

	u, err = s.Authenticate(ctx, "nobody", "builder")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = s.Authenticate(ctx, "bob", "builder")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	stored, err = s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
}

func TestUserStore_AuthenticateUpgradesLegacyDigest(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	s := NewUserStore(gw)

	sum := sha256.Sum256([]byte("admin123"))
	legacy := models.User{Username: "admin", Password: hex.EncodeToString(sum[:]), Role: models.RoleAdministrator}
	require.NoError(t, gw.Do(ctx, func(tx *gorm.DB) error { return tx.Create(&legacy).Error }))

	u, err := s.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.NotNil(t, u)

	stored, err := s.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.False(t, passwd.NeedsRehash(stored.Password))
	assert.True(t, passwd.Verify(stored.Password, "admin123"))
}

func TestUserStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(newTestGateway(t))
	id := addUser(t, s, "carol", "old-pass", models.RoleViewOnly)
	addUser(t, s, "dave", "x", models.RoleViewOnly)

	role := models.RoleDocumentController
	require.NoError(t, s.Update(ctx, id, UserUpdate{Role: &role, Password: ptr("new-pass"), Email: ptr("c@example.com")}))

	u, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDocumentController, u.Role)
	assert.Equal(t, "c@example.com", u.Email)

	ok, err := s.VerifyPassword(ctx, id, "new-pass")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.VerifyPassword(ctx, id, "old-pass")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Update(ctx, id, UserUpdate{Username: ptr("dave")}), apperr.ErrDuplicateKey)
	assert.ErrorIs(t, s.Update(ctx, 999, UserUpdate{FullName: ptr("x")}), apperr.ErrNotFound)
}

func TestUserStore_DeleteAndAll(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(newTestGateway(t))
	zed := addUser(t, s, "zed", "x", models.RoleStandard)
	addUser(t, s, "amy", "x", models.RoleStandard)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "amy", all[0].Username)

	require.NoError(t, s.Delete(ctx, zed))
	assert.ErrorIs(t, s.Delete(ctx, zed), apperr.ErrNotFound)
	u, err := s.GetByID(ctx, zed)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserStore_CheckPermission(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(newTestGateway(t))
	admin := addUser(t, s, "root", "x", models.RoleAdministrator)
	viewer := addUser(t, s, "viewer", "x", models.RoleViewOnly)

	assert.True(t, s.CheckPermission(ctx, admin, models.RoleAdministrator))
	assert.False(t, s.CheckPermission(ctx, viewer, models.RoleAdministrator, models.RoleStandard))
	assert.True(t, s.CheckPermission(ctx, viewer, models.RoleStandard, models.RoleViewOnly))
	assert.False(t, s.CheckPermission(ctx, 12345, models.RoleAdministrator))
	assert.False(t, s.CheckPermission(ctx, admin))
}
