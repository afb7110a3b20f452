package services

import (
	"context"
	"strings"
	"testing"

	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/store"
	"github.com/diewo77/go-assets/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Login(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.userSv.Login(ctx, " std ", "std-pw")
	require.NoError(t, err)
	assert.Equal(t, e.std.ID, u.ID)
	assert.NotNil(t, u.LastLogin)

	_, err = e.userSv.Login(ctx, "std", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = e.userSv.Login(ctx, "nobody", "std-pw")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestUserService_Add(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.userSv.Add(ctx, e.admin, NewUser{Username: "eve", Password: "pw", Role: "superuser", FullName: "Eve"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "invalid_choice", validation.FieldsOf(err)["role"])

	_, err = e.userSv.Add(ctx, e.admin, NewUser{Username: "eve", Role: "standard"})
	fields := validation.FieldsOf(err)
	assert.Equal(t, "required", fields["password"])
	assert.Equal(t, "required", fields["full_name"])

	_, err = e.userSv.Add(ctx, e.std, NewUser{Username: "eve", Password: "pw", Role: "standard", FullName: "Eve"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	id, err := e.userSv.Add(ctx, e.admin, NewUser{Username: "eve", Password: "pw", Role: "view_only", FullName: "Eve"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = e.userSv.Add(ctx, e.admin, NewUser{Username: "eve", Password: "pw", Role: "view_only", FullName: "Eve"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
}

func TestUserService_UpdateSelfAndOthers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.userSv.Update(ctx, e.viewer, e.viewer.ID, store.UserUpdate{FullName: ptr("Vera Viewer")}))
	got, err := e.userSv.Get(ctx, e.viewer, e.viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vera Viewer", got.FullName)

	err = e.userSv.Update(ctx, e.std, e.viewer.ID, store.UserUpdate{FullName: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = e.userSv.Get(ctx, e.std, e.viewer.ID)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	role := models.RoleAdministrator
	err = e.userSv.Update(ctx, e.std, e.std.ID, store.UserUpdate{Role: &role})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	err = e.userSv.Update(ctx, e.std, e.std.ID, store.UserUpdate{Password: ptr("sneaky")})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	err = e.userSv.Update(ctx, e.admin, 999, store.UserUpdate{FullName: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserService_RoleChangeTakesEffect(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.addAsset(t, "SN-1", models.StatusStock)

	assert.ErrorIs(t, e.assetSv.Delete(ctx, e.std, id), apperr.ErrPermissionDenied)

	role := models.RoleAdministrator
	require.NoError(t, e.userSv.Update(ctx, e.admin, e.std.ID, store.UserUpdate{Role: &role}))
	assert.NoError(t, e.assetSv.Delete(ctx, e.std, id))

	bad := models.Role("root")
	err := e.userSv.Update(ctx, e.admin, e.std.ID, store.UserUpdate{Role: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUserService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.userSv.Delete(ctx, e.std, e.viewer.ID), apperr.ErrPermissionDenied)
	assert.ErrorIs(t, e.userSv.Delete(ctx, e.admin, e.admin.ID), apperr.ErrPermissionDenied)
	require.NoError(t, e.userSv.Delete(ctx, e.admin, e.viewer.ID))
	assert.ErrorIs(t, e.userSv.Delete(ctx, e.admin, e.viewer.ID), apperr.ErrNotFound)

	assert.False(t, e.authz.Gate.CanProfile(ctx, e.viewer.ID, gate.ActionList, gate.ResourceAsset))
}

func TestUserService_All(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	users, err := e.userSv.All(ctx, e.std)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	_, err = e.userSv.All(ctx, e.doc)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = e.userSv.All(ctx, e.viewer)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestUserService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	err := e.userSv.ChangePassword(ctx, e.viewer, e.viewer.ID, "wrong", "fresh")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "incorrect", validation.FieldsOf(err)["current_password"])

	require.NoError(t, e.userSv.ChangePassword(ctx, e.viewer, e.viewer.ID, "viewer-pw", "fresh"))
	_, err = e.userSv.Login(ctx, "viewer", "fresh")
	require.NoError(t, err)

	assert.ErrorIs(t, e.userSv.ChangePassword(ctx, e.std, e.viewer.ID, "", "hijack"), apperr.ErrPermissionDenied)

	require.NoError(t, e.userSv.ChangePassword(ctx, e.admin, e.viewer.ID, "", "reset"))
	_, err = e.userSv.Login(ctx, "viewer", "reset")
	require.NoError(t, err)

	err = e.userSv.ChangePassword(ctx, e.admin, e.admin.ID, "", "mine")
	assert.ErrorIs(t, err, apperr.ErrValidation, "administrators re-verify their own password")

	err = e.userSv.ChangePassword(ctx, e.viewer, e.viewer.ID, "reset", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUserService_PasswordTooLong(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	long := strings.Repeat("x", 80)

	_, err := e.userSv.Add(ctx, e.admin, NewUser{Username: "eve", Password: long, Role: "view_only", FullName: "Eve"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "too_long", validation.FieldsOf(err)["password"])

	err = e.userSv.Update(ctx, e.admin, e.viewer.ID, store.UserUpdate{Password: &long})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "too_long", validation.FieldsOf(err)["password"])

	err = e.userSv.ChangePassword(ctx, e.viewer, e.viewer.ID, "viewer-pw", long)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "too_long", validation.FieldsOf(err)["new_password"])

	exact := strings.Repeat("x", 72)
	require.NoError(t, e.userSv.ChangePassword(ctx, e.viewer, e.viewer.ID, "viewer-pw", exact))
	_, err = e.userSv.Login(ctx, "viewer", exact)
	assert.NoError(t, err)
}
