package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/db"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockGateway returns a gateway over a postgres dialect backed by sqlmock.
func newMockGateway(t *testing.T) (*db.Gateway, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db.NewGateway(gdb, nil, ""), mock
}

var errConnReset = errors.New("connection reset by peer")

func TestAssetStore_StorageErrors(t *testing.T) {
	ctx := context.Background()
	gw, mock := newMockGateway(t)
	s := NewAssetStore(gw)

	mock.ExpectQuery(`SELECT \* FROM "assets"`).WillReturnError(errConnReset)
	a, err := s.GetByID(ctx, 1)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, apperr.ErrStorage)

	mock.ExpectQuery(`SELECT \* FROM "assets"`).WillReturnError(errConnReset)
	_, err = s.Search(ctx, map[string]string{"status": "Active"})
	assert.ErrorIs(t, err, apperr.ErrStorage)

	mock.ExpectQuery(`SELECT \* FROM "assets" WHERE status`).WillReturnError(errConnReset)
	_, err = s.Active(ctx)
	assert.ErrorIs(t, err, apperr.ErrStorage)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetStore_SearchUsesStrposOnPostgres(t *testing.T) {
	gw, mock := newMockGateway(t)
	s := NewAssetStore(gw)

	rows := sqlmock.NewRows([]string{"id", "serial_number", "category", "status"}).
		AddRow(7, "PG-1", "Laptop", models.StatusActive)
	mock.ExpectQuery(`strpos\("serial_number", \$1\) > 0`).WithArgs("PG").WillReturnRows(rows)

	got, err := s.Search(context.Background(), map[string]string{"serial_number": "PG"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PG-1", got[0].SerialNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_StorageErrors(t *testing.T) {
	ctx := context.Background()
	gw, mock := newMockGateway(t)
	s := NewUserStore(gw)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(errConnReset)
	u, err := s.Authenticate(ctx, "admin", "admin123")
	assert.Nil(t, u)
	assert.ErrorIs(t, err, apperr.ErrStorage)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(errConnReset)
	assert.False(t, s.CheckPermission(ctx, 1, models.RoleAdministrator))

	assert.NoError(t, mock.ExpectationsWereMet())
}
