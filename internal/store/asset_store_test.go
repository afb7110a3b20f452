package store

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func newAsset(serial, category, status string) *models.Asset {
	return &models.Asset{SerialNumber: serial, Category: category, Status: status}
}

func TestAssetStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	s := NewAssetStore(newTestGateway(t)).WithClock(clock.Now)

	cost := 1200.5
	a := newAsset("SN-001", "Laptop", models.StatusStock)
	a.Company = "Acme"
	a.EstimatedCost = &cost
	id, err := s.Add(ctx, a)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SN-001", got.SerialNumber)
	assert.Equal(t, "Acme", got.Company)
	require.NotNil(t, got.EstimatedCost)
	assert.InDelta(t, 1200.5, *got.EstimatedCost, 0.001)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt), "created_at and updated_at should match on insert")

	bySerial, err := s.GetBySerial(ctx, "SN-001")
	require.NoError(t, err)
	require.NotNil(t, bySerial)
	assert.Equal(t, id, bySerial.ID)

	missing, err := s.GetByID(ctx, id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAssetStore_AddDuplicateSerial(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	s := NewAssetStore(gw)

	_, err := s.Add(ctx, newAsset("DUP", "Laptop", models.StatusStock))
	require.NoError(t, err)
	_, err = s.Add(ctx, newAsset("DUP", "Monitor", models.StatusActive))
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)

	all, err := s.Search(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAssetStore_Update(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	s := NewAssetStore(newTestGateway(t)).WithClock(clock.Now)

	id, err := s.Add(ctx, newAsset("SN-1", "Laptop", models.StatusStock))
	require.NoError(t, err)
	_, err = s.Add(ctx, newAsset("SN-2", "Laptop", models.StatusStock))
	require.NoError(t, err)
	before, err := s.GetByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, id, AssetUpdate{Location: ptr("HQ"), Remarks: ptr("dented")}))
	after, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "HQ", after.Location)
	assert.Equal(t, "dented", after.Remarks)
	assert.Equal(t, "Laptop", after.Category, "unsupplied fields stay unchanged")
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))

	err = s.Update(ctx, id, AssetUpdate{SerialNumber: ptr("SN-2")})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)

	require.NoError(t, s.Update(ctx, id, AssetUpdate{SerialNumber: ptr("SN-1")}), "keeping its own serial is allowed")

	err = s.Update(ctx, 9999, AssetUpdate{Location: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAssetStore_UpdateClearsDates(t *testing.T) {
	ctx := context.Background()
	s := NewAssetStore(newTestGateway(t))

	a := newAsset("SN-D", "Laptop", models.StatusStock)
	a.PurchaseDate = models.NewDate(time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC))
	a.IssueDate = models.NewDate(time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC))
	id, err := s.Add(ctx, a)
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, id, AssetUpdate{ClearPurchaseDate: true}))
	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.PurchaseDate)
	assert.NotNil(t, got.IssueDate, "other dates stay unchanged")

	assert.False(t, AssetUpdate{ClearIssueDate: true}.Empty())
}

func TestAssetStore_DeleteKeepsLogs(t *testing.T) {
	ctx := context.Background()
	s := NewAssetStore(newTestGateway(t))

	id, err := s.Add(ctx, newAsset("SN-DEL", "Printer", models.StatusStock))
	require.NoError(t, err)
	s.LogAction(ctx, id, models.ActionCreate, "created", nil)

	require.NoError(t, s.Delete(ctx, id))
	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	history, err := s.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1, "log rows outlive the asset")

	assert.ErrorIs(t, s.Delete(ctx, id), apperr.ErrNotFound)
}

func TestAssetStore_Search(t *testing.T) {
	ctx := context.Background()
	s := NewAssetStore(newTestGateway(t))

	seed := []*models.Asset{
		{SerialNumber: "ABC-100", Category: "Laptop", Status: models.StatusActive, Department: "Finance"},
		{SerialNumber: "ABC-200", Category: "Laptop", Status: models.StatusStock, Department: "IT"},
		{SerialNumber: "XYZ-300", Category: "Monitor", Status: models.StatusActive, Department: "Finance"},
	}
	for _, a := range seed {
		_, err := s.Add(ctx, a)
		require.NoError(t, err)
	}

	serials := func(as []models.Asset) []string {
		out := make([]string, len(as))
		for i, a := range as {
			out[i] = a.SerialNumber
		}
		return out
	}

	tests := []struct {
		name    string
		filters map[string]string
		want    []string
	}{
		{"no filters", nil, []string{"ABC-100", "ABC-200", "XYZ-300"}},
		{"substring", map[string]string{"serial_number": "BC-"}, []string{"ABC-100", "ABC-200"}},
		{"case sensitive", map[string]string{"serial_number": "abc"}, []string{}},
		{"and", map[string]string{"category": "Laptop", "department": "Fin"}, []string{"ABC-100"}},
		{"empty value ignored", map[string]string{"category": "Monitor", "department": ""}, []string{"XYZ-300"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, serials(got))
		})
	}

	_, err := s.Search(ctx, map[string]string{"id = 1 OR 1": "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAssetStore_ActiveAndStockExactMatch(t *testing.T) {
	ctx := context.Background()
	s := NewAssetStore(newTestGateway(t))

	for serial, status := range map[string]string{"A1": "Active", "A2": "active", "S1": "Stock", "S2": "In Stock"} {
		_, err := s.Add(ctx, newAsset(serial, "Laptop", status))
		require.NoError(t, err)
	}

	active, err := s.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "A1", active[0].SerialNumber)

	stock, err := s.Stock(ctx)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, "S1", stock[0].SerialNumber)
}

// Status and assignment fields are not cross-checked: an Active asset
// may have no username and a Stock asset may keep a stale one.
func TestAssetStore_StatusAndAssignmentMayDiverge(t *testing.T) {
	ctx := context.Background()
	s := NewAssetStore(newTestGateway(t))

	id, err := s.Add(ctx, newAsset("D1", "Laptop", models.StatusActive))
	require.NoError(t, err)
	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Username)

	require.NoError(t, s.Update(ctx, id, AssetUpdate{Username: ptr("jdoe")}))
	require.NoError(t, s.Update(ctx, id, AssetUpdate{Status: ptr(models.StatusStock)}))
	got, err = s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStock, got.Status)
	assert.Equal(t, "jdoe", got.Username)
}

func TestAssetStore_HistoryNewestFirstWithUsername(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	clock := newStepClock()
	s := NewAssetStore(gw).WithClock(clock.Now)

	u := models.User{Username: "jdoe", Password: "x", Role: models.RoleStandard}
	require.NoError(t, gw.Do(ctx, func(tx *gorm.DB) error { return tx.Create(&u).Error }))

	id, err := s.Add(ctx, newAsset("H-1", "Laptop", models.StatusStock))
	require.NoError(t, err)
	s.LogAction(ctx, id, models.ActionCreate, "Asset created by jdoe", &u.ID)
	s.LogAction(ctx, id, models.ActionUpdate, "system touch", nil)

	history, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ActionUpdate, history[0].Action)
	assert.Nil(t, history[0].Username)
	assert.Equal(t, models.ActionCreate, history[1].Action)
	require.NotNil(t, history[1].Username)
	assert.Equal(t, "jdoe", *history[1].Username)
}

func TestAssetStore_LogActionSwallowsFailure(t *testing.T) {
	gw := newTestGateway(t)
	s := NewAssetStore(gw)
	require.NoError(t, gw.Close())

	assert.NotPanics(t, func() {
		s.LogAction(context.Background(), 1, models.ActionCreate, "x", nil)
	})
}
