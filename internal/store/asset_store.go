package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/db"
	"github.com/diewo77/go-assets/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssetUpdate carries the fields to overwrite. Nil fields are left unchanged;
// the Clear flags reset a date to NULL and win over a supplied date.
type AssetUpdate struct {
	SerialNumber   *string
	Company        *string
	Location       *string
	Category       *string
	Status         *string
	Username       *string
	Designation    *string
	Department     *string
	Model          *string
	Description    *string
	IssueDate      *datatypes.Date
	ComputerID     *string
	WorkingStatus  *string
	Condition      *string
	Audit          *string
	EmployeeID     *string
	PurchaseDate   *datatypes.Date
	RackTrayNumber *string
	ServiceCenter  *string
	LPONumber      *string
	InvoiceNumber  *string
	Supplier       *string
	EstimatedCost  *float64
	Remarks        *string

	ClearIssueDate    bool
	ClearPurchaseDate bool
}

// columns maps the supplied fields to their column names.
func (u AssetUpdate) columns() map[string]any {
	out := make(map[string]any)
	text := map[string]*string{
		"serial_number":    u.SerialNumber,
		"company":          u.Company,
		"location":         u.Location,
		"category":         u.Category,
		"status":           u.Status,
		"username":         u.Username,
		"designation":      u.Designation,
		"department":       u.Department,
		"model":            u.Model,
		"description":      u.Description,
		"computer_id":      u.ComputerID,
		"working_status":   u.WorkingStatus,
		"condition":        u.Condition,
		"audit":            u.Audit,
		"employee_id":      u.EmployeeID,
		"rack_tray_number": u.RackTrayNumber,
		"service_center":   u.ServiceCenter,
		"lpo_number":       u.LPONumber,
		"invoice_number":   u.InvoiceNumber,
		"supplier":         u.Supplier,
		"remarks":          u.Remarks,
	}
	for col, v := range text {
		if v != nil {
			out[col] = *v
		}
	}
	if u.IssueDate != nil {
		out["issue_date"] = *u.IssueDate
	}
	if u.PurchaseDate != nil {
		out["purchase_date"] = *u.PurchaseDate
	}
	if u.ClearIssueDate {
		out["issue_date"] = nil
	}
	if u.ClearPurchaseDate {
		out["purchase_date"] = nil
	}
	if u.EstimatedCost != nil {
		out["estimated_cost"] = *u.EstimatedCost
	}
	return out
}

// Empty reports whether no field is set.
func (u AssetUpdate) Empty() bool { return len(u.columns()) == 0 }

// AssetStore reads and writes asset records.
type AssetStore struct {
	gw  *db.Gateway
	now Clock
}

// NewAssetStore creates an asset store over gw.
func NewAssetStore(gw *db.Gateway) *AssetStore {
	return &AssetStore{gw: gw, now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *AssetStore) WithClock(c Clock) *AssetStore {
	s.now = c
	return s
}

// Add inserts a and returns its new id. The serial number must be unused.
func (s *AssetStore) Add(ctx context.Context, a *models.Asset) (uint, error) {
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Asset{}).Where("serial_number = ?", a.SerialNumber).Count(&count).Error; err != nil {
				return storageErr("add asset", err)
			}
			if count > 0 {
				return duplicate("serial number", a.SerialNumber)
			}
			now := s.now()
			a.ID = 0
			a.CreatedAt = now
			a.UpdatedAt = now
			if err := tx.Create(a).Error; err != nil {
				return writeErr("add asset", "serial number", a.SerialNumber, err)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

// Update overwrites the supplied fields of asset id and bumps updated_at.
// It returns apperr.ErrNoOp when no row was changed.
func (s *AssetStore) Update(ctx context.Context, id uint, u AssetUpdate) error {
	return s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Asset{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return storageErr("update asset", err)
			}
			if count == 0 {
				return notFound("asset", id)
			}
			if u.SerialNumber != nil {
				if err := tx.Model(&models.Asset{}).
					Where("serial_number = ? AND id <> ?", *u.SerialNumber, id).
					Count(&count).Error; err != nil {
					return storageErr("update asset", err)
				}
				if count > 0 {
					return duplicate("serial number", *u.SerialNumber)
				}
			}

			values := u.columns()
			values["updated_at"] = s.now()
			serial := ""
			if u.SerialNumber != nil {
				serial = *u.SerialNumber
			}
			res := tx.Model(&models.Asset{}).Where("id = ?", id).Updates(values)
			if res.Error != nil {
				return writeErr("update asset", "serial number", serial, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.ErrNoOp
			}
			return nil
		})
	})
}

// Delete removes asset id. Its log rows are kept.
func (s *AssetStore) Delete(ctx context.Context, id uint) error {
	return s.gw.Do(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&models.Asset{}, id)
		if res.Error != nil {
			return storageErr("delete asset", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("asset", id)
		}
		return nil
	})
}

// GetByID returns asset id, or nil when it does not exist.
func (s *AssetStore) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	return s.first(ctx, "get asset", "id = ?", id)
}

// GetBySerial returns the asset with the given serial number, or nil.
func (s *AssetStore) GetBySerial(ctx context.Context, serial string) (*models.Asset, error) {
	return s.first(ctx, "get asset by serial", "serial_number = ?", serial)
}

func (s *AssetStore) first(ctx context.Context, op string, query string, arg any) (*models.Asset, error) {
	var a models.Asset
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Where(query, arg).First(&a).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &a, nil
}

// Search returns assets whose columns contain every non-empty filter value
// (case-sensitive substring match). Empty values are ignored and an empty
// filter set matches every asset. Keys must be in models.SearchableColumns.
func (s *AssetStore) Search(ctx context.Context, filters map[string]string) ([]models.Asset, error) {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		if !models.IsSearchable(col) {
			return nil, fmt.Errorf("%w: cannot search on %q", apperr.ErrValidation, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var assets []models.Asset
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		q := tx.Model(&models.Asset{})
		for _, col := range cols {
			if v := filters[col]; v != "" {
				q = q.Where(containsExpr(tx.Dialector.Name(), col, v))
			}
		}
		return q.Order("id").Find(&assets).Error
	})
	if err != nil {
		return nil, storageErr("search assets", err)
	}
	return assets, nil
}

// containsExpr builds a case-sensitive "column contains value" condition.
func containsExpr(dialect, column, value string) clause.Expression {
	col := clause.Column{Name: column}
	switch dialect {
	case "postgres":
		return clause.Expr{SQL: "strpos(?, ?) > 0", Vars: []any{col, value}}
	case "mysql":
		return clause.Expr{SQL: "INSTR(BINARY ?, BINARY ?) > 0", Vars: []any{col, value}}
	default:
		return clause.Expr{SQL: "instr(?, ?) > 0", Vars: []any{col, value}}
	}
}

// Active returns assets whose status is exactly "Active".
func (s *AssetStore) Active(ctx context.Context) ([]models.Asset, error) {
	return s.byStatus(ctx, models.StatusActive)
}

// Stock returns assets whose status is exactly "Stock".
func (s *AssetStore) Stock(ctx context.Context) ([]models.Asset, error) {
	return s.byStatus(ctx, models.StatusStock)
}

func (s *AssetStore) byStatus(ctx context.Context, status string) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Where("status = ?", status).Order("id").Find(&assets).Error
	})
	if err != nil {
		return nil, storageErr("list "+status+" assets", err)
	}
	return assets, nil
}

// LogAction appends an audit row. Failures are logged and otherwise ignored.
func (s *AssetStore) LogAction(ctx context.Context, assetID uint, action, details string, userID *uint) {
	entry := models.AssetLog{
		AssetID:   assetID,
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: s.now(),
	}
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	})
	if err != nil {
		log.Printf("[Repo] log %s on asset %d failed: %v", action, assetID, err)
	}
}

// History returns the log rows of asset id, newest first, with usernames.
func (s *AssetStore) History(ctx context.Context, assetID uint) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.gw.Do(ctx, func(tx *gorm.DB) error {
		return tx.Table("asset_logs").
			Select("asset_logs.id, asset_logs.asset_id, asset_logs.user_id, users.username, "+
				"asset_logs.action, asset_logs.details, asset_logs.timestamp").
			Joins("LEFT JOIN users ON users.id = asset_logs.user_id").
			Where("asset_logs.asset_id = ?", assetID).
			Order("asset_logs.timestamp DESC, asset_logs.id DESC").
			Scan(&entries).Error
	})
	if err != nil {
		return nil, storageErr("asset history", err)
	}
	return entries, nil
}
