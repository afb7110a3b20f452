package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/obs"
	"github.com/diewo77/go-assets/internal/spreadsheet"
	"github.com/diewo77/go-assets/internal/store"
	"github.com/diewo77/go-assets/validation"
	"gorm.io/datatypes"
)

// Assignment is who an asset is issued to.
type Assignment struct {
	Username    string          `json:"username"`
	Department  string          `json:"department"`
	Designation string          `json:"designation"`
	EmployeeID  string          `json:"employee_id"`
	IssueDate   *datatypes.Date `json:"issue_date"`
}

// ImportResult tallies a spreadsheet import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

type AssetService struct {
	assets *store.AssetStore
	authz  Authorizer
	now    func() time.Time
}

func NewAssetService(assets *store.AssetStore, authz Authorizer) *AssetService {
	return &AssetService{assets: assets, authz: authz, now: time.Now}
}

func validateAsset(a *models.Asset) error {
	v := validation.Violations{}
	validation.Required("serial_number", a.SerialNumber, v)
	validation.Required("category", a.Category, v)
	validation.MaxLen("serial_number", a.SerialNumber, 100, v)
	validation.NonNegativeFloat("estimated_cost", a.EstimatedCost, v)
	return v.Err()
}

// Add validates and inserts a new asset, then logs its creation.
func (s *AssetService) Add(ctx context.Context, actor *models.User, a *models.Asset) (uint, error) {
	if err := validateAsset(a); err != nil {
		return 0, err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionCreate, gate.ResourceAsset, nil); err != nil {
		return 0, err
	}
	return s.insert(ctx, actor, a, models.ActionCreate, "Asset created by "+actorName(actor))
}

func (s *AssetService) insert(ctx context.Context, actor *models.User, a *models.Asset, action, details string) (uint, error) {
	id, err := s.assets.Add(ctx, a)
	if err != nil {
		return 0, err
	}
	s.assets.LogAction(ctx, id, action, details, actorID(actor))
	obs.AssetMutations.WithLabelValues(action).Inc()
	return id, nil
}

// Update overwrites the supplied fields of asset id.
func (s *AssetService) Update(ctx context.Context, actor *models.User, id uint, u store.AssetUpdate) error {
	v := validation.Violations{}
	if u.SerialNumber != nil {
		validation.Required("serial_number", *u.SerialNumber, v)
		validation.MaxLen("serial_number", *u.SerialNumber, 100, v)
	}
	if u.Category != nil {
		validation.Required("category", *u.Category, v)
	}
	validation.NonNegativeFloat("estimated_cost", u.EstimatedCost, v)
	if err := v.Err(); err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionUpdate, gate.ResourceAsset, nil); err != nil {
		return err
	}
	return s.update(ctx, actor, id, u, models.ActionUpdate, "Asset updated by "+actorName(actor))
}

func (s *AssetService) update(ctx context.Context, actor *models.User, id uint, u store.AssetUpdate, action, details string) error {
	if err := tolerateNoOp("update asset", s.assets.Update(ctx, id, u)); err != nil {
		return err
	}
	s.assets.LogAction(ctx, id, action, details, actorID(actor))
	obs.AssetMutations.WithLabelValues(action).Inc()
	return nil
}

// Delete removes asset id. Its log rows are kept.
func (s *AssetService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if err := s.authz.Authorize(ctx, actor, gate.ActionDelete, gate.ResourceAsset, nil); err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, id); err != nil {
		return err
	}
	s.assets.LogAction(ctx, id, models.ActionDelete, "Asset deleted by "+actorName(actor), actorID(actor))
	obs.AssetMutations.WithLabelValues(models.ActionDelete).Inc()
	return nil
}

// Get returns asset id or apperr.ErrNotFound.
func (s *AssetService) Get(ctx context.Context, actor *models.User, id uint) (*models.Asset, error) {
	if err := s.authz.Authorize(ctx, actor, gate.ActionView, gate.ResourceAsset, nil); err != nil {
		return nil, err
	}
	return s.mustGet(ctx, id)
}

func (s *AssetService) mustGet(ctx context.Context, id uint) (*models.Asset, error) {
	a, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("asset", id)
	}
	return a, nil
}

// Search returns assets whose columns contain the filter values.
func (s *AssetService) Search(ctx context.Context, actor *models.User, filters map[string]string) ([]models.Asset, error) {
	if err := s.authz.Authorize(ctx, actor, gate.ActionList, gate.ResourceAsset, nil); err != nil {
		return nil, err
	}
	return s.assets.Search(ctx, filters)
}

// Active returns the issued assets.
func (s *AssetService) Active(ctx context.Context, actor *models.User) ([]models.Asset, error) {
	if err := s.authz.Authorize(ctx, actor, gate.ActionList, gate.ResourceAsset, nil); err != nil {
		return nil, err
	}
	return s.assets.Active(ctx)
}

// Stock returns the assets on the shelf.
func (s *AssetService) Stock(ctx context.Context, actor *models.User) ([]models.Asset, error) {
	if err := s.authz.Authorize(ctx, actor, gate.ActionList, gate.ResourceAsset, nil); err != nil {
		return nil, err
	}
	return s.assets.Stock(ctx)
}

// MoveToActive issues a stocked asset. The issue date defaults to today.
func (s *AssetService) MoveToActive(ctx context.Context, actor *models.User, id uint, to Assignment) error {
	if err := s.authz.Authorize(ctx, actor, gate.ActionMove, gate.ResourceAsset, nil); err != nil {
		return err
	}
	a, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != models.StatusStock {
		return invalid("asset %s is not in stock", a.SerialNumber)
	}
	issued := to.IssueDate
	if issued == nil {
		issued = models.NewDate(s.now())
	}
	status := models.StatusActive
	u := store.AssetUpdate{
		Status:      &status,
		Username:    &to.Username,
		Department:  &to.Department,
		Designation: &to.Designation,
		EmployeeID:  &to.EmployeeID,
		IssueDate:   issued,
	}
	details := fmt.Sprintf("Asset issued to %s by %s", to.Username, actorName(actor))
	return s.update(ctx, actor, id, u, models.ActionMoveToActive, details)
}

// MoveToStock returns an issued asset to stock and clears its assignment.
// A non-empty reason replaces the remarks.
func (s *AssetService) MoveToStock(ctx context.Context, actor *models.User, id uint, reason string) error {
	if err := s.authz.Authorize(ctx, actor, gate.ActionMove, gate.ResourceAsset, nil); err != nil {
		return err
	}
	a, err := s.mustGet(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != models.StatusActive {
		return invalid("asset %s is not active", a.SerialNumber)
	}
	status, empty := models.StatusStock, ""
	u := store.AssetUpdate{
		Status:      &status,
		Username:    &empty,
		Department:  &empty,
		Designation: &empty,
		EmployeeID:  &empty,
	}
	why := "Not specified"
	if reason != "" {
		u.Remarks = &reason
		why = reason
	}
	details := fmt.Sprintf("Asset returned to stock by %s. Reason: %s", actorName(actor), why)
	return s.update(ctx, actor, id, u, models.ActionMoveToStock, details)
}

// History returns the action log of asset id, newest first. A missing
// asset has no history.
func (s *AssetService) History(ctx context.Context, actor *models.User, id uint) ([]models.HistoryEntry, error) {
	if err := s.authz.Authorize(ctx, actor, gate.ActionView, gate.ResourceAsset, nil); err != nil {
		return nil, err
	}
	a, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return []models.HistoryEntry{}, nil
	}
	return s.assets.History(ctx, id)
}

// ImportAssets adds every valid row of the workbook in r. Rows with a
// missing required field or an already known serial are skipped and
// reported.
func (s *AssetService) ImportAssets(ctx context.Context, actor *models.User, r io.Reader) (*ImportResult, error) {
	if err := s.authz.Authorize(ctx, actor, gate.ActionImport, gate.ResourceAsset, nil); err != nil {
		return nil, err
	}
	sheet, err := spreadsheet.Parse(r)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Errors: []string{}}
	for _, e := range sheet.Errors {
		res.Errors = append(res.Errors, e.Error())
	}
	for _, row := range sheet.Rows {
		a := row.Asset
		existing, err := s.assets.GetBySerial(ctx, a.SerialNumber)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			res.Errors = append(res.Errors, spreadsheet.RowError{
				Line: row.Line,
				Msg:  fmt.Sprintf("Duplicate Serial Number '%s'", a.SerialNumber),
			}.Error())
			continue
		}
		if err := validateAsset(&a); err != nil {
			res.Errors = append(res.Errors, spreadsheet.RowError{Line: row.Line, Msg: err.Error()}.Error())
			continue
		}
		if _, err := s.insert(ctx, actor, &a, models.ActionImport, "Asset imported by "+actorName(actor)); err != nil {
			res.Errors = append(res.Errors, spreadsheet.RowError{Line: row.Line, Msg: err.Error()}.Error())
			continue
		}
		res.Imported++
	}
	return res, nil
}

// ExportAssets writes the assets matching filters as a workbook.
func (s *AssetService) ExportAssets(ctx context.Context, actor *models.User, w io.Writer, filters map[string]string) error {
	if err := s.authz.Authorize(ctx, actor, gate.ActionExport, gate.ResourceAsset, nil); err != nil {
		return err
	}
	assets, err := s.assets.Search(ctx, filters)
	if err != nil {
		return err
	}
	return spreadsheet.Export(w, assets)
}

// ImportTemplate writes an empty import workbook.
func (s *AssetService) ImportTemplate(ctx context.Context, actor *models.User, w io.Writer) error {
	if err := s.authz.Authorize(ctx, actor, gate.ActionImport, gate.ResourceAsset, nil); err != nil {
		return err
	}
	return spreadsheet.Template(w)
}
