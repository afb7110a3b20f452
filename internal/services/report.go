package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/ids"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/diewo77/go-assets/internal/report"
	"github.com/diewo77/go-assets/internal/store"
)

// ReportResult is a generated report. Path is empty when the report had no
// rows and no file was written.
type ReportResult struct {
	Path  string        `json:"path,omitempty"`
	Table *report.Table `json:"table"`
}

type ReportService struct {
	assets *store.AssetStore
	authz  Authorizer
	dir    string
	now    func() time.Time
}

func NewReportService(assets *store.AssetStore, authz Authorizer, dir string) *ReportService {
	return &ReportService{assets: assets, authz: authz, dir: dir, now: time.Now}
}

// WithClock overrides the report timestamp source.
func (s *ReportService) WithClock(c func() time.Time) *ReportService {
	s.now = c
	return s
}

// Generate builds the kind report over the assets matching filters and
// writes it as <kind>_report_<timestamp>_<ulid>.csv in the reports directory.
func (s *ReportService) Generate(ctx context.Context, actor *models.User, kind string, filters map[string]string) (*ReportResult, error) {
	k, err := report.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, gate.ActionCreate, gate.ResourceReport, nil); err != nil {
		return nil, err
	}
	assets, err := s.assets.Search(ctx, filters)
	if err != nil {
		return nil, err
	}
	now := s.now()
	table, err := report.Generate(k, assets, now)
	if err != nil {
		return nil, err
	}
	res := &ReportResult{Table: table}
	if table.Empty() {
		return res, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create reports dir: %v", apperr.ErrStorage, err)
	}
	name := fmt.Sprintf("%s_report_%s_%s.csv", k, now.Format("20060102_150405"), ids.Stamped(now))
	path := filepath.Join(s.dir, name)
	if err := writeReport(path, table); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: write report: %v", apperr.ErrStorage, err)
	}
	log.Printf("[Report] %s: %d rows written to %s", k, len(table.Rows), path)
	res.Path = path
	return res, nil
}

func writeReport(path string, table *report.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
