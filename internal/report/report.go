// Package report computes the tabular asset reports and writes them as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"gorm.io/datatypes"
)

type Kind string

const (
	AssetList    Kind = "asset_list"
	Depreciation Kind = "depreciation"
	Ageing       Kind = "ageing"
	Lifecycle    Kind = "lifecycle"
	Warranty     Kind = "warranty"
	Maintenance  Kind = "maintenance"
)

// Kinds returns every report kind in display order.
func Kinds() []Kind {
	return []Kind{AssetList, Depreciation, Ageing, Lifecycle, Warranty, Maintenance}
}

// ParseKind validates s as a report kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown report type %q", apperr.ErrValidation, s)
}

const (
	depreciationRate = 0.2
	daysPerYear      = 365.25
	// Five years of 365.25 days, truncated to whole days.
	lifecycleDays = 1826
)

// Table is a generated report: a header row plus string cells.
type Table struct {
	Kind    Kind       `json:"kind"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

// WriteCSV writes the header and rows as comma-separated text.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Generate builds the report of the given kind over assets as of now.
func Generate(kind Kind, assets []models.Asset, now time.Time) (*Table, error) {
	switch kind {
	case AssetList:
		return assetList(assets), nil
	case Depreciation:
		return depreciation(assets, now), nil
	case Ageing:
		return ageing(assets, now), nil
	case Lifecycle:
		return lifecycle(assets, now), nil
	case Warranty, Maintenance:
		// No warranty or maintenance data is tracked yet.
		return &Table{Kind: kind}, nil
	}
	return nil, fmt.Errorf("%w: unknown report type %q", apperr.ErrValidation, kind)
}

var assetListColumns = []string{
	"id", "serial_number", "company", "location", "category", "status",
	"username", "designation", "department", "model", "description",
	"issue_date", "computer_id", "working_status", "condition", "audit",
	"employee_id", "purchase_date", "rack_tray_number", "service_center",
	"lpo_number", "invoice_number", "supplier", "estimated_cost", "remarks",
	"created_at", "updated_at",
}

func assetList(assets []models.Asset) *Table {
	t := &Table{Kind: AssetList, Columns: assetListColumns}
	for _, a := range assets {
		t.Rows = append(t.Rows, []string{
			uintStr(a.ID), a.SerialNumber, a.Company, a.Location, a.Category, a.Status,
			a.Username, a.Designation, a.Department, a.Model, a.Description,
			dateStr(a.IssueDate), a.ComputerID, a.WorkingStatus, a.Condition, a.Audit,
			a.EmployeeID, dateStr(a.PurchaseDate), a.RackTrayNumber, a.ServiceCenter,
			a.LPONumber, a.InvoiceNumber, a.Supplier, costStr(a.EstimatedCost), a.Remarks,
			timeStr(a.CreatedAt), timeStr(a.UpdatedAt),
		})
	}
	return t
}

// DepreciationRow is the straight-line valuation of one asset.
type DepreciationRow struct {
	ID                 uint
	SerialNumber       string
	Category           string
	Model              string
	PurchaseDate       string
	OriginalCost       float64
	AgeYears           float64
	DepreciationAmount float64
	CurrentValue       float64
	DepreciationPct    float64
}

// DepreciationOf values a at now. ok is false when a has no purchase date
// or no cost.
func DepreciationOf(a models.Asset, now time.Time) (row DepreciationRow, ok bool) {
	purchased, ok := models.DateOf(a.PurchaseDate)
	if !ok || a.EstimatedCost == nil || *a.EstimatedCost == 0 {
		return row, false
	}
	age := ageYears(purchased, now)
	cost := *a.EstimatedCost
	amount := cost * math.Min(age*depreciationRate, 1)
	return DepreciationRow{
		ID:                 a.ID,
		SerialNumber:       a.SerialNumber,
		Category:           a.Category,
		Model:              a.Model,
		PurchaseDate:       dateStr(a.PurchaseDate),
		OriginalCost:       cost,
		AgeYears:           round2(age),
		DepreciationAmount: round2(amount),
		CurrentValue:       round2(math.Max(cost-amount, 0)),
		DepreciationPct:    math.Min(round2(age*depreciationRate*100), 100),
	}, true
}

func depreciation(assets []models.Asset, now time.Time) *Table {
	t := &Table{Kind: Depreciation, Columns: []string{
		"id", "serial_number", "category", "model", "purchase_date", "original_cost",
		"age_years", "depreciation_amount", "current_value", "depreciation_percentage",
	}}
	for _, a := range assets {
		r, ok := DepreciationOf(a, now)
		if !ok {
			continue
		}
		t.Rows = append(t.Rows, []string{
			uintStr(r.ID), r.SerialNumber, r.Category, r.Model, r.PurchaseDate,
			floatStr(r.OriginalCost), floatStr(r.AgeYears), floatStr(r.DepreciationAmount),
			floatStr(r.CurrentValue), floatStr(r.DepreciationPct),
		})
	}
	return t
}

// Age buckets, upper bounds exclusive.
var ageBuckets = []struct {
	label string
	limit float64
}{
	{"Less than 3 years", 3},
	{"3-5 years", 5},
	{"5-7 years", 7},
	{"7-10 years", 10},
	{"Over 10 years", math.Inf(1)},
}

// AgeCategory returns the ageing bucket label for an age in years.
func AgeCategory(years float64) string {
	for _, b := range ageBuckets {
		if years < b.limit {
			return b.label
		}
	}
	return "Unknown"
}

func ageing(assets []models.Asset, now time.Time) *Table {
	t := &Table{Kind: Ageing, Columns: []string{
		"id", "serial_number", "category", "model", "purchase_date", "age_years", "age_category",
	}}
	for _, a := range assets {
		purchased, ok := models.DateOf(a.PurchaseDate)
		if !ok {
			continue
		}
		age := ageYears(purchased, now)
		t.Rows = append(t.Rows, []string{
			uintStr(a.ID), a.SerialNumber, a.Category, a.Model, dateStr(a.PurchaseDate),
			floatStr(round2(age)), AgeCategory(age),
		})
	}
	return t
}

// LifecycleRow is the end-of-life projection for one asset.
type LifecycleRow struct {
	AgeYears       float64
	EOLDate        time.Time
	RemainingYears float64
	Status         string
	Priority       string
}

// LifecycleOf projects the five-year life of an asset purchased on
// purchased, as seen at now.
func LifecycleOf(purchased, now time.Time) LifecycleRow {
	start := localDate(purchased, now.Location())
	eol := start.AddDate(0, 0, lifecycleDays)
	remaining := float64(floorDays(eol.Sub(now))) / daysPerYear

	row := LifecycleRow{
		AgeYears:       ageYears(purchased, now),
		EOLDate:        eol,
		RemainingYears: math.Max(remaining, 0),
	}
	switch {
	case remaining <= 0:
		row.Status, row.Priority = "End of Life", "High"
	case remaining < 1:
		row.Status, row.Priority = "Approaching End of Life", "Medium"
	default:
		row.Status, row.Priority = "Active", "Low"
	}
	return row
}

func lifecycle(assets []models.Asset, now time.Time) *Table {
	t := &Table{Kind: Lifecycle, Columns: []string{
		"id", "serial_number", "category", "model", "purchase_date", "age_years",
		"eol_date", "remaining_years", "lifecycle_status", "replacement_priority",
	}}
	for _, a := range assets {
		purchased, ok := models.DateOf(a.PurchaseDate)
		if !ok {
			continue
		}
		lc := LifecycleOf(purchased, now)
		t.Rows = append(t.Rows, []string{
			uintStr(a.ID), a.SerialNumber, a.Category, a.Model, dateStr(a.PurchaseDate),
			floatStr(round2(lc.AgeYears)), lc.EOLDate.Format(time.DateOnly),
			floatStr(round2(lc.RemainingYears)), lc.Status, lc.Priority,
		})
	}
	return t
}

// ageYears counts whole days elapsed since the purchase date.
func ageYears(purchased, now time.Time) float64 {
	return float64(floorDays(now.Sub(localDate(purchased, now.Location())))) / daysPerYear
}

// localDate places the calendar date of d at midnight in loc.
func localDate(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func floorDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func uintStr(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func floatStr(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func costStr(v *float64) string {
	if v == nil {
		return ""
	}
	return floatStr(*v)
}

func dateStr(d *datatypes.Date) string {
	t, ok := models.DateOf(d)
	if !ok {
		return ""
	}
	return t.Format(time.DateOnly)
}

func timeStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}
