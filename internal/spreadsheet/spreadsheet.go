// Package spreadsheet reads and writes the 24-column asset workbook.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

const (
	ExportSheet   = "Assets"
	TemplateSheet = "Asset Import Template"

	colSerial   = "Serial Number"
	colCategory = "Category"
)

// Headers is the workbook column order.
var Headers = []string{
	"Serial Number", "Company", "Location", "Category", "Status",
	"Username", "Designation", "Department", "Model", "Description",
	"Issue Date", "Computer ID", "Working Status", "Condition",
	"Audit", "Employee ID", "Purchase Date", "Rack/Tray Number",
	"Service Center", "LPO Number", "Invoice Number", "Supplier",
	"Estimated Cost", "Remarks",
}

const templateInstructions = "Instructions: Fill in the asset details below. Fields marked in red are required."

var templateExample = []string{
	"SN12345678", "Meraki", "SS7", "Laptop", "Stock",
	"", "", "", "Dell Latitude 5420", "Core i5, 8GB RAM, 256GB SSD",
	"", "", "Working", "New",
	"", "", "2025-01-15", "",
	"", "LPO-2025-001", "INV-2025-001", "Dell",
	"1200", "",
}

// Row is one parsed data row. Line is the 1-based sheet row number.
type Row struct {
	Line  int
	Asset models.Asset
}

// RowError describes a data row that could not be used.
type RowError struct {
	Line int
	Msg  string
}

func (e RowError) Error() string { return fmt.Sprintf("Row %d: %s", e.Line, e.Msg) }

// Sheet is the result of parsing an import workbook.
type Sheet struct {
	Rows   []Row
	Errors []RowError
}

// Export writes assets as a single-sheet workbook.
func Export(w io.Writer, assets []models.Asset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return err
	}
	if err := writeHeader(f, ExportSheet, 1); err != nil {
		return err
	}
	for i, a := range assets {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := assetValues(a)
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(ExportSheet, "A", lastCol(), 18); err != nil {
		return err
	}
	return f.Write(w)
}

// Template writes an empty import workbook with an instruction row, the
// header row and one example row.
func Template(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := TemplateSheet
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", templateInstructions); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", lastCol()+"1"); err != nil {
		return err
	}
	if err := writeHeader(f, sheet, 2); err != nil {
		return err
	}
	required, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFCCCC"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	for i, h := range Headers {
		if h != colSerial && h != colCategory {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellStyle(sheet, cell, cell, required); err != nil {
			return err
		}
	}
	example := make([]any, len(templateExample))
	for i, v := range templateExample {
		example[i] = v
	}
	if err := f.SetSheetRow(sheet, "A3", &example); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol(), 18); err != nil {
		return err
	}
	return f.Write(w)
}

// Parse reads the active sheet of an import workbook. The header row is the
// first row naming both required columns, so both exported workbooks and
// templates are accepted. A workbook without the required headers is a
// validation error; problems in individual rows are reported in Errors.
func Parse(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable workbook: %v", apperr.ErrValidation, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	headerAt := -1
	var index map[string]int
	for i := 0; i < len(rows) && i < 2; i++ {
		idx := headerIndex(rows[i])
		if _, ok := idx[colSerial]; !ok {
			continue
		}
		if _, ok := idx[colCategory]; !ok {
			continue
		}
		headerAt, index = i, idx
		break
	}
	if headerAt < 0 {
		for _, h := range []string{colSerial, colCategory} {
			if len(rows) == 0 || !hasHeader(rows[0], h) {
				return nil, fmt.Errorf("%w: required field '%s' not found in workbook", apperr.ErrValidation, h)
			}
		}
		return nil, fmt.Errorf("%w: header row not found", apperr.ErrValidation)
	}

	out := &Sheet{}
	for i := headerAt + 1; i < len(rows); i++ {
		line := i + 1
		cells := rows[i]
		if blank(cells) {
			continue
		}
		get := func(h string) string {
			c, ok := index[h]
			if !ok || c >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[c])
		}
		a, err := parseAsset(get, f)
		if err != nil {
			out.Errors = append(out.Errors, RowError{Line: line, Msg: err.Error()})
			continue
		}
		switch {
		case a.SerialNumber == "":
			out.Errors = append(out.Errors, RowError{Line: line, Msg: "Missing Serial Number"})
		case a.Category == "":
			out.Errors = append(out.Errors, RowError{Line: line, Msg: "Missing Category"})
		default:
			out.Rows = append(out.Rows, Row{Line: line, Asset: a})
		}
	}
	return out, nil
}

func parseAsset(get func(string) string, f *excelize.File) (models.Asset, error) {
	a := models.Asset{
		SerialNumber:   get("Serial Number"),
		Company:        get("Company"),
		Location:       get("Location"),
		Category:       get("Category"),
		Status:         get("Status"),
		Username:       get("Username"),
		Designation:    get("Designation"),
		Department:     get("Department"),
		Model:          get("Model"),
		Description:    get("Description"),
		ComputerID:     get("Computer ID"),
		WorkingStatus:  get("Working Status"),
		Condition:      get("Condition"),
		Audit:          get("Audit"),
		EmployeeID:     get("Employee ID"),
		RackTrayNumber: get("Rack/Tray Number"),
		ServiceCenter:  get("Service Center"),
		LPONumber:      get("LPO Number"),
		InvoiceNumber:  get("Invoice Number"),
		Supplier:       get("Supplier"),
		Remarks:        get("Remarks"),
	}
	var err error
	if a.IssueDate, err = parseDate(get("Issue Date"), f); err != nil {
		return a, fmt.Errorf("invalid Issue Date '%s'", get("Issue Date"))
	}
	if a.PurchaseDate, err = parseDate(get("Purchase Date"), f); err != nil {
		return a, fmt.Errorf("invalid Purchase Date '%s'", get("Purchase Date"))
	}
	if s := get("Estimated Cost"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return a, fmt.Errorf("invalid Estimated Cost '%s'", s)
		}
		a.EstimatedCost = &v
	}
	return a, nil
}

var dateLayouts = []string{time.DateOnly, time.DateTime, "2006-01-02T15:04:05", "02/01/2006"}

// parseDate accepts ISO dates and Excel serial day numbers.
func parseDate(s string, f *excelize.File) (*datatypes.Date, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.NewDate(t), nil
		}
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, err
	}
	t, err := excelize.ExcelDateToTime(serial, props.Date1904 != nil && *props.Date1904)
	if err != nil {
		return nil, err
	}
	return models.NewDate(t), nil
}

func writeHeader(f *excelize.File, sheet string, row int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(Headers), row)
	if err := f.SetSheetRow(sheet, first, &header); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func assetValues(a models.Asset) []any {
	var cost any = ""
	if a.EstimatedCost != nil {
		cost = *a.EstimatedCost
	}
	return []any{
		a.SerialNumber, a.Company, a.Location, a.Category, a.Status,
		a.Username, a.Designation, a.Department, a.Model, a.Description,
		dateValue(a.IssueDate), a.ComputerID, a.WorkingStatus, a.Condition,
		a.Audit, a.EmployeeID, dateValue(a.PurchaseDate), a.RackTrayNumber,
		a.ServiceCenter, a.LPONumber, a.InvoiceNumber, a.Supplier,
		cost, a.Remarks,
	}
}

func dateValue(d *datatypes.Date) string {
	t, ok := models.DateOf(d)
	if !ok {
		return ""
	}
	return t.Format(time.DateOnly)
}

func headerIndex(cells []string) map[string]int {
	idx := make(map[string]int, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if _, dup := idx[c]; c != "" && !dup {
			idx[c] = i
		}
	}
	return idx
}

func hasHeader(cells []string, h string) bool {
	_, ok := headerIndex(cells)[h]
	return ok
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func lastCol() string {
	name, _ := excelize.ColumnNumberToName(len(Headers))
	return name
}
