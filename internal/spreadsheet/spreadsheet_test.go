package spreadsheet

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// workbook builds an xlsx with the given rows on its first sheet.
func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestExport_ThenParse(t *testing.T) {
	cost := 1499.5
	assets := []models.Asset{
		{
			SerialNumber: "SN-1", Category: "Laptop", Status: models.StatusActive,
			Username: "jdoe", Department: "IT", Model: "Latitude",
			IssueDate:     models.NewDate(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)),
			PurchaseDate:  models.NewDate(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)),
			EstimatedCost: &cost, Remarks: "spare charger",
		},
		{SerialNumber: "SN-2", Category: "Monitor", Status: models.StatusStock},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, assets))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	header, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	assert.Equal(t, Headers, header[0])
	require.NoError(t, f.Close())

	sheet, err := Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, sheet.Errors)
	require.Len(t, sheet.Rows, 2)

	got := sheet.Rows[0]
	assert.Equal(t, 2, got.Line)
	assert.Equal(t, "SN-1", got.Asset.SerialNumber)
	assert.Equal(t, "jdoe", got.Asset.Username)
	assert.Equal(t, "spare charger", got.Asset.Remarks)
	require.NotNil(t, got.Asset.EstimatedCost)
	assert.Equal(t, cost, *got.Asset.EstimatedCost)
	purchased, ok := models.DateOf(got.Asset.PurchaseDate)
	require.True(t, ok)
	assert.Equal(t, "2023-01-15", purchased.Format(time.DateOnly))

	assert.Nil(t, sheet.Rows[1].Asset.EstimatedCost)
	assert.Nil(t, sheet.Rows[1].Asset.IssueDate)
}

func TestTemplate_IsImportable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Template(&buf))

	sheet, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, 3, sheet.Rows[0].Line)
	assert.Equal(t, "SN12345678", sheet.Rows[0].Asset.SerialNumber)
	assert.Equal(t, "Laptop", sheet.Rows[0].Asset.Category)
}

func TestParse_MissingRequiredHeader(t *testing.T) {
	buf := workbook(t, []any{"Serial Number", "Company"}, []any{"SN-1", "Acme"})
	_, err := Parse(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Contains(t, err.Error(), "Category")
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := Parse(bytes.NewBufferString("serial,category\n"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestParse_RowErrors(t *testing.T) {
	buf := workbook(t,
		[]any{"Category", "Serial Number", "Estimated Cost", "Purchase Date"},
		[]any{"Laptop", "", "", ""},
		[]any{"", "SN-2", "", ""},
		[]any{" "},
		[]any{"Laptop", "SN-4", "lots", ""},
		[]any{"Laptop", "SN-5", "", "yesterday"},
		[]any{"Laptop", "SN-6", 250, 45292},
	)

	sheet, err := Parse(buf)
	require.NoError(t, err)

	msgs := make([]string, 0, len(sheet.Errors))
	for _, e := range sheet.Errors {
		msgs = append(msgs, e.Error())
	}
	assert.Equal(t, []string{
		"Row 2: Missing Serial Number",
		"Row 3: Missing Category",
		"Row 5: invalid Estimated Cost 'lots'",
		"Row 6: invalid Purchase Date 'yesterday'",
	}, msgs)

	require.Len(t, sheet.Rows, 1)
	a := sheet.Rows[0].Asset
	assert.Equal(t, "SN-6", a.SerialNumber)
	require.NotNil(t, a.EstimatedCost)
	assert.Equal(t, 250.0, *a.EstimatedCost)
	purchased, ok := models.DateOf(a.PurchaseDate)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", purchased.Format(time.DateOnly))
}
