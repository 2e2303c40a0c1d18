package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pricedesk/internal/core/apperror"
)

// buildWorkbook writes rows into an in-memory .xlsx file.
func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]

	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseSupplierRows_Basic(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Supplier Name", "Item Code", "Display Name", "Price With Tax"},
		{"Acme", "100", "Widget", "10.50"},
		{"Globex", "200", "Gadget", "4,25"},
	})

	rows, err := ParseSupplierRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Acme", rows[0].SupplierName)
	assert.Equal(t, "100", rows[0].ItemCode)
	require.NotNil(t, rows[0].Name)
	assert.Equal(t, "Widget", *rows[0].Name)
	assert.True(t, rows[0].PriceWithTax.Decimal.Equal(decimal.RequireFromString("10.50")))

	// Comma decimal separator is accepted.
	assert.True(t, rows[1].PriceWithTax.Decimal.Equal(decimal.RequireFromString("4.25")))
}

func TestParseSupplierRows_HeaderMatchingIsLenient(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{" supplier  name ", "ITEM CODE", "display name", "price with tax"},
		{"Acme", "100", "Widget", "1.00"},
	})

	rows, err := ParseSupplierRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].SupplierName)
}

func TestParseSupplierRows_MissingHeaderFails(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Item Code", "Quantity"},
		{"100", 3},
	})

	_, err := ParseSupplierRows(buf)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestParseSupplierRows_RowsWithMissingIdentityFail(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Supplier Name", "Item Code", "Display Name", "Price With Tax"},
		{"", "100", "Widget", "1.00"},
		{"Acme", "200", "Gadget", "2.00"},
	})

	rows, err := ParseSupplierRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Error(t, rows[0].Err)
	assert.NoError(t, rows[1].Err)
}

func TestParseSupplierRows_BlankPriceYieldsZero(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Supplier Name", "Item Code", "Display Name", "Price With Tax"},
		{"Acme", "100", "Widget", ""},
		{"Acme", "200", "Gadget", "n/a"},
	})

	rows, err := ParseSupplierRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.True(t, row.PriceWithTax.Valid)
		assert.True(t, row.PriceWithTax.Decimal.IsZero())
	}
}

func TestParseSupplierRows_NumericItemCodeFolded(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Supplier Name", "Item Code", "Display Name", "Price With Tax"},
		{"Acme", 4600000000001.0, "Widget", "1.00"},
	})

	rows, err := ParseSupplierRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "4600000000001", rows[0].ItemCode)
}

func TestParseResolutionRows_Basic(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Item Code", "Quantity"},
		{"100", 3},
		{"", 5},     // blank code dropped
		{"200", 0},  // zero quantity dropped
		{"300", -1}, // negative quantity dropped
		{"400", 2},
	})

	queries, rawRows, err := ParseResolutionRows(buf)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	require.Len(t, rawRows, 2)

	assert.Equal(t, "100", queries[0].ItemCode)
	assert.Equal(t, 3, queries[0].Quantity)
	assert.Equal(t, "400", queries[1].ItemCode)
	assert.Equal(t, 2, queries[1].Quantity)

	assert.Equal(t, "100", rawRows[0]["column_0"])
}

func TestParseResolutionRows_WrongFileHintsAtSupplierUpload(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Supplier Name", "Item Code", "Display Name", "Price With Tax"},
	})

	_, _, err := ParseResolutionRows(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Quantity")
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "itemcode", normalizeHeader(" Item  Code "))
	assert.Equal(t, "suppliername", normalizeHeader("SUPPLIER\tNAME"))
}
