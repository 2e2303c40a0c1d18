package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pricedesk/internal/domain/offer"
	"pricedesk/internal/domain/pricing"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func cellValue(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(f.GetSheetList()[0], cell)
	require.NoError(t, err)
	return v
}

func TestWriteResolutions(t *testing.T) {
	results := []pricing.Resolution{
		{
			ItemCode: "100", Quantity: 3, ProductName: "Widget", SupplierName: "Acme",
			UnitPrice: decPtr("9.00"), TotalPrice: decPtr("27.00"),
			Message: "Supplier Acme at 9.00 per unit",
		},
		{
			ItemCode: "999", Quantity: 1,
			RequiresManualProcessing: true,
			Message:                  "Item not found in catalog",
		},
	}

	f, err := WriteResolutions(results)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Item Code", cellValue(t, f, "A1"))
	assert.Equal(t, "100", cellValue(t, f, "A2"))
	assert.Equal(t, "Acme", cellValue(t, f, "D2"))
	assert.Equal(t, "No", cellValue(t, f, "G2"))
	assert.Equal(t, "Yes", cellValue(t, f, "G3"))
	assert.Equal(t, "Item not found in catalog", cellValue(t, f, "H3"))
}

func TestWriteDetailedResolutions_ListsCompetingOffers(t *testing.T) {
	name := "Widget"
	results := []pricing.Resolution{
		{
			ItemCode: "100", Quantity: 2, ProductName: "Widget", SupplierName: "Beta",
			UnitPrice: decPtr("8.00"), TotalPrice: decPtr("16.00"),
		},
	}
	offersByCode := map[string][]*offer.ProductOffer{
		"100": {
			{ID: "1", SupplierName: "Alpha", ItemCode: "100", Name: &name,
				PriceWithTax: decimal.NullDecimal{Decimal: decimal.RequireFromString("10.00"), Valid: true}},
			{ID: "2", SupplierName: "Beta", ItemCode: "100", Name: &name,
				PriceWithTax: decimal.NullDecimal{Decimal: decimal.RequireFromString("8.00"), Valid: true}},
			// No price: excluded from the comparison.
			{ID: "3", SupplierName: "Gamma", ItemCode: "100", Name: &name},
		},
	}

	f, err := WriteDetailedResolutions(results, offersByCode)
	require.NoError(t, err)
	defer f.Close()

	// Winning row carries the request identity and total.
	assert.Equal(t, "100", cellValue(t, f, "A2"))
	assert.Equal(t, "Widget", cellValue(t, f, "C2"))
	assert.Equal(t, "Beta", cellValue(t, f, "D2"))
	assert.Equal(t, "No", cellValue(t, f, "H2"))

	// Follow-up row lists the pricier supplier only, 25% over best.
	assert.Equal(t, "", cellValue(t, f, "A3"))
	assert.Equal(t, "Alpha", cellValue(t, f, "D3"))
	assert.Equal(t, "25", cellValue(t, f, "F3"))
	assert.Equal(t, "", cellValue(t, f, "G3"))

	// Null-priced Gamma never appears.
	assert.Equal(t, "", cellValue(t, f, "D4"))
}

func TestWriteDetailedResolutions_ManualAndUnpricedRows(t *testing.T) {
	results := []pricing.Resolution{
		{ItemCode: "999", Quantity: 5, RequiresManualProcessing: true, Message: "Item not found in catalog"},
		{ItemCode: "200", Quantity: 1, ProductName: "Gadget"},
		// Resolved earlier but since removed from the catalog.
		{ItemCode: "300", Quantity: 2, ProductName: "Gizmo"},
	}
	offersByCode := map[string][]*offer.ProductOffer{
		"200": {
			{ID: "1", SupplierName: "Acme", ItemCode: "200"},
		},
	}

	f, err := WriteDetailedResolutions(results, offersByCode)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "999", cellValue(t, f, "A2"))
	assert.Equal(t, "Item not found", cellValue(t, f, "C2"))
	assert.Equal(t, "Yes", cellValue(t, f, "H2"))

	assert.Equal(t, "200", cellValue(t, f, "A3"))
	assert.Equal(t, "Gadget", cellValue(t, f, "C3"))
	assert.Equal(t, "No", cellValue(t, f, "H3"))

	assert.Equal(t, "300", cellValue(t, f, "A4"))
	assert.Equal(t, "Item not found in catalog", cellValue(t, f, "C4"))
	assert.Equal(t, "Yes", cellValue(t, f, "H4"))
}

func TestWriteHistoryRows(t *testing.T) {
	f, err := WriteHistoryRows([]HistoryRow{
		{ItemCode: "100", Quantity: 3},
		{ItemCode: "200", Quantity: 1.5},
	})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Item Code", cellValue(t, f, "A1"))
	assert.Equal(t, "Quantity", cellValue(t, f, "B1"))
	assert.Equal(t, "100", cellValue(t, f, "A2"))
	assert.Equal(t, "3", cellValue(t, f, "B2"))
	assert.Equal(t, "1.5", cellValue(t, f, "B3"))
}

func TestWriteInvoice_GrandTotal(t *testing.T) {
	items := []InvoiceItem{
		{ItemCode: "100", ProductName: "Widget", Quantity: 3, UnitPrice: decPtr("9.00"), TotalPrice: decPtr("27.00")},
		{ItemCode: "200", ProductName: "Gadget", Quantity: 1, UnitPrice: decPtr("4.50"), TotalPrice: decPtr("4.50")},
	}

	f, err := WriteInvoice(items)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Widget", cellValue(t, f, "B2"))
	assert.Equal(t, "Total:", cellValue(t, f, "D4"))
	assert.Equal(t, "31.5", cellValue(t, f, "E4"))
}

func TestCatalogExporter_RoundTrip(t *testing.T) {
	name := "Widget"
	offers := []*offer.ProductOffer{
		{ID: "1", SupplierName: "Acme", ItemCode: "100", Name: &name,
			PriceWithTax: decimal.NullDecimal{Decimal: decimal.RequireFromString("10.50"), Valid: true}},
		{ID: "2", SupplierName: "Globex", ItemCode: "200"},
	}

	exporter, err := NewCatalogExporter()
	require.NoError(t, err)
	defer exporter.Close()

	require.NoError(t, exporter.Append(offers))

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteTo(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Supplier Name", cellValue(t, f, "A1"))
	assert.Equal(t, "Acme", cellValue(t, f, "A2"))
	assert.Equal(t, "100", cellValue(t, f, "B2"))
	assert.Equal(t, "10.5", cellValue(t, f, "D2"))
	assert.Equal(t, "Globex", cellValue(t, f, "A3"))
}
