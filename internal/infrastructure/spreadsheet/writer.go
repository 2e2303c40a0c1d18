package spreadsheet

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pricedesk/internal/domain/offer"
	"pricedesk/internal/domain/pricing"
)

// moneyNumFmt is the builtin "#,##0.00" number format.
const moneyNumFmt = 4

// CatalogExporter streams the full offer catalog into an .xlsx workbook one
// page at a time, so the whole catalog never has to sit in memory.
type CatalogExporter struct {
	f   *excelize.File
	sw  *excelize.StreamWriter
	row int
}

// NewCatalogExporter creates an exporter with the catalog header row written.
func NewCatalogExporter() (*CatalogExporter, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(f.GetSheetList()[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create stream writer: %w", err)
	}

	e := &CatalogExporter{f: f, sw: sw, row: 1}
	header := []any{HeaderSupplierName, HeaderItemCode, HeaderDisplayName, HeaderPriceWithTax}
	if err := e.setRow(header); err != nil {
		f.Close()
		return nil, err
	}
	return e, nil
}

// Append writes one page of offers.
func (e *CatalogExporter) Append(offers []*offer.ProductOffer) error {
	for _, o := range offers {
		name := ""
		if o.Name != nil {
			name = *o.Name
		}
		price := 0.0
		if o.PriceWithTax.Valid {
			price, _ = o.PriceWithTax.Decimal.Float64()
		}
		if err := e.setRow([]any{o.SupplierName, o.ItemCode, name, price}); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo flushes the stream and writes the workbook.
func (e *CatalogExporter) WriteTo(w io.Writer) error {
	if err := e.sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}
	return e.f.Write(w)
}

// Close releases the underlying workbook.
func (e *CatalogExporter) Close() error {
	return e.f.Close()
}

func (e *CatalogExporter) setRow(values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, e.row)
	if err != nil {
		return err
	}
	if err := e.sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("write row %d: %w", e.row, err)
	}
	e.row++
	return nil
}

// WriteResolutions builds a workbook with one row per resolution result.
// The caller owns the returned file and must Close it.
func WriteResolutions(results []pricing.Resolution) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]

	headers := []string{
		HeaderItemCode, HeaderQuantity, "Product Name", "Supplier",
		"Unit Price", "Total Price", "Manual Processing", "Message",
	}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		f.Close()
		return nil, err
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create money style: %w", err)
	}

	for i, res := range results {
		row := i + 2
		manual := "No"
		if res.RequiresManualProcessing {
			manual = "Yes"
		}
		values := []any{
			res.ItemCode, res.Quantity, res.ProductName, res.SupplierName,
			decimalOrZero(res.UnitPrice), decimalOrZero(res.TotalPrice), manual, res.Message,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}

		start, _ := excelize.CoordinatesToCellName(5, row)
		end, _ := excelize.CoordinatesToCellName(6, row)
		if err := f.SetCellStyle(sheet, start, end, moneyStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// WriteDetailedResolutions builds the price-comparison workbook: per requested
// item, every priced competing offer sorted by ascending price, with the
// markup over the best price in percent. The first row of each group carries
// the request identity and the winning total; follow-up rows list the other
// suppliers only. The caller owns the returned file and must Close it.
func WriteDetailedResolutions(results []pricing.Resolution, offersByCode map[string][]*offer.ProductOffer) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]

	headers := []string{
		HeaderItemCode, HeaderQuantity, "Product Name", "Supplier",
		"Unit Price", "Over Best", "Total Price", "Manual Processing",
	}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		f.Close()
		return nil, err
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create money style: %w", err)
	}
	pctFmt := `0.00"%"`
	pctStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create percent style: %w", err)
	}

	setRow := func(row int, values []any) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}
	style := func(row, col, styleID int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellStyle(sheet, cell, cell, styleID)
	}

	row := 2
	for _, res := range results {
		if res.RequiresManualProcessing {
			if err := setRow(row, []any{res.ItemCode, res.Quantity, "Item not found", "", "", "", "", "Yes"}); err != nil {
				f.Close()
				return nil, err
			}
			row++
			continue
		}

		competing := offersByCode[res.ItemCode]
		if len(competing) == 0 {
			// Catalog moved on since resolution.
			if err := setRow(row, []any{res.ItemCode, res.Quantity, "Item not found in catalog", "", "", "", "", "Yes"}); err != nil {
				f.Close()
				return nil, err
			}
			row++
			continue
		}

		priced := pricedOffersAscending(competing)
		if len(priced) == 0 {
			// Every competing offer lacks a price; nothing to compare.
			if err := setRow(row, []any{res.ItemCode, res.Quantity, res.ProductName, "", "", "", "", "No"}); err != nil {
				f.Close()
				return nil, err
			}
			row++
			continue
		}

		best := priced[0].PriceWithTax.Decimal
		for i, o := range priced {
			unit, _ := o.PriceWithTax.Decimal.Float64()
			var values []any
			if i == 0 {
				total, _ := best.Mul(decimal.NewFromInt(int64(res.Quantity))).Float64()
				values = []any{res.ItemCode, res.Quantity, res.ProductName, o.SupplierName, unit, 0.0, total, "No"}
			} else {
				pct, _ := o.PriceWithTax.Decimal.Sub(best).
					Div(best).
					Mul(decimal.NewFromInt(100)).Float64()
				values = []any{"", "", "", o.SupplierName, unit, pct, "", ""}
			}
			if err := setRow(row, values); err != nil {
				f.Close()
				return nil, err
			}
			if err := style(row, 5, moneyStyle); err != nil {
				f.Close()
				return nil, err
			}
			if err := style(row, 6, pctStyle); err != nil {
				f.Close()
				return nil, err
			}
			if i == 0 {
				if err := style(row, 7, moneyStyle); err != nil {
					f.Close()
					return nil, err
				}
			}
			row++
		}
	}

	return f, nil
}

// pricedOffersAscending filters out null-priced offers and sorts the rest by
// price, breaking ties to the smaller supplier name.
func pricedOffersAscending(offers []*offer.ProductOffer) []*offer.ProductOffer {
	priced := make([]*offer.ProductOffer, 0, len(offers))
	for _, o := range offers {
		if o.HasPrice() {
			priced = append(priced, o)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		switch priced[i].PriceWithTax.Decimal.Cmp(priced[j].PriceWithTax.Decimal) {
		case -1:
			return true
		case 1:
			return false
		}
		return priced[i].SupplierName < priced[j].SupplierName
	})
	return priced
}

// HistoryRow is one (item code, quantity) pair re-exported from a stored
// history entry.
type HistoryRow struct {
	ItemCode string  `json:"itemCode"`
	Quantity float64 `json:"quantity"`
}

// WriteHistoryRows builds the two-column history re-export workbook.
// The caller owns the returned file and must Close it.
func WriteHistoryRows(rows []HistoryRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]

	if err := writeHeaderRow(f, sheet, []string{HeaderItemCode, HeaderQuantity}); err != nil {
		f.Close()
		return nil, err
	}

	for i, r := range rows {
		values := []any{r.ItemCode, r.Quantity}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	return f, nil
}

// InvoiceItem is one line of an invoice export.
type InvoiceItem struct {
	ItemCode    string           `json:"itemCode"`
	ProductName string           `json:"productName"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	TotalPrice  *decimal.Decimal `json:"totalPrice"`
}

// WriteInvoice builds an invoice workbook with a grand-total row at the end.
// The caller owns the returned file and must Close it.
func WriteInvoice(items []InvoiceItem) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]

	headers := []string{HeaderItemCode, "Product Name", HeaderQuantity, "Unit Price", "Total"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		f.Close()
		return nil, err
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create money style: %w", err)
	}

	total := decimal.Zero
	row := 2
	for _, item := range items {
		values := []any{
			item.ItemCode, item.ProductName, item.Quantity,
			decimalOrZero(item.UnitPrice), decimalOrZero(item.TotalPrice),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}
		start, _ := excelize.CoordinatesToCellName(4, row)
		end, _ := excelize.CoordinatesToCellName(5, row)
		if err := f.SetCellStyle(sheet, start, end, moneyStyle); err != nil {
			f.Close()
			return nil, err
		}
		if item.TotalPrice != nil {
			total = total.Add(*item.TotalPrice)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(4, row)
	totalCell, _ := excelize.CoordinatesToCellName(5, row)
	if err := f.SetCellValue(sheet, totalLabel, "Total:"); err != nil {
		f.Close()
		return nil, err
	}
	v, _ := total.Float64()
	if err := f.SetCellValue(sheet, totalCell, v); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(sheet, totalCell, totalCell, moneyStyle); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	start, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, start, end, boldStyle)
}

func decimalOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	v, _ := d.Float64()
	return v
}
