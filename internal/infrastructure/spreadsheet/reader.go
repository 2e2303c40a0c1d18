// Package spreadsheet reads and writes the Excel files the service exchanges
// with callers: supplier uploads, price-resolution uploads, and exports.
package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pricedesk/internal/core/apperror"
	"pricedesk/internal/domain/ingest"
	"pricedesk/internal/domain/pricing"
)

// Expected column headers. Matching is case-insensitive and ignores all
// whitespace, so " item  code " resolves the same as "Item Code".
const (
	HeaderSupplierName = "Supplier Name"
	HeaderItemCode     = "Item Code"
	HeaderDisplayName  = "Display Name"
	HeaderPriceWithTax = "Price With Tax"
	HeaderQuantity     = "Quantity"
)

// ParseSupplierRows reads a supplier upload: first sheet, header in row 0,
// one offer per data row. A missing required header fails the whole parse
// before any row is produced. Rows with a missing identity field are returned
// with Err set so the engine can count them as failed without aborting.
func ParseSupplierRows(r io.Reader) ([]ingest.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.NewValidation("unable to read spreadsheet").WithCause(err)
	}
	defer f.Close()

	iter, sheet, err := firstSheetRows(f)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	cols, err := resolveColumns(iter,
		"a supplier data file, not a price resolution file",
		HeaderSupplierName, HeaderItemCode, HeaderDisplayName, HeaderPriceWithTax)
	if err != nil {
		return nil, err
	}

	var rows []ingest.Row
	index := 0
	for iter.Next() {
		index++
		cells, err := iter.Columns()
		if err != nil {
			rows = append(rows, ingest.Row{Index: index, Err: err})
			continue
		}
		if isBlankRow(cells) {
			continue
		}

		row := ingest.Row{
			Index:        index,
			SupplierName: cellString(cells, cols[HeaderSupplierName]),
			ItemCode:     cellCode(cells, cols[HeaderItemCode]),
			PriceWithTax: cellPrice(cells, cols[HeaderPriceWithTax]),
		}
		if name := cellString(cells, cols[HeaderDisplayName]); name != "" {
			row.Name = &name
		}
		if row.SupplierName == "" || row.ItemCode == "" {
			row.Err = fmt.Errorf("row %d: supplier name or item code missing", index+1)
		}
		rows = append(rows, row)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	return rows, nil
}

// ParseResolutionRows reads a price-resolution upload (item code + quantity
// headers). Pairs with a blank item code or non-positive quantity are dropped
// silently. The second return value holds the full original content of each
// accepted row, keyed column_0..column_N, retained verbatim for history.
func ParseResolutionRows(r io.Reader) ([]pricing.Query, []map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperror.NewValidation("unable to read spreadsheet").WithCause(err)
	}
	defer f.Close()

	iter, sheet, err := firstSheetRows(f)
	if err != nil {
		return nil, nil, err
	}
	defer iter.Close()

	cols, err := resolveColumns(iter,
		"a price resolution file, not a supplier data file",
		HeaderItemCode, HeaderQuantity)
	if err != nil {
		return nil, nil, err
	}

	var queries []pricing.Query
	var rawRows []map[string]any
	for iter.Next() {
		cells, err := iter.Columns()
		if err != nil || isBlankRow(cells) {
			continue
		}

		code := cellCode(cells, cols[HeaderItemCode])
		quantity := cellQuantity(cells, cols[HeaderQuantity])
		if code == "" || quantity <= 0 {
			continue
		}

		queries = append(queries, pricing.Query{ItemCode: code, Quantity: quantity})

		raw := make(map[string]any, len(cells))
		for i, cell := range cells {
			raw["column_"+strconv.Itoa(i)] = sanitizeRaw(cell)
		}
		rawRows = append(rawRows, raw)
	}
	if err := iter.Error(); err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	return queries, rawRows, nil
}

// firstSheetRows opens a streaming row iterator over the first sheet.
func firstSheetRows(f *excelize.File) (*excelize.Rows, string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", apperror.NewValidation("spreadsheet has no sheets")
	}
	iter, err := f.Rows(sheets[0])
	if err != nil {
		return nil, "", fmt.Errorf("open sheet %s: %w", sheets[0], err)
	}
	return iter, sheets[0], nil
}

// resolveColumns consumes the header row and maps each expected header to its
// zero-based column index. Any missing header aborts the whole run.
func resolveColumns(iter *excelize.Rows, hint string, expected ...string) (map[string]int, error) {
	if !iter.Next() {
		return nil, apperror.NewValidation("spreadsheet has no header row")
	}
	header, err := iter.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	byName := make(map[string]int, len(header))
	for i, cell := range header {
		byName[normalizeHeader(cell)] = i
	}

	cols := make(map[string]int, len(expected))
	for _, name := range expected {
		idx, ok := byName[normalizeHeader(name)]
		if !ok {
			return nil, apperror.NewValidation(
				fmt.Sprintf("required header %q not found; make sure the file is %s", name, hint)).
				WithDetail("header", name)
		}
		cols[name] = idx
	}
	return cols, nil
}

// normalizeHeader lowercases and strips all whitespace for matching.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cellString returns the trimmed text of a cell, or "" when out of range.
func cellString(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// cellCode returns an identity cell (item code) as a plain string. Numeric
// cells that excelize renders in scientific or fractional form are folded
// back to their integer representation, matching how barcodes are stored.
func cellCode(cells []string, idx int) string {
	s := cellString(cells, idx)
	if s == "" {
		return s
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return s
}

// cellPrice parses a price cell. Blank or unparsable values yield a neutral
// zero price rather than an error.
func cellPrice(cells []string, idx int) decimal.NullDecimal {
	s := strings.ReplaceAll(cellString(cells, idx), ",", ".")
	if s == "" {
		return decimal.NullDecimal{Valid: true}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{Valid: true}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// cellQuantity parses a quantity cell; unparsable values yield zero, which
// the caller drops as invalid.
func cellQuantity(cells []string, idx int) int {
	s := strings.ReplaceAll(cellString(cells, idx), ",", ".")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// sanitizeRaw strips control characters that break JSON payload readability.
func sanitizeRaw(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', '\t':
			return -1
		}
		return r
	}, s)
}
