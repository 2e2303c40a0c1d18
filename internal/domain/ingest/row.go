// Package ingest drives the bulk merge of supplier spreadsheet rows into the
// offer catalog: per-row new/updated/unchanged/duplicate/failed decisions,
// batched writes, and a run summary.
package ingest

import "github.com/shopspring/decimal"

// Row is one parsed data row of a supplier upload.
type Row struct {
	// Index is the zero-based spreadsheet row index (header is row 0).
	Index int

	SupplierName string
	ItemCode     string
	Name         *string
	PriceWithTax decimal.NullDecimal

	// Err marks a row that failed extraction (missing identity field or
	// unreadable cells). Such rows are counted as failed without aborting
	// the run.
	Err error
}
