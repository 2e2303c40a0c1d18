package dto

import (
	"pricedesk/internal/domain/pricing"
	"pricedesk/internal/infrastructure/spreadsheet"
)

// ExportResolutionsRequest carries previously computed resolution results
// back for spreadsheet export.
type ExportResolutionsRequest struct {
	Results []pricing.Resolution `json:"results" binding:"required"`
}

// ExportHistoryRequest carries rows from a stored history entry for
// re-export as a spreadsheet.
type ExportHistoryRequest struct {
	Rows []spreadsheet.HistoryRow `json:"rows" binding:"required"`
}

// ExportInvoiceRequest carries invoice lines for spreadsheet export.
type ExportInvoiceRequest struct {
	Items []spreadsheet.InvoiceItem `json:"items" binding:"required"`
}

// HistoryListQuery bounds history listing.
type HistoryListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}
