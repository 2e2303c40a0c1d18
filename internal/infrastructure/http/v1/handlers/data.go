package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pricedesk/internal/core/apperror"
	"pricedesk/internal/domain/history"
	"pricedesk/internal/domain/ingest"
	"pricedesk/internal/domain/offer"
	"pricedesk/internal/domain/pricing"
	"pricedesk/internal/infrastructure/http/v1/dto"
	"pricedesk/internal/infrastructure/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DataHandler serves spreadsheet ingestion, price resolution and exports.
type DataHandler struct {
	*BaseHandler
	engine         *ingest.Engine
	resolver       *pricing.Resolver
	offers         offer.Repository
	history        *history.Service
	maxUploadBytes int64
	exportPageSize int
}

// NewDataHandler creates a new data handler.
func NewDataHandler(
	engine *ingest.Engine,
	resolver *pricing.Resolver,
	offers offer.Repository,
	historyService *history.Service,
	maxUploadBytes int64,
	exportPageSize int,
) *DataHandler {
	return &DataHandler{
		BaseHandler:    NewBaseHandler(),
		engine:         engine,
		resolver:       resolver,
		offers:         offers,
		history:        historyService,
		maxUploadBytes: maxUploadBytes,
		exportPageSize: exportPageSize,
	}
}

// SupplierUpload ingests a supplier price list spreadsheet.
// POST /api/v1/data/supplier-upload
func (h *DataHandler) SupplierUpload(c *gin.Context) {
	file, header, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	rows, err := spreadsheet.ParseSupplierRows(file)
	if err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.engine.Run(c.Request.Context(), rows)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.history.Record(c.Request.Context(), history.KindSupplierUpload, header.Filename, summary)

	h.OK(c, summary)
}

// PriceResolution resolves cheapest offers for an uploaded request file.
// POST /api/v1/data/price-resolution
func (h *DataHandler) PriceResolution(c *gin.Context) {
	file, header, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	queries, rawRows, err := spreadsheet.ParseResolutionRows(file)
	if err != nil {
		h.Error(c, err)
		return
	}

	results, err := h.resolver.Resolve(c.Request.Context(), queries)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.history.Record(c.Request.Context(), history.KindPriceResolution, header.Filename, map[string]any{
		"rows":    rawRows,
		"results": results,
	})

	h.OK(c, gin.H{"results": results})
}

// CatalogExport streams the full offer catalog as a spreadsheet.
// GET /api/v1/data/catalog-export
func (h *DataHandler) CatalogExport(c *gin.Context) {
	exporter, err := spreadsheet.NewCatalogExporter()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer exporter.Close()

	ctx := c.Request.Context()
	for page := 0; ; page++ {
		offers, err := h.offers.ListPage(ctx, h.exportPageSize, page*h.exportPageSize)
		if err != nil {
			h.Error(c, err)
			return
		}
		if len(offers) == 0 {
			break
		}
		if err := exporter.Append(offers); err != nil {
			h.Error(c, apperror.NewInternal(err))
			return
		}
		if len(offers) < h.exportPageSize {
			break
		}
	}

	h.sendWorkbook(c, "catalog", func(c *gin.Context) error {
		return exporter.WriteTo(c.Writer)
	})
}

// ResolutionExport renders previously computed resolution results to a spreadsheet.
// POST /api/v1/data/resolution-export
func (h *DataHandler) ResolutionExport(c *gin.Context) {
	var req dto.ExportResolutionsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	f, err := spreadsheet.WriteResolutions(req.Results)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer f.Close()

	h.sendWorkbook(c, "resolution", func(c *gin.Context) error {
		return f.Write(c.Writer)
	})
}

// DetailedResolutionExport renders the full price comparison behind previously
// computed results: every competing priced offer per item, cheapest first,
// with the markup over the best price.
// POST /api/v1/data/detailed-resolution-export
func (h *DataHandler) DetailedResolutionExport(c *gin.Context) {
	var req dto.ExportResolutionsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if len(req.Results) == 0 {
		h.Error(c, apperror.NewValidation("results must not be empty"))
		return
	}

	codeSet := make(map[string]struct{})
	for _, res := range req.Results {
		if !res.RequiresManualProcessing {
			codeSet[res.ItemCode] = struct{}{}
		}
	}
	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}

	offers, err := h.offers.FindByItemCodes(c.Request.Context(), codes)
	if err != nil {
		h.Error(c, err)
		return
	}
	byCode := make(map[string][]*offer.ProductOffer)
	for _, o := range offers {
		byCode[o.ItemCode] = append(byCode[o.ItemCode], o)
	}

	f, err := spreadsheet.WriteDetailedResolutions(req.Results, byCode)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer f.Close()

	h.sendWorkbook(c, "detailed-analysis", func(c *gin.Context) error {
		return f.Write(c.Writer)
	})
}

// HistoryExport re-exports (item code, quantity) rows from a stored history
// entry as a spreadsheet.
// POST /api/v1/data/history-export
func (h *DataHandler) HistoryExport(c *gin.Context) {
	var req dto.ExportHistoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	f, err := spreadsheet.WriteHistoryRows(req.Rows)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer f.Close()

	h.sendWorkbook(c, "history", func(c *gin.Context) error {
		return f.Write(c.Writer)
	})
}

// InvoiceExport renders invoice lines to a spreadsheet with a grand total.
// POST /api/v1/data/invoice-export
func (h *DataHandler) InvoiceExport(c *gin.Context) {
	var req dto.ExportInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	f, err := spreadsheet.WriteInvoice(req.Items)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer f.Close()

	h.sendWorkbook(c, "invoice", func(c *gin.Context) error {
		return f.Write(c.Writer)
	})
}

// openUpload extracts the "file" multipart part and enforces the extension
// and size caps.
func (h *DataHandler) openUpload(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("file is required").WithCause(err))
		return nil, nil, false
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		h.Error(c, apperror.NewValidation("file must be an Excel spreadsheet (.xlsx or .xls)").
			WithDetail("filename", header.Filename))
		return nil, nil, false
	}
	if header.Size == 0 {
		h.Error(c, apperror.NewValidation("file is empty"))
		return nil, nil, false
	}
	if header.Size > h.maxUploadBytes {
		h.Error(c, apperror.NewValidation("file too large").
			WithDetail("max_bytes", h.maxUploadBytes).
			WithDetail("size", header.Size))
		return nil, nil, false
	}

	file, err := header.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return nil, nil, false
	}
	return file, header, true
}

// sendWorkbook writes an .xlsx attachment response. A write failure after
// headers are sent can only be logged; the response is already committed.
func (h *DataHandler) sendWorkbook(c *gin.Context, prefix string, write func(c *gin.Context) error) {
	filename := fmt.Sprintf("%s-%s.xlsx", prefix, time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := write(c); err != nil {
		h.Error(c, apperror.NewInternal(err))
	}
}
