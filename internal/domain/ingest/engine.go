package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pricedesk/internal/domain/offer"
	"pricedesk/internal/domain/supplier"
	"pricedesk/pkg/logger"
)

// DefaultBatchSize is the flush threshold for staged writes.
const DefaultBatchSize = 5000

// Summary is the outcome of one ingestion run.
type Summary struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	NewRecords       int    `json:"newRecords"`
	UpdatedRecords   int    `json:"updatedRecords"`
	UnchangedRecords int    `json:"unchangedRecords"`
	DuplicateRecords int    `json:"duplicateRecords"`
	FailedRecords    int    `json:"failedRecords"`
	ProcessedRecords int    `json:"processedRecords"`
	ElapsedMs        int64  `json:"elapsedMs"`
}

func (s *Summary) buildMessage() {
	s.ProcessedRecords = s.NewRecords + s.UpdatedRecords
	s.Message = fmt.Sprintf(
		"Added: %d, updated: %d, unchanged: %d, duplicates skipped: %d, failed: %d. Took %d ms",
		s.NewRecords, s.UpdatedRecords, s.UnchangedRecords, s.DuplicateRecords, s.FailedRecords, s.ElapsedMs,
	)
}

// Config holds ingestion engine settings.
type Config struct {
	// BatchSize is the number of staged offers flushed per transaction.
	BatchSize int
}

// Engine merges parsed supplier rows into the offer catalog.
//
// Each run is single-threaded end-to-end: row order matters for the
// first-occurrence-wins duplicate rule. Distinct runs may execute
// concurrently; all per-run state (cache, duplicate set, staging buffers)
// is private to the run.
type Engine struct {
	suppliers *supplier.Service
	offers    offer.Repository
	cfg       Config
}

// NewEngine creates an ingestion engine.
func NewEngine(suppliers *supplier.Service, offers offer.Repository, cfg Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Engine{suppliers: suppliers, offers: offers, cfg: cfg}
}

// Run processes one upload. Per-row failures are counted and never abort the
// run; a persistence failure mid-batch propagates as a run-level error while
// previously flushed batches stay committed.
func (e *Engine) Run(ctx context.Context, rows []Row) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	// Distinct suppliers observed across the whole file. A supplier is
	// created for every non-blank name, even when the row itself fails.
	names := make(map[string]struct{})
	for _, row := range rows {
		name := strings.TrimSpace(row.SupplierName)
		if name != "" {
			names[name] = struct{}{}
		}
	}

	if err := e.suppliers.EnsureExist(ctx, names); err != nil {
		return nil, err
	}

	nameList := make([]string, 0, len(names))
	for name := range names {
		nameList = append(nameList, name)
	}

	cache := NewCatalogCache()
	if err := cache.Load(ctx, e.offers, nameList); err != nil {
		return nil, err
	}
	logger.Info(ctx, "catalog cache preloaded",
		"suppliers", len(nameList),
		"offers", cache.Len(),
		"rows", len(rows),
	)

	seen := make(map[string]struct{}, len(rows))
	var inserts, updates []*offer.ProductOffer

	flush := func() error {
		if len(inserts) == 0 && len(updates) == 0 {
			return nil
		}
		if err := e.offers.SaveBatch(ctx, inserts, updates); err != nil {
			return fmt.Errorf("flush batch: %w", err)
		}
		// Reset staging buffers to bound memory on huge files.
		inserts = inserts[:0]
		updates = updates[:0]
		return nil
	}

	for _, row := range rows {
		if row.Err != nil {
			summary.FailedRecords++
			logger.Debug(ctx, "row failed", "row", row.Index+1, "error", row.Err)
			continue
		}

		supplierName := strings.TrimSpace(row.SupplierName)
		itemCode := strings.TrimSpace(row.ItemCode)
		if supplierName == "" || itemCode == "" {
			summary.FailedRecords++
			continue
		}

		var name *string
		if row.Name != nil {
			trimmed := strings.TrimSpace(*row.Name)
			name = &trimmed
		}

		// Within-file duplicate: first occurrence wins, later occurrences
		// are discarded even if their price differs.
		key := offer.Key(supplierName, itemCode)
		if _, dup := seen[key]; dup {
			summary.DuplicateRecords++
			continue
		}
		seen[key] = struct{}{}

		if existing := cache.Get(supplierName, itemCode); existing != nil {
			priceChanged := !offer.PriceEqual(existing.PriceWithTax, row.PriceWithTax)
			nameChanged := !offer.NameEqual(existing.Name, name)

			if !priceChanged && !nameChanged {
				summary.UnchangedRecords++
				continue
			}

			existing.Name = name
			existing.PriceWithTax = row.PriceWithTax
			updates = append(updates, existing)
			summary.UpdatedRecords++
		} else {
			inserts = append(inserts, offer.New(supplierName, itemCode, name, row.PriceWithTax))
			summary.NewRecords++
		}

		if len(inserts)+len(updates) >= e.cfg.BatchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	summary.Success = true
	summary.ElapsedMs = time.Since(start).Milliseconds()
	summary.buildMessage()

	logger.Info(ctx, "ingestion run completed",
		"new", summary.NewRecords,
		"updated", summary.UpdatedRecords,
		"unchanged", summary.UnchangedRecords,
		"duplicates", summary.DuplicateRecords,
		"failed", summary.FailedRecords,
		"elapsed_ms", summary.ElapsedMs,
	)

	return summary, nil
}
