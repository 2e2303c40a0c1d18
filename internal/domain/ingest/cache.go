package ingest

import (
	"context"
	"fmt"

	"pricedesk/internal/domain/offer"
)

// CatalogCache is a per-run in-memory index of existing offers keyed by
// (supplier name, item code). It is populated with one bulk query instead of
// per-row lookups, written by exactly one single-threaded run, and discarded
// when the run ends, so it carries no locking.
type CatalogCache struct {
	byKey map[string]*offer.ProductOffer
}

// NewCatalogCache creates an empty cache.
func NewCatalogCache() *CatalogCache {
	return &CatalogCache{byKey: make(map[string]*offer.ProductOffer)}
}

// Load populates the cache with every existing offer belonging to the given
// suppliers using a single bulk query.
func (c *CatalogCache) Load(ctx context.Context, repo offer.Repository, supplierNames []string) error {
	if len(supplierNames) == 0 {
		return nil
	}

	offers, err := repo.FindBySupplierNames(ctx, supplierNames)
	if err != nil {
		return fmt.Errorf("preload catalog cache: %w", err)
	}

	for _, o := range offers {
		c.byKey[o.Key()] = o
	}
	return nil
}

// Get returns the cached offer for (supplier name, item code), or nil.
func (c *CatalogCache) Get(supplierName, itemCode string) *offer.ProductOffer {
	return c.byKey[offer.Key(supplierName, itemCode)]
}

// Len returns the number of cached offers.
func (c *CatalogCache) Len() int {
	return len(c.byKey)
}
