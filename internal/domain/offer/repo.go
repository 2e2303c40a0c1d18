package offer

import "context"

// Repository defines the interface for ProductOffer persistence.
type Repository interface {
	// FindBySupplierNames retrieves every offer belonging to the given suppliers.
	// Used to preload the per-run catalog cache with one bulk query.
	FindBySupplierNames(ctx context.Context, supplierNames []string) ([]*ProductOffer, error)

	// FindByItemCodes retrieves every offer whose item code is in the given set,
	// ordered by item code then ascending price. The ordering is a server-side
	// hint; callers must still reduce to the minimum themselves.
	FindByItemCodes(ctx context.Context, itemCodes []string) ([]*ProductOffer, error)

	// SaveBatch persists one flush of staged offers in a single transaction:
	// inserts are bulk-copied, updates are batched. A batch either fully
	// commits or returns an error; earlier batches stay committed.
	SaveBatch(ctx context.Context, inserts, updates []*ProductOffer) error

	// ListPage retrieves one page of the catalog ordered by (supplier, item code).
	ListPage(ctx context.Context, limit, offset int) ([]*ProductOffer, error)

	// Count returns the total number of offers in the catalog.
	Count(ctx context.Context) (int64, error)
}
