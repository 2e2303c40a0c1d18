package supplier

import "context"

// Repository defines the interface for Supplier persistence.
type Repository interface {
	// FindNames returns the subset of the given names that already exist.
	FindNames(ctx context.Context, names []string) (map[string]struct{}, error)

	// InsertBulk creates the given suppliers in one statement. Names that
	// already exist are skipped (insert-on-conflict-do-nothing).
	InsertBulk(ctx context.Context, names []string) error
}
