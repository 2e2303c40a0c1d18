package supplier

import (
	"context"
	"fmt"
	"sort"

	"pricedesk/pkg/logger"
)

// Service resolves the set of supplier names observed in an uploaded file
// against the catalog, creating missing suppliers in bulk.
type Service struct {
	repo Repository
}

// NewService creates a new supplier service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureExist guarantees a catalog entry for every given name using one bulk
// lookup and at most one bulk insert. Idempotent: a second run with the same
// name set performs no writes. Must complete before any row-level upsert that
// references suppliers by name.
func (s *Service) EnsureExist(ctx context.Context, names map[string]struct{}) error {
	if len(names) == 0 {
		return nil
	}

	all := make([]string, 0, len(names))
	for name := range names {
		all = append(all, name)
	}
	sort.Strings(all)

	existing, err := s.repo.FindNames(ctx, all)
	if err != nil {
		return fmt.Errorf("lookup suppliers: %w", err)
	}

	missing := make([]string, 0)
	for _, name := range all {
		if _, ok := existing[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	logger.Info(ctx, "creating suppliers", "count", len(missing))
	if err := s.repo.InsertBulk(ctx, missing); err != nil {
		return fmt.Errorf("create suppliers: %w", err)
	}

	return nil
}
