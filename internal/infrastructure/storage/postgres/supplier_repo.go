package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pricedesk/internal/domain/supplier"
)

// Compile-time check that SupplierRepo implements supplier.Repository.
var _ supplier.Repository = (*SupplierRepo)(nil)

// SupplierRepo is the PostgreSQL implementation of supplier.Repository.
type SupplierRepo struct {
	txManager *TxManager
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *TxManager) *SupplierRepo {
	return &SupplierRepo{txManager: txManager}
}

func (r *SupplierRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// FindNames returns the subset of the given names that already exist.
func (r *SupplierRepo) FindNames(ctx context.Context, names []string) (map[string]struct{}, error) {
	if len(names) == 0 {
		return map[string]struct{}{}, nil
	}

	sql, args, err := r.builder().
		Select("name").
		From("suppliers").
		Where(squirrel.Eq{"name": names}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var found []string
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &found, sql, args...); err != nil {
		return nil, fmt.Errorf("select suppliers: %w", err)
	}

	existing := make(map[string]struct{}, len(found))
	for _, name := range found {
		existing[name] = struct{}{}
	}
	return existing, nil
}

// InsertBulk creates the given suppliers in one statement, skipping names
// that already exist.
func (r *SupplierRepo) InsertBulk(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	q := r.builder().
		Insert("suppliers").
		Columns("name", "created_at")

	now := time.Now().UTC()
	for _, name := range names {
		q = q.Values(name, now)
	}
	q = q.Suffix("ON CONFLICT (name) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert suppliers: %w", err)
	}
	return nil
}
