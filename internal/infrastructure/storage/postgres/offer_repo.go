package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pricedesk/internal/domain/offer"
)

// Compile-time check that OfferRepo implements offer.Repository.
var _ offer.Repository = (*OfferRepo)(nil)

var offerColumns = []string{"id", "supplier_name", "item_code", "name", "price_with_tax"}

// OfferRepo is the PostgreSQL implementation of offer.Repository.
type OfferRepo struct {
	txManager *TxManager
	inserter  *BatchInserter
	executor  *BatchExecutor
}

// NewOfferRepo creates a new offer repository.
func NewOfferRepo(txManager *TxManager) *OfferRepo {
	return &OfferRepo{
		txManager: txManager,
		inserter:  NewBatchInserter(txManager),
		executor:  NewBatchExecutor(txManager),
	}
}

func (r *OfferRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// FindBySupplierNames retrieves every offer belonging to the given suppliers.
func (r *OfferRepo) FindBySupplierNames(ctx context.Context, supplierNames []string) ([]*offer.ProductOffer, error) {
	if len(supplierNames) == 0 {
		return nil, nil
	}

	sql, args, err := r.builder().
		Select(offerColumns...).
		From("product_offers").
		Where(squirrel.Eq{"supplier_name": supplierNames}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var offers []*offer.ProductOffer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &offers, sql, args...); err != nil {
		return nil, fmt.Errorf("select offers by supplier: %w", err)
	}
	return offers, nil
}

// FindByItemCodes retrieves every offer for the given item codes, ordered by
// item code then ascending price (null prices last).
func (r *OfferRepo) FindByItemCodes(ctx context.Context, itemCodes []string) ([]*offer.ProductOffer, error) {
	if len(itemCodes) == 0 {
		return nil, nil
	}

	sql, args, err := r.builder().
		Select(offerColumns...).
		From("product_offers").
		Where(squirrel.Eq{"item_code": itemCodes}).
		OrderBy("item_code", "price_with_tax ASC NULLS LAST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var offers []*offer.ProductOffer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &offers, sql, args...); err != nil {
		return nil, fmt.Errorf("select offers by item code: %w", err)
	}
	return offers, nil
}

// SaveBatch persists one flush of staged offers in a single transaction.
// Inserts go through the COPY protocol, updates through one pgx batch.
func (r *OfferRepo) SaveBatch(ctx context.Context, inserts, updates []*offer.ProductOffer) error {
	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if len(inserts) > 0 {
			rows := make([][]any, 0, len(inserts))
			for _, o := range inserts {
				rows = append(rows, []any{o.ID, o.SupplierName, o.ItemCode, o.Name, o.PriceWithTax})
			}
			if _, err := r.inserter.CopyFromSlice(ctx, "product_offers", offerColumns, rows); err != nil {
				return fmt.Errorf("copy offers: %w", err)
			}
		}

		if len(updates) > 0 {
			queries := make([]BatchQuery, 0, len(updates))
			for _, o := range updates {
				queries = append(queries, BatchQuery{
					SQL:  "UPDATE product_offers SET name = $1, price_with_tax = $2 WHERE id = $3",
					Args: []any{o.Name, o.PriceWithTax, o.ID},
				})
			}
			if err := r.executor.ExecuteBatch(ctx, queries); err != nil {
				return fmt.Errorf("update offers: %w", err)
			}
		}

		return nil
	})
}

// ListPage retrieves one page of the catalog ordered by (supplier, item code).
func (r *OfferRepo) ListPage(ctx context.Context, limit, offset int) ([]*offer.ProductOffer, error) {
	sql, args, err := r.builder().
		Select(offerColumns...).
		From("product_offers").
		OrderBy("supplier_name", "item_code").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var offers []*offer.ProductOffer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &offers, sql, args...); err != nil {
		return nil, fmt.Errorf("select offers page: %w", err)
	}
	return offers, nil
}

// Count returns the total number of offers.
func (r *OfferRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, "SELECT count(*) FROM product_offers").Scan(&count); err != nil {
		return 0, fmt.Errorf("count offers: %w", err)
	}
	return count, nil
}
