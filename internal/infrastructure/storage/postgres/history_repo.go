package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pricedesk/internal/domain/history"
)

// Compile-time check that HistoryRepo implements history.Repository.
var _ history.Repository = (*HistoryRepo)(nil)

// HistoryRepo is the PostgreSQL implementation of history.Repository.
// The history table is append-only; no update or delete is ever issued.
type HistoryRepo struct {
	txManager *TxManager
}

// NewHistoryRepo creates a new history repository.
func NewHistoryRepo(txManager *TxManager) *HistoryRepo {
	return &HistoryRepo{txManager: txManager}
}

func (r *HistoryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert appends one history entry.
func (r *HistoryRepo) Insert(ctx context.Context, entry *history.Entry) error {
	sql, args, err := r.builder().
		Insert("history").
		Columns("id", "account", "kind", "detail", "payload", "payload_compressed", "compression_algo", "created_at").
		Values(entry.ID, entry.Account, entry.Kind, entry.Detail,
			entry.Payload, entry.PayloadCompressed, entry.CompressionAlgo, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListByAccount retrieves the most recent entries for an account.
func (r *HistoryRepo) ListByAccount(ctx context.Context, account string, limit int) ([]*history.Entry, error) {
	sql, args, err := r.builder().
		Select("id", "account", "kind", "detail", "payload", "payload_compressed", "compression_algo", "created_at").
		From("history").
		Where(squirrel.Eq{"account": account}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var entries []*history.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return entries, nil
}
