package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pricedesk/internal/domain/subscription"
)

// Compile-time check that SubscriptionRepo implements subscription.Checker.
var _ subscription.Checker = (*SubscriptionRepo)(nil)

// SubscriptionRepo answers subscription-status checks against the
// subscriptions table maintained by the billing service.
type SubscriptionRepo struct {
	txManager *TxManager
}

// NewSubscriptionRepo creates a new subscription repository.
func NewSubscriptionRepo(txManager *TxManager) *SubscriptionRepo {
	return &SubscriptionRepo{txManager: txManager}
}

// IsActive reports whether the account holds an active, unexpired
// subscription. Accounts with no subscription row are inactive.
func (r *SubscriptionRepo) IsActive(ctx context.Context, account string) (bool, error) {
	const sql = `
		SELECT status = 'active' AND expires_at > now()
		FROM subscriptions
		WHERE account = $1
	`

	var active bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, account).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return active, nil
}
