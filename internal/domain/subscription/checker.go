// Package subscription exposes the collaborator interface gating data
// operations. Subscription lifecycle and billing live outside this service;
// the core only asks whether an account is currently active.
package subscription

import "context"

// Checker reports whether an account's subscription is active.
type Checker interface {
	IsActive(ctx context.Context, account string) (bool, error)
}
