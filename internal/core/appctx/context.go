// Package appctx provides request-scoped values: caller identity and tracing.
package appctx

import (
	"context"

	"github.com/google/uuid"
)

// CallerContext identifies the authenticated caller of a request.
// It is used to label history entries and log lines only; authorization
// decisions are made by middleware before the domain layer runs.
type CallerContext struct {
	Account string // unique account identifier (email)
	Phone   string
	Roles   []string
}

type callerContextKey struct{}

// WithCaller adds CallerContext to context.
func WithCaller(ctx context.Context, caller *CallerContext) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// GetCaller returns CallerContext from context, or nil.
func GetCaller(ctx context.Context) *CallerContext {
	if v, ok := ctx.Value(callerContextKey{}).(*CallerContext); ok {
		return v
	}
	return nil
}

// GetAccount returns the caller account from context or empty string.
func GetAccount(ctx context.Context) string {
	if c := GetCaller(ctx); c != nil {
		return c.Account
	}
	return ""
}

// HasRole checks if the caller has a specific role.
func HasRole(ctx context.Context, role string) bool {
	c := GetCaller(ctx)
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TraceContext contains request tracing information.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext creates a new TraceContext with generated IDs.
func NewTraceContext() *TraceContext {
	return &TraceContext{
		TraceID:   uuid.New().String(),
		RequestID: uuid.New().String(),
	}
}
