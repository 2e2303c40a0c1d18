package middleware

import (
	"github.com/gin-gonic/gin"

	"pricedesk/internal/core/appctx"
	"pricedesk/internal/core/apperror"
	"pricedesk/internal/domain/subscription"
)

// RoleAdmin bypasses the subscription check.
const RoleAdmin = "admin"

// RequireSubscription gates data endpoints behind an active subscription.
//
// Must run AFTER Auth middleware, which populates the caller context.
// Accounts with the admin role are never gated. A failed status lookup
// aborts with 500 rather than letting the request through.
func RequireSubscription(checker subscription.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		caller := appctx.GetCaller(ctx)
		if caller == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if appctx.HasRole(ctx, RoleAdmin) {
			c.Next()
			return
		}

		active, err := checker.IsActive(ctx, caller.Account)
		if err != nil {
			_ = c.Error(apperror.NewInternal(err))
			c.Abort()
			return
		}
		if !active {
			_ = c.Error(apperror.NewSubscriptionExpired(caller.Account))
			c.Abort()
			return
		}

		c.Next()
	}
}
