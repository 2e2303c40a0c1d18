package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"pricedesk/internal/core/appctx"
)

type fakeChecker struct {
	active bool
	err    error
}

func (c *fakeChecker) IsActive(_ context.Context, _ string) (bool, error) {
	return c.active, c.err
}

func setupSubscriptionRouter(checker *fakeChecker, caller *appctx.CallerContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(func(c *gin.Context) {
		if caller != nil {
			c.Request = c.Request.WithContext(appctx.WithCaller(c.Request.Context(), caller))
		}
		c.Next()
	})
	router.Use(RequireSubscription(checker))
	router.GET("/data", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequireSubscription_ActivePasses(t *testing.T) {
	router := setupSubscriptionRouter(&fakeChecker{active: true}, &appctx.CallerContext{Account: "user@example.com"})
	w := doRequest(router)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSubscription_InactiveReturns402(t *testing.T) {
	router := setupSubscriptionRouter(&fakeChecker{active: false}, &appctx.CallerContext{Account: "user@example.com"})
	w := doRequest(router)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "SUBSCRIPTION_EXPIRED")
}

func TestRequireSubscription_AdminBypasses(t *testing.T) {
	checker := &fakeChecker{active: false}
	router := setupSubscriptionRouter(checker, &appctx.CallerContext{
		Account: "admin@example.com",
		Roles:   []string{RoleAdmin},
	})
	w := doRequest(router)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSubscription_MissingCallerReturns401(t *testing.T) {
	router := setupSubscriptionRouter(&fakeChecker{active: true}, nil)
	w := doRequest(router)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSubscription_CheckFailureReturns500(t *testing.T) {
	router := setupSubscriptionRouter(&fakeChecker{err: assert.AnError}, &appctx.CallerContext{Account: "user@example.com"})
	w := doRequest(router)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
