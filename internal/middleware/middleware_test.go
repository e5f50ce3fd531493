package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/settlement_engine/internal/middleware"
	"github.com/SscSPs/settlement_engine/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "settlement-test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(testLogger()))
	g := r.Group("/api/v1/entities/:entity_id", middleware.AuthMiddleware(testSecret, testIssuer), middleware.RequireEntityAccess("entity_id"))
	g.GET("/ping", func(c *gin.Context) {
		userID, _ := middleware.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": userID})
	})
	return r
}

func token(t *testing.T, entities []string, ttl time.Duration, issuer string) string {
	t.Helper()
	tok, err := utils.GenerateIdentityToken("user_1", entities, testSecret, ttl, issuer)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	tests := []struct {
		name   string
		header string
		path   string
		want   int
	}{
		{name: "no header", path: "/api/v1/entities/ent_1/ping", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", path: "/api/v1/entities/ent_1/ping", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", path: "/api/v1/entities/ent_1/ping", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + token(t, []string{"ent_1"}, -time.Minute, testIssuer), path: "/api/v1/entities/ent_1/ping", want: http.StatusUnauthorized},
		{name: "wrong issuer", header: "Bearer " + token(t, []string{"ent_1"}, time.Hour, "other"), path: "/api/v1/entities/ent_1/ping", want: http.StatusUnauthorized},
		{name: "out of scope", header: "Bearer " + token(t, []string{"ent_2"}, time.Hour, testIssuer), path: "/api/v1/entities/ent_1/ping", want: http.StatusForbidden},
		{name: "in scope", header: "Bearer " + token(t, []string{"ent_1"}, time.Hour, testIssuer), path: "/api/v1/entities/ent_1/ping", want: http.StatusOK},
		{name: "wildcard", header: "Bearer " + token(t, []string{"*"}, time.Hour, testIssuer), path: "/api/v1/entities/ent_9/ping", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestStructuredLogging_KeepsIncomingRequestID(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/entities/ent_1/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	l, err := middleware.NewRateLimiter("2-M", nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RateLimit(l))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	_, err = middleware.NewRateLimiter("lots", nil)
	assert.Error(t, err)
}

func TestEventNameForRoute(t *testing.T) {
	assert.Equal(t, "payments_allocations", middleware.EventNameForRoute("/api/v1/entities/:entity_id/payments/:payment_id/allocations"))
	assert.Equal(t, "invoices_refresh_statuses", middleware.EventNameForRoute("/api/v1/entities/:entity_id/invoices/refresh-statuses"))
	assert.Equal(t, "", middleware.EventNameForRoute(""))
}
