package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/settlement_engine/internal/utils"
	"github.com/gin-gonic/gin"
)

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// PosthogMiddleware reports successful mutating API calls to PostHog.
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if posthogClient == nil || !posthogClient.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		if c.Request.Method == http.MethodGet || len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}

		// "/api/v1/entities/:entity_id/payments/:payment_id/allocations" -> "payments_allocations"
		eventName := EventNameForRoute(c.FullPath())
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"status_code": c.Writer.Status(),
		}
		if entityID := c.Param("entity_id"); entityID != "" {
			props["entity_id"] = entityID
		}
		posthogClient.Enqueue(userID, eventName, props)
	}
}

// EventNameForRoute drops the API prefix and path parameters from a route template.
func EventNameForRoute(route string) string {
	var parts []string
	for _, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		switch {
		case seg == "", seg == "api", seg == "v1", seg == "entities", strings.HasPrefix(seg, ":"):
			continue
		}
		parts = append(parts, strings.ReplaceAll(seg, "-", "_"))
	}
	return strings.Join(parts, "_")
}
