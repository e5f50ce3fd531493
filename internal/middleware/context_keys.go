package middleware

import (
	"context"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// identityKey is the key used to store the caller's Identity in the request context.
const identityKey = contextKey("identity")

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx retrieves the Identity established by AuthMiddleware.
func IdentityFromCtx(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromCtx(c.Request.Context())
	if !ok || id.UserID == "" {
		return "", false
	}
	return id.UserID, true
}
