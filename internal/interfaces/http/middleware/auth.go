// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
)

// Context keys set by RequireAuth
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextRole      = "role"
)

// AccountChecker rejects tokens whose account was removed or blocked after issue
type AccountChecker interface {
	CheckActive(ctx context.Context, userID uint) error
}

// RequireAuth validates the bearer access token. accounts may be nil.
func RequireAuth(jwtManager *auth.JWTManager, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		if accounts != nil {
			if err := accounts.CheckActive(c.Request.Context(), claims.UserID); err != nil {
				abort(c, apperror.HTTPStatus(err), apperror.Message(err))
				return
			}
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RequireRoles must run after RequireAuth
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		role, exists := GetRoleFromContext(c)
		if !exists {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !allowed[role] {
			abort(c, http.StatusForbidden, "You are not allowed to access this route")
			return
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserEmail, claims.Email)
	c.Set(ContextRole, claims.Role)
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetRoleFromContext extracts the caller's role from gin context
func GetRoleFromContext(c *gin.Context) (string, bool) {
	role, exists := c.Get(ContextRole)
	if !exists {
		return "", false
	}
	s, ok := role.(string)
	return s, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
