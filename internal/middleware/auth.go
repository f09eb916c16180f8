package middleware

import (
	"strings"

	"github.com/edgemarket/internal/service"
	"github.com/edgemarket/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for the user's email in gin context
	ContextKeyEmail = "email"
	// ContextKeyIsAdmin is the key for the admin claim in gin context
	ContextKeyIsAdmin = "is_admin"
)

// AuthMiddleware creates a JWT authentication middleware. The token is read
// from the Authorization header, or from the "token" query parameter for
// websocket upgrades where browsers cannot set headers.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}

		// Validate token
		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyIsAdmin, resolveAdmin(c, authService, claims))

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			return token, true
		}
		response.Unauthorized(c, "missing authorization header")
		c.Abort()
		return "", false
	}

	// Check Bearer prefix
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		response.Unauthorized(c, "invalid authorization header format")
		c.Abort()
		return "", false
	}
	return parts[1], true
}

// resolveAdmin checks an admin claim against the stored account so revoked
// rights take effect before the token expires.
func resolveAdmin(c *gin.Context, authService *service.AuthService, claims *service.JWTClaims) bool {
	if !claims.IsAdmin {
		return false
	}
	user, err := authService.GetUserByID(c.Request.Context(), claims.UserID)
	return err == nil && user.IsAdmin
}

// AdminOnly rejects users that are not admins. Must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the user ID from the gin context
func GetUserID(c *gin.Context) uint {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	return userID.(uint)
}

// IsAdmin reports whether the authenticated user currently holds admin rights
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextKeyIsAdmin)
}
