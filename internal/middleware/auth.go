// Package middleware provides Gin HTTP middleware for authentication, authorization,
// rate limiting, security headers, and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → RBAC → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the user identity, role, and scopes; RBAC reads from that context.
// Audit logging runs after RBAC so only successfully authorized mutations are
// recorded as successful actions.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/config"
	"github.com/member-portal/member-portal/internal/db/repositories"
)

// AuthMiddleware validates the bearer JWT, loads the user and their role, and
// populates the request context with the identity and its derived scopes.
func AuthMiddleware(cfg *config.Config, userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}

		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Account is deactivated",
			})
			return
		}

		role := auth.DefaultRole
		userRole, err := userRepo.GetUserRole(c.Request.Context(), user.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user role",
			})
			return
		}
		if userRole != nil {
			role = auth.Role(userRole.Role)
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("role", string(role))
		c.Set("scopes", auth.ScopesForRole(role))
		c.Set("auth_method", "jwt")

		c.Next()
	}
}

// OptionalAuthMiddleware - same as AuthMiddleware but doesn't abort if no auth.
// Used on public content routes so members get their identity attached while
// anonymous visitors still get the published view.
func OptionalAuthMiddleware(cfg *config.Config, userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		if token == "" {
			c.Next()
			return
		}

		if claims, err := auth.ValidateJWT(token); err == nil {
			user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
			if err == nil && user != nil && user.IsActive {
				role := auth.DefaultRole
				if userRole, err := userRepo.GetUserRole(c.Request.Context(), user.ID); err == nil && userRole != nil {
					role = auth.Role(userRole.Role)
				}
				c.Set("user", user)
				c.Set("user_id", user.ID)
				c.Set("role", string(role))
				c.Set("scopes", auth.ScopesForRole(role))
				c.Set("auth_method", "jwt")
			}
		}

		c.Next()
	}
}
