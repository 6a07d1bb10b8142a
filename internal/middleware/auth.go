package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/utils"
)

const principalKey = "principal"

// Authenticate parses a bearer token when one is sent and stores the caller's
// Principal in the context. Requests without a token pass through anonymously;
// RequireRole decides whether that is allowed.
func Authenticate(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		c.Set(principalKey, claims.Principal())
		c.Next()
	}
}

// RequireRole creates a middleware for role-based authorization.
// It should be used *after* Authenticate. Anonymous callers are let through
// only while authentication is optional.
func RequireRole(cfg *config.Config, allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			if cfg.AuthRequired {
				utils.Unauthorized(c, "Authorization header required")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		for _, allowedRole := range allowedRoles {
			if principal.Role == allowedRole {
				c.Next()
				return
			}
		}

		utils.Forbidden(c, "You do not have permission to access this resource.")
		c.Abort()
	}
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(c *gin.Context) (utils.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return utils.Principal{}, false
	}
	p, ok := v.(utils.Principal)
	return p, ok
}
