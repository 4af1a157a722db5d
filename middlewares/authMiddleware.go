package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"hostelgrievance-be/models"
	"hostelgrievance-be/services"
	"hostelgrievance-be/utils"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*utils.Claims, error)
}

// AuthMiddleware requires a valid bearer token and stores the caller in the
// request context.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			slog.Debug("token validation failed", "error", err, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		accountID, err := claims.AccountID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(callerKey, services.Caller{
			AccountID:  accountID,
			Role:       claims.Role,
			RegNo:      claims.RegNo,
			TechID:     claims.TechID,
			RoomNumber: claims.RoomNumber,
			Department: claims.Department,
		})
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in roles. It must run after
// AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}
		if len(roles) > 0 && !caller.Role.In(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}

// CallerFrom returns the authenticated caller set by AuthMiddleware.
func CallerFrom(c *gin.Context) (services.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return services.Caller{}, false
	}
	caller, ok := v.(services.Caller)
	return caller, ok
}
