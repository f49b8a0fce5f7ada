package middleware

import (
	"net/http"
	"strings"

	"afriotv/internal/docstore"
	"afriotv/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// BearerToken extracts the token from the Authorization header, falling
// back to the token query parameter used by websocket clients.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.Query("token"); t != "" {
			return t, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2) // 0 is Bearer, 1 is token
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", true
	}
	return parts[1], true
}

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It rejects requests without a valid access token.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return authenticate(authService, true)
}

// OptionalAuth identifies the caller when a token is sent and lets
// anonymous requests through. A malformed or invalid token is still
// rejected.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return authenticate(authService, false)
}

func authenticate(authService service.AuthService, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, present := BearerToken(c)
		if !present {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
				return
			}
			c.Next()
			return
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			msg := "invalid token"
			if err == service.ErrExpiredToken {
				msg = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		// Set user info in context for handlers to use
		c.Set("claims", claims)
		c.Set("userID", claims.UserID())
		c.Set("email", claims.Email)
		c.Set("admin", claims.Admin)

		c.Next()
	}
}

// Caller returns the identity the access rules are evaluated for. It is
// anonymous when no token was presented.
func Caller(c *gin.Context) docstore.Caller {
	return docstore.Caller{UID: c.GetString("userID"), Admin: c.GetBool("admin")}
}

// RequireAdmin rejects callers whose token does not carry the admin claim.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
