package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"accounts_service/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys shared by the middlewares and handlers
const (
	ContextUserID      = "userID"      // uint, set by the token middlewares
	ContextCurrentUser = "currentUser" // *domain.User, set once the user is loaded
)

// TokenErrorCode is sent alongside token failures so clients can tell them from other 401s
const TokenErrorCode = "token_not_valid"

// JWTAuthMiddleware validates access tokens and extracts user information
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		// Only access tokens may authenticate API requests
		claims, err := utils.ParseJWT(tokenStr, secret, utils.AccessToken)
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Given token not valid for any token type", "code": TokenErrorCode})
			return
		}
		c.Set(ContextUserID, claims.UserID) // Store userID in context
		c.Next()                            // Proceed to the next handler
	}
}
