package middleware

import (
	"net/http" // HTTP status codes
	"net/url"  // Query escaping for the next parameter

	"accounts_service/internal/domain" // Importing domain models
	"accounts_service/internal/utils"  // JWT and blacklist helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// SessionCookieName is the cookie carrying the signed session token of the web pages
const SessionCookieName = "sessionid"

// LoginURL is where anonymous visitors of protected pages are sent
const LoginURL = "/"

// SessionUser resolves the session cookie to an active user, nil when there is none
func SessionUser(c *gin.Context, db *gorm.DB, rdb *redis.Client, secret string) *domain.User {
	raw, err := c.Cookie(SessionCookieName)
	if err != nil || raw == "" {
		return nil
	}
	claims, err := utils.ParseJWT(raw, secret, utils.SessionToken)
	if err != nil {
		return nil
	}
	ctx := c.Request.Context()
	// Sessions are revoked on logout
	revoked, err := utils.IsBlacklisted(ctx, rdb, claims.ID)
	if err != nil {
		logrus.WithError(err).Warn("session blacklist lookup failed")
		return nil
	}
	if revoked {
		return nil
	}
	var user domain.User
	if err := db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		return nil
	}
	if !user.IsActive {
		return nil
	}
	return &user
}

// SessionAuthMiddleware redirects anonymous visitors to the login page
func SessionAuthMiddleware(db *gorm.DB, rdb *redis.Client, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := SessionUser(c, db, rdb, secret)
		if user == nil {
			c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Set(ContextUserID, user.ID)
		c.Set(ContextCurrentUser, user)
		c.Next()
	}
}
