package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"accounts_service/internal/accounts" // Account errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Messages shared by several handlers
const (
	msgInvalidCredentials = "No active account found with the given credentials"
	msgTokenInvalid       = "Token is invalid or expired"
	msgNotFound           = "Not found."
)

// respondError maps an accounts error to its HTTP status; anything unknown is logged and hidden
func respondError(c *gin.Context, err error, action string) {
	var pwErr *accounts.PasswordError
	switch {
	case errors.As(err, &pwErr):
		// Every failed password rule is reported
		c.JSON(http.StatusBadRequest, gin.H{"error": pwErr.Messages[0], "password": pwErr.Messages})
	case accounts.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, accounts.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	case errors.Is(err, accounts.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials})
	default:
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"action": action,       // What the handler was doing
			"path":   c.FullPath(), // Matched route
			"error":  err.Error(),  // Error message
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}
