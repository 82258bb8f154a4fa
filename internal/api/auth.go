package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"accounts_service/internal/accounts" // User manager
	"accounts_service/internal/metrics"  // Auth counters
	"accounts_service/internal/oauth"    // Google userinfo client
	"accounts_service/internal/utils"    // JWT and blacklist helpers

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/go-playground/validator/v10" // Email format validation
	"github.com/redis/go-redis/v9"           // Redis client
	"github.com/sirupsen/logrus"             // Logrus for structured logging
	"gorm.io/gorm"                           // GORM ORM library
)

var validate = validator.New()

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// LoginResponse carries the token pair and the logged in user
type LoginResponse struct {
	Refresh string       `json:"refresh"` // Refresh token
	Access  string       `json:"access"`  // Access token
	User    UserResponse `json:"user"`    // Authenticated user
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	PhoneNo              string `json:"phone_no" binding:"required,max=25"`                     // Phone number must be provided
	Email                string `json:"email" binding:"required,email,max=128"`                 // Email must be valid
	Name                 string `json:"name" binding:"required,max=255"`                        // Full name must be provided
	Password             string `json:"password" binding:"required,min=4,max=128"`              // Password must be provided
	PasswordConfirmation string `json:"password_confirmation" binding:"required,min=4,max=128"` // Confirmation must be provided
}

// LogoutRequest is the body of POST /logout
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"` // Refresh token to blacklist
}

// RefreshRequest is the body of POST /auth-refresh
type RefreshRequest struct {
	Refresh string `json:"refresh"` // Refresh token to exchange
}

// GoogleSignInRequest is the body of POST /google-sign-in
type GoogleSignInRequest struct {
	Token string `json:"token"` // Google OAuth access token
}

// LoginHandler authenticates a user and returns a JWT token pair
func LoginHandler(db *gorm.DB, rdb *redis.Client, jwtCfg utils.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required."})
			return
		}
		ctx := c.Request.Context() // Request scoped context
		user, err := accounts.Authenticate(ctx, db, req.Email, req.Password)
		if err != nil {
			metrics.RecordAuth("login", false)
			respondError(c, err, "log in")
			return
		}
		// Generate the token pair
		pair, err := utils.GenerateTokenPair(user.ID, jwtCfg)
		if err != nil {
			respondError(c, err, "generate token")
			return
		}
		// Update the user's last login timestamp
		if err := accounts.RecordLogin(ctx, db, user); err != nil {
			respondError(c, err, "log in")
			return
		}
		invalidateUserList(c, rdb) // last_login is part of the listing
		metrics.RecordAuth("login", true)
		// Return the tokens with the user in the response
		c.JSON(http.StatusOK, LoginResponse{Refresh: pair.Refresh, Access: pair.Access, User: NewUserResponse(user)})
	}
}

// LogoutHandler blacklists the caller's refresh token
func LogoutHandler(rdb *redis.Client, jwtCfg utils.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LogoutRequest // Bind JSON request to struct
		// Missing body and missing token are the same error
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required."})
			return
		}
		claims, err := utils.ParseJWT(req.RefreshToken, jwtCfg.Secret, utils.RefreshToken)
		if err != nil {
			// Expired, forged or non refresh tokens cannot be logged out
			c.JSON(http.StatusBadRequest, gin.H{"error": msgTokenInvalid})
			return
		}
		// Blacklist the refresh token, making it invalid
		if err := utils.BlacklistToken(c.Request.Context(), rdb, claims); err != nil {
			metrics.RecordAuth("logout", false)
			respondError(c, err, "log out")
			return
		}
		metrics.RecordAuth("logout", true)
		logrus.WithField("user_id", claims.UserID).Info("refresh token blacklisted")
		c.JSON(http.StatusOK, gin.H{"success": "User was successfully logged out."})
	}
}

// RefreshHandler exchanges a refresh token for a new access token
func RefreshHandler(db *gorm.DB, rdb *redis.Client, jwtCfg utils.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token is required."})
			return
		}
		ctx := c.Request.Context() // Request scoped context
		claims, err := utils.ParseJWT(req.Refresh, jwtCfg.Secret, utils.RefreshToken)
		if err != nil {
			metrics.RecordAuth("refresh", false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgTokenInvalid, "code": "token_not_valid"})
			return
		}
		// Logged out tokens stay invalid until they expire
		blacklisted, err := utils.IsBlacklisted(ctx, rdb, claims.ID)
		if err != nil {
			respondError(c, err, "refresh token")
			return
		}
		if blacklisted {
			metrics.RecordAuth("refresh", false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is blacklisted", "code": "token_not_valid"})
			return
		}
		// Deleted or deactivated users cannot refresh
		user, err := accounts.GetByID(ctx, db, claims.UserID)
		if errors.Is(err, accounts.ErrUserNotFound) || (err == nil && !user.IsActive) {
			metrics.RecordAuth("refresh", false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgInvalidCredentials, "code": "token_not_valid"})
			return
		}
		if err != nil {
			respondError(c, err, "refresh token")
			return
		}
		access, _, err := utils.GenerateJWT(user.ID, utils.AccessToken, jwtCfg)
		if err != nil {
			respondError(c, err, "generate token")
			return
		}
		metrics.RecordAuth("refresh", true)
		c.JSON(http.StatusOK, gin.H{"access": access})
	}
}

// RegisterHandler creates an active account and logs it in
func RegisterHandler(db *gorm.DB, rdb *redis.Client, jwtCfg utils.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
			return
		}
		user, err := accounts.Register(c.Request.Context(), db, accounts.RegisterParams{
			PhoneNo:              req.PhoneNo,              // Phone number
			Email:                req.Email,                // Email address
			Name:                 req.Name,                 // Full name
			Password:             req.Password,             // Raw password
			PasswordConfirmation: req.PasswordConfirmation, // Must match the password
		})
		if err != nil {
			metrics.RecordAuth("register", false)
			respondError(c, err, "register user")
			return
		}
		invalidateUserList(c, rdb)
		// Generate the token pair for the new user
		pair, err := utils.GenerateTokenPair(user.ID, jwtCfg)
		if err != nil {
			respondError(c, err, "generate token")
			return
		}
		metrics.RecordAuth("register", true)
		logrus.WithField("user_id", user.ID).Info("user registered")
		// Return success response
		c.JSON(http.StatusCreated, gin.H{
			"user": gin.H{
				"phone_no": req.PhoneNo, // Phone number
				"email":    user.Email,  // Normalized email
				"name":     user.Name,   // Full name
			},
			"access_token":  pair.Access,  // Access token
			"refresh_token": pair.Refresh, // Refresh token
		})
	}
}

// GoogleSignInHandler logs in, creating the account on first use, with a Google access token
func GoogleSignInHandler(db *gorm.DB, rdb *redis.Client, google *oauth.GoogleClient, jwtCfg utils.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GoogleSignInRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required."})
			return
		}
		ctx := c.Request.Context() // Request scoped context
		info, err := google.UserInfo(ctx, req.Token)
		if err != nil {
			metrics.RecordAuth("google", false)
			var perr *oauth.ProviderError
			if errors.As(err, &perr) {
				// Relay Google's own explanation
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Google API request failed: " + perr.Body})
				return
			}
			logrus.WithError(err).Error("google userinfo request failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Google API request failed"})
			return
		}
		if info.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email not provided by Google"})
			return
		}
		// Validate email address format
		if err := validate.Var(info.Email, "email"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
			return
		}
		user, created, err := accounts.GetOrCreateByEmail(ctx, db, info.Email, info.Name)
		if err != nil {
			respondError(c, err, "sign in with google")
			return
		}
		if created {
			invalidateUserList(c, rdb)
			logrus.WithField("user_id", user.ID).Info("user created from google sign-in")
		}
		pair, err := utils.GenerateTokenPair(user.ID, jwtCfg)
		if err != nil {
			respondError(c, err, "generate token")
			return
		}
		metrics.RecordAuth("google", true)
		c.JSON(http.StatusOK, gin.H{"refresh": pair.Refresh, "access": pair.Access})
	}
}

// bindingMessage turns the first binding failure into a client facing message
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + ": This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fe.Field() + ": Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return fe.Field() + ": Ensure this field has no more than " + fe.Param() + " characters."
	default:
		return fe.Field() + ": Invalid value."
	}
}
