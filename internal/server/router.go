// Package server wires the HTTP routes, middlewares and collaborators together.
package server

import (
	"context"  // Health check timeouts
	"net/http" // HTTP status codes
	"time"     // Timeouts

	"accounts_service/internal/api"        // JSON API handlers
	"accounts_service/internal/config"     // Configuration
	"accounts_service/internal/mail"       // Mail delivery
	"accounts_service/internal/metrics"    // Prometheus handler
	"accounts_service/internal/middleware" // Middlewares
	"accounts_service/internal/oauth"      // Google client
	"accounts_service/internal/utils"      // Token configuration
	"accounts_service/internal/web"        // Server rendered pages

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the long lived collaborators the router needs
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Sender  mail.Sender         // Nil falls back to logging mails
	Google  *oauth.GoogleClient // Nil uses the configured userinfo URL
	Limiter *middleware.RateLimiter
}

// JWTConfig derives the token settings from the configuration
func JWTConfig(cfg *config.Config) utils.JWTConfig {
	return utils.JWTConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		SessionTTL: cfg.SessionTTL,
	}
}

// NewSender picks SMTP delivery when a host is configured and logging otherwise
func NewSender(cfg *config.Config) mail.Sender {
	if cfg.SMTPHost == "" {
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
}

// NewRouter builds the gin engine serving the API, the pages and the health endpoints
func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New() // Gin router instance
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(cfg.Proxies()); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	if d.Sender == nil {
		d.Sender = NewSender(cfg)
	}
	if d.Google == nil {
		d.Google = oauth.NewGoogleClient(cfg.GoogleUserInfoURL, &http.Client{Timeout: 10 * time.Second})
	}
	if d.Limiter == nil {
		d.Limiter = middleware.NewRateLimiter(cfg.LoginRate, cfg.LoginBurst)
	}

	jwtCfg := JWTConfig(cfg)
	mailer := &mail.Mailer{Sender: d.Sender, SiteURL: cfg.SiteURL(), ProjectName: cfg.ProjectName, ActivationTimeout: cfg.ActivationTimeout}
	activation := utils.NewActivationTokenGenerator(cfg.JWTSecret, cfg.ActivationTimeout)
	reset := utils.NewPasswordResetTokenGenerator(cfg.JWTSecret, cfg.PasswordResetTimeout)
	throttle := d.Limiter.Handler()

	// Health and metrics
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", healthHandler(d.DB, d.Redis))

	// Auth routes
	apiGroup := r.Group("/api")
	apiGroup.POST("/login", throttle, api.LoginHandler(d.DB, d.Redis, jwtCfg))                           // Login endpoint
	apiGroup.POST("/register", throttle, api.RegisterHandler(d.DB, d.Redis, jwtCfg))                     // Registration endpoint
	apiGroup.POST("/google-sign-in", throttle, api.GoogleSignInHandler(d.DB, d.Redis, d.Google, jwtCfg)) // Social login endpoint
	apiGroup.POST("/auth-refresh", api.RefreshHandler(d.DB, d.Redis, jwtCfg))                            // Token refresh endpoint
	apiGroup.POST("/logout", middleware.JWTAuthMiddleware(cfg.JWTSecret), api.LogoutHandler(d.Redis, jwtCfg))

	// User routes (protected, admin only)
	users := apiGroup.Group("/users")
	users.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(d.DB))
	users.GET("", api.ListUsersHandler(d.DB, d.Redis))
	users.POST("", api.CreateUserHandler(d.DB, d.Redis, mailer, activation))
	users.GET("/:id", api.GetUserHandler(d.DB))
	users.PUT("/:id", api.UpdateUserHandler(d.DB, d.Redis, false))
	users.PATCH("/:id", api.UpdateUserHandler(d.DB, d.Redis, true))
	users.DELETE("/:id", api.DeleteUserHandler(d.DB, d.Redis))
	users.GET("/:id/profile", api.GetProfileHandler(d.DB))
	users.PATCH("/:id/profile", api.UpdateProfileHandler(d.DB))

	// Account pages
	web.NewHandler(web.Deps{
		DB:           d.DB,
		Redis:        d.Redis,
		JWT:          jwtCfg,
		Mailer:       mailer,
		Reset:        reset,
		Activation:   activation,
		ProjectName:  cfg.ProjectName,
		SecureCookie: cfg.SiteScheme == "https",
	}).Register(r)

	return r, nil
}

// healthHandler reports whether the database and Redis answer
func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := gin.H{"database": "ok", "redis": "ok"}
		healthy := true
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			healthy = false
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status["redis"] = "unavailable"
			healthy = false
		}
		if !healthy {
			logrus.WithFields(logrus.Fields{"database": status["database"], "redis": status["redis"]}).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
