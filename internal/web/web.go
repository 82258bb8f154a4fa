// Package web serves the server rendered account pages: login, signup,
// logout, password reset, account activation and the user list.
package web

import (
	"embed"         // Bundled templates
	"html/template" // Page rendering
	"net/http"      // HTTP status codes
	"strings"       // Redirect target checks
	"time"          // Cookie lifetimes

	"accounts_service/internal/domain"     // Importing domain models
	"accounts_service/internal/mail"       // Reset mails
	"accounts_service/internal/middleware" // Session helpers
	"accounts_service/internal/utils"      // Tokens

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

const flashCookie = "messages"

// Deps are the collaborators of the page handlers
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	JWT          utils.JWTConfig
	Mailer       *mail.Mailer
	Reset        *utils.AccountTokenGenerator // Password reset links
	Activation   *utils.AccountTokenGenerator // Account activation links
	ProjectName  string
	SecureCookie bool // Set the Secure attribute, true behind TLS
}

// Handler renders the account pages
type Handler struct {
	Deps
}

// NewHandler creates the page handlers
func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

// Register mounts the pages and their templates on r
func (h *Handler) Register(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())

	r.GET("/", h.LoginPage)
	r.POST("/", h.Login)
	r.GET("/signup", h.SignupPage)
	r.POST("/signup", h.Signup)
	r.GET("/logout/", h.Logout)
	r.POST("/logout/", h.Logout)
	r.GET("/password_reset/", h.PasswordResetPage)
	r.POST("/password_reset/", h.PasswordReset)
	r.GET("/password_reset/done/", h.PasswordResetDone)
	r.GET("/reset/:uidb64/:token/", h.PasswordResetConfirmPage)
	r.POST("/reset/:uidb64/:token/", h.PasswordResetConfirm)
	r.GET("/reset/done/", h.PasswordResetComplete)
	r.GET("/activate/:uidb64/:token/", h.Activate)
	r.GET("/home/", middleware.SessionAuthMiddleware(h.DB, h.Redis, h.JWT.Secret), h.Home)
}

// pageData is the context every template receives
type pageData struct {
	Title       string
	ProjectName string
	User        *domain.User
	Flash       string
	Errors      []string
	Form        map[string]string
	Next        string
	ValidLink   bool
	Users       []domain.User
}

// render writes a page with the session user and pending flash message filled in
func (h *Handler) render(c *gin.Context, status int, name string, data pageData) {
	data.ProjectName = h.ProjectName
	if data.User == nil {
		data.User = middleware.SessionUser(c, h.DB, h.Redis, h.JWT.Secret)
	}
	if data.Flash == "" {
		data.Flash = h.popFlash(c)
	}
	c.HTML(status, name, data)
}

func (h *Handler) setFlash(c *gin.Context, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, msg, int(time.Minute.Seconds()), "/", "", h.SecureCookie, true)
}

func (h *Handler) popFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", h.SecureCookie, true)
	return msg
}

// safeNext keeps post-login redirects on this site
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/home/"
	}
	return next
}
