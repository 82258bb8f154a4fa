package web

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // Input trimming

	"accounts_service/internal/accounts"   // User manager
	"accounts_service/internal/domain"     // Importing domain models
	"accounts_service/internal/metrics"    // Auth counters
	"accounts_service/internal/middleware" // Session cookie name
	"accounts_service/internal/utils"      // Tokens and blacklist

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const msgLoginFailed = "Please enter a correct email and password. Note that both fields may be case-sensitive."

// LoginPage renders the login form
func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", pageData{Title: "Log in", Next: c.Query("next")})
}

// Login checks the credentials and starts a session
func (h *Handler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := c.PostForm("next")
	data := pageData{Title: "Log in", Next: next, Form: map[string]string{"email": email}}

	if email == "" || password == "" {
		data.Errors = []string{"Email and password are required."}
		h.render(c, http.StatusOK, "login.html", data)
		return
	}
	ctx := c.Request.Context()
	user, err := accounts.Authenticate(ctx, h.DB, email, password)
	if err != nil {
		metrics.RecordAuth("web_login", false)
		if !errors.Is(err, accounts.ErrInvalidCredentials) {
			logrus.WithError(err).Error("web login failed")
		}
		data.Errors = []string{msgLoginFailed}
		h.render(c, http.StatusOK, "login.html", data)
		return
	}
	token, _, err := utils.GenerateJWT(user.ID, utils.SessionToken, h.JWT)
	if err != nil {
		logrus.WithError(err).Error("failed to sign session")
		c.String(http.StatusInternalServerError, "Failed to log in")
		return
	}
	if err := accounts.RecordLogin(ctx, h.DB, user); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to record login")
	}
	utils.InvalidateUserList(ctx, h.Redis) // last_login is part of the admin listing
	metrics.RecordAuth("web_login", true)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, int(h.JWT.SessionTTL.Seconds()), "/", "", h.SecureCookie, true)
	h.setFlash(c, "Login success.")
	c.Redirect(http.StatusFound, safeNext(next))
}

// SignupPage renders the signup form
func (h *Handler) SignupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", pageData{Title: "Sign up"})
}

// Signup registers an active account and sends the visitor to the login page
func (h *Handler) Signup(c *gin.Context) {
	form := map[string]string{
		"name":  strings.TrimSpace(c.PostForm("name")),
		"phone": strings.TrimSpace(c.PostForm("phone")),
		"email": strings.TrimSpace(c.PostForm("email")),
	}
	data := pageData{Title: "Sign up", Form: form}

	for _, field := range []string{"name", "phone", "email"} {
		if form[field] == "" {
			data.Errors = append(data.Errors, field+": This field is required.")
		}
	}
	if len(data.Errors) > 0 {
		h.render(c, http.StatusOK, "signup.html", data)
		return
	}

	ctx := c.Request.Context()
	user, err := accounts.Register(ctx, h.DB, accounts.RegisterParams{
		PhoneNo:              form["phone"],
		Email:                form["email"],
		Name:                 form["name"],
		Password:             c.PostForm("password"),
		PasswordConfirmation: c.PostForm("password_confirmation"),
	})
	if err != nil {
		var pwErr *accounts.PasswordError
		switch {
		case errors.As(err, &pwErr):
			data.Errors = pwErr.Messages
		case accounts.IsValidationError(err):
			data.Errors = []string{err.Error()}
		default:
			logrus.WithError(err).Error("web signup failed")
			data.Errors = []string{"Something went wrong, please try again."}
		}
		h.render(c, http.StatusOK, "signup.html", data)
		return
	}
	utils.InvalidateUserList(ctx, h.Redis)
	metrics.RecordAuth("web_signup", true)
	logrus.WithField("user_id", user.ID).Info("user signed up")
	h.setFlash(c, "Your account has been created. You can now log in.")
	c.Redirect(http.StatusFound, "/")
}

// Logout revokes the session and clears its cookie
func (h *Handler) Logout(c *gin.Context) {
	if raw, err := c.Cookie(middleware.SessionCookieName); err == nil && raw != "" {
		// Revoke the session so a copied cookie stops working too
		if claims, err := utils.ParseJWT(raw, h.JWT.Secret, utils.SessionToken); err == nil {
			if err := utils.BlacklistToken(c.Request.Context(), h.Redis, claims); err != nil {
				logrus.WithError(err).Warn("failed to revoke session")
			}
		}
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.SecureCookie, true)
	metrics.RecordAuth("web_logout", true)
	c.HTML(http.StatusOK, "logout.html", pageData{Title: "Logged out", ProjectName: h.ProjectName})
}

// Home lists every account, newest first
func (h *Handler) Home(c *gin.Context) {
	user := c.MustGet(middleware.ContextCurrentUser).(*domain.User)
	var users []domain.User
	if err := h.DB.WithContext(c.Request.Context()).Order("id desc").Find(&users).Error; err != nil {
		logrus.WithError(err).Error("failed to list users")
		c.String(http.StatusInternalServerError, "Failed to list users")
		return
	}
	h.render(c, http.StatusOK, "home.html", pageData{Title: "Home", User: user, Users: users})
}
