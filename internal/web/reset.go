package web

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // Input trimming

	"accounts_service/internal/accounts" // User manager
	"accounts_service/internal/domain"   // Importing domain models
	"accounts_service/internal/utils"    // Account tokens

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// PasswordResetPage renders the reset request form
func (h *Handler) PasswordResetPage(c *gin.Context) {
	h.render(c, http.StatusOK, "password_reset.html", pageData{Title: "Password reset"})
}

// PasswordReset mails a reset link to every matching account. The response is
// the same whether or not the email is known.
func (h *Handler) PasswordReset(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		h.render(c, http.StatusOK, "password_reset.html", pageData{Title: "Password reset", Errors: []string{"email: This field is required."}})
		return
	}
	ctx := c.Request.Context()
	var users []domain.User
	err := h.DB.WithContext(ctx).
		Where("LOWER(email) = ? AND is_active = ?", strings.ToLower(email), true).
		Find(&users).Error
	if err != nil {
		logrus.WithError(err).Error("password reset lookup failed")
	}
	for i := range users {
		u := &users[i]
		// Social sign-in accounts have no password to reset
		if !u.HasUsablePassword() {
			continue
		}
		if err := h.Mailer.SendPasswordReset(ctx, u, utils.EncodeUID(u.ID), h.Reset.MakeToken(u)); err != nil {
			logrus.WithError(err).WithField("user_id", u.ID).Error("failed to send password reset mail")
		}
	}
	c.Redirect(http.StatusFound, "/password_reset/done/")
}

// PasswordResetDone confirms the reset mail was sent
func (h *Handler) PasswordResetDone(c *gin.Context) {
	h.render(c, http.StatusOK, "password_reset_done.html", pageData{Title: "Password reset sent"})
}

// resetUser returns the user a reset link belongs to, nil when the link is invalid
func (h *Handler) resetUser(c *gin.Context) *domain.User {
	id, err := utils.DecodeUID(c.Param("uidb64"))
	if err != nil {
		return nil
	}
	user, err := accounts.GetByID(c.Request.Context(), h.DB, id)
	if err != nil {
		if !errors.Is(err, accounts.ErrUserNotFound) {
			logrus.WithError(err).Error("password reset user lookup failed")
		}
		return nil
	}
	if !h.Reset.CheckToken(user, c.Param("token")) {
		return nil
	}
	return user
}

// PasswordResetConfirmPage renders the new password form when the link is valid
func (h *Handler) PasswordResetConfirmPage(c *gin.Context) {
	valid := h.resetUser(c) != nil
	h.render(c, http.StatusOK, "password_reset_confirm.html", pageData{Title: "Enter new password", ValidLink: valid})
}

// PasswordResetConfirm stores the new password
func (h *Handler) PasswordResetConfirm(c *gin.Context) {
	data := pageData{Title: "Enter new password", ValidLink: true}
	user := h.resetUser(c)
	if user == nil {
		data.ValidLink = false
		h.render(c, http.StatusOK, "password_reset_confirm.html", data)
		return
	}
	password := c.PostForm("new_password1")
	if password != c.PostForm("new_password2") {
		data.Errors = []string{"The two password fields didn't match."}
		h.render(c, http.StatusOK, "password_reset_confirm.html", data)
		return
	}
	if err := accounts.SetPassword(c.Request.Context(), h.DB, user, password); err != nil {
		var pwErr *accounts.PasswordError
		if errors.As(err, &pwErr) {
			data.Errors = pwErr.Messages
			h.render(c, http.StatusOK, "password_reset_confirm.html", data)
			return
		}
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to set password")
		c.String(http.StatusInternalServerError, "Failed to set password")
		return
	}
	logrus.WithField("user_id", user.ID).Info("password reset")
	c.Redirect(http.StatusFound, "/reset/done/")
}

// PasswordResetComplete tells the user they can log in again
func (h *Handler) PasswordResetComplete(c *gin.Context) {
	h.render(c, http.StatusOK, "password_reset_complete.html", pageData{Title: "Password reset complete"})
}

// Activate confirms the email of a new account
func (h *Handler) Activate(c *gin.Context) {
	data := pageData{Title: "Account activation"}
	ctx := c.Request.Context()
	id, err := utils.DecodeUID(c.Param("uidb64"))
	if err == nil {
		var user *domain.User
		user, err = accounts.GetByID(ctx, h.DB, id)
		if err == nil && h.Activation.CheckToken(user, c.Param("token")) {
			if err := accounts.Activate(ctx, h.DB, user); err != nil {
				logrus.WithError(err).WithField("user_id", user.ID).Error("failed to activate user")
				c.String(http.StatusInternalServerError, "Failed to activate account")
				return
			}
			utils.InvalidateUserList(ctx, h.Redis) // is_active is part of the admin listing
			logrus.WithField("user_id", user.ID).Info("user activated")
			data.ValidLink = true
		}
	}
	h.render(c, http.StatusOK, "activate.html", data)
}
