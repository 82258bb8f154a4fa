package accounts

import (
	"strings" // Case folding and substring checks
	"unicode" // Digit detection

	"accounts_service/internal/domain" // Importing domain models

	"github.com/ccojocar/zxcvbn-go"           // Password strength estimation
	"github.com/ccojocar/zxcvbn-go/frequency" // Bundled common password list
)

// MinPasswordLength is the shortest password the policy accepts
const MinPasswordLength = 8

// minPasswordScore is the lowest zxcvbn score accepted; 0 means guessable in under 100 seconds
const minPasswordScore = 1

// commonPasswords holds the lowercased passwords shipped with zxcvbn
var commonPasswords = func() map[string]struct{} {
	list := frequency.Lists["Passwords"].List
	set := make(map[string]struct{}, len(list))
	for _, p := range list {
		set[strings.ToLower(p)] = struct{}{}
	}
	return set
}()

// ValidatePassword applies the password policy. The user, when given, is used to
// reject passwords that repeat the email or the name.
func ValidatePassword(password string, user *domain.User) error {
	var msgs []string // Every failed rule is reported
	if len([]rune(password)) < MinPasswordLength {
		msgs = append(msgs, "This password is too short. It must contain at least 8 characters.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		msgs = append(msgs, "This password is entirely numeric.")
	}
	if isCommonPassword(password) {
		msgs = append(msgs, "This password is too common.")
	}
	if user != nil && tooSimilar(password, user) {
		msgs = append(msgs, "The password is too similar to the user details.")
	}
	if len(msgs) > 0 {
		return &PasswordError{Messages: msgs}
	}
	return nil
}

// isCommonPassword reports listed passwords and variants of them (l33t, keyboard walks, sequences)
func isCommonPassword(password string) bool {
	if password == "" {
		return false
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return true
	}
	return zxcvbn.PasswordStrength(password, nil).Score < minPasswordScore
}

func tooSimilar(password string, user *domain.User) bool {
	pw := strings.ToLower(password)
	if pw == "" {
		return false
	}
	var attrs []string // Email local part and name words
	if local, _, ok := strings.Cut(user.Email, "@"); ok {
		attrs = append(attrs, local)
	}
	attrs = append(attrs, strings.Fields(user.Name)...)
	for _, a := range attrs {
		a = strings.ToLower(a)
		if len(a) < 3 {
			continue // Too short to mean anything
		}
		if strings.Contains(pw, a) || strings.Contains(a, pw) {
			return true
		}
	}
	return false
}
