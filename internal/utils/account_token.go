package utils

import (
	"crypto/hmac"     // Token MAC
	"crypto/sha256"   // MAC hash
	"encoding/base64" // URL safe user id encoding
	"encoding/hex"    // MAC encoding
	"errors"          // Error values
	"strconv"         // base36 timestamps and id formatting
	"strings"         // Token splitting
	"time"            // Token expiry

	"accounts_service/internal/domain" // User model
)

// ErrInvalidUID is returned when a uidb64 path segment cannot be decoded
var ErrInvalidUID = errors.New("invalid uid")

// AccountTokenGenerator makes one-shot links for account emails.
// A token is "<base36 unix seconds>-<hex hmac>"; the MAC covers the user state
// returned by hashValue, so changing that state invalidates outstanding tokens.
type AccountTokenGenerator struct {
	secret    []byte
	purpose   string
	timeout   time.Duration
	hashValue func(u *domain.User) string
	now       func() time.Time
}

// NewActivationTokenGenerator builds tokens that die once the account is activated
func NewActivationTokenGenerator(secret string, timeout time.Duration) *AccountTokenGenerator {
	return &AccountTokenGenerator{
		secret:  []byte(secret),
		purpose: "account-activation",
		timeout: timeout,
		hashValue: func(u *domain.User) string {
			return strconv.FormatUint(uint64(u.ID), 10) +
				strconv.FormatInt(u.Timestamp.Unix(), 10) +
				strconv.FormatBool(u.IsActive) +
				u.Email
		},
		now: time.Now,
	}
}

// NewPasswordResetTokenGenerator builds tokens that die once the password or last login changes
func NewPasswordResetTokenGenerator(secret string, timeout time.Duration) *AccountTokenGenerator {
	return &AccountTokenGenerator{
		secret:  []byte(secret),
		purpose: "password-reset",
		timeout: timeout,
		hashValue: func(u *domain.User) string {
			lastLogin := ""
			if u.LastLogin != nil {
				lastLogin = strconv.FormatInt(u.LastLogin.Unix(), 10)
			}
			return strconv.FormatUint(uint64(u.ID), 10) +
				u.Password +
				lastLogin +
				strconv.FormatInt(u.Timestamp.Unix(), 10) +
				u.Email
		},
		now: time.Now,
	}
}

// MakeToken returns a token for the user's current state
func (g *AccountTokenGenerator) MakeToken(u *domain.User) string {
	return g.makeTokenAt(u, g.now().Unix())
}

// CheckToken reports whether token was made for this user and has not expired
func (g *AccountTokenGenerator) CheckToken(u *domain.User, token string) bool {
	if u == nil || token == "" {
		return false
	}
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}
	if !hmac.Equal([]byte(g.makeTokenAt(u, ts)), []byte(token)) {
		return false
	}
	age := g.now().Sub(time.Unix(ts, 0))
	return age >= 0 && age <= g.timeout
}

func (g *AccountTokenGenerator) makeTokenAt(u *domain.User, ts int64) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(g.purpose))
	mac.Write([]byte(g.hashValue(u)))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	sum := hex.EncodeToString(mac.Sum(nil))
	return strconv.FormatInt(ts, 36) + "-" + sum[:40]
}

// EncodeUID encodes a user id for use in a URL path
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID
func DecodeUID(uidb64 string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uidb64)
	if err != nil {
		return 0, ErrInvalidUID
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidUID
	}
	return uint(id), nil
}
