package accounts

import (
	"errors"  // Sentinel errors and matching
	"strings" // Message joining
)

// ValidationError is a rejected input whose text is safe to show to clients
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Input errors shown verbatim to clients
const (
	ErrEmailRequired    ValidationError = "The Email field must be set"                              // Blank email
	ErrInvalidEmail     ValidationError = "Enter a valid email address."                             // Malformed email
	ErrPasswordMismatch ValidationError = "Passwords do not match."                                  // Confirmation differs
	ErrEmailTaken       ValidationError = "User with this email already exists."                     // Duplicate email
	ErrPhoneTaken       ValidationError = "User with this phone number already exists."              // Duplicate phone
	ErrSuperuserFlags   ValidationError = "Superuser must have is_staff=True and is_superuser=True." // Superuser without its flags
)

var (
	// ErrInvalidCredentials covers unknown emails, wrong passwords and inactive accounts
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrUserNotFound       = errors.New("user not found") // No row for the id or email
)

// PasswordError lists every password policy rule a candidate failed
type PasswordError struct {
	Messages []string // One entry per failed rule
}

func (e *PasswordError) Error() string {
	return strings.Join(e.Messages, " ")
}

// IsValidationError reports whether err was caused by bad input
func IsValidationError(err error) bool {
	var verr ValidationError // Plain input errors
	var pwErr *PasswordError // Password policy failures
	return errors.As(err, &verr) || errors.As(err, &pwErr)
}
