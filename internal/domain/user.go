package domain

import (
	"crypto/rand"  // Random suffix for unusable passwords
	"encoding/hex" // Hex encoding for the random suffix
	"strings"      // Email normalization
	"time"         // Timestamps

	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Role is the account role stored on a User
type Role string

// RoleSuperUser is the only role the application knows about
const RoleSuperUser Role = "SUPERUSER"

// Flag is a Yes/No marker column
type Flag string

const (
	FlagYes Flag = "Yes"
	FlagNo  Flag = "No"
)

// UnusablePasswordPrefix marks a password hash that never matches
const UnusablePasswordPrefix = "!"

// User Model
type User struct {
	ID          uint              `gorm:"primaryKey" json:"id"`                                   // Primary key
	Name        string            `gorm:"size:255" json:"name"`                                   // Full name
	Email       string            `gorm:"size:254;uniqueIndex;not null" json:"email"`             // Unique email address, used to log in
	PhoneNo     *string           `gorm:"size:56" json:"phone_no"`                                // Optional phone number
	Password    string            `gorm:"size:128;not null" json:"-"`                             // Hashed password
	IsStaff     bool              `gorm:"not null;default:false" json:"is_staff"`                 // Staff flag
	IsActive    bool              `gorm:"not null;default:false" json:"is_active"`                // Active flag
	IsSuperuser bool              `gorm:"not null;default:false" json:"is_superuser"`             // Superuser flag
	Role        Role              `gorm:"size:20" json:"role"`                                    // Account role
	LastLogin   *time.Time        `json:"last_login"`                                             // Last successful login
	Timestamp   time.Time         `gorm:"autoCreateTime" json:"timestamp"`                        // Date joined
	CreatedAt   time.Time         `json:"created_at"`                                             // Row creation time
	UpdatedAt   time.Time         `json:"updated_at"`                                             // Row update time
	UpdatedFlag Flag              `gorm:"size:3;not null;default:No" json:"updated_flag"`         // Yes once the row has been updated
	Profile     *SuperUserProfile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-one profile
}

// BeforeCreate fills column defaults so the in-memory struct matches the row
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UpdatedFlag == "" {
		u.UpdatedFlag = FlagNo
	}
	return nil
}

// AfterCreate creates the profile matching the user's role
func (u *User) AfterCreate(tx *gorm.DB) error {
	if !u.NeedsProfile() {
		return nil
	}
	profile := SuperUserProfile{UserID: u.ID}
	return tx.Where(SuperUserProfile{UserID: u.ID}).FirstOrCreate(&profile).Error
}

// BeforeUpdate marks an existing row as updated
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedFlag = FlagYes
	tx.Statement.SetColumn("UpdatedFlag", FlagYes)
	return nil
}

// NeedsProfile reports whether a SuperUserProfile belongs to this user
func (u *User) NeedsProfile() bool {
	return u.IsSuperuser || u.IsStaff || u.Role == RoleSuperUser
}

// IsAdmin reports whether the user may manage other accounts
func (u *User) IsAdmin() bool {
	return u.IsActive && (u.Role == RoleSuperUser || u.IsSuperuser)
}

// SetPassword hashes and stores the raw password
func (u *User) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// SetUnusablePassword stores a marker no password can match
func (u *User) SetUnusablePassword() {
	buf := make([]byte, 20)
	_, _ = rand.Read(buf)
	u.Password = UnusablePasswordPrefix + hex.EncodeToString(buf)
}

// HasUsablePassword reports whether CheckPassword can ever succeed
func (u *User) HasUsablePassword() bool {
	return u.Password != "" && !strings.HasPrefix(u.Password, UnusablePasswordPrefix)
}

// CheckPassword compares raw against the stored hash
func (u *User) CheckPassword(raw string) bool {
	if !u.HasUsablePassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil
}

// String returns the email, which identifies the user
func (u *User) String() string {
	return u.Email
}

// NormalizeEmail trims the address and lowercases its domain part
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
