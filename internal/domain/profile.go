package domain

import (
	"time" // Date of birth

	"gorm.io/gorm" // GORM ORM library
)

// Gender choices stored on a profile
type Gender string

const (
	GenderMale           Gender = "M" // Male
	GenderFemale         Gender = "F" // Female
	GenderPreferNotToSay Gender = "P" // Default
)

// Valid reports whether g is one of the known choices
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderPreferNotToSay:
		return true
	}
	return false
}

// DefaultProfileImage is the image path used until one is set
const DefaultProfileImage = "default.png"

// SuperUserProfile Model, one per SUPERUSER account
type SuperUserProfile struct {
	ID           uint       `gorm:"primaryKey" json:"id"`                              // Primary key
	UserID       uint       `gorm:"uniqueIndex;not null" json:"user_id"`               // One profile per user
	ProfileImage string     `gorm:"size:100;default:default.png" json:"profile_image"` // Image path
	Bio          *string    `gorm:"size:500" json:"bio"`                               // Optional biography
	Gender       Gender     `gorm:"size:1;not null;default:P" json:"gender"`           // M, F or P
	DateOfBirth  *time.Time `gorm:"type:date" json:"date_of_birth"`                    // Optional date of birth
}

// TableName keeps the table named after the role
func (SuperUserProfile) TableName() string {
	return "super_users"
}

// BeforeCreate fills column defaults so the in-memory struct matches the row
func (p *SuperUserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ProfileImage == "" {
		p.ProfileImage = DefaultProfileImage
	}
	if p.Gender == "" {
		p.Gender = GenderPreferNotToSay
	}
	return nil
}
