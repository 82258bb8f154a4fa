package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"time"     // Date parsing

	"accounts_service/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// dateLayout is the wire format of date_of_birth
const dateLayout = "2006-01-02"

// ProfileResponse is the JSON form of a SuperUserProfile
type ProfileResponse struct {
	ID           uint          `json:"id"`            // Profile ID
	UserID       uint          `json:"user_id"`       // Owning user
	ProfileImage string        `json:"profile_image"` // Image path
	Bio          *string       `json:"bio"`           // Short biography
	Gender       domain.Gender `json:"gender"`        // M, F or P
	DateOfBirth  *string       `json:"date_of_birth"` // YYYY-MM-DD
}

// ProfileUpdateRequest is the body of PATCH /users/:id/profile
type ProfileUpdateRequest struct {
	ProfileImage *string        `json:"profile_image" binding:"omitempty,max=100"` // Image path
	Bio          *string        `json:"bio" binding:"omitempty,max=500"`           // Short biography
	Gender       *domain.Gender `json:"gender"`                                    // M, F or P
	DateOfBirth  *string        `json:"date_of_birth"`                             // YYYY-MM-DD, empty clears it
}

func newProfileResponse(p *domain.SuperUserProfile) ProfileResponse {
	resp := ProfileResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		ProfileImage: p.ProfileImage,
		Bio:          p.Bio,
		Gender:       p.Gender,
	}
	if p.DateOfBirth != nil {
		d := p.DateOfBirth.Format(dateLayout)
		resp.DateOfBirth = &d
	}
	return resp
}

// GetProfileHandler returns the profile of a user
func GetProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := loadProfile(c, db)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newProfileResponse(profile))
	}
}

// UpdateProfileHandler changes the supplied profile fields
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := loadProfile(c, db)
		if !ok {
			return
		}
		var req ProfileUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
			return
		}
		updates := map[string]any{} // Only the supplied columns change
		if req.ProfileImage != nil {
			updates["profile_image"] = *req.ProfileImage
		}
		if req.Bio != nil {
			updates["bio"] = *req.Bio
		}
		if req.Gender != nil {
			// Reject anything outside the choices
			if !req.Gender.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "gender: \"" + string(*req.Gender) + "\" is not a valid choice."})
				return
			}
			updates["gender"] = *req.Gender
		}
		if req.DateOfBirth != nil {
			if *req.DateOfBirth == "" {
				updates["date_of_birth"] = nil
			} else {
				dob, err := time.Parse(dateLayout, *req.DateOfBirth)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "date_of_birth: Date has wrong format. Use YYYY-MM-DD."})
					return
				}
				updates["date_of_birth"] = dob
			}
		}
		if len(updates) > 0 {
			ctx := c.Request.Context()
			if err := db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
				respondError(c, err, "update profile")
				return
			}
			var fresh domain.SuperUserProfile // Cleared columns must come back nil
			if err := db.WithContext(ctx).First(&fresh, profile.ID).Error; err != nil {
				respondError(c, err, "fetch profile")
				return
			}
			profile = &fresh
		}
		c.JSON(http.StatusOK, newProfileResponse(profile))
	}
}

// loadProfile resolves the profile of :id, writing the error response when it cannot
func loadProfile(c *gin.Context, db *gorm.DB) (*domain.SuperUserProfile, bool) {
	id, ok := userID(c)
	if !ok {
		return nil, false
	}
	var profile domain.SuperUserProfile
	err := db.WithContext(c.Request.Context()).Where("user_id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Only privileged accounts have a profile
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return nil, false
	}
	if err != nil {
		respondError(c, err, "fetch profile")
		return nil, false
	}
	return &profile, true
}
