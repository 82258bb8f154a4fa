package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations

	"accounts_service/internal/accounts" // User manager
	"accounts_service/internal/domain"   // Importing domain models
	"accounts_service/internal/mail"     // Activation mails
	"accounts_service/internal/utils"    // Cache and account token helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/gorm"                 // GORM ORM library
)

// userListTTL is how long a cached page is served
const userListTTL = 60 * time.Second

// msgInvalidPage is returned for pages past the last one
const msgInvalidPage = "Invalid page."

// UserResponse represents the user data returned to admins
type UserResponse struct {
	ID          uint        `json:"id"`           // User ID
	Name        string      `json:"name"`         // Full name
	Email       string      `json:"email"`        // Email address
	PhoneNo     *string     `json:"phone_no"`     // Phone number
	IsStaff     bool        `json:"is_staff"`     // Staff flag
	IsActive    bool        `json:"is_active"`    // Active flag
	IsSuperuser bool        `json:"is_superuser"` // Superuser flag
	Role        domain.Role `json:"role"`         // User role
	LastLogin   *time.Time  `json:"last_login"`   // Last login
	Timestamp   time.Time   `json:"timestamp"`    // Date joined
	UpdatedAt   time.Time   `json:"updated_at"`   // Last update
}

// NewUserResponse maps a user to its JSON representation
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNo:     u.PhoneNo,
		IsStaff:     u.IsStaff,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		Role:        u.Role,
		LastLogin:   u.LastLogin,
		Timestamp:   u.Timestamp,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UserListResponse is one page of the admin user list
type UserListResponse struct {
	Users      []UserResponse `json:"users"`       // List of users
	Page       int            `json:"page"`        // Current page
	PageSize   int            `json:"page_size"`   // Page size
	Total      int64          `json:"total"`       // Total number of users
	TotalPages int            `json:"total_pages"` // Total pages
	Cached     bool           `json:"cached"`      // Whether the page came from Redis
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Email       string      `json:"email" binding:"required,email,max=254"`   // Email must be valid
	Password    string      `json:"password"`                                 // Empty leaves the password unusable
	Name        string      `json:"name" binding:"max=255"`                   // Full name
	PhoneNo     *string     `json:"phone_no" binding:"omitempty,max=56"`      // Phone number
	Role        domain.Role `json:"role" binding:"omitempty,oneof=SUPERUSER"` // User role
	IsStaff     *bool       `json:"is_staff"`                                 // Staff flag
	IsActive    *bool       `json:"is_active"`                                // Active flag
	IsSuperuser *bool       `json:"is_superuser"`                             // Superuser flag
}

// UpdateUserRequest is the body of PUT and PATCH /users/:id. Email and role are read-only.
type UpdateUserRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`    // Full name
	PhoneNo     *string `json:"phone_no" binding:"omitempty,max=56"` // Phone number
	IsStaff     *bool   `json:"is_staff"`                            // Staff flag
	IsActive    *bool   `json:"is_active"`                           // Active flag
	IsSuperuser *bool   `json:"is_superuser"`                        // Superuser flag
}

// ListUsersHandler returns a filtered page of users, newest first
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request scoped context for Redis and the DB
		// Encode sorts the parameters, so equal queries share a key
		cacheKey := utils.UserListCachePrefix + c.Request.URL.Query().Encode()
		var cached UserListResponse
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		page := 1      // Default page number
		pageSize := 20 // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			// If valid, set page size
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		query := db.WithContext(ctx).Model(&domain.User{}) // Start building the query
		if role := c.Query("role"); role != "" {
			query = query.Where("role = ?", role) // Filter by role
		}
		// Boolean filters accept true/false/1/0
		for _, field := range []string{"is_active", "is_staff", "is_superuser"} {
			raw := c.Query(field)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": field + ": Must be a valid boolean."})
				return
			}
			query = query.Where(field+" = ?", v) // Filter by flag
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%") // Filter by name
		}
		var total int64 // Total user count
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err, "count users")
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Total pages
		// Pages past the end are not found; this also bounds the offset
		if page > max(totalPages, 1) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgInvalidPage})
			return
		}
		offset := (page - 1) * pageSize // Calculate offset for pagination
		var users []domain.User         // Slice to hold users
		if err := query.Order("id desc").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			respondError(c, err, "fetch users")
			return
		}
		// Prepare response data
		resp := UserListResponse{
			Users:      make([]UserResponse, len(users)), // List of users
			Page:       page,                             // Current page
			PageSize:   pageSize,                         // Page size
			Total:      total,                            // Total number of users
			TotalPages: totalPages,                       // Total pages
		}
		// Map users to response format
		for i := range users {
			resp.Users[i] = NewUserResponse(&users[i])
		}
		// Cache the response for future requests
		if err := utils.SetCache(ctx, rdb, cacheKey, resp, userListTTL); err != nil {
			logrus.WithError(err).Warn("failed to cache user list")
		}
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// CreateUserHandler creates an account; inactive accounts are mailed an activation link
func CreateUserHandler(db *gorm.DB, rdb *redis.Client, mailer *mail.Mailer, activation *utils.AccountTokenGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
			return
		}
		ctx := c.Request.Context() // Request scoped context
		// A supplied password must follow the policy
		if req.Password != "" {
			candidate := &domain.User{Email: req.Email, Name: req.Name}
			if err := accounts.ValidatePassword(req.Password, candidate); err != nil {
				respondError(c, err, "create user")
				return
			}
		}
		user, err := accounts.CreateUser(ctx, db, accounts.CreateParams{
			Email:       req.Email,       // Email address
			Password:    req.Password,    // Raw password
			Name:        req.Name,        // Full name
			PhoneNo:     req.PhoneNo,     // Phone number
			Role:        req.Role,        // User role
			IsStaff:     req.IsStaff,     // Staff flag
			IsSuperuser: req.IsSuperuser, // Superuser flag
			IsActive:    req.IsActive,    // Active flag
		})
		if err != nil {
			respondError(c, err, "create user")
			return
		}
		invalidateUserList(c, rdb)
		// Inactive accounts confirm their email before they can log in
		if !user.IsActive {
			uid := utils.EncodeUID(user.ID)
			if err := mailer.SendActivation(ctx, user, uid, activation.MakeToken(user)); err != nil {
				logrus.WithError(err).WithField("user_id", user.ID).Error("failed to send activation mail")
			}
		}
		logrus.WithField("user_id", user.ID).Info("user created")
		c.JSON(http.StatusCreated, NewUserResponse(user))
	}
}

// GetUserHandler returns one user
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadUser(c, db)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, NewUserResponse(user))
	}
}

// UpdateUserHandler updates a user. PUT requires every writable field except
// phone_no, which is cleared when omitted; PATCH changes only what it is given.
func UpdateUserHandler(db *gorm.DB, rdb *redis.Client, partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadUser(c, db)
		if !ok {
			return
		}
		var req UpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
			return
		}
		if !partial {
			if missing := missingFields(req); missing != "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": missing + ": This field is required."})
				return
			}
		}
		updates := map[string]any{} // Only the supplied columns change
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.PhoneNo != nil || !partial {
			updates["phone_no"] = req.PhoneNo
		}
		if req.IsStaff != nil {
			updates["is_staff"] = *req.IsStaff
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.IsSuperuser != nil {
			updates["is_superuser"] = *req.IsSuperuser
		}
		if len(updates) > 0 {
			// Updates runs the hooks, so updated_flag becomes Yes
			if err := db.WithContext(c.Request.Context()).Model(user).Updates(updates).Error; err != nil {
				respondError(c, err, "update user")
				return
			}
			invalidateUserList(c, rdb)
			// Reload to pick up updated_at and updated_flag
			reloaded, err := accounts.GetByID(c.Request.Context(), db, user.ID)
			if err != nil {
				respondError(c, err, "fetch user")
				return
			}
			user = reloaded
		}
		c.JSON(http.StatusOK, NewUserResponse(user))
	}
}

// DeleteUserHandler deletes a user and its profile
func DeleteUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := userID(c)
		if !ok {
			return
		}
		if err := accounts.Delete(c.Request.Context(), db, id); err != nil {
			respondError(c, err, "delete user")
			return
		}
		invalidateUserList(c, rdb)
		logrus.WithField("user_id", id).Info("user deleted")
		c.Status(http.StatusNoContent)
	}
}

// loadUser resolves :id, writing the error response when it cannot
func loadUser(c *gin.Context, db *gorm.DB) (*domain.User, bool) {
	id, ok := userID(c)
	if !ok {
		return nil, false
	}
	user, err := accounts.GetByID(c.Request.Context(), db, id)
	if err != nil {
		respondError(c, err, "fetch user")
		return nil, false
	}
	return user, true
}

func userID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return 0, false
	}
	return uint(id), true
}

func missingFields(req UpdateUserRequest) string {
	switch {
	case req.Name == nil:
		return "name"
	case req.IsStaff == nil:
		return "is_staff"
	case req.IsActive == nil:
		return "is_active"
	case req.IsSuperuser == nil:
		return "is_superuser"
	}
	return ""
}

// invalidateUserList drops every cached list page after a write
func invalidateUserList(c *gin.Context, rdb *redis.Client) {
	utils.InvalidateUserList(c.Request.Context(), rdb)
}
