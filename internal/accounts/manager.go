// Package accounts holds the user manager: creation, registration,
// authentication and password changes on top of the ORM models.
package accounts

import (
	"context" // Request scoped cancellation
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"strings" // Input trimming
	"time"    // Login timestamps

	"accounts_service/internal/domain" // Importing domain models

	"github.com/go-playground/validator/v10" // Email format validation
	"gorm.io/gorm"                           // GORM ORM library
)

var validate = validator.New() // Shared validator instance

// CreateParams describes a new account. Nil flags take the manager defaults.
type CreateParams struct {
	Email       string      // Required, normalized before saving
	Password    string      // Empty stores an unusable password
	Name        string      // Full name
	PhoneNo     *string     // Optional phone number
	Role        domain.Role // Empty leaves the account without a role
	IsStaff     *bool       // Admin site access
	IsSuperuser *bool       // All permissions
	IsActive    *bool       // Whether the account can log in
}

// RegisterParams is the self-service signup input
type RegisterParams struct {
	PhoneNo              string // Must be unused
	Email                string // Must be unused
	Name                 string // Full name
	Password             string // Raw password, checked against the policy
	PasswordConfirmation string // Must equal Password
}

// CreateUser creates a regular account, staff and superuser flags default to false
func CreateUser(ctx context.Context, db *gorm.DB, p CreateParams) (*domain.User, error) {
	p.IsStaff = orDefault(p.IsStaff, false)
	p.IsSuperuser = orDefault(p.IsSuperuser, false)
	p.IsActive = orDefault(p.IsActive, false)
	return create(ctx, db, p)
}

// CreateSuperuser creates an active SUPERUSER account with staff and superuser flags set
func CreateSuperuser(ctx context.Context, db *gorm.DB, p CreateParams) (*domain.User, error) {
	p.IsStaff = orDefault(p.IsStaff, true)
	p.IsSuperuser = orDefault(p.IsSuperuser, true)
	p.IsActive = orDefault(p.IsActive, true)
	if p.Role == "" {
		p.Role = domain.RoleSuperUser
	}
	if !*p.IsStaff || !*p.IsSuperuser {
		return nil, ErrSuperuserFlags
	}
	return create(ctx, db, p)
}

func create(ctx context.Context, db *gorm.DB, p CreateParams) (*domain.User, error) {
	if strings.TrimSpace(p.Email) == "" {
		return nil, ErrEmailRequired
	}
	email := domain.NormalizeEmail(p.Email) // Lowercase the domain part
	if err := validate.Var(email, "email"); err != nil {
		return nil, ErrInvalidEmail
	}
	taken, err := emailExists(ctx, db, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	user := &domain.User{
		Email:       email,
		Name:        p.Name,
		PhoneNo:     p.PhoneNo,
		Role:        p.Role,
		IsStaff:     *p.IsStaff,
		IsSuperuser: *p.IsSuperuser,
		IsActive:    *p.IsActive,
	}
	if p.Password == "" {
		user.SetUnusablePassword()
	} else if err := user.SetPassword(p.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Register validates a signup and creates an active SUPERUSER account
func Register(ctx context.Context, db *gorm.DB, p RegisterParams) (*domain.User, error) {
	candidate := &domain.User{Email: p.Email, Name: p.Name}
	if err := ValidatePassword(p.Password, candidate); err != nil {
		return nil, err
	}
	if p.Password != p.PasswordConfirmation {
		return nil, ErrPasswordMismatch
	}
	email := domain.NormalizeEmail(p.Email)
	taken, err := emailExists(ctx, db, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	var phoneCount int64 // Accounts already using the phone
	if err := db.WithContext(ctx).Model(&domain.User{}).Where("phone_no = ?", p.PhoneNo).Count(&phoneCount).Error; err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if phoneCount > 0 {
		return nil, ErrPhoneTaken
	}
	phone := p.PhoneNo
	active := true
	return create(ctx, db, CreateParams{
		Email:       email,
		Password:    p.Password,
		Name:        p.Name,
		PhoneNo:     &phone,
		Role:        domain.RoleSuperUser,
		IsStaff:     orDefault(nil, false),
		IsSuperuser: orDefault(nil, false),
		IsActive:    &active,
	})
}

// Authenticate returns the active user owning email and password
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (*domain.User, error) {
	user, err := GetByEmail(ctx, db, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RecordLogin stamps the user's last login time
func RecordLogin(ctx context.Context, db *gorm.DB, user *domain.User) error {
	now := time.Now() // Login time
	if err := db.WithContext(ctx).Model(user).Update("last_login", now).Error; err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	user.LastLogin = &now
	return nil
}

// GetOrCreateByEmail returns the account for a social sign-in, creating an active
// SUPERUSER with an unusable password the first time the email is seen.
func GetOrCreateByEmail(ctx context.Context, db *gorm.DB, email, name string) (*domain.User, bool, error) {
	user, err := GetByEmail(ctx, db, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}
	active := true
	user, err = CreateUser(ctx, db, CreateParams{
		Email:    email,
		Name:     name,
		Role:     domain.RoleSuperUser,
		IsActive: &active,
	})
	if errors.Is(err, ErrEmailTaken) {
		// Lost a race with a concurrent sign-in for the same email
		user, err = GetByEmail(ctx, db, email)
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// SetPassword validates and stores a new password
func SetPassword(ctx context.Context, db *gorm.DB, user *domain.User, password string) error {
	if err := ValidatePassword(password, user); err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := db.WithContext(ctx).Model(user).Update("password", user.Password).Error; err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	return nil
}

// Activate marks the account active
func Activate(ctx context.Context, db *gorm.DB, user *domain.User) error {
	if err := db.WithContext(ctx).Model(user).Update("is_active", true).Error; err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	user.IsActive = true
	return nil
}

// GetByID loads a user by primary key
func GetByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var user domain.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// GetByEmail loads a user by normalized email
func GetByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	return &user, nil
}

// Delete removes a user together with its profile
func Delete(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Profile first, it references the user
		if err := tx.Where("user_id = ?", id).Delete(&domain.SuperUserProfile{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.User{}, id) // Delete the user itself
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func emailExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func orDefault(v *bool, def bool) *bool {
	if v != nil {
		return v
	}
	return &def
}
