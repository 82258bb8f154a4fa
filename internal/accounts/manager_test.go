package accounts_test

import (
	"context"
	"testing"

	"accounts_service/internal/accounts"
	"accounts_service/internal/domain"
	"accounts_service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() accounts.RegisterParams {
	return accounts.RegisterParams{
		PhoneNo:              "1234567890",
		Email:                "jane@Example.COM",
		Name:                 "Jane Doe",
		Password:             "correct-horse-battery",
		PasswordConfirmation: "correct-horse-battery",
	}
}

func TestRegister_CreatesActiveSuperuserWithProfile(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	user, err := accounts.Register(ctx, db, validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", user.Email, "email domain is normalized")
	assert.Equal(t, domain.RoleSuperUser, user.Role)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
	assert.False(t, user.IsStaff)
	assert.Equal(t, domain.FlagNo, user.UpdatedFlag)
	assert.True(t, user.CheckPassword("correct-horse-battery"))

	var profile domain.SuperUserProfile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, domain.GenderPreferNotToSay, profile.Gender)
	assert.Equal(t, domain.DefaultProfileImage, profile.ProfileImage)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	p := validRegistration()
	p.PasswordConfirmation = "something-else-entirely"

	_, err := accounts.Register(context.Background(), testutil.NewDB(t), p)
	assert.ErrorIs(t, err, accounts.ErrPasswordMismatch)
	assert.True(t, accounts.IsValidationError(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	_, err := accounts.Register(ctx, db, validRegistration())
	require.NoError(t, err)

	p := validRegistration()
	p.PhoneNo = "5550001"
	_, err = accounts.Register(ctx, db, p)
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	_, err := accounts.Register(ctx, db, validRegistration())
	require.NoError(t, err)

	p := validRegistration()
	p.Email = "other@example.com"
	_, err = accounts.Register(ctx, db, p)
	assert.ErrorIs(t, err, accounts.ErrPhoneTaken)
}

func TestRegister_WeakPassword(t *testing.T) {
	p := validRegistration()
	p.Password = "1234"
	p.PasswordConfirmation = "1234"

	_, err := accounts.Register(context.Background(), testutil.NewDB(t), p)
	var pwErr *accounts.PasswordError
	require.ErrorAs(t, err, &pwErr)
	assert.Contains(t, pwErr.Messages, "This password is too short. It must contain at least 8 characters.")
	assert.Contains(t, pwErr.Messages, "This password is entirely numeric.")
}

func TestRegister_PolicyCheckedFirst(t *testing.T) {
	p := validRegistration()
	p.Password = "qwerty12"
	p.PasswordConfirmation = "something-else"

	_, err := accounts.Register(context.Background(), testutil.NewDB(t), p)
	var pwErr *accounts.PasswordError
	require.ErrorAs(t, err, &pwErr, "policy runs before the confirmation check")
	assert.Contains(t, pwErr.Messages, "This password is too common.")
}

func TestCreateSuperuser_Defaults(t *testing.T) {
	user, err := accounts.CreateSuperuser(context.Background(), testutil.NewDB(t), accounts.CreateParams{
		Email:    "root@example.com",
		Password: "very-secret-pass",
	})
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsActive)
	assert.Equal(t, domain.RoleSuperUser, user.Role)
	assert.True(t, user.IsAdmin())
}

func TestCreateSuperuser_RejectsExplicitFalseFlags(t *testing.T) {
	no := false
	_, err := accounts.CreateSuperuser(context.Background(), testutil.NewDB(t), accounts.CreateParams{
		Email:   "root@example.com",
		IsStaff: &no,
	})
	assert.ErrorIs(t, err, accounts.ErrSuperuserFlags)
}

func TestCreateUser_RequiresValidEmail(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := accounts.CreateUser(context.Background(), db, accounts.CreateParams{Email: "  "})
	assert.ErrorIs(t, err, accounts.ErrEmailRequired)

	_, err = accounts.CreateUser(context.Background(), db, accounts.CreateParams{Email: "not-an-email"})
	assert.ErrorIs(t, err, accounts.ErrInvalidEmail)
}

func TestCreateUser_RegularUserHasNoProfile(t *testing.T) {
	db := testutil.NewDB(t)
	user, err := accounts.CreateUser(context.Background(), db, accounts.CreateParams{Email: "plain@example.com"})
	require.NoError(t, err)
	assert.False(t, user.HasUsablePassword())
	assert.False(t, user.IsActive)

	var count int64
	require.NoError(t, db.Model(&domain.SuperUserProfile{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, domain.User{Email: "active@example.com", IsActive: true}, "good-password-1")
	testutil.CreateUser(t, db, domain.User{Email: "inactive@example.com"}, "good-password-1")

	user, err := accounts.Authenticate(ctx, db, "active@EXAMPLE.com", "good-password-1")
	require.NoError(t, err)
	assert.Equal(t, "active@example.com", user.Email)

	_, err = accounts.Authenticate(ctx, db, "active@example.com", "wrong")
	assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)

	_, err = accounts.Authenticate(ctx, db, "inactive@example.com", "good-password-1")
	assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)

	_, err = accounts.Authenticate(ctx, db, "nobody@example.com", "good-password-1")
	assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
}

func TestRecordLogin_MarksRowUpdated(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, domain.User{Email: "a@example.com", IsActive: true}, "good-password-1")
	require.Nil(t, user.LastLogin)

	require.NoError(t, accounts.RecordLogin(ctx, db, user))

	reloaded, err := accounts.GetByID(ctx, db, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLogin)
	assert.Equal(t, domain.FlagYes, reloaded.UpdatedFlag)
}

func TestGetOrCreateByEmail(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	user, created, err := accounts.GetOrCreateByEmail(ctx, db, "g@example.com", "Gee")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, user.IsActive)
	assert.False(t, user.HasUsablePassword())
	assert.Equal(t, "Gee", user.Name)

	again, created, err := accounts.GetOrCreateByEmail(ctx, db, "g@example.com", "Other Name")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Gee", again.Name)
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, domain.User{Email: "p@example.com", IsActive: true}, "old-password-1")

	err := accounts.SetPassword(ctx, db, user, "short")
	var pwErr *accounts.PasswordError
	assert.ErrorAs(t, err, &pwErr)

	require.NoError(t, accounts.SetPassword(ctx, db, user, "new-password-22"))
	_, err = accounts.Authenticate(ctx, db, "p@example.com", "new-password-22")
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, domain.User{Email: "d@example.com", Role: domain.RoleSuperUser}, "good-password-1")

	require.NoError(t, accounts.Delete(ctx, db, user.ID))
	_, err := accounts.GetByID(ctx, db, user.ID)
	assert.ErrorIs(t, err, accounts.ErrUserNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.SuperUserProfile{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, accounts.Delete(ctx, db, user.ID), accounts.ErrUserNotFound)
}
