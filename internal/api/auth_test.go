package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"accounts_service/internal/domain"
	"accounts_service/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerBody(email, phone string) gin.H {
	return gin.H{
		"phone_no":              phone,
		"email":                 email,
		"name":                  "Jane Doe",
		"password":              "s3cure-horse-battery",
		"password_confirmation": "s3cure-horse-battery",
	}
}

func TestRegisterHandler(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/register", "", registerBody("Jane@Example.com", "+15550100"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		User struct {
			PhoneNo string `json:"phone_no"`
			Email   string `json:"email"`
			Name    string `json:"name"`
		} `json:"user"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "+15550100", body.User.PhoneNo)
	assert.Equal(t, "Jane@example.com", body.User.Email)
	assert.NotEmpty(t, body.AccessToken)
	assert.NotEmpty(t, body.RefreshToken)

	var user domain.User
	require.NoError(t, env.db.Preload("Profile").Where("email = ?", "Jane@example.com").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.Equal(t, domain.RoleSuperUser, user.Role)
	require.NotNil(t, user.Profile, "registered accounts get a profile")
}

func TestRegisterHandler_Rejections(t *testing.T) {
	env := newTestEnv(t, "")
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/register", "", registerBody("taken@example.com", "+1000")).Code)

	mismatch := registerBody("new@example.com", "+2000")
	mismatch["password_confirmation"] = "something-else-entirely"
	weak := registerBody("weak@example.com", "+3000")
	weak["password"], weak["password_confirmation"] = "12345678", "12345678"
	missing := registerBody("missing@example.com", "+4000")
	delete(missing, "name")

	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{"password mismatch", mismatch, "Passwords do not match."},
		{"duplicate email", registerBody("taken@example.com", "+5000"), "User with this email already exists."},
		{"duplicate phone", registerBody("other@example.com", "+1000"), "User with this phone number already exists."},
		{"weak password", weak, "This password is too common."},
		{"missing field", missing, "This field is required."},
		{"invalid email", registerBody("not-an-email", "+6000"), "Enter a valid email address."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	var count int64
	env.db.Model(&domain.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t, "")
	testutil.CreateUser(t, env.db, domain.User{Email: "user@example.com", IsActive: true}, "correct-horse-1")
	testutil.CreateUser(t, env.db, domain.User{Email: "off@example.com"}, "correct-horse-1")

	rec := env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "user@example.com", "password": "correct-horse-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)
	assert.Equal(t, "user@example.com", resp.User.Email)
	assert.NotNil(t, resp.User.LastLogin)

	for _, body := range []gin.H{
		{"email": "user@example.com", "password": "wrong"},
		{"email": "off@example.com", "password": "correct-horse-1"},
		{"email": "nobody@example.com", "password": "correct-horse-1"},
	} {
		rec = env.do(t, http.MethodPost, "/api/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), msgInvalidCredentials)
	}

	rec = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "user@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutAndRefresh(t *testing.T) {
	env := newTestEnv(t, "")
	testutil.CreateUser(t, env.db, domain.User{Email: "user@example.com", IsActive: true}, "correct-horse-1")

	rec := env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "user@example.com", "password": "correct-horse-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var pair LoginResponse
	decode(t, rec, &pair)

	rec = env.do(t, http.MethodPost, "/api/auth-refresh", "", gin.H{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed map[string]string
	decode(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed["access"])
	assert.NotContains(t, refreshed, "refresh")

	// Access tokens are not refresh tokens
	rec = env.do(t, http.MethodPost, "/api/auth-refresh", "", gin.H{"refresh": pair.Access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/logout", "", gin.H{"refresh_token": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "logout needs an access token")

	rec = env.do(t, http.MethodPost, "/api/logout", pair.Access, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/logout", pair.Access, gin.H{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/logout", pair.Access, gin.H{"refresh_token": pair.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User was successfully logged out.")

	rec = env.do(t, http.MethodPost, "/api/auth-refresh", "", gin.H{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "blacklisted")
}

func TestRefreshHandler_InactiveUser(t *testing.T) {
	env := newTestEnv(t, "")
	user := testutil.CreateUser(t, env.db, domain.User{Email: "user@example.com", IsActive: true}, "correct-horse-1")

	rec := env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "user@example.com", "password": "correct-horse-1"})
	var pair LoginResponse
	decode(t, rec, &pair)

	require.NoError(t, env.db.Model(user).Update("is_active", false).Error)
	rec = env.do(t, http.MethodPost, "/api/auth-refresh", "", gin.H{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleSignInHandler(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Write([]byte(`{"email":"g.user@example.com","name":"Google User"}`))
		case "Bearer no-email":
			w.Write([]byte(`{"name":"Anonymous"}`))
		case "Bearer bad-email":
			w.Write([]byte(`{"email":"nope"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_token"}`))
		}
	}))
	t.Cleanup(google.Close)
	env := newTestEnv(t, google.URL)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/google-sign-in", "", gin.H{"token": "good"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var pair map[string]string
		decode(t, rec, &pair)
		assert.NotEmpty(t, pair["access"])
		assert.NotEmpty(t, pair["refresh"])
	}
	var users []domain.User
	require.NoError(t, env.db.Where("email = ?", "g.user@example.com").Find(&users).Error)
	require.Len(t, users, 1, "second sign-in reuses the account")
	assert.True(t, users[0].IsActive)
	assert.False(t, users[0].HasUsablePassword())
	assert.Equal(t, "Google User", users[0].Name)

	tests := []struct {
		token  string
		status int
		want   string
	}{
		{"", http.StatusBadRequest, "Token is required."},
		{"no-email", http.StatusBadRequest, "Email not provided by Google"},
		{"bad-email", http.StatusBadRequest, "Invalid email address"},
		{"expired", http.StatusInternalServerError, "Google API request failed"},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodPost, "/api/google-sign-in", "", gin.H{"token": tt.token})
		assert.Equal(t, tt.status, rec.Code, tt.token)
		assert.Contains(t, rec.Body.String(), tt.want)
	}
}

func TestAuthWritesInvalidateUserList(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"g.user@example.com","name":"Google User"}`))
	}))
	t.Cleanup(google.Close)
	env := newTestEnv(t, google.URL)
	_, token := env.admin(t)

	// prime caches the first page and returns its total
	prime := func() int64 {
		t.Helper()
		rec := env.do(t, http.MethodGet, "/api/users", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list UserListResponse
		decode(t, rec, &list)
		require.NotEmpty(t, env.mr.Keys())
		return list.Total
	}

	before := prime()
	rec := env.do(t, http.MethodPost, "/api/register", "", registerBody("new@example.com", "+15550100"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, env.mr.Keys(), "register drops cached pages")
	assert.Equal(t, before+1, prime())

	rec = env.do(t, http.MethodPost, "/api/google-sign-in", "", gin.H{"token": "good"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, env.mr.Keys(), "google sign-in drops cached pages")
	assert.Equal(t, before+2, prime())

	rec = env.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "new@example.com", "password": "s3cure-horse-battery"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, env.mr.Keys(), "login changes last_login")
}
