package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accounts_service/internal/domain"
	"accounts_service/internal/mail"
	"accounts_service/internal/middleware"
	"accounts_service/internal/oauth"
	"accounts_service/internal/testutil"
	"accounts_service/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testJWT = utils.JWTConfig{
	Secret:     "api-test-secret",
	AccessTTL:  5 * time.Minute,
	RefreshTTL: time.Hour,
	SessionTTL: time.Hour,
}

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingSender struct {
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

type testEnv struct {
	db     *gorm.DB
	rdb    *redis.Client
	mr     *miniredis.Miniredis
	mails  *recordingSender
	router *gin.Engine
}

// newTestEnv mounts the API the same way the server does, minus throttling
func newTestEnv(t *testing.T, googleURL string) *testEnv {
	t.Helper()
	env := &testEnv{db: testutil.NewDB(t), mails: &recordingSender{}}
	env.rdb, env.mr = testutil.NewRedis(t)

	mailer := &mail.Mailer{Sender: env.mails, SiteURL: "http://testserver/", ProjectName: "Accounts"}
	activation := utils.NewActivationTokenGenerator(testJWT.Secret, time.Hour)
	google := oauth.NewGoogleClient(googleURL, http.DefaultClient)

	r := gin.New()
	g := r.Group("/api")
	g.POST("/login", LoginHandler(env.db, env.rdb, testJWT))
	g.POST("/register", RegisterHandler(env.db, env.rdb, testJWT))
	g.POST("/google-sign-in", GoogleSignInHandler(env.db, env.rdb, google, testJWT))
	g.POST("/auth-refresh", RefreshHandler(env.db, env.rdb, testJWT))
	g.POST("/logout", middleware.JWTAuthMiddleware(testJWT.Secret), LogoutHandler(env.rdb, testJWT))

	users := g.Group("/users", middleware.JWTAuthMiddleware(testJWT.Secret), middleware.AdminOnlyMiddleware(env.db))
	users.GET("", ListUsersHandler(env.db, env.rdb))
	users.POST("", CreateUserHandler(env.db, env.rdb, mailer, activation))
	users.GET("/:id", GetUserHandler(env.db))
	users.PUT("/:id", UpdateUserHandler(env.db, env.rdb, false))
	users.PATCH("/:id", UpdateUserHandler(env.db, env.rdb, true))
	users.DELETE("/:id", DeleteUserHandler(env.db, env.rdb))
	users.GET("/:id/profile", GetProfileHandler(env.db))
	users.PATCH("/:id/profile", UpdateProfileHandler(env.db))

	env.router = r
	return env
}

// do sends a JSON request, authenticated when token is set
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// admin creates an active superuser and returns it with an access token
func (e *testEnv) admin(t *testing.T) (*domain.User, string) {
	t.Helper()
	user := testutil.CreateUser(t, e.db, domain.User{
		Email:       "admin@example.com",
		Name:        "Admin",
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
		Role:        domain.RoleSuperUser,
	}, "admin-pass-123")
	return user, accessToken(t, user.ID)
}

func accessToken(t *testing.T, userID uint) string {
	t.Helper()
	tok, _, err := utils.GenerateJWT(userID, utils.AccessToken, testJWT)
	require.NoError(t, err)
	return tok
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
