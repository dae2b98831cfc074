package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"parkwatch-be/models"
	"parkwatch-be/repository"
	"parkwatch-be/repository/memory"
	authUtils "parkwatch-be/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T, users UserFinder) (*gin.Engine, *authUtils.JWTManager) {
	t.Helper()
	jwt, err := authUtils.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwt, users, zap.NewNop()), func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(ContextUserID), "role": role})
	})
	return r, jwt
}

func storeUser(t *testing.T, repo *memory.Repository, role models.Role) primitive.ObjectID {
	t.Helper()
	u := &models.User{
		ID:        primitive.NewObjectID(),
		FirstName: "Test",
		Email:     primitive.NewObjectID().Hex() + "@example.com",
		Role:      role,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u.ID
}

func getMe(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	repo := memory.New()
	r, jwt := newAuthRouter(t, repo)
	id := storeUser(t, repo, models.RoleAdmin)
	token, err := jwt.GenerateToken(id, models.RoleAdmin)
	require.NoError(t, err)
	orphan, err := jwt.GenerateToken(primitive.NewObjectID(), models.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"bare", func(req *http.Request) { req.Header.Set("Authorization", token) }, http.StatusOK},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token}) }, http.StatusOK},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"invalid", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"unknown account", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+orphan) }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":"`+id.Hex()+`","role":"admin"}`, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "error")
			}
		})
	}
}

func TestAuthMiddleware_RoleFollowsAccount(t *testing.T) {
	t.Parallel()

	repo := memory.New()
	r, jwt := newAuthRouter(t, repo)
	id := storeUser(t, repo, models.RoleAdmin)
	token, err := jwt.GenerateToken(id, models.RoleAdmin)
	require.NoError(t, err)

	demoted := models.RoleUser
	_, err = repo.UpdateUser(context.Background(), id, repository.UpdateUserArgs{Role: &demoted})
	require.NoError(t, err)

	rec := getMe(r, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+id.Hex()+`","role":"user"}`, rec.Body.String())
}

type brokenFinder struct{}

func (brokenFinder) GetUser(context.Context, primitive.ObjectID) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestAuthMiddleware_StoreError(t *testing.T) {
	t.Parallel()

	r, jwt := newAuthRouter(t, brokenFinder{})
	token, err := jwt.GenerateToken(primitive.NewObjectID(), models.RoleUser)
	require.NoError(t, err)

	rec := getMe(r, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestReportRateLimiter_Disabled(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.POST("/report", ReportRateLimiter(nil, "limit", 3, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	for range 5 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/report", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}
