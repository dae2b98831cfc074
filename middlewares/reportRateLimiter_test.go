package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// testRedis connects to a live server; set REDIS_TEST_ADDRESS to enable it
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestReportRateLimiter(t *testing.T) {
	client := testRedis(t)
	prefix := "parkwatch_test:limit:" + primitive.NewObjectID().Hex()
	alice, bob := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()
	t.Cleanup(func() { client.Del(context.Background(), prefix+":"+alice, prefix+":"+bob) })

	r := gin.New()
	r.POST("/report", func(c *gin.Context) {
		c.Set(ContextUserID, c.GetHeader("X-User"))
	}, ReportRateLimiter(client, prefix, 2, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	submit := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/report", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, submit(alice).Code)
	assert.Equal(t, http.StatusCreated, submit(alice).Code)

	rec := submit(alice)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body struct {
		Error      string  `json:"error"`
		RetryAfter float64 `json:"retry_after"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded", body.Error)
	assert.Greater(t, body.RetryAfter, 0.0)
	assert.LessOrEqual(t, body.RetryAfter, (24 * time.Hour).Seconds())

	// the window is per user
	assert.Equal(t, http.StatusCreated, submit(bob).Code)
	assert.Equal(t, http.StatusUnauthorized, submit("").Code)
}
