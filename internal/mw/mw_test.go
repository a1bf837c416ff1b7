package mw

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"course-enrollment-backend/config"
	"course-enrollment-backend/internal/auth"
	"course-enrollment-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestResponseCache(t *testing.T) {
	rc := NewResponseCache(time.Minute)

	hits := 0
	router := gin.New()
	router.GET("/data", rc.Middleware(), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})
	router.GET("/missing", rc.Middleware(), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusNotFound, gin.H{"error": "missing"})
	})

	w := get(router, "/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	first := w.Body.String()

	t.Run("repeat request is served from cache", func(t *testing.T) {
		w := get(router, "/data", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, first, w.Body.String())
		assert.Equal(t, 1, hits)
	})

	t.Run("invalidate flushes the entry", func(t *testing.T) {
		rc.Invalidate()
		w := get(router, "/data", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, first, w.Body.String())
		assert.Equal(t, 2, hits)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		before := hits
		get(router, "/missing", "")
		get(router, "/missing", "")
		assert.Equal(t, before+2, hits)
	})
}

func TestRateLimiter(t *testing.T) {
	router := gin.New()
	router.GET("/ping", RateLimiter(rate.Limit(1), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// The burst admits the first two requests; the third exceeds it.
	for i := 0; i < 2; i++ {
		w := get(router, "/ping", "")
		require.Equal(t, http.StatusOK, w.Code, "request %d within burst", i)
	}
	w := get(router, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenService(config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "test",
	})
	otherTokens := auth.NewTokenService(config.AuthConfig{
		JWTSecret: "different-secret",
		TokenTTL:  time.Hour,
		Issuer:    "test",
	})

	router := gin.New()
	router.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		userID, role, ok := Identity(c)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
	})
	router.GET("/admin", Authenticate(tokens), RequireRole(model.RoleCoordinator), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	user := &model.User{ID: "user-1", Email: "a@example.edu", Role: model.RoleStudent}
	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := get(router, "/me", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
	})

	t.Run("missing header", func(t *testing.T) {
		w := get(router, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing bearer prefix", func(t *testing.T) {
		w := get(router, "/me", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		forged, _, err := otherTokens.Issue(user)
		require.NoError(t, err)
		w := get(router, "/me", "Bearer "+forged)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := auth.NewTokenService(config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  -time.Minute,
			Issuer:    "test",
		})
		expired, _, err := shortLived.Issue(user)
		require.NoError(t, err)
		w := get(router, "/me", "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "token expired")
	})

	t.Run("role gate", func(t *testing.T) {
		w := get(router, "/admin", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)

		coordinator := &model.User{ID: "coord-1", Email: "c@example.edu", Role: model.RoleCoordinator}
		coordToken, _, err := tokens.Issue(coordinator)
		require.NoError(t, err)
		w = get(router, "/admin", "Bearer "+coordToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimiter_PerIP(t *testing.T) {
	router := gin.New()
	router.GET("/ping", RateLimiter(rate.Limit(1), 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0." + strconv.Itoa(i) + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "each IP gets its own bucket")
	}
}
