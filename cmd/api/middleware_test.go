package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/internal/auth"
	"github.com/eqzhou81/CPEN-321-sub000/internal/config"
	"github.com/eqzhou81/CPEN-321-sub000/internal/handler"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testApp() *application {
	gin.SetMode(gin.TestMode)
	return &application{
		Logger: zap.NewNop(),
		Config: &config.Config{
			Limiter: config.RateLimiterConfig{RPS: 1, Burst: 2, Enabled: true},
			CORS:    config.CORSConfig{TrustedOrigins: []string{"http://localhost:3000", " "}},
		},
		Tokens: auth.NewJWTMaker(testSecret, time.Hour),
	}
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	app := testApp()
	r := gin.New()
	r.Use(app.CORS())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("trusted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := serve(r, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	})
}

func TestRateLimit(t *testing.T) {
	app := testApp()
	r := gin.New()
	r.Use(app.RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestAuthMiddleware(t *testing.T) {
	app := testApp()

	run := func(header string) *httptest.ResponseRecorder {
		r := gin.New()
		r.Use(app.AuthMiddleware())
		r.GET("/me", func(c *gin.Context) {
			user, _ := c.Get(handler.UserKey)
			c.JSON(http.StatusOK, user)
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return serve(r, req)
	}

	t.Run("missing header", func(t *testing.T) {
		w := run("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "authorization header is missing")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := run("Basic abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid authorization header")
	})

	t.Run("foreign token", func(t *testing.T) {
		other := auth.NewJWTMaker("ffffffffffffffffffffffffffffffff", time.Hour)
		token, _, err := other.GenerateToken(uuid.New(), "a@example.com")
		require.NoError(t, err)

		w := run("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid token")
	})

	t.Run("bypass user", func(t *testing.T) {
		app.bypassUser = &model.User{UserID: uuid.New(), Name: "Dev"}
		defer func() { app.bypassUser = nil }()

		w := run("")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), app.bypassUser.UserID.String())
	})
}
