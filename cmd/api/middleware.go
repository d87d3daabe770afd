package main

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/internal/auth"
	"github.com/eqzhou81/CPEN-321-sub000/internal/handler"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func (app *application) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if app.bypassUser != nil {
			c.Set(handler.UserKey, app.bypassUser)
			c.Next()
			return
		}

		claims, err := verifyClaimsFromAuthHeader(c, app.Tokens)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}

		revoked, err := app.Cache.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			app.Logger.Error("auth: revocation check failed", zap.Error(err))
			response.InternalError(c, "")
			return
		}
		if revoked {
			response.Unauthorized(c, "token has been revoked")
			return
		}

		// Check if user still exists
		user, err := app.Repository.User.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Unauthorized(c, "Unauthorized access")
			return
		}

		c.Set(handler.ClaimsKey, claims)
		c.Set(handler.UserKey, user)
		c.Next()
	}
}

func verifyClaimsFromAuthHeader(c *gin.Context, tokenMaker *auth.JWTMaker) (*auth.UserClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is missing")
	}

	fields := strings.Fields(authHeader)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header")
	}

	claims, err := tokenMaker.VerifyToken(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RequestLogger logs one line per request.
func (app *application) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// Recoverer answers panics, error or not, with a generic 500.
func (app *application) Recoverer() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		app.Logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		response.InternalError(c, "")
	})
}

func (app *application) CORS() gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range app.Config.GetCORSOrigins() {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows each client IP rps requests per second with the given
// burst. Idle clients are forgotten after three minutes.
func (app *application) RateLimit() gin.HandlerFunc {
	if !app.Config.Limiter.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)

	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(app.Config.Limiter.RPS), app.Config.Limiter.Burst)}
			visitors[ip] = v
		}
		v.lastSeen = time.Now()
		allowed := v.limiter.Allow()
		mu.Unlock()

		if !allowed {
			response.TooManyRequests(c, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
