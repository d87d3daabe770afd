package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker(t *testing.T) {
	maker := NewJWTMaker("0123456789abcdef0123456789abcdef", time.Hour)
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		token, claims, err := maker.GenerateToken(userID, "ada@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, claims.ID)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

		got, err := maker.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.Equal(t, claims.ID, got.ID)
	})

	t.Run("token ids are unique", func(t *testing.T) {
		_, a, err := maker.GenerateToken(userID, "ada@example.com")
		require.NoError(t, err)
		_, b, err := maker.GenerateToken(userID, "ada@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewJWTMaker("another-secret-another-secret-xx", time.Hour).GenerateToken(userID, "ada@example.com")
		require.NoError(t, err)
		_, err = maker.VerifyToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := NewJWTMaker("0123456789abcdef0123456789abcdef", -time.Minute).GenerateToken(userID, "ada@example.com")
		require.NoError(t, err)
		_, err = maker.VerifyToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims, err := NewUserClaims(userID, "ada@example.com", time.Hour)
		require.NoError(t, err)
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = maker.VerifyToken(token)
		assert.Error(t, err)
	})
}
