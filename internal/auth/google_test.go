package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromClaims(t *testing.T) {
	t.Run("full profile", func(t *testing.T) {
		id, err := identityFromClaims("1234", map[string]interface{}{
			"email":   "ada@example.com",
			"name":    "Ada",
			"picture": "https://example.com/ada.png",
		})
		require.NoError(t, err)
		assert.Equal(t, &GoogleIdentity{GoogleID: "1234", Email: "ada@example.com", Name: "Ada", Picture: "https://example.com/ada.png"}, id)
	})

	t.Run("name defaults to email", func(t *testing.T) {
		id, err := identityFromClaims("1234", map[string]interface{}{"email": "ada@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", id.Name)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := identityFromClaims("", map[string]interface{}{"email": "ada@example.com"})
		assert.Error(t, err)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := identityFromClaims("1234", map[string]interface{}{"name": "Ada"})
		assert.Error(t, err)
	})
}
