package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := Generate("secret", "op-1", "", "admin", "respaldo-api", 5)
	require.NoError(t, err)

	claims, err := Parse("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.UserID)
	assert.Equal(t, "op-1", claims.Subject)
	assert.Equal(t, "", claims.TenantID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "respaldo-api", claims.Issuer)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Generate("secret", "op-1", "", "admin", "respaldo-api", 5)
	require.NoError(t, err)

	_, err = Parse("otro", token)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	token, err := Generate("secret", "op-1", "", "admin", "respaldo-api", -1)
	require.NoError(t, err)

	_, err = Parse("secret", token)
	assert.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := Generate("", "op-1", "", "admin", "x", 5)
	assert.Error(t, err)
	_, err = Parse("", "abc")
	assert.Error(t, err)
}
