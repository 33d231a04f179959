package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	assert.NotEqual(t, "secret", hash, "hash must not be the plaintext")

	other, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes should be salted")
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("SecurePass123!")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"matching password", "SecurePass123!", true},
		{"wrong password", "WrongPassword123!", false},
		{"empty password", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password, hash))
		})
	}
}

func TestCheckPasswordInvalidHash(t *testing.T) {
	assert.False(t, CheckPassword("secret", "not-a-bcrypt-hash"))
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	require.NoError(t, err)
	b, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 2*sessionTokenBytes)
	assert.NotEqual(t, a, b)
}
