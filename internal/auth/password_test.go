package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_ProducesPHCFormat(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "unexpected hash prefix: %s", hash)
}

func TestVerifyPassword_Matches(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_RejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	ok, err := VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_SaltsDiffer(t *testing.T) {
	h1, err := HashPassword("hunter2")
	require.NoError(t, err)
	h2, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plaintext",
		"$bcrypt$whatever",
		"$argon2id$v=19$m=65536,t=3,p=2$notbase64!!$alsonot!!",
	} {
		_, err := VerifyPassword("hunter2", hash)
		assert.Error(t, err, "hash %q should be rejected", hash)
	}
}

func TestNewRefreshTokenValue(t *testing.T) {
	v1, err := NewRefreshTokenValue()
	require.NoError(t, err)
	v2, err := NewRefreshTokenValue()
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
	// 32 random bytes in unpadded base64url.
	assert.Len(t, v1, 43)
	assert.NotContains(t, v1, "=")
	assert.NotContains(t, v1, "+")
	assert.NotContains(t, v1, "/")
}
