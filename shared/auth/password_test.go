package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSHA256Hasher(t *testing.T) {
	h := SHA256Hasher{}

	hash, err := h.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b", hash)

	again, err := h.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, hash, again, "digest is deterministic")

	assert.True(t, h.Verify("secret", hash))
	assert.False(t, h.Verify("Secret", hash))
	assert.False(t, h.Verify("secret", ""))
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	first, err := h.Hash("pw")
	require.NoError(t, err)
	second, err := h.Hash("pw")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "each hash is salted")

	assert.True(t, h.Verify("pw", first))
	assert.True(t, h.Verify("pw", second))
	assert.False(t, h.Verify("wrong", first))
	assert.False(t, h.Verify("pw", "not-a-bcrypt-hash"))
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("sha256")
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	h, err = NewPasswordHasher("")
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	h, err = NewPasswordHasher("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}
