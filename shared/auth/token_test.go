package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts int64) func() time.Time {
	return func() time.Time { return time.Unix(ts, 0) }
}

func TestTokenManager_IssueFormat(t *testing.T) {
	m := NewTokenManager("test-secret", WithClock(fixedClock(1700000000)))

	token, err := m.Issue(1)
	require.NoError(t, err)

	// hex({"user_id":1,"iat":1700000000}) . hex(HMAC-SHA256)
	assert.Equal(t,
		"7b22757365725f6964223a312c22696174223a313730303030303030307d."+
			"7c4b6c1f256c62e73bf1ce18eb8e9c4db81d8ded7a7626848f153cd08f02047c",
		token)

	body, err := hex.DecodeString(strings.Split(token, ".")[0])
	require.NoError(t, err)
	assert.Equal(t, `{"user_id":1,"iat":1700000000}`, string(body))
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret")
	rng := rand.New(rand.NewSource(1))

	ids := []int64{1, 2, 10_000, 1 << 40}
	for i := 0; i < 50; i++ {
		ids = append(ids, rng.Int63n(1_000_000)+1)
	}

	for _, id := range ids {
		token, err := m.Issue(id)
		require.NoError(t, err)

		claims, err := m.Verify(token)
		require.NoError(t, err, "id %d", id)
		assert.Equal(t, id, claims.UserID)
		assert.WithinDuration(t, time.Now(), claims.IssuedAt, 2*time.Second)
	}
}

func TestTokenManager_SignatureBitFlipsAreRejected(t *testing.T) {
	m := NewTokenManager("test-secret")
	token, err := m.Issue(99)
	require.NoError(t, err)

	payloadHex, sigHex, _ := strings.Cut(token, ".")
	sig, err := hex.DecodeString(sigHex)
	require.NoError(t, err)

	for bit := 0; bit < len(sig)*8; bit++ {
		mutated := make([]byte, len(sig))
		copy(mutated, sig)
		mutated[bit/8] ^= 1 << (bit % 8)

		_, err := m.Verify(payloadHex + "." + hex.EncodeToString(mutated))
		require.ErrorIs(t, err, ErrInvalidSignature, "bit %d", bit)
	}
}

func TestTokenManager_RejectsOtherSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Issue(5)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenManager_RejectsTamperedPayload(t *testing.T) {
	m := NewTokenManager("test-secret", WithClock(fixedClock(1700000000)))
	token, err := m.Issue(1)
	require.NoError(t, err)

	_, sigHex, _ := strings.Cut(token, ".")
	forged := hex.EncodeToString([]byte(`{"user_id":2,"iat":1700000000}`)) + "." + sigHex

	_, err = m.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenManager_Malformed(t *testing.T) {
	m := NewTokenManager("test-secret")
	valid, err := m.Issue(3)
	require.NoError(t, err)
	payloadHex, sigHex, _ := strings.Cut(valid, ".")

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "no separator", token: payloadHex + sigHex},
		{name: "empty payload", token: "." + sigHex},
		{name: "empty signature", token: payloadHex + "."},
		{name: "extra segment", token: valid + ".00"},
		{name: "payload not hex", token: "zz." + sigHex},
		{name: "signature not hex", token: payloadHex + ".zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestTokenManager_SignedGarbagePayloadIsMalformed(t *testing.T) {
	m := NewTokenManager("test-secret")
	body := []byte("not json")
	sig, err := hexSign(m, body)
	require.NoError(t, err)

	_, err = m.Verify(hex.EncodeToString(body) + "." + sig)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenManager_MaxAge(t *testing.T) {
	old := NewTokenManager("test-secret", WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	token, err := old.Issue(8)
	require.NoError(t, err)

	// Freshness is opt-in.
	claims, err := old.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(8), claims.UserID)

	_, err = old.Verify(token, MaxAge(time.Hour))
	assert.ErrorIs(t, err, ErrTokenTooOld)

	_, err = old.Verify(token, MaxAge(3*time.Hour))
	assert.NoError(t, err)
}

func hexSign(m *TokenManager, body []byte) (string, error) {
	mac := hmac.New(sha256.New, m.secret)
	if _, err := mac.Write(body); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}
