package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", 10*time.Minute)

	token, expiresAt, err := m.GenerateAccessToken("5f0c2f0e-0000-4000-8000-000000000001", "reader@example.com", "customer")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 2*time.Second)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, claims.UserID, claims.Subject)
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, _, err := m.GenerateAccessToken("u1", "a@example.com", "customer")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Minute)
	verifier := NewManager("secret-b", time.Minute)

	token, _, err := issuer.GenerateAccessToken("u1", "a@example.com", "admin")
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	assert.ErrorIs(t, err, gojwt.ErrTokenSignatureInvalid)
}

func TestManager_RejectsNonAccessType(t *testing.T) {
	m := NewManager("test-secret", time.Minute)

	claims := Claims{
		UserID: "u1",
		Type:   "refresh",
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestManager_RejectsNoneAlgorithm(t *testing.T) {
	m := NewManager("test-secret", time.Minute)

	claims := Claims{UserID: "u1", Type: TokenTypeAccess}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(signed)
	assert.Error(t, err)
}
