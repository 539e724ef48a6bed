package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerify(t *testing.T) {
	tm, err := NewTokenManager("s3cret", 0)
	require.NoError(t, err)

	token, err := tm.Generate(42)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyExpired(t *testing.T) {
	tm, err := NewTokenManager("s3cret", time.Hour)
	require.NoError(t, err)

	issued := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return issued }

	token, err := tm.Generate(1)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, err := NewTokenManager("one", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager("two", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate(1)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNoneAlg(t *testing.T) {
	tm, err := NewTokenManager("s3cret", time.Hour)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
}
