package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	svc := NewJWTService([]byte("test-secret"), "shortClick")

	token, err := svc.SignToken("owner-1", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.Subject)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewJWTService([]byte("test-secret"), "shortClick")

	token, err := svc.SignToken("owner-1", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewJWTService([]byte("other-secret"), "shortClick")
	svc := NewJWTService([]byte("test-secret"), "shortClick")

	token, err := issuer.SignToken("owner-1", time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewJWTService([]byte("test-secret"), "shortClick")

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("abc"))
	assert.Equal(t, "", ExtractTokenFromBearer(""))
	assert.Equal(t, "", ExtractTokenFromBearer("Bearer "))
}
