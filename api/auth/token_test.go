package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndParseToken(t *testing.T) {
	tokens := NewTokens("secret", "microblog", time.Hour)

	token, err := tokens.CreateToken(42)
	require.NoError(t, err)

	uid, err := tokens.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
}

func TestParseTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	token, err := NewTokens("secret", "microblog", time.Hour).CreateToken(1)
	require.NoError(t, err)

	_, err = NewTokens("other", "microblog", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokens("secret", "someone-else", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tokens := NewTokens("secret", "microblog", time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    "microblog",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.ParseToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenID(t *testing.T) {
	tokens := NewTokens("secret", "microblog", time.Hour)
	token, err := tokens.CreateToken(7)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	_, err = tokens.ExtractTokenID(req)
	assert.ErrorIs(t, err, ErrInvalidToken)

	req.Header.Set("Authorization", "Bearer "+token)
	uid, err := tokens.ExtractTokenID(req)
	require.NoError(t, err)
	assert.Equal(t, uint(7), uid)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/feed?token="+token, nil)
	uid, err = tokens.ExtractTokenID(req)
	require.NoError(t, err)
	assert.Equal(t, uint(7), uid)
}
