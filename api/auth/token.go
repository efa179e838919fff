package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Tokens issues and verifies HS256 bearer tokens whose subject is the
// numeric user id.
type Tokens struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{Secret: []byte(secret), Issuer: issuer, TTL: ttl}
}

func (t *Tokens) CreateToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    t.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

// ParseToken validates signature, issuer and expiry and returns the user id.
func (t *Tokens) ParseToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || uid == 0 {
		return 0, ErrInvalidToken
	}
	return uint(uid), nil
}

// ExtractToken reads the token query parameter, falling back to a bearer
// Authorization header.
func ExtractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	bearer := r.Header.Get("Authorization")
	if strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(bearer, "Bearer "))
	}
	return ""
}

// ExtractTokenID returns the user id carried by the request's token.
func (t *Tokens) ExtractTokenID(r *http.Request) (uint, error) {
	token := ExtractToken(r)
	if token == "" {
		return 0, ErrInvalidToken
	}
	return t.ParseToken(token)
}
