package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens so one can never
// be presented in place of the other.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	ErrEmptySecret    = errors.New("jwt secret must not be empty")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims holds the JWT payload fields. The subject is the user uid.
type Claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// UserUID returns the subject claim.
func (c *Claims) UserUID() string { return c.Subject }

// Provider signs and verifies HS256 JWTs with one static secret.
type Provider struct {
	secret []byte
	now    func() time.Time
}

func NewProvider(secret string) (*Provider, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Provider{secret: []byte(secret), now: time.Now}, nil
}

// Sign mints a token for userUID that expires ttl from now. Every token
// carries a random jti so two tokens minted in the same second differ.
func (p *Provider) Sign(userUID string, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(ttl).Truncate(time.Second)
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// Verify parses tokenStr, checks signature and expiry, and requires the given type.
func (p *Provider) Verify(tokenStr string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
