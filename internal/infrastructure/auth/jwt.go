// Package auth verifies the bearer tokens issued by the identity provider.
// A token only names the user; everything else about the caller is read
// from the user directory on each request.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("token names no user")
	ErrInvalidSubject   = errors.New("token subject is not a user id")
)

var hmacMethods = []string{"HS256", "HS384", "HS512"}

// Claims is the token payload. The user id travels in sub; older tokens
// carry it in user_id instead.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

func (c *Claims) subject() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// TokenVerifier checks HMAC-signed tokens against the shared secret and,
// when configured, the issuer.
type TokenVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

func NewTokenVerifier(cfg config.JWTConfig) *TokenVerifier {
	opts := []jwt.ParserOption{jwt.WithValidMethods(hmacMethods), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &TokenVerifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.AccessTokenExpiration,
		parser: jwt.NewParser(opts...),
	}
}

// Verify returns the user a valid token names
func (v *TokenVerifier) Verify(token string) (uuid.UUID, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return uuid.Nil, ErrTokenNotYetValid
	case err != nil:
		return uuid.Nil, ErrInvalidToken
	}

	sub := claims.subject()
	if sub == "" {
		return uuid.Nil, ErrMissingSubject
	}
	id, err := uuid.Parse(sub)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidSubject
	}
	return id, nil
}

// Issue signs a token for userID that expires after the configured TTL.
// Real tokens come from the identity provider; this serves the dev CLI and
// tests.
func (v *TokenVerifier) Issue(userID uuid.UUID, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(v.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    v.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
