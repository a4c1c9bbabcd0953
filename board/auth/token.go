// board/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ftotnem/LIVEBOARD/shared/clock"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Verifier resolves a bearer token to the user ID it was issued for.
type Verifier interface {
	Verify(token string) (string, error)
}

// TokenIssuer signs and checks HS256 JWTs carrying the user ID as subject.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

func NewTokenIssuer(secret string, ttl time.Duration, clk clock.Clock) *TokenIssuer {
	if clk == nil {
		clk = clock.Real()
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clk.Now),
		),
	}
}

// Issue returns a token for userID that expires after the issuer's TTL.
func (ti *TokenIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("cannot issue token for empty user ID")
	}
	now := ti.clock.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	})
	signed, err := tok.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the subject.
func (ti *TokenIssuer) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := ti.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredToken
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case claims.Subject == "":
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
