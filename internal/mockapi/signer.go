// ABOUTME: HS256 access token signing and verification for the mock backend
// ABOUTME: Tokens carry a generation claim so tests can revoke every issued token at once

package mockapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Signer issues and verifies HS256 signed access tokens
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer with the given secret
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Generate creates a token for userID valid for ttl
func (s *Signer) Generate(userID string, gen int64, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"gen": gen,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates the token and returns its subject and generation
func (s *Signer) Verify(tokenString string) (userID string, gen int64, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", 0, ErrExpiredToken
		}
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", 0, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", 0, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	// JSON numbers decode as float64
	rawGen, ok := claims["gen"].(float64)
	if !ok {
		return "", 0, fmt.Errorf("%w: gen", ErrMissingClaim)
	}

	return sub, int64(rawGen), nil
}
