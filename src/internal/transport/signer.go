// FILE: src/internal/transport/signer.go
package transport

import (
	"fmt"
	"time"

	"pulse/src/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 5 * time.Minute

// Signer issues short-lived HS256 bearer tokens for collector requests
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewSigner returns nil when no auth is configured
func NewSigner(cfg *config.AuthConfig) (*Signer, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("signing key is required")
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &Signer{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		ttl:    ttl,
	}, nil
}

// Token signs a token valid from now for the configured TTL
func (s *Signer) Token(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
