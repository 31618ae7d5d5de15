// Package token issues and verifies JWT access tokens.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fieldops_backend/platform/config"
)

// Service signs and verifies access tokens carrying {sub, role}.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// New creates a token service from the JWT configuration.
func New(cfg config.AuthServiceConfig) *Service {
	return &Service{
		secret: []byte(cfg.GetJWTAccessSecret()),
		ttl:    cfg.GetAccessTokenTTL(),
	}
}

// GenerateAccessToken issues a signed token for the user.
func (s *Service) GenerateAccessToken(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken parses and validates a token string.
func (s *Service) VerifyAccessToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
}
