// Package service implements the authentication use cases.
package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"fieldops_backend/internal/auth/repository"
	"fieldops_backend/internal/auth/token"
	"fieldops_backend/platform/apperr"
	"fieldops_backend/platform/logger"
)

const invalidCredentialsMessage = "invalid email or password"

// Service handles login and token issuance.
type Service struct {
	repo   repository.Repository
	tokens *token.Service
	log    *logger.Logger
}

// New creates a new auth service.
func New(repo repository.Repository, tokens *token.Service, log *logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, log: log}
}

// LoginResult is the successful login payload.
type LoginResult struct {
	AccessToken string
	UserID      string
	FullName    string
	Role        string
}

// Login verifies credentials and issues an access token. Lookup
// failures and bad passwords produce the same error so the endpoint
// does not leak which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	cred, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.AuthEvent("login", email, false, "unknown email")
			return LoginResult{}, apperr.Unauthorized(invalidCredentialsMessage)
		}
		return LoginResult{}, err
	}

	if !cred.IsActive {
		s.log.AuthEvent("login", email, false, "inactive account")
		return LoginResult{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", email, false, "bad password")
		return LoginResult{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	accessToken, err := s.tokens.GenerateAccessToken(cred.ID, cred.Role)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.repo.TouchLastLogin(ctx, cred.ID); err != nil {
		s.log.Warn("failed to record last login", "error", err.Error())
	}

	s.log.AuthEvent("login", email, true, "")
	return LoginResult{
		AccessToken: accessToken,
		UserID:      cred.ID.String(),
		FullName:    cred.FullName,
		Role:        cred.Role,
	}, nil
}
