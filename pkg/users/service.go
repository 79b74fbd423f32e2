// Package users registers accounts and issues their tokens.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levrixhq/levrix/pkg/auth"
	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/metrics"
	"github.com/levrixhq/levrix/pkg/models"
)

// Welcomer greets new accounts
type Welcomer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// Service handles accounts and sessions
type Service struct {
	repo       *Repository
	blacklist  *auth.TokenBlacklist
	welcomer   Welcomer
	secret     string
	expiration int
	log        logger.Logger
}

// NewService creates an account service. blacklist and welcomer may be nil.
func NewService(repo *Repository, blacklist *auth.TokenBlacklist, welcomer Welcomer, secret string, expirationHours int, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if expirationHours <= 0 {
		expirationHours = 24
	}
	return &Service{
		repo:       repo,
		blacklist:  blacklist,
		welcomer:   welcomer,
		secret:     secret,
		expiration: expirationHours,
		log:        log,
	}
}

// Register creates an account and logs it in
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	now := time.Now().UTC()
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u, strings.TrimSpace(req.CompanyName)); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, domain.NewConflictError("User with this email already exists")
		}
		return nil, err
	}

	metrics.RecordUserRegistered()
	s.log.Info("user registered", "user_id", u.ID)

	if s.welcomer != nil {
		go func(email, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.welcomer.SendWelcomeEmail(ctx, email, name); err != nil {
				s.log.Warn("welcome email failed", "user_id", u.ID, "error", err)
			}
		}(u.Email, u.FullName)
	}

	return s.issue(u)
}

// Login checks credentials and issues a token
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, ErrUserNotFound) {
		metrics.RecordLoginAttempt(false)
		return nil, domain.NewUnauthorizedError()
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		metrics.RecordLoginAttempt(false)
		return nil, domain.NewUnauthorizedError()
	}

	metrics.RecordLoginAttempt(true)
	return s.issue(u)
}

// Logout revokes a token for the rest of its lifetime
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.blacklist == nil {
		return nil
	}
	claims, err := auth.ValidateJWT(token, s.secret)
	if err != nil {
		return domain.NewUnauthorizedError()
	}
	if err := s.blacklist.Add(ctx, token, claims.Remaining(time.Now())); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Get returns an account by id
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, domain.NewNotFoundError("user")
	}
	return u, err
}

// Email returns the login email of an account
func (s *Service) Email(ctx context.Context, id string) (string, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// ByEmail returns an account by login email
func (s *Service) ByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrUserNotFound) {
		return nil, domain.NewNotFoundError("user")
	}
	return u, err
}

func (s *Service) issue(u *User) (*models.AuthResponse, error) {
	token, err := auth.GenerateJWT(u.ID, u.Email, s.secret, s.expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(time.Duration(s.expiration) * time.Hour),
		User: &models.UserInfo{
			ID:       u.ID,
			Email:    u.Email,
			FullName: u.FullName,
		},
	}, nil
}
