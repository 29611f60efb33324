package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"userdocs-backend/models"
	"userdocs-backend/repository"
)

// UserStore is the subset of the user repository the services read from
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByCredentials(ctx context.Context, username, password string) (*models.User, error)
}

// AuthService checks credentials
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	logger *zap.SugaredLogger
}

// AuthServiceOption is a functional option for AuthService
type AuthServiceOption func(*AuthService)

// AuthWithUserRepository sets the user store
func AuthWithUserRepository(users UserStore) AuthServiceOption {
	return func(s *AuthService) {
		s.users = users
	}
}

// AuthWithPasswordHasher sets the scheme stored passwords were written with
func AuthWithPasswordHasher(h PasswordHasher) AuthServiceOption {
	return func(s *AuthService) {
		s.hasher = h
	}
}

// AuthWithLogger sets the logger
func AuthWithLogger(logger *zap.SugaredLogger) AuthServiceOption {
	return func(s *AuthService) {
		s.logger = logger
	}
}

// NewAuthService creates a new auth service
func NewAuthService(opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		hasher: PlainHasher{},
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult represents a successful login
type LoginResult struct {
	User       *models.User
	RedirectTo string
}

// Login returns the account matching username and password.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s.users == nil {
		return nil, errors.New("user repository not set")
	}

	var (
		user *models.User
		err  error
	)
	if _, plain := s.hasher.(PlainHasher); plain {
		user, err = s.users.GetByCredentials(ctx, username, password)
	} else {
		user, err = s.users.GetByUsername(ctx, username)
		if err == nil && !s.hasher.Verify(user.Password, password) {
			err = repository.ErrNotFound
		}
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Infow("login rejected", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	return &LoginResult{User: user, RedirectTo: ProfilePath(user.Username)}, nil
}
