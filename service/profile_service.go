package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"userdocs-backend/models"
	"userdocs-backend/repository"
)

// ProfileService assembles the profile page of a user
type ProfileService struct {
	users     UserStore
	documents *DocumentService
	logger    *zap.SugaredLogger
}

// ProfileServiceOption is a functional option for ProfileService
type ProfileServiceOption func(*ProfileService)

// ProfileWithUserRepository sets the user store
func ProfileWithUserRepository(users UserStore) ProfileServiceOption {
	return func(s *ProfileService) {
		s.users = users
	}
}

// ProfileWithDocumentService sets the document service
func ProfileWithDocumentService(docs *DocumentService) ProfileServiceOption {
	return func(s *ProfileService) {
		s.documents = docs
	}
}

// ProfileWithLogger sets the logger
func ProfileWithLogger(logger *zap.SugaredLogger) ProfileServiceOption {
	return func(s *ProfileService) {
		s.logger = logger
	}
}

// NewProfileService creates a new profile service
func NewProfileService(opts ...ProfileServiceOption) *ProfileService {
	s := &ProfileService{
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildProfile returns the user's record, the name of the attached document
// and its word count. Without a document the count is zero and the name nil.
func (s *ProfileService) BuildProfile(ctx context.Context, username string) (*models.ProfileView, error) {
	if s.users == nil {
		return nil, errors.New("user repository not set")
	}
	if s.documents == nil {
		return nil, errors.New("document service not set")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	view := models.NewProfileView(user)

	name, ok, err := s.documents.FindAttachedFile(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return view, nil
	}

	count, err := s.documents.CountWords(ctx, name)
	if err != nil {
		s.logger.Errorw("failed to count words", "username", username, "stored_name", name, "err", err)
		return nil, err
	}

	view.FileName = &name
	view.WordCount = count
	return view, nil
}
