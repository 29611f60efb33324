package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"userdocs-backend/dbx"
	"userdocs-backend/models"
	"userdocs-backend/repository"
)

// RegistrationService creates accounts together with their optional document
type RegistrationService struct {
	db        *sqlx.DB
	documents *DocumentService
	hasher    PasswordHasher
	logger    *zap.SugaredLogger
}

// RegistrationServiceOption is a functional option for RegistrationService
type RegistrationServiceOption func(*RegistrationService)

// RegistrationWithDatabase sets the database pool
func RegistrationWithDatabase(db *sqlx.DB) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.db = db
	}
}

// RegistrationWithDocumentService sets the document service
func RegistrationWithDocumentService(docs *DocumentService) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.documents = docs
	}
}

// RegistrationWithPasswordHasher sets how passwords are stored
func RegistrationWithPasswordHasher(h PasswordHasher) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.hasher = h
	}
}

// RegistrationWithLogger sets the logger
func RegistrationWithLogger(logger *zap.SugaredLogger) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.logger = logger
	}
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(opts ...RegistrationServiceOption) *RegistrationService {
	s := &RegistrationService{
		hasher: PlainHasher{},
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload is a file submitted with a registration
type Upload struct {
	Filename string
	Content  io.Reader
}

// RegisterRequest represents a request to register an account
type RegisterRequest struct {
	Username  string
	Password  string
	Firstname string
	Lastname  string
	Email     string
	Address   *string
	Upload    *Upload
}

func (r RegisterRequest) validate() error {
	required := []struct{ name, value string }{
		{"username", r.Username},
		{"password", r.Password},
		{"firstname", r.Firstname},
		{"lastname", r.Lastname},
		{"email", r.Email},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}

// RegisterResult represents the result of a registration
type RegisterResult struct {
	User           *models.User
	Document       *models.Document // nil when no file was attached
	UploadRejected bool             // a file was sent but not accepted
	RedirectTo     string
}

// Register creates the account and attaches the uploaded document, if any.
//
// The upload is staged first. The user insert, the document index entry and
// the move of the staged file to its stored name happen inside one
// transaction; if any of them fails, the transaction is rolled back and the
// staged file is removed, so a rejected registration leaves no file behind.
// A file with a disallowed extension is skipped and registration continues.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if s.db == nil {
		return nil, errors.New("database not set")
	}
	if s.documents == nil {
		return nil, errors.New("document service not set")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	result := &RegisterResult{}

	var stagingKey, storedName string
	if req.Upload != nil && req.Upload.Filename != "" {
		name, err := s.documents.ValidateUpload(req.Username, req.Upload.Filename)
		if err != nil {
			s.logger.Infow("upload not accepted", "username", req.Username, "filename", req.Upload.Filename, "err", err)
			result.UploadRejected = true
		} else {
			key, err := s.documents.Stage(ctx, req.Upload.Content)
			if err != nil {
				return nil, err
			}
			stagingKey, storedName = key, name
		}
	}

	password, err := s.hasher.Hash(req.Password)
	if err != nil {
		if stagingKey != "" {
			s.documents.Discard(ctx, stagingKey)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:  req.Username,
		Password:  password,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Address:   req.Address,
	}

	var (
		committed bool
		parked    string
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		if stagingKey == "" {
			return nil
		}

		doc := &models.Document{OwnerUsername: user.Username, StoredName: storedName}
		if err := repository.NewDocumentRepository(tx).Upsert(ctx, doc); err != nil {
			return err
		}
		prev, err := s.documents.Commit(ctx, stagingKey, storedName)
		if err != nil {
			return err
		}
		committed, parked = true, prev
		result.Document = doc
		return nil
	})
	if err != nil {
		switch {
		case committed:
			// the transaction failed after the file was moved into place
			s.documents.Revert(ctx, storedName, parked)
		case stagingKey != "":
			s.documents.Discard(ctx, stagingKey)
		}
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	if parked != "" {
		s.documents.Discard(ctx, parked)
	}

	s.logger.Infow("user registered", "username", user.Username, "id", user.ID, "document", storedName)

	result.User = user
	result.RedirectTo = ProfilePath(user.Username)
	return result, nil
}
