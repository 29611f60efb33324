package service

import (
	"errors"

	"userdocs-backend/repository"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrDuplicateUsername   = repository.ErrDuplicateUsername
	ErrMissingField        = errors.New("missing required field")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrInvalidFilename     = errors.New("invalid filename")
	ErrReadFailed          = errors.New("failed to read document")
	ErrFileNotFound        = errors.New("file not found")
)
