package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound   = errors.New("file not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage is the flat document namespace. Keys are plain names; the only
// nested keys are staging keys created by the upload workflow.
type Storage interface {
	// Upload stores data under key, replacing any existing file
	Upload(ctx context.Context, key string, data io.Reader) error

	// Download opens the file stored under key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the file stored under key; a missing file is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether a file is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the top-level keys starting with prefix, in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Move renames a file, replacing the destination if it exists
	Move(ctx context.Context, from, to string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	S3Endpoint   string // For S3-compatible backends (MinIO etc.)
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// validateKey rejects keys that are empty, absolute, or climb out of the namespace
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return ErrInvalidKey
	}
	return nil
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
