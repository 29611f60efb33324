package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"userdocs-backend/models"
	"userdocs-backend/repository"
	"userdocs-backend/storage"
)

const stagingPrefix = "staging/"

// DocumentIndex looks up the stored name recorded for a user
type DocumentIndex interface {
	GetByUsername(ctx context.Context, username string) (*models.Document, error)
}

// DocumentService interprets the document namespace: naming, upload,
// lookup by owner, word counting and download resolution.
type DocumentService struct {
	storage storage.Storage
	index   DocumentIndex
	allowed map[string]struct{}
	logger  *zap.SugaredLogger
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithStorage sets the document namespace
func DocumentWithStorage(st storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.storage = st
	}
}

// DocumentWithIndex sets the username -> stored name index consulted before scanning
func DocumentWithIndex(index DocumentIndex) DocumentServiceOption {
	return func(s *DocumentService) {
		s.index = index
	}
}

// DocumentWithAllowedExtensions replaces the upload allow-list
func DocumentWithAllowedExtensions(exts ...string) DocumentServiceOption {
	return func(s *DocumentService) {
		s.allowed = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				s.allowed[ext] = struct{}{}
			}
		}
	}
}

// DocumentWithLogger sets the logger
func DocumentWithLogger(logger *zap.SugaredLogger) DocumentServiceOption {
	return func(s *DocumentService) {
		s.logger = logger
	}
}

// NewDocumentService creates a new document service. Only .txt uploads are
// accepted unless DocumentWithAllowedExtensions says otherwise.
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{
		allowed: map[string]struct{}{"txt": {}},
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsAllowedExtension reports whether filename has an extension on the allow-list
func (s *DocumentService) IsAllowedExtension(filename string) bool {
	ext, ok := extensionOf(filename)
	if !ok {
		return false
	}
	_, ok = s.allowed[ext]
	return ok
}

// AllowedExtensions returns the allow-list in sorted order
func (s *DocumentService) AllowedExtensions() []string {
	exts := make([]string, 0, len(s.allowed))
	for ext := range s.allowed {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ValidateUpload checks an upload for username and returns the name it will be stored under
func (s *DocumentService) ValidateUpload(username, originalFilename string) (string, error) {
	if !s.IsAllowedExtension(originalFilename) {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, originalFilename)
	}

	safeUser, safeName := SecureFilename(username), SecureFilename(originalFilename)
	if safeUser == "" || safeName == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, originalFilename)
	}
	// sanitizing may have eaten the extension
	if !s.IsAllowedExtension(safeName) {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, originalFilename)
	}

	return BuildStoredName(username, originalFilename), nil
}

// SaveUpload writes content under the stored name for username, silently
// replacing a file with the same stored name.
func (s *DocumentService) SaveUpload(ctx context.Context, username, originalFilename string, content io.Reader) (string, error) {
	if s.storage == nil {
		return "", errors.New("storage not set")
	}

	storedName, err := s.ValidateUpload(username, originalFilename)
	if err != nil {
		return "", err
	}

	if err := s.storage.Upload(ctx, storedName, content); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return storedName, nil
}

// Stage writes content under a fresh staging key that prefix scans and downloads never see
func (s *DocumentService) Stage(ctx context.Context, content io.Reader) (string, error) {
	if s.storage == nil {
		return "", errors.New("storage not set")
	}

	key := stagingPrefix + uuid.NewString()
	if err := s.storage.Upload(ctx, key, content); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return key, nil
}

// Commit moves a staged file to its stored name. A file already stored under
// that name is parked under a staging key, which is returned so Revert can
// put it back. The caller discards the parked key once the commit is final.
func (s *DocumentService) Commit(ctx context.Context, stagingKey, storedName string) (string, error) {
	exists, err := s.storage.Exists(ctx, storedName)
	if err != nil {
		return "", fmt.Errorf("commit upload: %w", err)
	}

	var parked string
	if exists {
		parked = stagingPrefix + uuid.NewString()
		if err := s.storage.Move(ctx, storedName, parked); err != nil {
			return "", fmt.Errorf("park previous document: %w", err)
		}
	}

	if err := s.storage.Move(ctx, stagingKey, storedName); err != nil {
		if parked != "" {
			s.restore(ctx, parked, storedName)
		}
		return "", fmt.Errorf("commit upload: %w", err)
	}
	return parked, nil
}

// Revert undoes a Commit: the committed file is removed and the parked
// previous file, if any, is moved back. Failures are logged, not returned.
func (s *DocumentService) Revert(ctx context.Context, storedName, parked string) {
	if parked == "" {
		s.Discard(ctx, storedName)
		return
	}
	s.restore(ctx, parked, storedName)
}

func (s *DocumentService) restore(ctx context.Context, parked, storedName string) {
	if err := s.storage.Move(ctx, parked, storedName); err != nil {
		s.logger.Errorw("failed to restore previous document", "stored_name", storedName, "parked", parked, "err", err)
	}
}

// Discard removes a staged file. Failures are logged, not returned.
func (s *DocumentService) Discard(ctx context.Context, stagingKey string) {
	if err := s.storage.Delete(ctx, stagingKey); err != nil {
		s.logger.Warnw("failed to discard staged upload", "key", stagingKey, "err", err)
	}
}

// FindAttachedFile returns the stored name of the document attached to username.
// The index is consulted first; otherwise the first stored name (in lexical
// order) carrying the owner's prefix wins.
func (s *DocumentService) FindAttachedFile(ctx context.Context, username string) (string, bool, error) {
	if s.storage == nil {
		return "", false, errors.New("storage not set")
	}

	if s.index != nil {
		doc, err := s.index.GetByUsername(ctx, username)
		switch {
		case err == nil:
			ok, err := s.storage.Exists(ctx, doc.StoredName)
			if err != nil {
				return "", false, fmt.Errorf("check indexed document: %w", err)
			}
			if ok {
				return doc.StoredName, true, nil
			}
			s.logger.Warnw("indexed document missing from storage", "username", username, "stored_name", doc.StoredName)
		case errors.Is(err, repository.ErrNotFound):
		default:
			return "", false, fmt.Errorf("lookup document index: %w", err)
		}
	}

	if SecureFilename(username) == "" {
		return "", false, nil
	}

	keys, err := s.storage.List(ctx, storedNamePrefix(username))
	if err != nil {
		return "", false, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return "", false, nil
	}
	if len(keys) > 1 {
		s.logger.Debugw("several documents share the owner prefix", "username", username, "count", len(keys), "chosen", keys[0])
	}
	return keys[0], true, nil
}

// CountWords returns the number of whitespace-delimited tokens in a stored document.
// Missing files and content that is not valid UTF-8 yield ErrReadFailed.
func (s *DocumentService) CountWords(ctx context.Context, storedName string) (int, error) {
	if s.storage == nil {
		return 0, errors.New("storage not set")
	}

	rc, err := s.storage.Download(ctx, storedName)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	if !utf8.Valid(content) {
		return 0, fmt.Errorf("%w: %s is not valid UTF-8", ErrReadFailed, storedName)
	}

	return len(strings.FieldsFunc(string(content), isWordSeparator)), nil
}

// isWordSeparator is unicode.IsSpace plus the ASCII information separators U+001C..U+001F
func isWordSeparator(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// ResolveDownloadPath sanitizes a caller-supplied name and returns the stored
// name only if such a file exists.
func (s *DocumentService) ResolveDownloadPath(ctx context.Context, requestedName string) (string, error) {
	if s.storage == nil {
		return "", errors.New("storage not set")
	}

	name := SecureFilename(requestedName)
	if name == "" {
		return "", ErrFileNotFound
	}

	ok, err := s.storage.Exists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("resolve download: %w", err)
	}
	if !ok {
		return "", ErrFileNotFound
	}
	return name, nil
}

// Open streams a resolved stored name
func (s *DocumentService) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	rc, err := s.storage.Download(ctx, storedName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return rc, nil
}
