package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"userdocs-backend/database"
	"userdocs-backend/repository"
	"userdocs-backend/storage"
)

type testEnv struct {
	db      *sqlx.DB
	dir     string
	store   *storage.LocalStorage
	users   *repository.UserRepository
	docs    *DocumentService
	reg     *RegistrationService
	auth    *AuthService
	profile *ProfileService
}

func newTestEnv(t *testing.T, hasher PasswordHasher) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "service.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitSchema(ctx, db, nil))

	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	docs := NewDocumentService(
		DocumentWithStorage(store),
		DocumentWithIndex(repository.NewDocumentRepository(db)),
	)

	return &testEnv{
		db:    db,
		dir:   dir,
		store: store,
		users: users,
		docs:  docs,
		reg: NewRegistrationService(
			RegistrationWithDatabase(db),
			RegistrationWithDocumentService(docs),
			RegistrationWithPasswordHasher(hasher),
		),
		auth: NewAuthService(
			AuthWithUserRepository(users),
			AuthWithPasswordHasher(hasher),
		),
		profile: NewProfileService(
			ProfileWithUserRepository(users),
			ProfileWithDocumentService(docs),
		),
	}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, name), []byte(content), 0o644))
}

// files lists every regular file under the storage root, staging included
func (e *testEnv) files(t *testing.T) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(e.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(e.dir, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func registerReq(username, password string, upload *Upload) RegisterRequest {
	return RegisterRequest{
		Username:  username,
		Password:  password,
		Firstname: strings.ToUpper(username[:1]) + username[1:],
		Lastname:  "Tester",
		Email:     username + "@example.com",
		Upload:    upload,
	}
}

func textUpload(name, content string) *Upload {
	return &Upload{Filename: name, Content: strings.NewReader(content)}
}
