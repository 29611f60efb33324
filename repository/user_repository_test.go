package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userdocs-backend/database"
	"userdocs-backend/models"
)

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "repo.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitSchema(ctx, db, nil))
	return db
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^\s*INSERT\s+INTO\s+users\s*\(username,\s*password,\s*firstname,\s*lastname,\s*email,\s*address\)\s*VALUES\s*\(\?,\s*\?,\s*\?,\s*\?,\s*\?,\s*\?\)\s*RETURNING\s+id\s*$`
	mock.ExpectQuery(q).
		WithArgs("alice", "pw", "Alice", "Smith", "alice@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	u := &models.User{Username: "alice", Password: "pw", Firstname: "Alice", Lastname: "Smith", Email: "alice@example.com"}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.NotErrorIs(t, err, ErrDuplicateUsername)
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+username\s*=\s*\?$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByCredentials_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "username", "password", "firstname", "lastname", "email", "address"}).
		AddRow(int64(1), "alice", "pw", "Alice", "Smith", "alice@example.com", nil)
	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+users\s+WHERE\s+username\s*=\s*\?\s+AND\s+password\s*=\s*\?$`).
		WithArgs("alice", "pw").
		WillReturnRows(rows)

	got, err := repo.GetByCredentials(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Nil(t, got.Address)
}

func TestUserRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice, err := repo.Create(ctx, &models.User{
		Username: "alice", Password: "pw", Firstname: "Alice", Lastname: "Smith",
		Email: "alice@example.com", Address: strPtr("1 Main St"),
	})
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)

	bob, err := repo.Create(ctx, &models.User{Username: "bob", Password: "pw123", Firstname: "Bob", Lastname: "B", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, alice.ID, bob.ID)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	require.NotNil(t, got.Address)
	assert.Equal(t, "1 Main St", *got.Address)

	_, err = repo.GetByCredentials(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = repo.GetByCredentials(ctx, "bob", "pw123")
	require.NoError(t, err)
	assert.Nil(t, got.Address)

	_, err = repo.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_SQLiteDuplicate(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := func() *models.User {
		return &models.User{Username: "bob", Password: "pw", Firstname: "B", Lastname: "B", Email: "b@x"}
	}

	_, err := repo.Create(ctx, u())
	require.NoError(t, err)
	_, err = repo.Create(ctx, u())
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	var n int
	require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE username = 'bob'`))
	assert.Equal(t, 1, n)
}

func TestUserRepository_ConcurrentDuplicate(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, &models.User{Username: "race", Password: "pw", Firstname: "R", Lastname: "R", Email: "r@x"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	}
	assert.Equal(t, 1, ok)
}
