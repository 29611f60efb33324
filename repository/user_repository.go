package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"userdocs-backend/dbx"
	"userdocs-backend/models"
)

const userColumns = `id, username, password, firstname, lastname, email, address`

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db dbx.DBTX
}

// NewUserRepository creates a new user repository bound to a pool or a transaction
func NewUserRepository(db dbx.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and fills in the store-assigned id.
// The UNIQUE constraint on username is the only uniqueness check.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := r.db.Rebind(`
		INSERT INTO users (username, password, firstname, lastname, email, address)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Password,
		user.Firstname,
		user.Lastname,
		user.Email,
		user.Address,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)
	return r.get(ctx, query, username)
}

// GetByCredentials retrieves a user whose username and stored password both match exactly
func (r *UserRepository) GetByCredentials(ctx context.Context, username, password string) (*models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ? AND password = ?`)
	return r.get(ctx, query, username, password)
}

func (r *UserRepository) get(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	if err := sqlx.GetContext(ctx, r.db, user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
