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

// DocumentRepository keeps the username -> stored name index
type DocumentRepository struct {
	db dbx.DBTX
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db dbx.DBTX) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Upsert records the stored name of a user's document, replacing any previous one
func (r *DocumentRepository) Upsert(ctx context.Context, doc *models.Document) error {
	query := r.db.Rebind(`
		INSERT INTO documents (username, stored_name)
		VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET stored_name = excluded.stored_name`)

	if _, err := r.db.ExecContext(ctx, query, doc.OwnerUsername, doc.StoredName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByUsername returns the indexed document of a user
func (r *DocumentRepository) GetByUsername(ctx context.Context, username string) (*models.Document, error) {
	query := r.db.Rebind(`SELECT username, stored_name FROM documents WHERE username = ?`)

	doc := &models.Document{}
	if err := sqlx.GetContext(ctx, r.db, doc, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}
