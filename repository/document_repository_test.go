package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userdocs-backend/models"
)

func TestDocumentRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	users := NewUserRepository(db)
	docs := NewDocumentRepository(db)
	ctx := context.Background()

	_, err := users.Create(ctx, &models.User{Username: "alice", Password: "pw", Firstname: "A", Lastname: "S", Email: "a@x"})
	require.NoError(t, err)

	_, err = docs.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, docs.Upsert(ctx, &models.Document{OwnerUsername: "alice", StoredName: "alice_a.txt"}))
	require.NoError(t, docs.Upsert(ctx, &models.Document{OwnerUsername: "alice", StoredName: "alice_b.txt"}))

	got, err := docs.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice_b.txt", got.StoredName)
}

func TestDocumentRepository_RequiresUser(t *testing.T) {
	db := newSQLiteDB(t)
	docs := NewDocumentRepository(db)

	err := docs.Upsert(context.Background(), &models.Document{OwnerUsername: "nobody", StoredName: "nobody_x.txt"})
	assert.Error(t, err)
}
