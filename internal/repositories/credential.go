package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteCredentialRepository implements [CredentialStore] on the profile database.
//
// Requires the credentials table created by the embedded migrations.
type SQLiteCredentialRepository struct {
	db *sql.DB
}

// NewSQLiteCredentialRepository creates a new [SQLiteCredentialRepository] with the given database connection
func NewSQLiteCredentialRepository(db *sql.DB) *SQLiteCredentialRepository {
	return &SQLiteCredentialRepository{db: db}
}

func (r *SQLiteCredentialRepository) Name() string { return "sqlite" }

// Save inserts or replaces the value stored under key
func (r *SQLiteCredentialRepository) Save(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO credentials (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, key, value, now, now); err != nil {
		return storageError("save", r.Name(), err)
	}

	return nil
}

// Load retrieves the value stored under key
func (r *SQLiteCredentialRepository) Load(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageError("load", r.Name(), err)
	}

	return value, true, nil
}

// Delete removes the value stored under key
func (r *SQLiteCredentialRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE key = ?", key); err != nil {
		return storageError("delete", r.Name(), err)
	}
	return nil
}
