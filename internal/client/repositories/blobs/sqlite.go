package blobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, userID string) (*models.StoredBlob, error) {
	var (
		p         cryptox.EncryptedPayload
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT iv, ciphertext, updated_at FROM blobs WHERE user_id = ?`, userID,
	).Scan(&p.IV, &p.Ciphertext, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob[%s]: %w", userID, err)
	}
	return &models.StoredBlob{EncryptedPayload: p, UpdatedAt: updatedAt.UTC()}, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, userID string, blob models.StoredBlob) error {
	if blob.UpdatedAt.IsZero() {
		blob.UpdatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blobs (user_id, iv, ciphertext, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			iv = excluded.iv,
			ciphertext = excluded.ciphertext,
			updated_at = excluded.updated_at
	`, userID, blob.IV, blob.Ciphertext, blob.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to put blob[%s]: %w", userID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete blob[%s]: %w", userID, err)
	}
	return nil
}
