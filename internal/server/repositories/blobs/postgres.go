package blobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Blob, error) {
	query :=
		`SELECT user_id, iv, ciphertext, updated_at FROM blobs
		 WHERE user_id = $1
		 `

	b := &models.Blob{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&b.UserID, &b.IV, &b.Ciphertext, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Put(ctx context.Context, blob *models.Blob) (*models.Blob, error) {
	query :=
		`INSERT INTO blobs (user_id, iv, ciphertext, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id) DO UPDATE
		 SET iv = EXCLUDED.iv, ciphertext = EXCLUDED.ciphertext, updated_at = now()
		 RETURNING updated_at
		 `

	out := *blob
	if err := r.db.QueryRowContext(ctx, query, blob.UserID, blob.IV, blob.Ciphertext).Scan(&out.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}
