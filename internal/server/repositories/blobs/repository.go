// Package blobs stores the encrypted wallet blob of each account, either in
// PostgreSQL or in an S3-compatible object store.
package blobs

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
)

// Repository keeps one blob per user. The server never looks inside it.
type Repository interface {
	// Get returns the stored blob or common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.Blob, error)
	// Put replaces the user's blob and returns it with UpdatedAt filled in.
	Put(ctx context.Context, blob *models.Blob) (*models.Blob, error)
}
