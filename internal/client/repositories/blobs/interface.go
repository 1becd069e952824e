// Package blobs is the local cache of each user's encrypted wallet blob.
package blobs

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
)

type Repository interface {
	// Get returns (nil, nil) when nothing is cached for userID.
	Get(ctx context.Context, userID string) (*models.StoredBlob, error)
	Put(ctx context.Context, userID string, blob models.StoredBlob) error
	Delete(ctx context.Context, userID string) error
}
