package users

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID. A duplicate email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// UpdateMetadata merges patch into the stored metadata and returns the result.
	UpdateMetadata(ctx context.Context, id string, patch map[string]string) (map[string]string, error)
}
