package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/codec"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
)

// gcmTagSize is the minimum ciphertext length: an empty plaintext still
// carries the 16-byte authentication tag.
const gcmTagSize = 16

// BlobService stores the opaque encrypted wallet of each account. It only
// checks that IV and ciphertext are well-formed Base64 of plausible size.
type BlobService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewBlobService(db *sql.DB, m repomanager.RepositoryManager) *BlobService {
	return &BlobService{db: db, repomanager: m}
}

// Get returns the user's blob, or nil when none has been stored yet.
func (s *BlobService) Get(ctx context.Context, userID string) (*models.Blob, error) {
	b, err := s.repomanager.Blobs(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (s *BlobService) Put(ctx context.Context, userID, iv, ciphertext string) (*models.Blob, error) {
	if err := validatePayload(iv, ciphertext); err != nil {
		return nil, err
	}
	return s.repomanager.Blobs(s.db).Put(ctx, &models.Blob{UserID: userID, IV: iv, Ciphertext: ciphertext})
}

func validatePayload(iv, ciphertext string) error {
	rawIV, err := codec.Base64ToBytes(iv)
	if err != nil || len(rawIV) != cryptox.IVSize {
		return fmt.Errorf("%w: iv must be %d bytes of base64", common.ErrorValidation, cryptox.IVSize)
	}
	rawCT, err := codec.Base64ToBytes(ciphertext)
	if err != nil || len(rawCT) < gcmTagSize {
		return fmt.Errorf("%w: malformed ciphertext", common.ErrorValidation)
	}
	return nil
}
