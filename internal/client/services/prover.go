package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
)

var ErrNoLocalData = errors.New("no local data to verify against")

// CacheProver proves a key by decrypting the user's cached blob. It is used
// by the session controller for offline login.
type CacheProver struct {
	cache  BlobCache
	engine *cryptox.Engine
}

func NewCacheProver(cache BlobCache, engine *cryptox.Engine) *CacheProver {
	return &CacheProver{cache: cache, engine: engine}
}

func (p *CacheProver) ProveKey(ctx context.Context, userID string, key cryptox.Key) error {
	blob, err := p.cache.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("read local cache: %w", err)
	}
	if blob == nil {
		return ErrNoLocalData
	}

	var data models.UserData
	return p.engine.DecryptPayload(blob.EncryptedPayload, key, &data)
}
