package services

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
)

// Session is the part of the session controller the wallet needs.
type Session interface {
	State() session.State
	Profile() (models.UserProfile, bool)
	Key() (cryptox.Key, error)
}

// BlobStore is the sync coordinator seen from the wallet.
type BlobStore interface {
	Load(ctx context.Context, userID string) (*cryptox.EncryptedPayload, error)
	Save(ctx context.Context, userID string, p cryptox.EncryptedPayload) error
	Sync(ctx context.Context, userID string) error
	Lock(ctx context.Context, userID string) (func(), error)
}

// GuestStore keeps the plaintext wallet used while nobody is signed in.
type GuestStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// BlobCache is the local encrypted blob cache read by CacheProver.
type BlobCache interface {
	Get(ctx context.Context, userID string) (*models.StoredBlob, error)
}

// KeyGuestData is the local key of the guest wallet.
const KeyGuestData = "guest.data"

// guestScope is the lock scope of the guest wallet.
const guestScope = "guest"
