package models

import (
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
)

// StoredBlob is an encrypted wallet together with the time it was written,
// as kept by the local cache and the remote store.
type StoredBlob struct {
	cryptox.EncryptedPayload
	UpdatedAt time.Time
}
