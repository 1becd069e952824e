package session

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
)

// Authenticator is the remote auth contract.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)
	UpdateMetadata(ctx context.Context, userID string, metadata map[string]string) (map[string]string, error)
	SignOut(ctx context.Context) error

	// RefreshToken returns the refresh token of the live remote session, or
	// "" when there is none.
	RefreshToken() string
	// Resume opens a remote session from a refresh token stored by an
	// earlier process.
	Resume(ctx context.Context, refreshToken string) error
	// OnTokenRotated registers fn to run whenever the client replaces the
	// refresh token on its own.
	OnTokenRotated(fn func(refreshToken string))
}

// KeyStore is the local key/value store the session record lives in.
// Get returns (nil, nil) for an absent key.
type KeyStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Verifier performs the secondary (device) verification gesture. It only
// gates the Locked to Unlocked transition; it protects no key material.
type Verifier interface {
	Verify(ctx context.Context, reason string) (bool, error)
}

// KeyProver checks a candidate key against data the user encrypted earlier.
// It returns nil when the key decrypts that data.
type KeyProver interface {
	ProveKey(ctx context.Context, userID string, key cryptox.Key) error
}

// Clock returns the current time.
type Clock func() time.Time

// Local store keys.
const (
	KeySessionKey     = "session.key"
	KeySessionProfile = "session.profile"
	KeySessionExpiry  = "session.expiry"
	// KeySessionRemote is the remote refresh token, part of the session
	// record.
	KeySessionRemote = "session.remote"
	KeyPrefBiometric = "pref.biometric"
	// KeyAccountProfile mirrors the last signed-in profile. It survives
	// Logout so an offline login can find the salt.
	KeyAccountProfile = "account.profile"
)
