package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

type State int

const (
	LoggedOut State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "logged out"
	}
}

// Controller is safe for concurrent use. Operations that change state are
// serialized.
type Controller struct {
	auth     Authenticator
	store    KeyStore
	keys     *cryptox.KeyManager
	verifier Verifier
	prover   KeyProver
	now      Clock
	opts     Options
	logger   logging.Logger

	mu          sync.RWMutex
	state       State
	enclave     *memguard.Enclave
	extractable bool
	profile     *models.UserProfile
	// pending holds the password of an offline login until the remote
	// session is established on reconnect.
	pending *memguard.Enclave

	// keepRemote gates storing refresh tokens rotated by the auth client.
	keepRemote atomic.Bool
}

func NewController(auth Authenticator, store KeyStore, keys *cryptox.KeyManager, opts Options, l logging.Logger, extra ...Option) *Controller {
	c := &Controller{
		auth:   auth,
		store:  store,
		keys:   keys,
		now:    time.Now,
		opts:   opts,
		logger: l.With("module", "session"),
	}
	for _, o := range extra {
		o(c)
	}
	auth.OnTokenRotated(c.rememberRemote)
	return c
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Profile returns the signed-in profile while Unlocked.
func (c *Controller) Profile() (models.UserProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != Unlocked || c.profile == nil {
		return models.UserProfile{}, false
	}
	return *c.profile, true
}

// Key returns a copy of the session key. Callers should Wipe it when done.
func (c *Controller) Key() (cryptox.Key, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyLocked()
}

func (c *Controller) keyLocked() (cryptox.Key, error) {
	switch c.state {
	case Locked:
		return cryptox.Key{}, ErrLocked
	case LoggedOut:
		return cryptox.Key{}, ErrNotUnlocked
	}

	buf, err := c.enclave.Open()
	if err != nil {
		return cryptox.Key{}, fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()

	return cryptox.NewKey(buf.Bytes(), c.extractable)
}

// Register creates the account with a fresh salt and signs in.
func (c *Controller) Register(ctx context.Context, email, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	email = common.NormalizeEmail(email)

	salt, err := c.keys.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	sess, err := c.auth.SignUp(ctx, email, password, map[string]string{common.SaltMetadataKey: salt})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if s := sess.Metadata[common.SaltMetadataKey]; s != "" {
		salt = s
	}

	c.logger.Info(ctx, "registered", "user_id", sess.UserID)
	return c.establish(ctx, models.UserProfile{ID: sess.UserID, Username: email, Salt: salt}, password)
}

// Login signs in remotely and derives the session key. If the remote is
// unreachable it tries an offline login against the local data.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	email = common.NormalizeEmail(email)

	sess, err := c.auth.SignIn(ctx, email, password)
	if errors.Is(err, client.ErrUnavailable) {
		return c.offlineLogin(ctx, email, password, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}

	salt := sess.Metadata[common.SaltMetadataKey]
	if salt == "" {
		// Account created without a salt (or by another client): make one
		// now and store it before anything is encrypted under it.
		if salt, err = c.keys.GenerateSalt(); err != nil {
			return fmt.Errorf("generate salt: %w", err)
		}
		md, err := c.auth.UpdateMetadata(ctx, sess.UserID, map[string]string{common.SaltMetadataKey: salt})
		if err != nil {
			return fmt.Errorf("%w: store salt: %w", ErrAuth, err)
		}
		if s := md[common.SaltMetadataKey]; s != "" {
			salt = s
		}
	}

	c.logger.Info(ctx, "signed in", "user_id", sess.UserID)
	return c.establish(ctx, models.UserProfile{ID: sess.UserID, Username: email, Salt: salt}, password)
}

func (c *Controller) offlineLogin(ctx context.Context, email, password string, cause error) error {
	if c.prover == nil {
		return fmt.Errorf("%w: %w", ErrAuth, cause)
	}

	profile, err := c.accountProfile(ctx)
	if err != nil || profile == nil || common.NormalizeEmail(profile.Username) != email {
		return fmt.Errorf("%w: %w", ErrAuth, cause)
	}

	key, err := c.keys.DeriveKey([]byte(password), profile.Salt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	defer key.Wipe()

	if err := c.prover.ProveKey(ctx, profile.ID, key); err != nil {
		return fmt.Errorf("%w: offline: %w", ErrAuth, err)
	}

	if err := c.unlockWith(ctx, *profile, key); err != nil {
		return err
	}
	c.pending = memguard.NewEnclave([]byte(password))

	c.logger.Info(ctx, "signed in offline", "user_id", profile.ID)
	return nil
}

func (c *Controller) establish(ctx context.Context, profile models.UserProfile, password string) error {
	key, err := c.keys.DeriveKey([]byte(password), profile.Salt)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer key.Wipe()

	b, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, KeyAccountProfile, b); err != nil {
		return fmt.Errorf("mirror profile: %w", err)
	}

	return c.unlockWith(ctx, profile, key)
}

// unlockWith loads key into memory and persists the session record. On a
// persistence failure the controller is left LoggedOut.
func (c *Controller) unlockWith(ctx context.Context, profile models.UserProfile, key cryptox.Key) error {
	c.setUnlocked(profile, key)

	if err := c.persistLocked(ctx, key, profile, false); err != nil {
		c.clearMemory()
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// RestoreSession picks up a persisted session on cold start. It reports
// whether the session is now Unlocked. An expired record is removed. With
// secondary verification enabled and skipSecondaryCheck false the
// controller stops at Locked. Any other failure clears the session and is
// returned alongside false.
func (c *Controller) RestoreSession(ctx context.Context, skipSecondaryCheck bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restoreLocked(ctx, skipSecondaryCheck)
}

func (c *Controller) restoreLocked(ctx context.Context, skipSecondaryCheck bool) (bool, error) {
	if !c.opts.AllowPersistedKey {
		c.clearMemory()
		return false, c.deleteRecord(ctx)
	}

	ok, err := c.tryRestore(ctx, skipSecondaryCheck)
	if err != nil {
		c.logger.Warn(ctx, "session restore failed, clearing", "error", err)
		c.clearMemory()
		if derr := c.deleteRecord(ctx); derr != nil {
			err = errors.Join(err, derr)
		}
		return false, err
	}
	return ok, nil
}

func (c *Controller) tryRestore(ctx context.Context, skipSecondaryCheck bool) (bool, error) {
	expiry, found, err := c.storedExpiry(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		c.clearMemory()
		return false, nil
	}
	if !c.now().Before(expiry) {
		c.logger.Info(ctx, "persisted session expired", "expired_at", expiry)
		c.clearMemory()
		return false, c.deleteRecord(ctx)
	}

	gated, err := c.secondaryEnabled(ctx)
	if err != nil {
		return false, err
	}
	if gated && !skipSecondaryCheck {
		c.clearMemory()
		c.state = Locked
		return false, nil
	}

	rawKey, err := c.store.Get(ctx, KeySessionKey)
	if err != nil {
		return false, fmt.Errorf("read session key: %w", err)
	}
	if rawKey == nil {
		return false, errors.New("session key missing")
	}
	key, err := c.keys.ImportKey(string(rawKey))
	if err != nil {
		return false, err
	}
	defer key.Wipe()

	rawProfile, err := c.store.Get(ctx, KeySessionProfile)
	if err != nil {
		return false, fmt.Errorf("read session profile: %w", err)
	}
	var profile models.UserProfile
	if err := json.Unmarshal(rawProfile, &profile); err != nil || profile.ID == "" {
		return false, errors.New("session profile: invalid record")
	}

	next, err := c.nextExpiry(ctx, false)
	if err != nil {
		return false, err
	}
	if err := c.store.Set(ctx, KeySessionExpiry, formatExpiry(next)); err != nil {
		return false, fmt.Errorf("extend expiry: %w", err)
	}

	c.setUnlocked(profile, key)
	if err := c.resumeRemote(ctx); err != nil {
		c.logger.Warn(ctx, "remote session not resumed", "error", err)
	}
	return true, nil
}

// resumeRemote exchanges the stored refresh token for a live remote
// session. A token the server rejects is dropped; an unreachable server
// leaves it for Reconnect.
func (c *Controller) resumeRemote(ctx context.Context) error {
	if c.auth.RefreshToken() != "" {
		return nil
	}
	raw, err := c.store.Get(ctx, KeySessionRemote)
	if err != nil {
		return fmt.Errorf("read refresh token: %w", err)
	}
	if len(raw) == 0 {
		return ErrNoRemoteSession
	}

	if err := c.auth.Resume(ctx, string(raw)); err != nil {
		if !errors.Is(err, client.ErrUnavailable) {
			if derr := c.store.Delete(ctx, KeySessionRemote); derr != nil {
				err = errors.Join(err, derr)
			}
		}
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return c.storeRemote(ctx)
}

// Reconnect re-establishes the remote session once the server is reachable
// again. After an offline login it signs in with the password held since
// then; otherwise it resumes from the stored refresh token. It does nothing
// unless the controller is Unlocked without a remote session.
func (c *Controller) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Unlocked || c.auth.RefreshToken() != "" {
		return nil
	}
	if c.pending == nil {
		return c.resumeRemote(ctx)
	}

	buf, err := c.pending.Open()
	if err != nil {
		return fmt.Errorf("open pending credentials: %w", err)
	}
	sess, err := c.auth.SignIn(ctx, c.profile.Username, string(buf.Bytes()))
	buf.Destroy()
	if errors.Is(err, client.ErrUnavailable) {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	c.pending = nil
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if sess.UserID != c.profile.ID {
		if serr := c.auth.SignOut(ctx); serr != nil {
			c.logger.Warn(ctx, "remote sign out failed", "error", serr)
		}
		return fmt.Errorf("%w: account changed since offline login", ErrAuth)
	}

	c.logger.Info(ctx, "remote session established", "user_id", sess.UserID)
	return c.storeRemote(ctx)
}

// storeRemote writes the current refresh token into the session record.
func (c *Controller) storeRemote(ctx context.Context) error {
	token := c.auth.RefreshToken()
	if !c.opts.AllowPersistedKey || token == "" {
		return nil
	}
	if err := c.store.Set(ctx, KeySessionRemote, []byte(token)); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// rememberRemote runs on the auth client's rotation callback. It must not
// take c.mu: rotations happen inside calls made while the lock is held.
func (c *Controller) rememberRemote(token string) {
	if token == "" || !c.keepRemote.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.Set(ctx, KeySessionRemote, []byte(token)); err != nil {
		c.logger.Warn(ctx, "store rotated refresh token failed", "error", err)
	}
}

// Unlock runs secondary verification and then restores the session.
func (c *Controller) Unlock(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Unlocked:
		return nil
	case LoggedOut:
		return ErrNoSession
	}

	if c.verifier == nil {
		return ErrVerificationFailed
	}
	ok, err := c.verifier.Verify(ctx, "unlock cardkeeper")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	if !ok {
		return ErrVerificationFailed
	}

	restored, err := c.restoreLocked(ctx, true)
	if err != nil {
		return err
	}
	if !restored {
		return ErrNoSession
	}
	return nil
}

// Logout drops the key and the persisted session. The secondary
// verification preference is kept.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.auth.SignOut(ctx); err != nil {
		c.logger.Warn(ctx, "remote sign out failed", "error", err)
	}
	c.clearMemory()

	if err := c.deleteRecord(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (c *Controller) EnableSecondaryVerification(ctx context.Context) error {
	return c.setSecondary(ctx, true)
}

func (c *Controller) DisableSecondaryVerification(ctx context.Context) error {
	return c.setSecondary(ctx, false)
}

// SecondaryVerificationEnabled reports the stored preference.
func (c *Controller) SecondaryVerificationEnabled(ctx context.Context) (bool, error) {
	return c.secondaryEnabled(ctx)
}

func (c *Controller) setSecondary(ctx context.Context, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Outside Unlocked a persisted record may exist that the preference
	// guards; changing it would let the next restore skip verification.
	if c.state != Unlocked {
		_, found, err := c.storedExpiry(ctx)
		if err != nil {
			return err
		}
		if c.state == Locked || found {
			return ErrLocked
		}
	}

	val := []byte("0")
	if on {
		val = []byte("1")
	}
	if err := c.store.Set(ctx, KeyPrefBiometric, val); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}

	if c.state != Unlocked {
		return nil
	}
	key, err := c.keyLocked()
	if err != nil {
		return err
	}
	defer key.Wipe()

	// Switching to the short policy is the one case where the expiry may
	// move backward.
	return c.persistLocked(ctx, key, *c.profile, !on)
}

func (c *Controller) setUnlocked(profile models.UserProfile, key cryptox.Key) {
	c.enclave = memguard.NewEnclave(key.Material())
	c.extractable = key.Extractable()
	p := profile
	c.profile = &p
	c.state = Unlocked
	c.keepRemote.Store(c.opts.AllowPersistedKey)
}

func (c *Controller) clearMemory() {
	c.keepRemote.Store(false)
	c.enclave = nil
	c.pending = nil
	c.profile = nil
	c.state = LoggedOut
}

func (c *Controller) deleteRecord(ctx context.Context) error {
	return c.store.Delete(ctx, KeySessionKey, KeySessionProfile, KeySessionExpiry, KeySessionRemote)
}

func (c *Controller) persistLocked(ctx context.Context, key cryptox.Key, profile models.UserProfile, allowShrink bool) error {
	if !c.opts.AllowPersistedKey {
		return nil
	}

	jwk, err := c.keys.ExportKey(key)
	if err != nil {
		return err
	}
	rawProfile, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	expiry, err := c.nextExpiry(ctx, allowShrink)
	if err != nil {
		return err
	}

	values := map[string][]byte{
		KeySessionKey:     []byte(jwk),
		KeySessionProfile: rawProfile,
		KeySessionExpiry:  formatExpiry(expiry),
	}
	if token := c.auth.RefreshToken(); token != "" {
		values[KeySessionRemote] = []byte(token)
	}
	return c.store.SetMany(ctx, values)
}

// nextExpiry is now plus the TTL for the current policy. Unless allowShrink
// is set it never returns a time before the stored expiry.
func (c *Controller) nextExpiry(ctx context.Context, allowShrink bool) (time.Time, error) {
	gated, err := c.secondaryEnabled(ctx)
	if err != nil {
		return time.Time{}, err
	}
	ttl := c.opts.ShortTTL
	if gated {
		ttl = c.opts.LongTTL
	}
	next := c.now().Add(ttl).UTC()
	if allowShrink {
		return next, nil
	}

	cur, found, err := c.storedExpiry(ctx)
	if err == nil && found && cur.After(next) {
		return cur, nil
	}
	return next, nil
}

func (c *Controller) storedExpiry(ctx context.Context) (time.Time, bool, error) {
	raw, err := c.store.Get(ctx, KeySessionExpiry)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read expiry: %w", err)
	}
	if raw == nil {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse expiry: %w", err)
	}
	return t, true, nil
}

// Expiry returns the persisted expiry, if any.
func (c *Controller) Expiry(ctx context.Context) (time.Time, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storedExpiry(ctx)
}

func (c *Controller) secondaryEnabled(ctx context.Context) (bool, error) {
	raw, err := c.store.Get(ctx, KeyPrefBiometric)
	if err != nil {
		return false, fmt.Errorf("read preference: %w", err)
	}
	return string(raw) == "1", nil
}

func (c *Controller) accountProfile(ctx context.Context) (*models.UserProfile, error) {
	raw, err := c.store.Get(ctx, KeyAccountProfile)
	if err != nil || raw == nil {
		return nil, err
	}
	var p models.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func formatExpiry(t time.Time) []byte {
	return []byte(t.UTC().Format(time.RFC3339Nano))
}
