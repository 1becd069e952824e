package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

var ErrBackupFormat = errors.New("invalid backup file")

// WalletService reads and writes the wallet of whoever is signed in, or the
// guest wallet when nobody is.
//
// Load and Save are not serialized against each other. Callers that modify
// the wallet should go through Update, which holds the per-user lock across
// the whole read-modify-write.
type WalletService struct {
	session Session
	blobs   BlobStore
	guest   GuestStore
	engine  *cryptox.Engine
	prover  *CacheProver
	logger  logging.Logger
	now     func() time.Time
}

func NewWalletService(s Session, blobs BlobStore, guest GuestStore, engine *cryptox.Engine, prover *CacheProver, l logging.Logger) *WalletService {
	return &WalletService{
		session: s,
		blobs:   blobs,
		guest:   guest,
		engine:  engine,
		prover:  prover,
		logger:  l.With("module", "wallet"),
		now:     time.Now,
	}
}

// scope returns the lock scope and whether the wallet is the guest one.
// A locked session has no usable wallet.
func (w *WalletService) scope() (string, bool, error) {
	switch w.session.State() {
	case session.LoggedOut:
		return guestScope, true, nil
	case session.Locked:
		return "", false, session.ErrLocked
	}
	profile, ok := w.session.Profile()
	if !ok {
		return "", false, session.ErrNotUnlocked
	}
	return profile.ID, false, nil
}

func (w *WalletService) Load(ctx context.Context) (*models.UserData, error) {
	userID, guest, err := w.scope()
	if err != nil {
		return nil, err
	}
	if guest {
		return w.loadGuest(ctx)
	}
	return w.loadUser(ctx, userID)
}

func (w *WalletService) loadGuest(ctx context.Context) (*models.UserData, error) {
	raw, err := w.guest.Get(ctx, KeyGuestData)
	if err != nil {
		return nil, fmt.Errorf("read guest wallet: %w", err)
	}
	data := models.NewUserData()
	if raw == nil {
		return data, nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("parse guest wallet: %w", err)
	}
	data.Normalize()
	return data, nil
}

func (w *WalletService) loadUser(ctx context.Context, userID string) (*models.UserData, error) {
	p, err := w.blobs.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return models.NewUserData(), nil
	}

	key, err := w.session.Key()
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	data := models.NewUserData()
	if err := w.engine.DecryptPayload(*p, key, data); err != nil {
		return nil, err
	}
	data.Normalize()
	return data, nil
}

func (w *WalletService) Save(ctx context.Context, data *models.UserData) error {
	userID, guest, err := w.scope()
	if err != nil {
		return err
	}
	return w.save(ctx, userID, guest, data)
}

func (w *WalletService) save(ctx context.Context, userID string, guest bool, data *models.UserData) error {
	data.Normalize()

	if guest {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode guest wallet: %w", err)
		}
		return w.guest.Set(ctx, KeyGuestData, raw)
	}

	key, err := w.session.Key()
	if err != nil {
		return err
	}
	defer key.Wipe()

	p, err := w.engine.Encrypt(data, key)
	if err != nil {
		return err
	}
	return w.blobs.Save(ctx, userID, p)
}

// Update loads the wallet, applies fn and saves the result while holding the
// per-user lock. Nothing is saved when fn fails.
func (w *WalletService) Update(ctx context.Context, fn func(*models.UserData) error) (*models.UserData, error) {
	userID, guest, err := w.scope()
	if err != nil {
		return nil, err
	}

	unlock, err := w.blobs.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var data *models.UserData
	if guest {
		data, err = w.loadGuest(ctx)
	} else {
		data, err = w.loadUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	if err := fn(data); err != nil {
		return nil, err
	}

	if err := w.save(ctx, userID, guest, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (w *WalletService) AddCard(ctx context.Context, c models.Card) (models.Card, error) {
	var added models.Card
	_, err := w.Update(ctx, func(d *models.UserData) error {
		var err error
		added, err = d.AddCard(c)
		return err
	})
	if err != nil {
		return models.Card{}, err
	}
	w.logger.Debug(ctx, "card saved", "card_id", added.ID)
	return added, nil
}

func (w *WalletService) RemoveCard(ctx context.Context, id string) error {
	_, err := w.Update(ctx, func(d *models.UserData) error {
		return d.RemoveCard(id)
	})
	return err
}

func (w *WalletService) UpdateSettings(ctx context.Context, s models.NotificationSettings) error {
	if s.DaysBeforeDue < 0 {
		return errors.New("days before due must not be negative")
	}
	_, err := w.Update(ctx, func(d *models.UserData) error {
		d.Settings = s
		return nil
	})
	return err
}

func (w *WalletService) UpdateAISettings(ctx context.Context, s models.AISettings) error {
	_, err := w.Update(ctx, func(d *models.UserData) error {
		d.AISettings = s
		return nil
	})
	return err
}

// ExportBackup returns the wallet as a plaintext backup file.
func (w *WalletService) ExportBackup(ctx context.Context) ([]byte, error) {
	data, err := w.Load(ctx)
	if err != nil {
		return nil, err
	}

	settings := data.Settings
	ai := data.AISettings
	b := models.Backup{
		Version:    models.BackupVersion,
		ExportDate: w.now().UTC(),
		Cards:      data.Cards,
		Settings:   &settings,
		AISettings: &ai,
	}
	return json.MarshalIndent(b, "", "  ")
}

// ImportBackup merges a backup file into the wallet and returns the number of
// cards taken from it.
func (w *WalletService) ImportBackup(ctx context.Context, raw []byte, mode models.ImportMode) (int, error) {
	b, err := ParseBackup(raw)
	if err != nil {
		return 0, err
	}

	imported := 0
	_, err = w.Update(ctx, func(d *models.UserData) error {
		var merr error
		switch mode {
		case models.ImportReplace:
			imported, merr = replaceFrom(d, b)
		case models.ImportAppend, "":
			imported, merr = appendFrom(d, b)
		default:
			merr = fmt.Errorf("unknown import mode %q", mode)
		}
		return merr
	})
	if err != nil {
		return 0, err
	}

	w.logger.Info(ctx, "backup imported", "mode", string(mode), "cards", imported)
	return imported, nil
}

// ParseBackup decodes and validates a backup file. Versions 1 and 2 are
// accepted; version 1 files carry cards only.
func ParseBackup(raw []byte) (*models.Backup, error) {
	var b models.Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupFormat, err)
	}
	if b.Version != 1 && b.Version != models.BackupVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBackupFormat, b.Version)
	}
	if b.Cards == nil {
		return nil, fmt.Errorf("%w: missing cards", ErrBackupFormat)
	}
	for i, c := range b.Cards {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: card %d: %w", ErrBackupFormat, i, err)
		}
	}
	return &b, nil
}

func appendFrom(d *models.UserData, b *models.Backup) (int, error) {
	n := 0
	for _, c := range b.Cards {
		if c.ID != "" {
			if _, ok := d.FindCard(c.ID); ok {
				continue
			}
		}
		if _, err := d.AddCard(c); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func replaceFrom(d *models.UserData, b *models.Backup) (int, error) {
	fresh := models.NewUserData()
	for _, c := range b.Cards {
		if _, err := fresh.AddCard(c); err != nil {
			return 0, err
		}
	}
	if b.Settings != nil {
		fresh.Settings = *b.Settings
	}
	if b.AISettings != nil {
		fresh.AISettings = *b.AISettings
	}
	*d = *fresh
	return len(d.Cards), nil
}

// ProveKey reports whether key decrypts the user's cached wallet.
func (w *WalletService) ProveKey(ctx context.Context, userID string, key cryptox.Key) error {
	return w.prover.ProveKey(ctx, userID, key)
}

// Sync pushes and pulls the signed-in user's wallet.
func (w *WalletService) Sync(ctx context.Context) error {
	userID, guest, err := w.scope()
	if err != nil {
		return err
	}
	if guest {
		return session.ErrNotUnlocked
	}
	return w.blobs.Sync(ctx, userID)
}
