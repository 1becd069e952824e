package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/blobsync"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/config"
	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/client/repositories/blobs"
	"github.com/dmitrijs2005/cardkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cardkeeper/internal/client/services"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/filex"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

// sessionManager is the part of session.Controller the CLI drives.
type sessionManager interface {
	State() session.State
	Profile() (models.UserProfile, bool)
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Unlock(ctx context.Context) error
	RestoreSession(ctx context.Context, skipSecondaryCheck bool) (bool, error)
	Reconnect(ctx context.Context) error
	EnableSecondaryVerification(ctx context.Context) error
	DisableSecondaryVerification(ctx context.Context) error
	SecondaryVerificationEnabled(ctx context.Context) (bool, error)
	Expiry(ctx context.Context) (time.Time, bool, error)
}

// walletManager is the part of services.WalletService the CLI drives.
type walletManager interface {
	Load(ctx context.Context) (*models.UserData, error)
	AddCard(ctx context.Context, c models.Card) (models.Card, error)
	RemoveCard(ctx context.Context, id string) error
	ExportBackup(ctx context.Context) ([]byte, error)
	ImportBackup(ctx context.Context, raw []byte, mode models.ImportMode) (int, error)
	Sync(ctx context.Context) error
}

type App struct {
	config  *config.Config
	session sessionManager
	wallet  walletManager
	online  blobsync.Connectivity
	watcher *blobsync.Watcher
	pushes  interface{ Wait() }
	reader  *bufio.Reader
	out     io.Writer
	logger  logging.Logger
	closers []func() error
}

// NewApp opens the local store, connects the remote client and wires the
// session controller and wallet service.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	if err := filex.EnsureParentDir(c.DBPath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	remote, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		config:  c,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		logger:  l,
		closers: []func() error{remote.Close, db.Close},
	}

	meta := metadata.NewSQLiteRepository(db)
	cache := blobs.NewSQLiteRepository(db)
	status := blobsync.NewStatus(false)
	coord := blobsync.NewCoordinator(cache, remote, status, l, blobsync.WithTimeout(c.RequestTimeout))

	engine := cryptox.NewEngine(nil)
	keys := cryptox.NewKeyManager(nil, cryptox.WithExtractable(c.AllowPersistedKey))
	prover := services.NewCacheProver(cache, engine)

	opts := session.Options{
		AllowPersistedKey: c.AllowPersistedKey,
		ShortTTL:          c.ShortSessionTTL,
		LongTTL:           c.LongSessionTTL,
	}
	ctrl := session.NewController(remote, meta, keys, opts, l,
		session.WithVerifier(NewTerminalVerifier(a.reader, a.out)),
		session.WithKeyProver(prover),
	)

	a.session = ctrl
	a.wallet = services.NewWalletService(ctrl, coord, meta, engine, prover, l)
	a.online = status
	a.pushes = coord
	a.watcher = blobsync.NewWatcher(remote, status, c.OnlineCheckInterval, l, a.onReconnect)
	return a, nil
}

// Run probes the server, restores the previous session and serves the REPL
// until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to cardkeeper (type 'help' for commands)")

	if a.watcher != nil {
		a.watcher.Check(ctx)
	}
	a.restore(ctx)

	wctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(wctx)
	if a.watcher != nil {
		g.Go(func() error {
			a.watcher.Run(gctx)
			return nil
		})
	}

	runREPL(ctx, a, a.getStatus, a.reader)

	cancel()
	_ = g.Wait()
}

// Close waits for background pushes and releases the store and connection.
func (a *App) Close() {
	if a.pushes != nil {
		a.pushes.Wait()
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) restore(ctx context.Context) {
	ok, err := a.session.RestoreSession(ctx, false)
	if err != nil {
		a.logger.Warn(ctx, "restore session failed", "error", err)
	}
	switch {
	case ok:
		p, _ := a.session.Profile()
		fmt.Fprintf(a.out, "Welcome back, %s\n", p.Username)
	case a.session.State() == session.Locked:
		fmt.Fprintln(a.out, "Session is locked, type 'unlock' to continue")
	}
}

func (a *App) onReconnect(ctx context.Context) {
	if a.session.State() != session.Unlocked {
		return
	}
	if err := a.session.Reconnect(ctx); err != nil {
		a.logger.Warn(ctx, "remote session not re-established", "error", err)
		return
	}
	if err := a.wallet.Sync(ctx); err != nil {
		a.logger.Warn(ctx, "sync after reconnect failed", "error", err)
	}
}

func (a *App) isUnlocked() bool {
	return a.session.State() == session.Unlocked
}

func (a *App) mode() string {
	if a.online != nil && a.online.Online() {
		return "online"
	}
	return "offline"
}

func (a *App) getStatus() string {
	parts := []string{}
	switch a.session.State() {
	case session.Unlocked:
		if p, ok := a.session.Profile(); ok {
			parts = append(parts, p.Username)
		}
	case session.Locked:
		parts = append(parts, "locked")
	default:
		parts = append(parts, "guest")
	}
	parts = append(parts, a.mode())
	return "(" + strings.Join(parts, " ") + ")"
}
