// Package blobsync keeps the local cache of a user's encrypted wallet and
// the remote copy in step.
//
// Reads go remote first when online and fall back to the cache. Writes go to
// the cache first and are pushed in the background when online. Until the
// remote confirms a write made by this process, reads are served from the
// cache so a stale remote copy never replaces it. Conflicts are resolved
// last-write-wins at blob granularity: the whole document is replaced on
// every write. Writes left unpushed by an earlier process are not tracked
// and can be hidden by the remote copy until Sync runs; this mixed authority
// is accepted behaviour.
package blobsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrSyncWarning marks a remote push or pull that failed while a local
	// copy exists. It is logged, not shown to the user.
	ErrSyncWarning = errors.New("sync warning")
	ErrOffline     = errors.New("offline")
)

const DefaultTimeout = 10 * time.Second

// LocalCache stores the latest encrypted blob per user. Get returns
// (nil, nil) when nothing is cached.
type LocalCache interface {
	Get(ctx context.Context, userID string) (*models.StoredBlob, error)
	Put(ctx context.Context, userID string, blob models.StoredBlob) error
}

// Remote is the opaque remote blob store. GetBlob returns (nil, nil) when
// the user has no remote blob.
type Remote interface {
	GetBlob(ctx context.Context, userID string) (*models.StoredBlob, error)
	PutBlob(ctx context.Context, userID string, p cryptox.EncryptedPayload) (time.Time, error)
}

// Connectivity reports whether the remote is believed reachable.
type Connectivity interface {
	Online() bool
}

type Coordinator struct {
	cache   LocalCache
	remote  Remote
	conn    Connectivity
	logger  logging.Logger
	timeout time.Duration
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
	// unpushed holds, per user, the generation of the newest cache write
	// the remote has not confirmed.
	unpushed map[string]uint64
	gen      uint64

	pushes sync.WaitGroup
}

type Option func(*Coordinator)

// WithTimeout bounds every remote call.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(cache LocalCache, remote Remote, conn Connectivity, l logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		cache:    cache,
		remote:   remote,
		conn:     conn,
		logger:   l.With("module", "blobsync"),
		timeout:  DefaultTimeout,
		now:      time.Now,
		locks:    make(map[string]*semaphore.Weighted),
		unpushed: make(map[string]uint64),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Lock serializes read-modify-write sequences on one user's blob. The
// returned func releases the lock and is safe to call more than once.
func (c *Coordinator) Lock(ctx context.Context, userID string) (func(), error) {
	sem := c.semaphore(userID)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}

func (c *Coordinator) semaphore(userID string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	sem, ok := c.locks[userID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		c.locks[userID] = sem
	}
	return sem
}

// Load returns the user's encrypted wallet, or nil when neither the remote
// nor the cache has one.
func (c *Coordinator) Load(ctx context.Context, userID string) (*cryptox.EncryptedPayload, error) {
	if c.conn.Online() && c.pending(userID) == 0 {
		rctx, cancel := context.WithTimeout(ctx, c.timeout)
		blob, err := c.remote.GetBlob(rctx, userID)
		cancel()

		switch {
		case err != nil:
			c.logger.Warn(ctx, "remote load failed, using local cache",
				"user_id", userID, "error", fmt.Errorf("%w: %w", ErrSyncWarning, err))
		case blob != nil:
			if err := c.cache.Put(ctx, userID, *blob); err != nil {
				c.logger.Warn(ctx, "refresh local cache failed", "user_id", userID, "error", err)
			}
			p := blob.EncryptedPayload
			return &p, nil
		}
	}

	blob, err := c.cache.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read local cache: %w", err)
	}
	if blob == nil {
		return nil, nil
	}
	p := blob.EncryptedPayload
	return &p, nil
}

// Save writes p to the cache and, when online, schedules a background push.
// Only the cache write can fail the call.
func (c *Coordinator) Save(ctx context.Context, userID string, p cryptox.EncryptedPayload) error {
	blob := models.StoredBlob{EncryptedPayload: p, UpdatedAt: c.now().UTC()}
	if err := c.cache.Put(ctx, userID, blob); err != nil {
		return fmt.Errorf("write local cache: %w", err)
	}
	c.markUnpushed(userID)

	if c.conn.Online() {
		c.schedulePush(userID)
	}
	return nil
}

// schedulePush pushes whatever is cached for userID once the per-user lock
// is free, so the remote gets the latest blob rather than the one that
// triggered the push.
func (c *Coordinator) schedulePush(userID string) {
	c.pushes.Add(1)
	go func() {
		defer c.pushes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.pushLatest(ctx, userID); err != nil {
			c.logger.Warn(ctx, "background push failed",
				"user_id", userID, "error", fmt.Errorf("%w: %w", ErrSyncWarning, err))
			return
		}
		c.logger.Debug(ctx, "pushed blob", "user_id", userID)
	}()
}

func (c *Coordinator) pushLatest(ctx context.Context, userID string) error {
	unlock, err := c.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	gen := c.pending(userID)
	blob, err := c.cache.Get(ctx, userID)
	if err != nil || blob == nil {
		return err
	}
	if _, err := c.remote.PutBlob(ctx, userID, blob.EncryptedPayload); err != nil {
		return err
	}
	c.markPushed(userID, gen)
	return nil
}

// pending returns the generation of the newest unconfirmed write, 0 if none.
func (c *Coordinator) pending(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unpushed[userID]
}

func (c *Coordinator) markUnpushed(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.unpushed[userID] = c.gen
}

// markPushed clears the unpushed mark unless a newer write arrived after
// gen was read.
func (c *Coordinator) markPushed(userID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unpushed[userID] == gen {
		delete(c.unpushed, userID)
	}
}

// Sync pushes the cached blob to the remote and pulls the remote copy back
// into the cache. Failures wrap ErrSyncWarning.
func (c *Coordinator) Sync(ctx context.Context, userID string) error {
	if !c.conn.Online() {
		return ErrOffline
	}

	unlock, err := c.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gen := c.pending(userID)
	local, err := c.cache.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("read local cache: %w", err)
	}
	if local != nil {
		if _, err := c.remote.PutBlob(ctx, userID, local.EncryptedPayload); err != nil {
			return fmt.Errorf("%w: push: %w", ErrSyncWarning, err)
		}
	}
	c.markPushed(userID, gen)

	remote, err := c.remote.GetBlob(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: pull: %w", ErrSyncWarning, err)
	}
	if remote != nil {
		if err := c.cache.Put(ctx, userID, *remote); err != nil {
			return fmt.Errorf("write local cache: %w", err)
		}
	}

	c.logger.Info(ctx, "synced", "user_id", userID)
	return nil
}

// Wait blocks until every scheduled background push has finished.
func (c *Coordinator) Wait() {
	c.pushes.Wait()
}
