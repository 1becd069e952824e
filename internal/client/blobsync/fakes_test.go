package blobsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
)

var errRemoteDown = errors.New("remote down")

type memCache struct {
	mu    sync.Mutex
	blobs map[string]models.StoredBlob
	err   error
}

func newMemCache() *memCache { return &memCache{blobs: map[string]models.StoredBlob{}} }

func (c *memCache) Get(ctx context.Context, userID string) (*models.StoredBlob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	b, ok := c.blobs[userID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (c *memCache) Put(ctx context.Context, userID string, blob models.StoredBlob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.blobs[userID] = blob
	return nil
}

type memRemote struct {
	mu    sync.Mutex
	blobs map[string]models.StoredBlob
	down  bool
	puts  int
	gets  int
}

func newMemRemote() *memRemote { return &memRemote{blobs: map[string]models.StoredBlob{}} }

func (r *memRemote) GetBlob(ctx context.Context, userID string) (*models.StoredBlob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.down {
		return nil, errRemoteDown
	}
	b, ok := r.blobs[userID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memRemote) PutBlob(ctx context.Context, userID string, p cryptox.EncryptedPayload) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	if r.down {
		return time.Time{}, errRemoteDown
	}
	now := time.Now().UTC()
	r.blobs[userID] = models.StoredBlob{EncryptedPayload: p, UpdatedAt: now}
	return now, nil
}

func (r *memRemote) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *memRemote) get(userID string) (cryptox.EncryptedPayload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blobs[userID]
	return b.EncryptedPayload, ok
}

func (r *memRemote) putCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

type fakePinger struct {
	mu  sync.Mutex
	err error
	n   int
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakePinger) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func payload(s string) cryptox.EncryptedPayload {
	return cryptox.EncryptedPayload{IV: "iv-" + s, Ciphertext: "ct-" + s}
}
