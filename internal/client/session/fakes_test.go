package session

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
)

type account struct {
	id       string
	password string
	metadata map[string]string
}

// fakeAuth is an in-memory Authenticator. refresh is the client side of the
// remote session and is lost on restart; issued holds the unspent refresh
// tokens the server would still accept.
type fakeAuth struct {
	mu       sync.Mutex
	accounts map[string]*account
	offline  bool
	signUps  int
	signIns  int
	updates  int
	signOuts int
	resumes  int

	seq      int
	refresh  string
	issued   map[string]string
	onRotate func(string)
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{accounts: map[string]*account{}, issued: map[string]string{}}
}

func (f *fakeAuth) issue(userID string) {
	f.seq++
	f.refresh = fmt.Sprintf("rt-%d", f.seq)
	f.issued[f.refresh] = userID
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string, md map[string]string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return nil, client.ErrUnavailable
	}
	if _, ok := f.accounts[email]; ok {
		return nil, client.ErrAlreadyExists
	}
	f.signUps++
	a := &account{id: fmt.Sprintf("u-%d", len(f.accounts)+1), password: password, metadata: maps.Clone(md)}
	if a.metadata == nil {
		a.metadata = map[string]string{}
	}
	f.accounts[email] = a
	f.issue(a.id)
	return &models.AuthSession{UserID: a.id, Email: email, Metadata: maps.Clone(a.metadata)}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return nil, fmt.Errorf("%w: connection refused", client.ErrUnavailable)
	}
	a, ok := f.accounts[email]
	if !ok || a.password != password {
		return nil, client.ErrUnauthorized
	}
	f.signIns++
	f.issue(a.id)
	return &models.AuthSession{UserID: a.id, Email: email, Metadata: maps.Clone(a.metadata)}, nil
}

func (f *fakeAuth) UpdateMetadata(ctx context.Context, userID string, md map[string]string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	for _, a := range f.accounts {
		if a.id == userID {
			maps.Copy(a.metadata, md)
			return maps.Clone(a.metadata), nil
		}
	}
	return nil, client.ErrUnauthorized
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.refresh = ""
	return nil
}

func (f *fakeAuth) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh
}

func (f *fakeAuth) Resume(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return fmt.Errorf("%w: connection refused", client.ErrUnavailable)
	}
	userID, ok := f.issued[token]
	if !ok {
		return client.ErrUnauthorized
	}
	delete(f.issued, token)
	f.resumes++
	f.issue(userID)
	return nil
}

func (f *fakeAuth) OnTokenRotated(fn func(string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onRotate = fn
}

// restart drops the client side of the remote session, as a new process
// would start without it.
func (f *fakeAuth) restart() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = ""
}

// revokeAll makes the server forget every refresh token.
func (f *fakeAuth) revokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = map[string]string{}
}

// rotate swaps the live refresh token the way the client does when an
// access token expires mid-call.
func (f *fakeAuth) rotate() {
	f.mu.Lock()
	userID, ok := f.issued[f.refresh]
	if !ok {
		f.mu.Unlock()
		return
	}
	delete(f.issued, f.refresh)
	f.issue(userID)
	token, fn := f.refresh, f.onRotate
	f.mu.Unlock()

	if fn != nil {
		fn(token)
	}
}

func (f *fakeAuth) salt(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[email].metadata["salt"]
}

// memStore is an in-memory KeyStore.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) SetMany(ctx context.Context, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (s *memStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

type fakeVerifier struct {
	ok    bool
	err   error
	calls int
}

func (v *fakeVerifier) Verify(ctx context.Context, reason string) (bool, error) {
	v.calls++
	return v.ok, v.err
}

// blobProver proves a key by decrypting a payload saved earlier, the same
// way the wallet service checks the cached blob.
type blobProver struct {
	engine  *cryptox.Engine
	payload map[string]cryptox.EncryptedPayload
}

func (p *blobProver) ProveKey(ctx context.Context, userID string, key cryptox.Key) error {
	blob, ok := p.payload[userID]
	if !ok {
		return fmt.Errorf("no local data for %s", userID)
	}
	var v any
	return p.engine.DecryptPayload(blob, key, &v)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
