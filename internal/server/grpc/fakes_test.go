package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	pb "github.com/dmitrijs2005/cardkeeper/internal/proto"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "secret"

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string
	refresh   map[string]string
	accessTTL time.Duration
	err       error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		refresh:   map[string]string{},
		accessTTL: time.Hour,
	}
}

func (f *fakeUsers) issue(userID string) (*services.TokenPair, error) {
	access, err := auth.GenerateToken(userID, []byte(testSecret), f.accessTTL)
	if err != nil {
		return nil, err
	}
	r, err := common.MakeRandHexString(8)
	if err != nil {
		return nil, err
	}
	f.refresh[r] = userID
	return &services.TokenPair{AccessToken: access, RefreshToken: r}, nil
}

func (f *fakeUsers) SignUp(_ context.Context, email string, password []byte, md map[string]string) (*models.User, *services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	if _, ok := f.users[email]; ok {
		return nil, nil, common.ErrorAlreadyExists
	}
	if md == nil {
		md = map[string]string{}
	}
	u := &models.User{ID: "id-" + email, Email: email, Metadata: md}
	f.users[email] = u
	f.passwords[email] = string(password)
	pair, err := f.issue(u.ID)
	return u, pair, err
}

func (f *fakeUsers) SignIn(_ context.Context, email string, password []byte) (*models.User, *services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	u, ok := f.users[email]
	if !ok || f.passwords[email] != string(password) {
		return nil, nil, common.ErrorUnauthorized
	}
	pair, err := f.issue(u.ID)
	return u, pair, err
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.refresh[token]
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	delete(f.refresh, token)
	f.accessTTL = time.Hour
	return f.issue(userID)
}

func (f *fakeUsers) UpdateMetadata(_ context.Context, userID string, patch map[string]string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			for k, v := range patch {
				u.Metadata[k] = v
			}
			return u.Metadata, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string]*models.Blob
	err   error
}

func (f *fakeBlobs) Get(_ context.Context, userID string) (*models.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.blobs[userID], nil
}

func (f *fakeBlobs) Put(_ context.Context, userID, iv, ct string) (*models.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.blobs == nil {
		f.blobs = map[string]*models.Blob{}
	}
	b := &models.Blob{UserID: userID, IV: iv, Ciphertext: ct, UpdatedAt: time.UnixMilli(1_767_225_600_000)}
	f.blobs[userID] = b
	return b, nil
}

func (f *fakeBlobs) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

type harness struct {
	users *fakeUsers
	blobs *fakeBlobs
	lis   *bufconn.Listener
	conn  *grpc.ClientConn
	api   pb.WalletStoreClient
}

func startServer(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{users: newFakeUsers(), blobs: &fakeBlobs{}, lis: bufconn.Listen(1 << 20)}
	srv, err := NewGRPCServer("", logging.Discard(), h.users, h.blobs, testSecret, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, h.lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	h.conn, err = grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return h.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.conn.Close() })

	h.api = pb.NewWalletStoreClient(h.conn)
	return h
}
