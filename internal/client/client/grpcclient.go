package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/cryptox"
	pb "github.com/dmitrijs2005/cardkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.WalletStoreClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	onRotate     func(refreshToken string)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.tokens()
	if access != "" {
		ctx = withAccessToken(ctx, access)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil || method == pb.WalletStore_RefreshToken_FullMethodName {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	resp, rerr := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refresh})
	if rerr != nil {
		return rerr
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)

	s.mu.RLock()
	notify := s.onRotate
	s.mu.RUnlock()
	if notify != nil {
		notify(resp.RefreshToken)
	}

	return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)
}

// NewGRPCClient creates a client for the wallet store at endpointURL. Each
// call is bounded by timeout when it is positive. Extra dial options are
// appended after the defaults (tests use them to dial over bufconn).
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewWalletStoreClient(conn)
	return c, nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func authSession(resp *pb.AuthResponse) *models.AuthSession {
	md := resp.Metadata
	if md == nil {
		md = map[string]string{}
	}
	return &models.AuthSession{UserID: resp.UserID, Email: resp.Email, Metadata: md}
}

func (s *GRPCClient) SignUp(ctx context.Context, email, password string, md map[string]string) (*models.AuthSession, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.SignUp(ctx, &pb.SignUpRequest{Email: email, Password: password, Metadata: md})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return authSession(resp), nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.SignIn(ctx, &pb.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return authSession(resp), nil
}

// RefreshToken returns the refresh token of the current remote session, or
// "" when there is none.
func (s *GRPCClient) RefreshToken() string {
	_, refresh := s.tokens()
	return refresh
}

// OnTokenRotated registers fn to run after the client swapped an expired
// access token for a new pair. Refresh tokens are single use, so whoever
// keeps one across restarts must store the new value.
func (s *GRPCClient) OnTokenRotated(fn func(refreshToken string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRotate = fn
}

// Resume opens a remote session from a refresh token kept by an earlier
// process. The token is spent and replaced.
func (s *GRPCClient) Resume(ctx context.Context, refreshToken string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return s.mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// SignOut forgets the tokens. The server keeps no session to end.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	s.setTokens("", "")
	return nil
}

func (s *GRPCClient) UpdateMetadata(ctx context.Context, userID string, md map[string]string) (map[string]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.UpdateMetadata(ctx, &pb.UpdateMetadataRequest{UserID: userID, Metadata: md})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Metadata, nil
}

// GetBlob returns (nil, nil) when the user has no remote blob yet.
func (s *GRPCClient) GetBlob(ctx context.Context, userID string) (*models.StoredBlob, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetBlob(ctx, &pb.GetBlobRequest{UserID: userID})
	if err != nil {
		return nil, s.mapError(err)
	}
	if !resp.Found {
		return nil, nil
	}
	return &models.StoredBlob{
		EncryptedPayload: cryptox.EncryptedPayload{IV: resp.IV, Ciphertext: resp.Ciphertext},
		UpdatedAt:        time.UnixMilli(resp.UpdatedAtUnixMs).UTC(),
	}, nil
}

func (s *GRPCClient) PutBlob(ctx context.Context, userID string, p cryptox.EncryptedPayload) (time.Time, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.PutBlob(ctx, &pb.PutBlobRequest{UserID: userID, IV: p.IV, Ciphertext: p.Ciphertext})
	if err != nil {
		return time.Time{}, s.mapError(err)
	}
	return time.UnixMilli(resp.UpdatedAtUnixMs).UTC(), nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.Ping(ctx, &pb.PingRequest{}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.AlreadyExists:
		return ErrAlreadyExists
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
