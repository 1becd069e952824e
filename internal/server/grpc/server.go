package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	pb "github.com/dmitrijs2005/cardkeeper/internal/proto"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"google.golang.org/grpc"
)

type userService interface {
	SignUp(ctx context.Context, email string, password []byte, metadata map[string]string) (*models.User, *services.TokenPair, error)
	SignIn(ctx context.Context, email string, password []byte) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	UpdateMetadata(ctx context.Context, userID string, patch map[string]string) (map[string]string, error)
}

type blobService interface {
	Get(ctx context.Context, userID string) (*models.Blob, error)
	Put(ctx context.Context, userID, iv, ciphertext string) (*models.Blob, error)
}

// GRPCServer serves the WalletStore API: account auth, account metadata and
// the per-user encrypted blob.
type GRPCServer struct {
	pb.UnimplementedWalletStoreServer
	address   string
	users     userService
	blobs     blobService
	logger    logging.Logger
	jwtSecret []byte
	limiter   *rateLimiterStore
}

type Option func(*GRPCServer)

// WithAuthRateLimit limits SignUp/SignIn/RefreshToken per peer address.
// A non-positive rps disables the limit.
func WithAuthRateLimit(rps float64, burst int) Option {
	return func(s *GRPCServer) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = newRateLimiterStore(rps, burst)
	}
}

func NewGRPCServer(a string, l logging.Logger, us userService, bs blobService, secretKey string, opts ...Option) (*GRPCServer, error) {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		blobs:     bs,
		jwtSecret: []byte(secretKey),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(pb.Codec{}),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.rateLimitInterceptor, s.accessTokenInterceptor),
	)
	pb.RegisterWalletStoreServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	if s.limiter != nil {
		go s.limiter.cleanupStale(ctx, limiterCleanupInterval)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
