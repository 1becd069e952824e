package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	pb "github.com/dmitrijs2005/cardkeeper/internal/proto"
	"github.com/dmitrijs2005/cardkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

var authenticatedMethods = map[string]bool{
	pb.WalletStore_UpdateMetadata_FullMethodName: true,
	pb.WalletStore_GetBlob_FullMethodName:        true,
	pb.WalletStore_PutBlob_FullMethodName:        true,
}

var rateLimitedMethods = map[string]bool{
	pb.WalletStore_SignUp_FullMethodName:       true,
	pb.WalletStore_SignIn_FullMethodName:       true,
	pb.WalletStore_RefreshToken_FullMethodName: true,
}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !authenticatedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	return handler(context.WithValue(ctx, userIDKey, userID), req)
}

// peerKey identifies the caller for rate limiting: the remote host, without
// the ephemeral port.
func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if s.limiter == nil || !rateLimitedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	key := peerKey(ctx)
	if !s.limiter.allow(key) {
		s.logger.Warn(ctx, "rate limit exceeded", "peer", key, "method", info.FullMethod)
		return nil, status.Error(codes.ResourceExhausted, "too many requests")
	}
	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK, codes.Unauthenticated, codes.AlreadyExists, codes.NotFound, codes.InvalidArgument, codes.ResourceExhausted, codes.PermissionDenied:
		s.logger.Debug(ctx, "rpc", args...)
	default:
		s.logger.Error(ctx, "rpc", append(args, "error", err)...)
	}
	return resp, err
}
