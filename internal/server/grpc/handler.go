package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	pb "github.com/dmitrijs2005/cardkeeper/internal/proto"
	"github.com/dmitrijs2005/cardkeeper/internal/server/models"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func authResponse(u *models.User, tokens *services.TokenPair) *pb.AuthResponse {
	return &pb.AuthResponse{
		UserID:       u.ID,
		Email:        u.Email,
		Metadata:     u.Metadata,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}
}

// authorize checks that the authenticated caller acts on its own data.
func authorize(ctx context.Context, userID string) error {
	caller, ok := userIDFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if userID != caller {
		return status.Error(codes.PermissionDenied, "forbidden")
	}
	return nil
}

func (s *GRPCServer) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) SignUp(ctx context.Context, req *pb.SignUpRequest) (*pb.AuthResponse, error) {
	s.logger.Info(ctx, "Registration request")

	user, tokens, err := s.users.SignUp(ctx, req.Email, []byte(req.Password), req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, status.Error(codes.AlreadyExists, "user already exists")
		case errors.Is(err, common.ErrorValidation):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, s.internal(ctx, "sign up", err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return authResponse(user, tokens), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *pb.SignInRequest) (*pb.AuthResponse, error) {
	user, tokens, err := s.users.SignIn(ctx, req.Email, []byte(req.Password))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return nil, s.internal(ctx, "sign in", err)
	}

	return authResponse(user, tokens), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRefreshTokenExpired):
			return nil, status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
		case errors.Is(err, common.ErrorUnauthorized):
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		return nil, s.internal(ctx, "refresh token", err)
	}

	return &pb.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) UpdateMetadata(ctx context.Context, req *pb.UpdateMetadataRequest) (*pb.UpdateMetadataResponse, error) {
	if err := authorize(ctx, req.UserID); err != nil {
		return nil, err
	}

	md, err := s.users.UpdateMetadata(ctx, req.UserID, req.Metadata)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, s.internal(ctx, "update metadata", err)
	}

	return &pb.UpdateMetadataResponse{Metadata: md}, nil
}

func (s *GRPCServer) GetBlob(ctx context.Context, req *pb.GetBlobRequest) (*pb.GetBlobResponse, error) {
	if err := authorize(ctx, req.UserID); err != nil {
		return nil, err
	}

	b, err := s.blobs.Get(ctx, req.UserID)
	if err != nil {
		return nil, s.internal(ctx, "get blob", err)
	}
	if b == nil {
		return &pb.GetBlobResponse{Found: false}, nil
	}

	return &pb.GetBlobResponse{
		Found:           true,
		IV:              b.IV,
		Ciphertext:      b.Ciphertext,
		UpdatedAtUnixMs: b.UpdatedAt.UnixMilli(),
	}, nil
}

func (s *GRPCServer) PutBlob(ctx context.Context, req *pb.PutBlobRequest) (*pb.PutBlobResponse, error) {
	if err := authorize(ctx, req.UserID); err != nil {
		return nil, err
	}

	b, err := s.blobs.Put(ctx, req.UserID, req.IV, req.Ciphertext)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, s.internal(ctx, "put blob", err)
	}

	return &pb.PutBlobResponse{UpdatedAtUnixMs: b.UpdatedAt.UnixMilli()}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{}, nil
}
