package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "cardkeeper.v1.WalletStore"

// Full method names, as seen by interceptors in info.FullMethod.
const (
	WalletStore_SignUp_FullMethodName         = "/" + ServiceName + "/SignUp"
	WalletStore_SignIn_FullMethodName         = "/" + ServiceName + "/SignIn"
	WalletStore_RefreshToken_FullMethodName   = "/" + ServiceName + "/RefreshToken"
	WalletStore_UpdateMetadata_FullMethodName = "/" + ServiceName + "/UpdateMetadata"
	WalletStore_GetBlob_FullMethodName        = "/" + ServiceName + "/GetBlob"
	WalletStore_PutBlob_FullMethodName        = "/" + ServiceName + "/PutBlob"
	WalletStore_Ping_FullMethodName           = "/" + ServiceName + "/Ping"
)

// WalletStoreClient is the client API for the WalletStore service.
type WalletStoreClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	UpdateMetadata(ctx context.Context, in *UpdateMetadataRequest, opts ...grpc.CallOption) (*UpdateMetadataResponse, error)
	GetBlob(ctx context.Context, in *GetBlobRequest, opts ...grpc.CallOption) (*GetBlobResponse, error)
	PutBlob(ctx context.Context, in *PutBlobRequest, opts ...grpc.CallOption) (*PutBlobResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type walletStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewWalletStoreClient(cc grpc.ClientConnInterface) WalletStoreClient {
	return &walletStoreClient{cc}
}

func invoke[T any](ctx context.Context, cc grpc.ClientConnInterface, method string, in Message, opts []grpc.CallOption) (*T, error) {
	out := new(T)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *walletStoreClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, WalletStore_SignUp_FullMethodName, in, opts)
}

func (c *walletStoreClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, WalletStore_SignIn_FullMethodName, in, opts)
}

func (c *walletStoreClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, WalletStore_RefreshToken_FullMethodName, in, opts)
}

func (c *walletStoreClient) UpdateMetadata(ctx context.Context, in *UpdateMetadataRequest, opts ...grpc.CallOption) (*UpdateMetadataResponse, error) {
	return invoke[UpdateMetadataResponse](ctx, c.cc, WalletStore_UpdateMetadata_FullMethodName, in, opts)
}

func (c *walletStoreClient) GetBlob(ctx context.Context, in *GetBlobRequest, opts ...grpc.CallOption) (*GetBlobResponse, error) {
	return invoke[GetBlobResponse](ctx, c.cc, WalletStore_GetBlob_FullMethodName, in, opts)
}

func (c *walletStoreClient) PutBlob(ctx context.Context, in *PutBlobRequest, opts ...grpc.CallOption) (*PutBlobResponse, error) {
	return invoke[PutBlobResponse](ctx, c.cc, WalletStore_PutBlob_FullMethodName, in, opts)
}

func (c *walletStoreClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, WalletStore_Ping_FullMethodName, in, opts)
}

// WalletStoreServer is the server API for the WalletStore service.
// Implementations must embed UnimplementedWalletStoreServer.
type WalletStoreServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	UpdateMetadata(context.Context, *UpdateMetadataRequest) (*UpdateMetadataResponse, error)
	GetBlob(context.Context, *GetBlobRequest) (*GetBlobResponse, error)
	PutBlob(context.Context, *PutBlobRequest) (*PutBlobResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	mustEmbedUnimplementedWalletStoreServer()
}

type UnimplementedWalletStoreServer struct{}

func (UnimplementedWalletStoreServer) SignUp(context.Context, *SignUpRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedWalletStoreServer) SignIn(context.Context, *SignInRequest) (*AuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedWalletStoreServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedWalletStoreServer) UpdateMetadata(context.Context, *UpdateMetadataRequest) (*UpdateMetadataResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateMetadata not implemented")
}
func (UnimplementedWalletStoreServer) GetBlob(context.Context, *GetBlobRequest) (*GetBlobResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBlob not implemented")
}
func (UnimplementedWalletStoreServer) PutBlob(context.Context, *PutBlobRequest) (*PutBlobResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PutBlob not implemented")
}
func (UnimplementedWalletStoreServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedWalletStoreServer) mustEmbedUnimplementedWalletStoreServer() {}

// RegisterWalletStoreServer registers srv on s. The grpc.Server must be
// created with grpc.ForceServerCodec(Codec{}).
func RegisterWalletStoreServer(s grpc.ServiceRegistrar, srv WalletStoreServer) {
	s.RegisterService(&WalletStore_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodDesc.Handler.
func unaryHandler[Req any, PReq interface {
	*Req
	Message
}, Resp any](method string, call func(WalletStoreServer, context.Context, PReq) (Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WalletStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WalletStoreServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// WalletStore_ServiceDesc is the grpc.ServiceDesc for the WalletStore service.
var WalletStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WalletStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SignUp",
			Handler: unaryHandler(WalletStore_SignUp_FullMethodName,
				func(s WalletStoreServer, ctx context.Context, in *SignUpRequest) (*AuthResponse, error) {
					return s.SignUp(ctx, in)
				}),
		},
		{
			MethodName: "SignIn",
			Handler: unaryHandler(WalletStore_SignIn_FullMethodName,
				func(s WalletStoreServer, ctx context.Context, in *SignInRequest) (*AuthResponse, error) {
					return s.SignIn(ctx, in)
				}),
		},
		{
			MethodName: "RefreshToken",
			Handler: unaryHandler(WalletStore_RefreshToken_FullMethodName,
				func(s WalletStoreServer, ctx context.Context, in *RefreshTokenRequest) (*RefreshTokenResponse, error) {
					return s.RefreshToken(ctx, in)
				}),
		},
		{
			MethodName: "UpdateMetadata",
			Handler: unaryHandler(WalletStore_UpdateMetadata_FullMethodName,
				func(s WalletStoreServer, ctx context.Context, in *UpdateMetadataRequest) (*UpdateMetadataResponse, error) {
					return s.UpdateMetadata(ctx, in)
				}),
		},
		{
			MethodName: "GetBlob",
			Handler: unaryHandler(WalletStore_GetBlob_FullMethodName,
				func(s WalletStoreServer, ctx context.Context, in *GetBlobRequest) (*GetBlobResponse, error) {
					return s.GetBlob(ctx, in)
				}),
		},
		{
			MethodName: "PutBlob",
			Handler: unaryHandler(WalletStore_PutBlob_FullMethodName,
				func(s WalletStoreServer, ctx context.Context, in *PutBlobRequest) (*PutBlobResponse, error) {
					return s.PutBlob(ctx, in)
				}),
		},
		{
			MethodName: "Ping",
			Handler: unaryHandler(WalletStore_Ping_FullMethodName,
				func(s WalletStoreServer, ctx context.Context, in *PingRequest) (*PingResponse, error) {
					return s.Ping(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "walletstore.proto",
}
