// Package proto describes the attendpass.CredentialService gRPC contract.
// Messages are google.protobuf.Struct values, so the service needs no
// generated code: this file plays the part of the *_grpc.pb.go stubs.
package proto

import (
	"context"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	CredentialService_Issue_FullMethodName      = "/" + common.ServiceName + "/Issue"
	CredentialService_IssueBatch_FullMethodName = "/" + common.ServiceName + "/IssueBatch"
	CredentialService_Renew_FullMethodName      = "/" + common.ServiceName + "/Renew"
	CredentialService_Validate_FullMethodName   = "/" + common.ServiceName + "/Validate"
	CredentialService_Attendance_FullMethodName = "/" + common.ServiceName + "/Attendance"
	CredentialService_Ping_FullMethodName       = "/" + common.ServiceName + "/Ping"
)

// CredentialServiceServer is the server API for attendpass.CredentialService.
type CredentialServiceServer interface {
	Issue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Renew(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Attendance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type serverMethod func(CredentialServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call serverMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CredentialServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CredentialServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CredentialService_ServiceDesc is the grpc.ServiceDesc for attendpass.CredentialService.
var CredentialService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: common.ServiceName,
	HandlerType: (*CredentialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Issue", Handler: unaryHandler(CredentialService_Issue_FullMethodName, CredentialServiceServer.Issue)},
		{MethodName: "IssueBatch", Handler: unaryHandler(CredentialService_IssueBatch_FullMethodName, CredentialServiceServer.IssueBatch)},
		{MethodName: "Renew", Handler: unaryHandler(CredentialService_Renew_FullMethodName, CredentialServiceServer.Renew)},
		{MethodName: "Validate", Handler: unaryHandler(CredentialService_Validate_FullMethodName, CredentialServiceServer.Validate)},
		{MethodName: "Attendance", Handler: unaryHandler(CredentialService_Attendance_FullMethodName, CredentialServiceServer.Attendance)},
		{MethodName: "Ping", Handler: unaryHandler(CredentialService_Ping_FullMethodName, CredentialServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "attendpass/credential_service",
}

func RegisterCredentialServiceServer(s grpc.ServiceRegistrar, srv CredentialServiceServer) {
	s.RegisterService(&CredentialService_ServiceDesc, srv)
}

// CredentialServiceClient is the client API for attendpass.CredentialService.
type CredentialServiceClient interface {
	Issue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	IssueBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Renew(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Validate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Attendance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type credentialServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCredentialServiceClient(cc grpc.ClientConnInterface) CredentialServiceClient {
	return &credentialServiceClient{cc}
}

func (c *credentialServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *credentialServiceClient) Issue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CredentialService_Issue_FullMethodName, in, opts...)
}

func (c *credentialServiceClient) IssueBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CredentialService_IssueBatch_FullMethodName, in, opts...)
}

func (c *credentialServiceClient) Renew(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CredentialService_Renew_FullMethodName, in, opts...)
}

func (c *credentialServiceClient) Validate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CredentialService_Validate_FullMethodName, in, opts...)
}

func (c *credentialServiceClient) Attendance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CredentialService_Attendance_FullMethodName, in, opts...)
}

func (c *credentialServiceClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CredentialService_Ping_FullMethodName, in, opts...)
}
