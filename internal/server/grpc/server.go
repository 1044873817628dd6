// Package grpc exposes the credential and check-in services over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/attendpass/internal/logging"
	pb "github.com/dmitrijs2005/attendpass/internal/proto"
	"github.com/dmitrijs2005/attendpass/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address     string
	credentials *services.CredentialService
	checkins    *services.CheckInService
	logger      logging.Logger
}

var _ pb.CredentialServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, cs *services.CredentialService, ci *services.CheckInService) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		credentials: cs,
		checkins:    ci,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestInterceptor))
	pb.RegisterCredentialServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
