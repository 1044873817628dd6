package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	pb "github.com/dmitrijs2005/attendpass/internal/proto"
	"github.com/dmitrijs2005/attendpass/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorCode classifies err for status mapping and for per-item batch errors.
func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, credential.ErrInvalidInput),
		errors.Is(err, credential.ErrMalformedCredential),
		errors.Is(err, credential.ErrTagMismatch),
		errors.Is(err, pb.ErrBadField):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrorNotFound):
		return codes.NotFound
	case errors.Is(err, credential.ErrBatchTooLarge):
		return codes.ResourceExhausted
	case errors.Is(err, services.ErrExportDisabled):
		return codes.FailedPrecondition
	case errors.Is(err, common.ErrorUnavailable):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a gRPC status error. Internal
// failures are logged and replaced with a generic message.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	code := errorCode(err)
	if code == codes.Internal {
		s.logger.Error(ctx, err.Error(), "request_id", RequestIDFromContext(ctx))
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
