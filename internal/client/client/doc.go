// Package client talks to the attendpass credential service over gRPC.
//
// GRPCClient converts between credential types and the Struct messages of
// the service, attaches a request id to every call and maps transport
// failures to sentinel errors matched with errors.Is:
// ErrUnavailable, ErrInvalidArgument, ErrRejectedBatch.
package client
