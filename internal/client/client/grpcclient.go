package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	pb "github.com/dmitrijs2005/attendpass/internal/proto"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Issued is a credential returned by Issue or Renew.
type Issued struct {
	Credential *credential.Credential
	Wire       string
}

// BatchOptions are the batch-wide settings of IssueBatch.
type BatchOptions struct {
	ExpiryMinutes *int
	Sequential    bool
	Export        bool
}

// BatchItem is one result of IssueBatch; exactly one of Wire and Error is set.
type BatchItem struct {
	SessionID string
	Wire      string
	ExpiresAt int64
	Error     string
	Code      string
}

// Batch is the IssueBatch response.
type Batch struct {
	Items     []BatchItem
	ExportKey string
	ExportURL string
}

// Verdict is the outcome of Validate.
type Verdict struct {
	Accepted  bool
	Recorded  bool
	Duplicate bool
	Reason    string
	Message   string
	Handoff   *credential.Handoff
}

type GRPCClient struct {
	conn   *grpc.ClientConn
	client pb.CredentialServiceClient
}

// New dials addr without transport security.
func New(addr string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{conn: conn, client: pb.NewCredentialServiceClient(conn)}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func requestIDInterceptor(ctx context.Context, method string, req, reply any,
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	if md, ok := metadata.FromOutgoingContext(ctx); !ok || len(md.Get(common.RequestIDHeaderName)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, common.RequestIDHeaderName, uuid.NewString())
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// mapError converts gRPC status errors to the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	case codes.ResourceExhausted, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrRejectedBatch, st.Message())
	default:
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
}

func request(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return s, nil
}

func issuedFromStruct(resp *structpb.Struct) (*Issued, error) {
	wire, err := pb.String(resp, pb.FieldWire)
	if err != nil {
		return nil, err
	}
	credMsg, err := pb.Nested(resp, pb.FieldCredential)
	if err != nil {
		return nil, err
	}
	c, err := pb.CredentialFromStruct(credMsg)
	if err != nil {
		return nil, err
	}
	return &Issued{Credential: c, Wire: wire}, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(ctx, &structpb.Struct{})
	if err != nil {
		return mapError(err)
	}
	if s, _ := pb.String(resp, pb.FieldStatus); s != "OK" {
		return fmt.Errorf("%w: status %q", ErrUnavailable, s)
	}
	return nil
}

func (c *GRPCClient) Issue(ctx context.Context, r credential.Request) (*Issued, error) {
	in, err := request(pb.RequestMap(r))
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Issue(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}
	return issuedFromStruct(resp)
}

func (c *GRPCClient) IssueBatch(ctx context.Context, reqs []credential.Request, opts BatchOptions) (*Batch, error) {
	items := make([]any, len(reqs))
	for i, r := range reqs {
		items[i] = pb.RequestMap(r)
	}
	m := map[string]any{
		pb.FieldRequests:   items,
		pb.FieldSequential: opts.Sequential,
		pb.FieldExport:     opts.Export,
	}
	if opts.ExpiryMinutes != nil {
		m[pb.FieldExpiryMinutes] = *opts.ExpiryMinutes
	}

	in, err := request(m)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.IssueBatch(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}

	results, err := pb.StructList(resp, pb.FieldResults)
	if err != nil {
		return nil, err
	}

	out := &Batch{Items: make([]BatchItem, len(results))}
	out.ExportKey, _ = pb.String(resp, pb.FieldExportKey)
	out.ExportURL, _ = pb.String(resp, pb.FieldExportURL)

	for i, r := range results {
		item := BatchItem{}
		item.SessionID, _ = pb.String(r, pb.FieldSessionID)
		item.Error, _ = pb.String(r, pb.FieldError)
		item.Code, _ = pb.String(r, pb.FieldCode)
		if item.Error == "" {
			if item.Wire, err = pb.String(r, pb.FieldWire); err != nil {
				return nil, err
			}
			if item.ExpiresAt, err = pb.Int64(r, pb.FieldExpiresAt); err != nil {
				return nil, err
			}
		}
		out.Items[i] = item
	}
	return out, nil
}

func (c *GRPCClient) Renew(ctx context.Context, wire string, expiryMinutes *int) (*Issued, error) {
	m := map[string]any{pb.FieldWire: wire}
	if expiryMinutes != nil {
		m[pb.FieldExpiryMinutes] = *expiryMinutes
	}
	in, err := request(m)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Renew(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}
	return issuedFromStruct(resp)
}

// Validate checks wire and, when attendeeID is set, checks that attendee in.
func (c *GRPCClient) Validate(ctx context.Context, wire, attendeeID string) (*Verdict, error) {
	in, err := request(map[string]any{pb.FieldWire: wire, pb.FieldAttendeeID: attendeeID})
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Validate(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}

	v := &Verdict{}
	if v.Accepted, err = pb.Bool(resp, pb.FieldAccepted); err != nil {
		return nil, err
	}
	if !v.Accepted {
		v.Reason, _ = pb.String(resp, pb.FieldReason)
		v.Message, _ = pb.String(resp, pb.FieldMessage)
		return v, nil
	}

	v.Recorded, _ = pb.Bool(resp, pb.FieldRecorded)
	v.Duplicate, _ = pb.Bool(resp, pb.FieldDuplicate)
	handoffMsg, err := pb.Nested(resp, pb.FieldHandoff)
	if err != nil {
		return nil, err
	}
	h, err := pb.HandoffFromStruct(handoffMsg)
	if err != nil {
		return nil, err
	}
	v.Handoff = &h
	return v, nil
}

// Attendance returns the check-in counter of sessionID.
func (c *GRPCClient) Attendance(ctx context.Context, sessionID string) (*pb.Attendance, error) {
	in, err := request(map[string]any{pb.FieldSessionID: sessionID})
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Attendance(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}
	a, err := pb.AttendanceFromStruct(resp)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
