package client

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	pb "github.com/dmitrijs2005/attendpass/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

/*************
 * Fake pb client
 *************/

type fakePB struct {
	lastMethod string
	lastReq    *structpb.Struct

	resp map[string]any
	err  error
}

func (f *fakePB) call(method string, in *structpb.Struct) (*structpb.Struct, error) {
	f.lastMethod = method
	f.lastReq = in
	if f.err != nil {
		return nil, f.err
	}
	return structpb.NewStruct(f.resp)
}

func (f *fakePB) Issue(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.call("Issue", in)
}

func (f *fakePB) IssueBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.call("IssueBatch", in)
}

func (f *fakePB) Renew(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.call("Renew", in)
}

func (f *fakePB) Validate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.call("Validate", in)
}

func (f *fakePB) Attendance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.call("Attendance", in)
}

func (f *fakePB) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.call("Ping", in)
}

var sampleCredential = &credential.Credential{
	Payload: credential.Payload{
		SessionID: "s1",
		EventID:   "e1",
		IssuedAt:  1000,
		ExpiresAt: 1801000,
		Nonce:     "00112233445566778899aabbccddeeff",
	},
	Tag: "aa",
}

func TestPing(t *testing.T) {
	f := &fakePB{resp: map[string]any{"status": "OK"}}
	c := &GRPCClient{client: f}
	require.NoError(t, c.Ping(context.Background()))

	f.resp = map[string]any{"status": "DEGRADED"}
	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)

	f.err = status.Error(codes.Unavailable, "connection refused")
	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestIssue(t *testing.T) {
	f := &fakePB{resp: map[string]any{
		"credential": pb.CredentialMap(sampleCredential),
		"wire":       `{"v":1}`,
	}}
	c := &GRPCClient{client: f}

	out, err := c.Issue(context.Background(), credential.Request{SessionID: "s1", EventID: "e1", ExpiryMinutes: credential.Minutes(30)})
	require.NoError(t, err)
	assert.Equal(t, sampleCredential, out.Credential)
	assert.Equal(t, `{"v":1}`, out.Wire)

	exp, err := pb.OptionalInt(f.lastReq, pb.FieldExpiryMinutes)
	require.NoError(t, err)
	assert.Equal(t, 30, *exp)

	f.err = status.Error(codes.InvalidArgument, "empty session id")
	_, err = c.Issue(context.Background(), credential.Request{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorContains(t, err, "empty session id")
}

func TestRenew(t *testing.T) {
	f := &fakePB{resp: map[string]any{
		"credential": pb.CredentialMap(sampleCredential),
		"wire":       "w2",
	}}
	c := &GRPCClient{client: f}

	out, err := c.Renew(context.Background(), "w1", nil)
	require.NoError(t, err)
	assert.Equal(t, "w2", out.Wire)

	wire, _ := pb.String(f.lastReq, pb.FieldWire)
	assert.Equal(t, "w1", wire)
	_, present := f.lastReq.GetFields()[pb.FieldExpiryMinutes]
	assert.False(t, present)
}

func TestValidate(t *testing.T) {
	f := &fakePB{resp: map[string]any{
		"accepted":  true,
		"recorded":  true,
		"duplicate": true,
		"handoff":   pb.HandoffMap(sampleCredential.Handoff()),
	}}
	c := &GRPCClient{client: f}

	v, err := c.Validate(context.Background(), "w", "att-1")
	require.NoError(t, err)
	attendee, _ := pb.String(f.lastReq, pb.FieldAttendeeID)
	assert.Equal(t, "att-1", attendee)
	assert.True(t, v.Accepted)
	assert.True(t, v.Recorded)
	assert.True(t, v.Duplicate)
	assert.Equal(t, sampleCredential.Handoff(), *v.Handoff)

	f.resp = map[string]any{"accepted": false, "reason": "expired", "message": "this code has expired, ask for a new one"}
	v, err = c.Validate(context.Background(), "w", "")
	require.NoError(t, err)
	assert.False(t, v.Accepted)
	assert.Equal(t, "expired", v.Reason)
	assert.Nil(t, v.Handoff)
}

func TestIssueBatch(t *testing.T) {
	f := &fakePB{resp: map[string]any{
		"results": []any{
			map[string]any{"sessionId": "s1", "wire": "w1", "expiresAt": 5000},
			map[string]any{"sessionId": "", "error": "invalid input: empty session id", "code": "InvalidArgument"},
		},
		"exportKey": "manifests/k.json",
		"exportUrl": "https://example.test/k",
	}}
	c := &GRPCClient{client: f}

	out, err := c.IssueBatch(context.Background(),
		[]credential.Request{{SessionID: "s1", EventID: "e1"}, {EventID: "e1"}},
		BatchOptions{ExpiryMinutes: credential.Minutes(60), Export: true})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, BatchItem{SessionID: "s1", Wire: "w1", ExpiresAt: 5000}, out.Items[0])
	assert.Equal(t, "InvalidArgument", out.Items[1].Code)
	assert.Equal(t, "https://example.test/k", out.ExportURL)

	reqs, err := pb.StructList(f.lastReq, pb.FieldRequests)
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
	export, _ := pb.Bool(f.lastReq, pb.FieldExport)
	assert.True(t, export)

	f.err = status.Error(codes.ResourceExhausted, "batch too large")
	_, err = c.IssueBatch(context.Background(), nil, BatchOptions{})
	assert.ErrorIs(t, err, ErrRejectedBatch)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	plain := errors.New("plain")
	assert.Same(t, plain, mapError(plain))

	err := mapError(status.Error(codes.Internal, "internal error"))
	assert.EqualError(t, err, "Internal: internal error")

	assert.ErrorIs(t, mapError(status.Error(codes.DeadlineExceeded, "slow")), ErrUnavailable)
	assert.ErrorIs(t, mapError(status.Error(codes.FailedPrecondition, "export off")), ErrRejectedBatch)
	assert.ErrorIs(t, mapError(status.Error(codes.NotFound, "not found")), ErrNotFound)
}

func TestRequestIDInterceptor(t *testing.T) {
	var got []string
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		got = md.Get(common.RequestIDHeaderName)
		return nil
	}

	require.NoError(t, requestIDInterceptor(context.Background(), "/m", nil, nil, nil, invoker))
	require.Len(t, got, 1)
	assert.Len(t, got[0], 36)

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.RequestIDHeaderName, "mine")
	require.NoError(t, requestIDInterceptor(ctx, "/m", nil, nil, nil, invoker))
	assert.Equal(t, []string{"mine"}, got)
}

func TestNew(t *testing.T) {
	c, err := New("127.0.0.1:1")
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestAttendance(t *testing.T) {
	f := &fakePB{resp: map[string]any{"sessionId": "s1", "eventId": "e1", "checkIns": 12, "updatedAt": 1773478800000}}
	c := &GRPCClient{client: f}

	a, err := c.Attendance(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Attendance", f.lastMethod)
	sid, _ := pb.String(f.lastReq, pb.FieldSessionID)
	assert.Equal(t, "s1", sid)
	assert.Equal(t, &pb.Attendance{SessionID: "s1", EventID: "e1", CheckIns: 12, UpdatedAt: 1773478800000}, a)

	f.err = status.Error(codes.NotFound, "not found")
	_, err = c.Attendance(context.Background(), "s2")
	assert.ErrorIs(t, err, ErrNotFound)
}
