package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/logging"
	pb "github.com/dmitrijs2005/attendpass/internal/proto"
	"github.com/dmitrijs2005/attendpass/internal/server/latest"
	"github.com/dmitrijs2005/attendpass/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	clock  *clock.Mock
	server *GRPCServer
	client pb.CredentialServiceClient
	conn   *grpc.ClientConn
}

func newTestServer(t *testing.T, enforceLatest bool) (*GRPCServer, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	signer, err := credential.NewHMACSigner(testKey)
	require.NoError(t, err)
	issuer, err := credential.NewIssuer(signer, clk, credential.DefaultPolicy())
	require.NoError(t, err)

	validator, err := credential.NewValidator(signer, clk)
	require.NoError(t, err)

	store := latest.NewMemoryStore(clk)
	cs := services.NewCredentialService(issuer, credential.NewBulkIssuer(issuer, 3, 2),
		credential.NewRenewer(issuer, signer), store, nil, logging.Nop{})
	ci := services.NewCheckInService(validator, services.NewMemoryRecorder(), store, enforceLatest, clk, logging.Nop{})

	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, cs, ci), clk
}

func newTestEnv(t *testing.T, enforceLatest bool) *testEnv {
	t.Helper()
	srv, clk := newTestServer(t, enforceLatest)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})

	return &testEnv{clock: clk, server: srv, client: pb.NewCredentialServiceClient(conn), conn: conn}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}
