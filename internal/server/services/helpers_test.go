package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/attendpass/internal/common"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/logging"
	"github.com/dmitrijs2005/attendpass/internal/server/exports"
	"github.com/dmitrijs2005/attendpass/internal/server/models"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type stack struct {
	clock     *clock.Mock
	signer    *credential.HMACSigner
	issuer    *credential.Issuer
	validator *credential.Validator
	bulk      *credential.BulkIssuer
	renewer   *credential.Renewer
}

func newStack(t *testing.T) *stack {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	signer, err := credential.NewHMACSigner(testKey)
	require.NoError(t, err)
	issuer, err := credential.NewIssuer(signer, clk, credential.DefaultPolicy())
	require.NoError(t, err)

	validator, err := credential.NewValidator(signer, clk)
	require.NoError(t, err)

	return &stack{
		clock:     clk,
		signer:    signer,
		issuer:    issuer,
		validator: validator,
		bulk:      credential.NewBulkIssuer(issuer, 10, 4),
		renewer:   credential.NewRenewer(issuer, signer),
	}
}

func (s *stack) wire(t *testing.T, sessionID string) (string, *credential.Credential) {
	t.Helper()
	c, err := s.issuer.Issue(credential.Request{SessionID: sessionID, EventID: "e1", HallID: "h1"})
	require.NoError(t, err)
	w, err := credential.Codec{}.Encode(c)
	require.NoError(t, err)
	return w, c
}

func bufferLogger(t *testing.T) (logging.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logging.New(&buf, "debug", "json")
	require.NoError(t, err)
	return l, &buf
}

type recordCall struct {
	payload    credential.Payload
	attendeeID string
	scannedAt  time.Time
}

type fakeRecorder struct {
	mu    sync.Mutex
	seen  map[string]bool
	calls []recordCall
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, p credential.Payload, attendeeID string, scannedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.calls = append(f.calls, recordCall{payload: p, attendeeID: attendeeID, scannedAt: scannedAt})
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	k := p.SessionID + "/" + attendeeID
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeRecorder) Attendance(_ context.Context, sessionID string) (*models.SessionAttendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var n int64
	for k := range f.seen {
		if strings.HasPrefix(k, sessionID+"/") {
			n++
		}
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}
	return &models.SessionAttendance{SessionID: sessionID, EventID: "e1", CheckIns: n}, nil
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("redis down")
}

type fakeExporter struct {
	rows []exports.Row
	err  error
}

func (f *fakeExporter) Export(_ context.Context, rows []exports.Row) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.rows = rows
	return "manifests/2026/03/14/x.json", "https://example.test/x", nil
}
