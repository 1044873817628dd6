package credential

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

var (
	testKey    = []byte("0123456789abcdef0123456789abcdef")
	testOldKey = []byte("fedcba9876543210fedcba9876543210")
)

func newTestSigner(t *testing.T, keys ...[]byte) *HMACSigner {
	t.Helper()
	if len(keys) == 0 {
		keys = [][]byte{testKey}
	}
	s, err := NewHMACSigner(keys[0], keys[1:]...)
	require.NoError(t, err)
	return s
}

func mockClockAt(ms int64) *clock.Mock {
	m := clock.NewMock()
	m.Set(time.UnixMilli(ms))
	return m
}

func newTestIssuer(t *testing.T, signer Signer, clk clock.Clock) *Issuer {
	t.Helper()
	i, err := NewIssuer(signer, clk, DefaultPolicy())
	require.NoError(t, err)
	return i
}

func newTestValidator(t *testing.T, signer Signer, clk clock.Clock) *Validator {
	t.Helper()
	v, err := NewValidator(signer, clk)
	require.NoError(t, err)
	return v
}

func mustEncode(t *testing.T, c *Credential) string {
	t.Helper()
	wire, err := Codec{}.Encode(c)
	require.NoError(t, err)
	return wire
}

type failingSigner struct{ err error }

func (f failingSigner) Sign(Payload) (string, error) { return "", f.err }
func (f failingSigner) Verify(Payload, string) bool  { return false }
