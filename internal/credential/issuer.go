package credential

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/attendpass/internal/common"
)

const (
	DefaultExpiryMinutes = 30
	MaxExpiryMinutes     = 1440
)

// Policy holds the expiry rules shared by every credential an Issuer mints.
type Policy struct {
	DefaultExpiryMinutes int
	MaxExpiryMinutes     int
}

// DefaultPolicy is 30 minute credentials, at most one day.
func DefaultPolicy() Policy {
	return Policy{DefaultExpiryMinutes: DefaultExpiryMinutes, MaxExpiryMinutes: MaxExpiryMinutes}
}

func (p Policy) allows(minutes int) bool {
	return minutes >= 1 && minutes <= p.MaxExpiryMinutes
}

// resolve picks the effective expiry for a request.
func (p Policy) resolve(minutes *int) (int, error) {
	if minutes == nil {
		return p.DefaultExpiryMinutes, nil
	}
	if !p.allows(*minutes) {
		return 0, invalidInput("expiry minutes %d outside [1, %d]", *minutes, p.MaxExpiryMinutes)
	}
	return *minutes, nil
}

// Issuer mints credentials. It keeps no mutable state, so a single Issuer can
// be shared by any number of goroutines.
type Issuer struct {
	clock  clock.Clock
	signer Signer
	policy Policy
	random io.Reader
}

// NewIssuer returns an Issuer. A zero policy is replaced with DefaultPolicy.
func NewIssuer(signer Signer, clk clock.Clock, policy Policy) (*Issuer, error) {
	if signer == nil {
		return nil, invalidInput("nil signer")
	}
	if clk == nil {
		clk = clock.New()
	}
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	if policy.MaxExpiryMinutes < 1 || !policy.allows(policy.DefaultExpiryMinutes) {
		return nil, invalidInput("default expiry %d outside [1, %d]", policy.DefaultExpiryMinutes, policy.MaxExpiryMinutes)
	}
	return &Issuer{clock: clk, signer: signer, policy: policy, random: rand.Reader}, nil
}

// Policy returns the expiry policy of the issuer.
func (i *Issuer) Policy() Policy {
	return i.policy
}

// Issue mints a credential for req. Two calls with the same request always
// produce different credentials because every credential gets its own nonce.
func (i *Issuer) Issue(req Request) (*Credential, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	minutes, err := i.policy.resolve(req.ExpiryMinutes)
	if err != nil {
		return nil, err
	}

	now := i.clock.Now().UnixMilli()

	nonce, err := common.ReadRandHexString(i.random, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", ErrIssuanceFailed, err)
	}

	c := &Credential{Payload: Payload{
		SessionID:   req.SessionID,
		EventID:     req.EventID,
		HallID:      req.HallID,
		SessionName: req.SessionName,
		IssuedAt:    now,
		ExpiresAt:   now + int64(minutes)*time.Minute.Milliseconds(),
		Nonce:       nonce,
	}}

	c.Tag, err = i.signer.Sign(c.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %w", ErrIssuanceFailed, err)
	}

	return c, nil
}

func checkRequest(req Request) error {
	switch {
	case req.SessionID == "":
		return invalidInput("empty session id")
	case req.EventID == "":
		return invalidInput("empty event id")
	}

	for _, f := range []struct{ name, v string }{
		{"session id", req.SessionID},
		{"event id", req.EventID},
		{"hall id", req.HallID},
		{"session name", req.SessionName},
	} {
		if len(f.v) > MaxFieldLength {
			return invalidInput("%s longer than %d bytes", f.name, MaxFieldLength)
		}
		// The wire encoder replaces invalid bytes, which would break the tag.
		if !utf8.ValidString(f.v) {
			return invalidInput("%s is not valid UTF-8", f.name)
		}
	}
	return nil
}
