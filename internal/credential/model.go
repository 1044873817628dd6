// Package credential mints and checks short-lived attendance credentials:
// signed, self-describing proofs of presence for a scheduled session that a
// check-in point can verify without a round trip to storage.
//
// A Credential is produced by an Issuer (or BulkIssuer / Renewer), serialized
// with Codec into a wire string that the rendering side turns into a scannable
// code, and finally checked by a Validator when the code is scanned.
package credential

import "time"

// NonceSize is the number of random bytes behind every nonce.
const NonceSize = 16

// Payload is the data embedded in the scannable code. HallID and SessionName
// are optional and empty when absent. SessionName is advisory only.
type Payload struct {
	SessionID   string
	EventID     string
	HallID      string
	SessionName string
	IssuedAt    int64 // epoch milliseconds
	ExpiresAt   int64 // epoch milliseconds, always greater than IssuedAt
	Nonce       string
}

// IssuedTime returns IssuedAt as a time.Time.
func (p Payload) IssuedTime() time.Time {
	return time.UnixMilli(p.IssuedAt)
}

// ExpiresTime returns ExpiresAt as a time.Time.
func (p Payload) ExpiresTime() time.Time {
	return time.UnixMilli(p.ExpiresAt)
}

// Window is the validity span of the payload.
func (p Payload) Window() time.Duration {
	return time.Duration(p.ExpiresAt-p.IssuedAt) * time.Millisecond
}

// Handoff is what attendance recording receives once a scan is accepted.
func (p Payload) Handoff() Handoff {
	return Handoff{
		SessionID: p.SessionID,
		EventID:   p.EventID,
		HallID:    p.HallID,
		IssuedAt:  p.IssuedAt,
		ExpiresAt: p.ExpiresAt,
	}
}

// Credential is a payload together with its integrity tag. Credentials are
// never modified after issuance; renewal produces a new one.
type Credential struct {
	Payload
	Tag string
}

// Request describes a single issuance. ExpiryMinutes is optional: nil means
// the issuer default, anything else must be within the issuer bounds.
type Request struct {
	SessionID     string
	EventID       string
	HallID        string
	SessionName   string
	ExpiryMinutes *int
}

// Handoff is the accepted-scan record passed to attendance recording.
type Handoff struct {
	SessionID string
	EventID   string
	HallID    string
	IssuedAt  int64
	ExpiresAt int64
}

// Minutes is a helper for filling optional expiry fields.
func Minutes(n int) *int {
	return &n
}
