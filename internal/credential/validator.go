package credential

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Reason is a stable, machine readable rejection reason.
type Reason string

const (
	ReasonMalformed   Reason = "malformed_credential"
	ReasonTagMismatch Reason = "tag_mismatch"
	ReasonExpired     Reason = "expired"
	ReasonNotYetValid Reason = "not_yet_valid"

	// ReasonSuperseded is never produced by Validator. It is reserved for
	// callers that track the newest credential per session.
	ReasonSuperseded Reason = "superseded"
)

var reasonMessages = map[Reason]string{
	ReasonMalformed:   "this code is invalid",
	ReasonTagMismatch: "this code is invalid",
	ReasonExpired:     "this code has expired, ask for a new one",
	ReasonNotYetValid: "this code is not valid yet, check the device clock",
	ReasonSuperseded:  "this code was replaced, scan the current one",
}

// Message is the text a scanning client shows for the reason.
func (r Reason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return "this code was rejected"
}

// Result is the outcome of one validation attempt. Payload is set only when
// Accepted is true. Err carries decode details for malformed input.
type Result struct {
	Accepted bool
	Reason   Reason
	Payload  *Payload
	Err      error
}

func accepted(p Payload) Result {
	return Result{Accepted: true, Payload: &p}
}

func rejected(reason Reason, err error) Result {
	return Result{Reason: reason, Err: err}
}

// Validator decides whether a wire string is a currently valid credential.
// Validation reads nothing but its input, the clock and the signing keys, so
// it is safe for concurrent use.
type Validator struct {
	clock  clock.Clock
	signer Signer
	codec  Codec
}

func NewValidator(signer Signer, clk clock.Clock) (*Validator, error) {
	if signer == nil {
		return nil, invalidInput("nil signer")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Validator{clock: clk, signer: signer}, nil
}

// Validate checks wire against the current time.
func (v *Validator) Validate(wire string) Result {
	return v.ValidateAt(wire, v.clock.Now())
}

// ValidateAt checks wire as if the current time were now.
func (v *Validator) ValidateAt(wire string, now time.Time) Result {
	c, err := v.codec.Decode(wire)
	if err != nil {
		return rejected(ReasonMalformed, err)
	}

	if !v.signer.Verify(c.Payload, c.Tag) {
		return rejected(ReasonTagMismatch, ErrTagMismatch)
	}

	ms := now.UnixMilli()
	switch {
	case ms > c.ExpiresAt:
		return rejected(ReasonExpired, nil)
	case ms < c.IssuedAt:
		return rejected(ReasonNotYetValid, nil)
	}

	return accepted(c.Payload)
}
