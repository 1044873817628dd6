package credential

import "time"

// Renewer replaces a session credential with a fresh one. The previous
// credential is left untouched and stays valid until it expires.
type Renewer struct {
	issuer *Issuer
	signer Signer
	codec  Codec
}

func NewRenewer(issuer *Issuer, signer Signer) *Renewer {
	return &Renewer{issuer: issuer, signer: signer}
}

// Renew issues a new credential for the session of prev. When expiryMinutes
// is nil the previous window is reused if it is a whole number of minutes
// within policy, otherwise the issuer default applies. prev does not need to
// be valid any more.
func (r *Renewer) Renew(prev *Credential, expiryMinutes *int) (*Credential, error) {
	if prev == nil {
		return nil, invalidInput("nil credential")
	}

	if expiryMinutes == nil {
		expiryMinutes = r.previousWindow(prev.Payload)
	}

	return r.issuer.Issue(Request{
		SessionID:     prev.SessionID,
		EventID:       prev.EventID,
		HallID:        prev.HallID,
		SessionName:   prev.SessionName,
		ExpiryMinutes: expiryMinutes,
	})
}

// RenewWire renews a credential presented as a wire string. The tag must
// verify, freshness is not checked.
func (r *Renewer) RenewWire(wire string, expiryMinutes *int) (*Credential, error) {
	prev, err := r.codec.Decode(wire)
	if err != nil {
		return nil, err
	}
	if !r.signer.Verify(prev.Payload, prev.Tag) {
		return nil, ErrTagMismatch
	}
	return r.Renew(prev, expiryMinutes)
}

func (r *Renewer) previousWindow(p Payload) *int {
	w := p.Window()
	if w%time.Minute != 0 {
		return nil
	}
	m := int(w / time.Minute)
	if !r.issuer.Policy().allows(m) {
		return nil
	}
	return &m
}
