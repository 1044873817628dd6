package credential

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TagLength is the length of a hex encoded HMAC-SHA256 tag.
	TagLength = 64

	// MinKeyLength is the shortest signing key accepted by NewHMACSigner.
	MinKeyLength = 32

	signingContext = "attendpass/credential/v1"
)

var errShortKey = errors.New("signing key too short")

// Signer binds a payload to a server-held secret.
type Signer interface {
	// Sign returns the tag for p. It depends on every payload field.
	Sign(p Payload) (string, error)
	// Verify reports whether tag is a valid tag for p. It never panics on
	// malformed tags, it just returns false.
	Verify(p Payload, tag string) bool
}

// HMACSigner signs with HMAC-SHA256 over a canonical payload encoding.
//
// It holds a key ring: the first key signs, every key verifies. Keeping the
// previous key in the ring after a rotation lets credentials minted before the
// rotation be validated until they expire.
type HMACSigner struct {
	method *jwt.SigningMethodHMAC
	keys   [][]byte
}

// NewHMACSigner creates a signer that signs with current and additionally
// accepts tags produced with any of previous.
func NewHMACSigner(current []byte, previous ...[]byte) (*HMACSigner, error) {
	keys := make([][]byte, 0, 1+len(previous))
	for _, k := range append([][]byte{current}, previous...) {
		if len(k) < MinKeyLength {
			return nil, errShortKey
		}
		keys = append(keys, append([]byte(nil), k...))
	}
	return &HMACSigner{method: jwt.SigningMethodHS256, keys: keys}, nil
}

func (s *HMACSigner) Sign(p Payload) (string, error) {
	sig, err := s.method.Sign(canonical(p), s.keys[0])
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

func (s *HMACSigner) Verify(p Payload, tag string) bool {
	if len(tag) != TagLength {
		return false
	}
	sig, err := hex.DecodeString(tag)
	if err != nil {
		return false
	}

	msg := canonical(p)
	ok := false
	// every key is tried so the time spent does not depend on which one matches
	for _, k := range s.keys {
		if s.method.Verify(msg, sig, k) == nil {
			ok = true
		}
	}
	return ok
}

// canonical is the signed representation of a payload: a context label
// followed by every field, length-prefixed, in a fixed order.
func canonical(p Payload) string {
	fields := [...]string{
		p.SessionID,
		p.EventID,
		p.HallID,
		p.SessionName,
		strconv.FormatInt(p.IssuedAt, 10),
		strconv.FormatInt(p.ExpiresAt, 10),
		p.Nonce,
	}

	var b strings.Builder
	b.WriteString(signingContext)
	for _, f := range fields {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
	}
	return b.String()
}
