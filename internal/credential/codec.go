package credential

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const (
	// WireVersion is written into every wire string.
	WireVersion = 1

	// MaxWireLength bounds the input accepted by Decode.
	MaxWireLength = 2048

	// MaxFieldLength bounds identifiers and the session name.
	MaxFieldLength = 256

	minNonceLength = 2 * NonceSize
	maxNonceLength = 128
)

// wireCredential is the on-the-wire shape. Field order is fixed by the struct
// so encoding the same credential always gives the same string.
type wireCredential struct {
	Version     int    `json:"v"`
	SessionID   string `json:"sid"`
	EventID     string `json:"eid"`
	HallID      string `json:"hid,omitempty"`
	SessionName string `json:"sn,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
	Nonce       string `json:"n"`
	Tag         string `json:"tag"`
}

var (
	requiredWireFields = []string{"v", "sid", "eid", "iat", "exp", "n", "tag"}
	optionalWireFields = []string{"hid", "sn"}
)

// Codec converts credentials to and from compact JSON wire strings, e.g.
//
//	{"v":1,"sid":"sess-42","eid":"evt-7","iat":1000,"exp":1801000,"n":"…","tag":"…"}
//
// The zero value is ready to use.
type Codec struct{}

// Encode serializes c. The output is a pure function of c.
func (Codec) Encode(c *Credential) (string, error) {
	if c == nil {
		return "", invalidInput("nil credential")
	}
	b, err := json.Marshal(wireCredential{
		Version:     WireVersion,
		SessionID:   c.SessionID,
		EventID:     c.EventID,
		HallID:      c.HallID,
		SessionName: c.SessionName,
		IssuedAt:    c.IssuedAt,
		ExpiresAt:   c.ExpiresAt,
		Nonce:       c.Nonce,
		Tag:         c.Tag,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a wire string. Any structural problem is reported as a
// *DecodeError; the tag is checked for shape only, never for validity.
func (Codec) Decode(wire string) (*Credential, error) {
	if wire == "" {
		return nil, decodeErr("", "empty input")
	}
	if len(wire) > MaxWireLength {
		return nil, decodeErr("", "input too long")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(wire), &raw); err != nil {
		return nil, decodeErr("", "not a json object")
	}
	if err := checkWireKeys(raw); err != nil {
		return nil, err
	}

	var version int
	if err := decodeInt(raw, "v", &version); err != nil {
		return nil, err
	}
	if version != WireVersion {
		return nil, decodeErr("v", fmt.Sprintf("unsupported version %d", version))
	}

	c := &Credential{}
	for _, f := range []struct {
		key      string
		dst      *string
		required bool
	}{
		{"sid", &c.SessionID, true},
		{"eid", &c.EventID, true},
		{"hid", &c.HallID, false},
		{"sn", &c.SessionName, false},
		{"n", &c.Nonce, true},
		{"tag", &c.Tag, true},
	} {
		if err := decodeString(raw, f.key, f.dst, f.required); err != nil {
			return nil, err
		}
	}

	if err := decodeInt(raw, "iat", &c.IssuedAt); err != nil {
		return nil, err
	}
	if err := decodeInt(raw, "exp", &c.ExpiresAt); err != nil {
		return nil, err
	}
	if c.ExpiresAt <= c.IssuedAt {
		return nil, decodeErr("exp", "not after iat")
	}

	if err := checkHexField("n", c.Nonce, minNonceLength, maxNonceLength); err != nil {
		return nil, err
	}
	if err := checkHexField("tag", c.Tag, TagLength, TagLength); err != nil {
		return nil, err
	}

	return c, nil
}

func checkWireKeys(raw map[string]json.RawMessage) error {
	known := make(map[string]struct{}, len(requiredWireFields)+len(optionalWireFields))
	for _, k := range requiredWireFields {
		if _, ok := raw[k]; !ok {
			return decodeErr(k, "missing")
		}
		known[k] = struct{}{}
	}
	for _, k := range optionalWireFields {
		known[k] = struct{}{}
	}

	var unknown []string
	for k := range raw {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return decodeErr(unknown[0], "unknown field")
	}
	return nil
}

func decodeString(raw map[string]json.RawMessage, key string, dst *string, required bool) error {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return decodeErr(key, "null")
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return decodeErr(key, "not a string")
	}
	if required && *dst == "" {
		return decodeErr(key, "empty")
	}
	if len(*dst) > MaxFieldLength {
		return decodeErr(key, "too long")
	}
	return nil
}

// decodeInt accepts plain JSON integers only: no strings, fractions,
// exponents or nulls.
func decodeInt[T int | int64](raw map[string]json.RawMessage, key string, dst *T) error {
	s := string(bytes.TrimSpace(raw[key]))
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return decodeErr(key, "not an integer")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return decodeErr(key, "out of range")
	}
	*dst = T(n)
	return nil
}

// checkHexField requires lowercase hex of the given length range.
func checkHexField(key, s string, minLen, maxLen int) error {
	if len(s) < minLen || len(s) > maxLen || len(s)%2 != 0 {
		return decodeErr(key, fmt.Sprintf("invalid length %d", len(s)))
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return decodeErr(key, "not lowercase hex")
		}
	}
	if _, err := hex.DecodeString(s); err != nil {
		return decodeErr(key, "not hex")
	}
	return nil
}
