// Package cryptox turns configured secrets into credential signing keys.
package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/attendpass/internal/common"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of derived signing keys.
const KeySize = 32

// signingKeyInfo separates credential keys from anything else that might be
// derived from the same secret.
const signingKeyInfo = "attendpass credential signing key v1"

var ErrEmptySecret = errors.New("empty secret")

// DeriveSigningKey derives a KeySize HMAC key from secret with HKDF-SHA256.
// The same secret always yields the same key.
func DeriveSigningKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	ikm := []byte(secret)
	defer common.WipeByteArray(ikm)

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, []byte(signingKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

// DeriveKeyRing derives the current signing key followed by the keys of the
// previous secrets, in order.
func DeriveKeyRing(current string, previous []string) ([][]byte, error) {
	ring := make([][]byte, 0, 1+len(previous))
	for i, secret := range append([]string{current}, previous...) {
		key, err := DeriveSigningKey(secret)
		if err != nil {
			return nil, fmt.Errorf("secret %d: %w", i, err)
		}
		ring = append(ring, key)
	}
	return ring, nil
}
