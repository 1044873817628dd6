package common

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// ReadRandHexString reads size bytes from r and returns them hex encoded, so
// the result is twice as long as size. A short read is an error.
func ReadRandHexString(r io.Reader, size int) (string, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeRandHexString is ReadRandHexString over crypto/rand.
func MakeRandHexString(size int) (string, error) {
	return ReadRandHexString(rand.Reader, size)
}

// WipeByteArray overwrites b with zeros. Nil is allowed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
