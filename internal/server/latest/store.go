// Package latest tracks the newest credential nonce issued for each session.
// The check-in service consults it to reject superseded credentials when
// enforce_latest is on.
package latest

import (
	"context"
	"time"
)

// Store maps a session id to the nonce of its most recently issued credential.
type Store interface {
	// Put records nonce as the newest for sessionID. The entry is kept for ttl,
	// which callers set to at least the longest validity a credential can have.
	Put(ctx context.Context, sessionID, nonce string, ttl time.Duration) error
	// Get returns the newest nonce, or common.ErrorNotFound.
	Get(ctx context.Context, sessionID string) (string, error)
}
