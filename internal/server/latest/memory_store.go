package latest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/attendpass/internal/common"
)

type entry struct {
	nonce   string
	expires time.Time
}

// MemoryStore is a process-local Store used when no Redis is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	clock   clock.Clock
	entries map[string]entry
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryStore{clock: clk, entries: make(map[string]entry)}
}

func (m *MemoryStore) Put(_ context.Context, sessionID, nonce string, ttl time.Duration) error {
	if sessionID == "" || nonce == "" {
		return fmt.Errorf("latest: missing session id or nonce")
	}
	if ttl <= 0 {
		return fmt.Errorf("latest: ttl must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = entry{nonce: nonce, expires: m.clock.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (string, error) {
	m.mu.RLock()
	e, ok := m.entries[sessionID]
	m.mu.RUnlock()

	if !ok || !m.clock.Now().Before(e.expires) {
		return "", common.ErrorNotFound
	}
	return e.nonce, nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}
