// Package store persists serialized digests. Two durable backends (sqlite,
// postgres) sit behind one interface; a single-slot in-process memory
// fallback is always available and lost on restart.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Entry is one historical digest record.
type Entry struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Digest    json.RawMessage `json:"digest"`
}

// Store is the durable digest cache. Data is the serialized digest payload;
// the store never inspects it.
type Store interface {
	// GetCached returns the most recent entry inside the TTL window, or
	// (nil, nil) on a miss.
	GetCached(ctx context.Context) ([]byte, error)
	// Cache upserts by id and prunes entries past the retention horizon as
	// a housekeeping side effect of the write.
	Cache(ctx context.Context, id string, data []byte) error
	// Clear removes all entries, forcing regeneration.
	Clear(ctx context.Context) error
	// History returns the most recent entries, newest first.
	History(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// MemorySlot is the in-process fallback: one slot, last writer wins. The
// mutex guards memory safety only; there is deliberately no locking across
// a caller's read-then-regenerate-then-write sequence, so two concurrent
// misses may both regenerate. Duplicate work, not a correctness bug.
type MemorySlot struct {
	mu       sync.Mutex
	ttl      time.Duration
	data     []byte
	storedAt time.Time
}

func NewMemorySlot(ttl time.Duration) *MemorySlot {
	return &MemorySlot{ttl: ttl}
}

// Get returns the slot contents if still fresh, else nil.
func (m *MemorySlot) Get() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil || time.Since(m.storedAt) >= m.ttl {
		return nil
	}
	return m.data
}

// Put overwrites the slot unconditionally.
func (m *MemorySlot) Put(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.storedAt = time.Now()
}
