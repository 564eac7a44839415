// Package cache provides the ephemeral key-value layer in front of the
// durable store: the session cache binding tokens to sign records and the
// status cache collapsing concurrent polls.  Entries carry hard TTLs and are
// never the sole source of a state transition; callers always re-validate
// against the store before writing durable state.
package cache

import (
    "context"
    "sync"
    "time"
)

// Store is the minimal get/put/delete-with-TTL contract both caches run on.
// Production uses the Redis-backed implementation; tests and single-node
// deployments use the in-process MemoryStore.
type Store interface {
    // Get returns the value for key and whether it was present.  An expired
    // or missing entry yields (nil, false, nil).
    Get(ctx context.Context, key string) ([]byte, bool, error)
    // Set writes value under key with the given TTL, replacing any previous
    // entry and restarting its TTL.
    Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
    // Delete removes key.  Deleting an absent key is not an error.
    Delete(ctx context.Context, key string) error
}

// MemoryStore is a process-local Store with per-entry expiry.  Expired
// entries are dropped lazily on read and swept opportunistically on write.
type MemoryStore struct {
    mu      sync.RWMutex
    entries map[string]memoryEntry
}

type memoryEntry struct {
    value     []byte
    expiresAt time.Time
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
    s.mu.RLock()
    e, ok := s.entries[key]
    s.mu.RUnlock()
    if !ok {
        return nil, false, nil
    }
    if !e.expiresAt.IsZero() && !time.Now().Before(e.expiresAt) {
        s.mu.Lock()
        // Re-check under the write lock; another goroutine may have
        // rewritten the key with a fresh TTL in the meantime.
        if cur, ok := s.entries[key]; ok && !cur.expiresAt.IsZero() && !time.Now().Before(cur.expiresAt) {
            delete(s.entries, key)
        }
        s.mu.Unlock()
        return nil, false, nil
    }
    out := make([]byte, len(e.value))
    copy(out, e.value)
    return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
    var exp time.Time
    if ttl > 0 {
        exp = time.Now().Add(ttl)
    }
    v := make([]byte, len(value))
    copy(v, value)
    s.mu.Lock()
    s.entries[key] = memoryEntry{value: v, expiresAt: exp}
    s.sweepLocked()
    s.mu.Unlock()
    return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
    s.mu.Lock()
    delete(s.entries, key)
    s.mu.Unlock()
    return nil
}

// sweepLocked drops a bounded number of expired entries.  Called with the
// write lock held; the bound keeps Set latency flat on large maps.
func (s *MemoryStore) sweepLocked() {
    now := time.Now()
    scanned := 0
    for k, e := range s.entries {
        if scanned >= 32 {
            return
        }
        scanned++
        if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
            delete(s.entries, k)
        }
    }
}
