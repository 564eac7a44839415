package cache

import (
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "time"

    "github.com/signhub/remote-signature/internal/model"
)

// SessionCache maps an issued signing token to its routing claims and the
// backing sign record id.  Entries expire after the configured TTL and are
// invalidated immediately on successful confirm.  The cache is constructed
// once at process start and injected where needed; it is an optimization
// layer, never the source of truth for record state.
type SessionCache struct {
    store Store
    ttl   time.Duration
}

// NewSessionCache builds a session cache on the given store.  A TTL of zero
// or below falls back to fifteen minutes.
func NewSessionCache(store Store, ttl time.Duration) *SessionCache {
    if ttl <= 0 {
        ttl = 15 * time.Minute
    }
    return &SessionCache{store: store, ttl: ttl}
}

// sessionKey hashes the token so cache keys stay bounded regardless of JWT
// length, the same way the response cache keys requests.
func sessionKey(token string) string {
    sum := sha1.Sum([]byte(token))
    return fmt.Sprintf("sign:sess:%x", sum[:])
}

// Put writes (or rewrites) the binding for token with a fresh TTL.
func (c *SessionCache) Put(ctx context.Context, token string, sess *model.SignSession) error {
    bs, err := json.Marshal(sess)
    if err != nil {
        return err
    }
    return c.store.Set(ctx, sessionKey(token), bs, c.ttl)
}

// Get returns the live binding for token, or ok=false when the entry is
// missing or expired.
func (c *SessionCache) Get(ctx context.Context, token string) (*model.SignSession, bool, error) {
    bs, ok, err := c.store.Get(ctx, sessionKey(token))
    if err != nil || !ok {
        return nil, false, err
    }
    var sess model.SignSession
    if err := json.Unmarshal(bs, &sess); err != nil {
        // A corrupt entry is treated as a miss; the orchestrator will
        // rebind through the resolve-or-create path.
        return nil, false, nil
    }
    return &sess, true, nil
}

// Invalidate removes the binding for token.
func (c *SessionCache) Invalidate(ctx context.Context, token string) error {
    return c.store.Delete(ctx, sessionKey(token))
}
