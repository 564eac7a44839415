package cache

import (
    "context"
    "encoding/json"
    "time"

    "golang.org/x/sync/singleflight"

    "github.com/signhub/remote-signature/internal/model"
)

// StatusSnapshot is the cached answer to a status poll.  SignatureBase64 is
// populated only when the record is SIGNED.
type StatusSnapshot struct {
    SignRecordID      string           `json:"sign_record_id"`
    Status            model.SignStatus `json:"status"`
    SignatureBase64   string           `json:"signature_base64,omitempty"`
    SignatureSequence int              `json:"signature_sequence"`
}

// StatusCache is a single-flight read-through cache in front of the sign
// record store.  Concurrent misses for the same record collapse into one
// store read; every concurrent caller observes the loaded result.  A plain
// get-then-put would reintroduce the thundering herd the cache exists to
// prevent, hence the singleflight group around the load.
type StatusCache struct {
    store Store
    ttl   time.Duration
    group singleflight.Group
}

// NewStatusCache builds a status cache on the given store.  A TTL of zero or
// below falls back to five minutes; the fixed window forces periodic
// re-validation against the store even absent writes.
func NewStatusCache(store Store, ttl time.Duration) *StatusCache {
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }
    return &StatusCache{store: store, ttl: ttl}
}

func statusKey(signRecordID string) string {
    return "sign:status:" + signRecordID
}

// Load returns the cached snapshot for signRecordID, or runs load to fetch
// it from the store and caches the result.  Errors from load are returned to
// every collapsed caller and nothing is cached for them.
func (c *StatusCache) Load(ctx context.Context, signRecordID string, load func(context.Context) (*StatusSnapshot, error)) (*StatusSnapshot, error) {
    if snap, ok, err := c.get(ctx, signRecordID); err != nil {
        return nil, err
    } else if ok {
        return snap, nil
    }
    v, err, _ := c.group.Do(signRecordID, func() (interface{}, error) {
        // Re-check inside the flight: a concurrent caller may have filled
        // the entry between our miss and acquiring the flight.
        if snap, ok, err := c.get(ctx, signRecordID); err != nil {
            return nil, err
        } else if ok {
            return snap, nil
        }
        snap, err := load(ctx)
        if err != nil {
            return nil, err
        }
        bs, err := json.Marshal(snap)
        if err != nil {
            return nil, err
        }
        if err := c.store.Set(ctx, statusKey(signRecordID), bs, c.ttl); err != nil {
            return nil, err
        }
        return snap, nil
    })
    if err != nil {
        return nil, err
    }
    return v.(*StatusSnapshot), nil
}

// Invalidate drops the snapshot so the next poll observes the store.  Called
// after the durable status transition commits, never before.
func (c *StatusCache) Invalidate(ctx context.Context, signRecordID string) error {
    return c.store.Delete(ctx, statusKey(signRecordID))
}

func (c *StatusCache) get(ctx context.Context, signRecordID string) (*StatusSnapshot, bool, error) {
    bs, ok, err := c.store.Get(ctx, statusKey(signRecordID))
    if err != nil || !ok {
        return nil, false, err
    }
    var snap StatusSnapshot
    if err := json.Unmarshal(bs, &snap); err != nil {
        return nil, false, nil
    }
    return &snap, true, nil
}
