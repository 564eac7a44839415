package cache

import (
    "context"
    "testing"
    "time"

    "github.com/signhub/remote-signature/internal/model"
)

func TestSessionCache_PutGetInvalidate(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    c := NewSessionCache(NewMemoryStore(), time.Minute)

    sess := &model.SignSession{
        ProjectID:    "P1",
        UserID:       "U1",
        FileID:       "F1",
        MetaCode:     "M1",
        SignRecordID: "r1",
    }
    if err := c.Put(ctx, "token-a", sess); err != nil {
        t.Fatalf("Put error: %v", err)
    }

    got, ok, err := c.Get(ctx, "token-a")
    if err != nil || !ok {
        t.Fatalf("Get = ok=%v err=%v, want hit", ok, err)
    }
    if *got != *sess {
        t.Fatalf("session mismatch: got %+v want %+v", got, sess)
    }

    // A different token hashes to a different key.
    if _, ok, _ := c.Get(ctx, "token-b"); ok {
        t.Fatalf("expected miss for unrelated token")
    }

    if err := c.Invalidate(ctx, "token-a"); err != nil {
        t.Fatalf("Invalidate error: %v", err)
    }
    if _, ok, _ := c.Get(ctx, "token-a"); ok {
        t.Fatalf("expected miss after Invalidate")
    }
}

func TestSessionCache_EntryExpires(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    c := NewSessionCache(NewMemoryStore(), 20*time.Millisecond)

    if err := c.Put(ctx, "tok", &model.SignSession{SignRecordID: "r1"}); err != nil {
        t.Fatalf("Put error: %v", err)
    }
    if _, ok, _ := c.Get(ctx, "tok"); !ok {
        t.Fatalf("expected hit before TTL")
    }

    time.Sleep(40 * time.Millisecond)

    if _, ok, _ := c.Get(ctx, "tok"); ok {
        t.Fatalf("expected entry to expire")
    }
}

func TestSessionCache_PutRefreshesBinding(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    c := NewSessionCache(NewMemoryStore(), time.Minute)

    if err := c.Put(ctx, "tok", &model.SignSession{SignRecordID: "r1"}); err != nil {
        t.Fatalf("Put error: %v", err)
    }
    // Rebinding the same token to a replacement record overwrites in place.
    if err := c.Put(ctx, "tok", &model.SignSession{SignRecordID: "r2"}); err != nil {
        t.Fatalf("Put error: %v", err)
    }
    got, ok, _ := c.Get(ctx, "tok")
    if !ok || got.SignRecordID != "r2" {
        t.Fatalf("Get after rebind = %+v ok=%v, want r2", got, ok)
    }
}
