package cache

import (
    "context"
    "errors"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/signhub/remote-signature/internal/model"
)

func TestStatusCache_LoadCachesResult(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    c := NewStatusCache(NewMemoryStore(), time.Minute)

    var loads int32
    load := func(context.Context) (*StatusSnapshot, error) {
        atomic.AddInt32(&loads, 1)
        return &StatusSnapshot{SignRecordID: "r1", Status: model.StatusUnscanned, SignatureSequence: 1}, nil
    }

    for i := 0; i < 3; i++ {
        snap, err := c.Load(ctx, "r1", load)
        if err != nil {
            t.Fatalf("Load error: %v", err)
        }
        if snap.Status != model.StatusUnscanned || snap.SignatureSequence != 1 {
            t.Fatalf("unexpected snapshot: %+v", snap)
        }
    }
    if n := atomic.LoadInt32(&loads); n != 1 {
        t.Fatalf("loader ran %d times, want 1", n)
    }
}

func TestStatusCache_ConcurrentLoadsCollapse(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    c := NewStatusCache(NewMemoryStore(), time.Minute)

    var loads int32
    load := func(context.Context) (*StatusSnapshot, error) {
        atomic.AddInt32(&loads, 1)
        // Hold the flight open long enough for every goroutine to join it.
        time.Sleep(50 * time.Millisecond)
        return &StatusSnapshot{SignRecordID: "r1", Status: model.StatusSigned, SignatureBase64: "img"}, nil
    }

    const callers = 16
    start := make(chan struct{})
    var wg sync.WaitGroup
    errs := make([]error, callers)
    snaps := make([]*StatusSnapshot, callers)
    for i := 0; i < callers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            <-start
            snaps[i], errs[i] = c.Load(ctx, "r1", load)
        }(i)
    }
    close(start)
    wg.Wait()

    for i := 0; i < callers; i++ {
        if errs[i] != nil {
            t.Fatalf("caller %d: %v", i, errs[i])
        }
        if snaps[i].SignatureBase64 != "img" {
            t.Fatalf("caller %d got snapshot %+v", i, snaps[i])
        }
    }
    if n := atomic.LoadInt32(&loads); n != 1 {
        t.Fatalf("loader ran %d times under concurrent load, want 1", n)
    }
}

func TestStatusCache_LoadErrorNotCached(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    c := NewStatusCache(NewMemoryStore(), time.Minute)

    boom := errors.New("store down")
    var loads int32
    failing := func(context.Context) (*StatusSnapshot, error) {
        atomic.AddInt32(&loads, 1)
        return nil, boom
    }

    if _, err := c.Load(ctx, "r1", failing); !errors.Is(err, boom) {
        t.Fatalf("Load error = %v, want %v", err, boom)
    }
    // A failed load leaves no entry behind; the next call reloads.
    snap, err := c.Load(ctx, "r1", func(context.Context) (*StatusSnapshot, error) {
        atomic.AddInt32(&loads, 1)
        return &StatusSnapshot{SignRecordID: "r1", Status: model.StatusUnscanned}, nil
    })
    if err != nil {
        t.Fatalf("Load after failure: %v", err)
    }
    if snap.Status != model.StatusUnscanned {
        t.Fatalf("unexpected snapshot: %+v", snap)
    }
    if n := atomic.LoadInt32(&loads); n != 2 {
        t.Fatalf("loader ran %d times, want 2", n)
    }
}

func TestStatusCache_InvalidateForcesReload(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    c := NewStatusCache(NewMemoryStore(), time.Minute)

    var loads int32
    statuses := []model.SignStatus{model.StatusUnscanned, model.StatusSigned}
    load := func(context.Context) (*StatusSnapshot, error) {
        n := atomic.AddInt32(&loads, 1)
        return &StatusSnapshot{SignRecordID: "r1", Status: statuses[n-1]}, nil
    }

    snap, err := c.Load(ctx, "r1", load)
    if err != nil || snap.Status != model.StatusUnscanned {
        t.Fatalf("first Load = %+v, %v", snap, err)
    }
    if err := c.Invalidate(ctx, "r1"); err != nil {
        t.Fatalf("Invalidate error: %v", err)
    }
    snap, err = c.Load(ctx, "r1", load)
    if err != nil || snap.Status != model.StatusSigned {
        t.Fatalf("Load after Invalidate = %+v, %v", snap, err)
    }
}
