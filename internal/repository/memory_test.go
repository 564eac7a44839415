package repository

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/signhub/remote-signature/internal/model"
)

func newRecord(projectID, userID, fileID string) *model.SignRecord {
    return &model.SignRecord{
        ID:        uuid.NewString(),
        ProjectID: projectID,
        UserID:    userID,
        FileID:    fileID,
        Status:    model.StatusUnscanned,
    }
}

func TestMemorySignRecordRepo_SequencePerKey(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemorySignRecordRepo()

    // Sequences count up within one session key.
    for want := 1; want <= 3; want++ {
        rec := newRecord("P1", "U1", "F1")
        require.NoError(t, repo.Create(ctx, rec))
        assert.Equal(t, want, rec.SignatureSequence)
    }

    // A different key starts its own sequence at 1.
    other := newRecord("P1", "U2", "F1")
    require.NoError(t, repo.Create(ctx, other))
    assert.Equal(t, 1, other.SignatureSequence)

    max, err := repo.MaxSequence(ctx, model.SessionKey{ProjectID: "P1", UserID: "U1", FileID: "F1"})
    require.NoError(t, err)
    assert.Equal(t, 3, max)
}

func TestMemorySignRecordRepo_ConcurrentCreateUniqueSequences(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemorySignRecordRepo()

    const n = 32
    recs := make([]*model.SignRecord, n)
    var wg sync.WaitGroup
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            rec := newRecord("P1", "U1", "F1")
            if err := repo.Create(ctx, rec); err != nil {
                t.Errorf("Create: %v", err)
                return
            }
            recs[i] = rec
        }(i)
    }
    wg.Wait()

    seen := make(map[int]bool, n)
    for _, rec := range recs {
        require.NotNil(t, rec)
        assert.False(t, seen[rec.SignatureSequence], "duplicate sequence %d", rec.SignatureSequence)
        seen[rec.SignatureSequence] = true
    }
    // No gaps: exactly 1..n were handed out.
    for seq := 1; seq <= n; seq++ {
        assert.True(t, seen[seq], "missing sequence %d", seq)
    }
}

func TestMemorySignRecordRepo_ConfirmSignedExactlyOnce(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemorySignRecordRepo()

    rec := newRecord("P1", "U1", "F1")
    require.NoError(t, repo.Create(ctx, rec))

    const m = 16
    var wg sync.WaitGroup
    results := make([]error, m)
    for i := 0; i < m; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            results[i] = repo.ConfirmSigned(ctx, rec.ID, fmt.Sprintf("img-%d", i), nil)
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, err := range results {
        if err == nil {
            wins++
        } else {
            assert.ErrorIs(t, err, ErrAlreadySigned)
        }
    }
    assert.Equal(t, 1, wins, "exactly one confirm must win")

    got, err := repo.FindByID(ctx, rec.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusSigned, got.Status)
    assert.NotEmpty(t, got.SignatureBase64)
}

func TestMemorySignRecordRepo_ConfirmSignedErrors(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemorySignRecordRepo()

    assert.ErrorIs(t, repo.ConfirmSigned(ctx, "absent", "img", nil), ErrNotFound)

    rec := newRecord("P1", "U1", "F1")
    require.NoError(t, repo.Create(ctx, rec))
    require.NoError(t, repo.MarkDeleted(ctx, rec.ID))
    assert.ErrorIs(t, repo.ConfirmSigned(ctx, rec.ID, "img", nil), ErrRecordDeleted)
}

func TestMemorySignRecordRepo_MarkDeleted(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemorySignRecordRepo()

    assert.ErrorIs(t, repo.MarkDeleted(ctx, "absent"), ErrNotFound)

    rec := newRecord("P1", "U1", "F1")
    require.NoError(t, repo.Create(ctx, rec))
    require.NoError(t, repo.MarkDeleted(ctx, rec.ID))
    // Deleting an already deleted record is a no-op.
    require.NoError(t, repo.MarkDeleted(ctx, rec.ID))

    got, err := repo.FindByID(ctx, rec.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusDeleted, got.Status)
}

func TestMemorySignRecordRepo_ListAndLatest(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemorySignRecordRepo()
    key := model.SessionKey{ProjectID: "P1", UserID: "U1", FileID: "F1"}

    first := newRecord("P1", "U1", "F1")
    second := newRecord("P1", "U1", "F1")
    third := newRecord("P1", "U1", "F1")
    for _, rec := range []*model.SignRecord{first, second, third} {
        require.NoError(t, repo.Create(ctx, rec))
    }
    require.NoError(t, repo.ConfirmSigned(ctx, first.ID, "img-1", nil))
    require.NoError(t, repo.ConfirmSigned(ctx, second.ID, "img-2", nil))

    list, err := repo.ListByKey(ctx, key)
    require.NoError(t, err)
    require.Len(t, list, 3)
    // Newest sequence first.
    assert.Equal(t, 3, list[0].SignatureSequence)
    assert.Equal(t, 1, list[2].SignatureSequence)

    latest, err := repo.LatestSigned(ctx, key)
    require.NoError(t, err)
    assert.Equal(t, second.ID, latest.ID)
    assert.Equal(t, "img-2", latest.SignatureBase64)

    _, err = repo.LatestSigned(ctx, model.SessionKey{ProjectID: "P2", UserID: "U1", FileID: "F1"})
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserSignatureRepo_UnnamedConflict(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemoryUserSignatureRepo()

    first := &model.UserSignature{ID: uuid.NewString(), UserID: "U1", SignatureBase64: "img"}
    require.NoError(t, repo.Create(ctx, first))

    dup := &model.UserSignature{ID: uuid.NewString(), UserID: "U1", SignatureBase64: "img2"}
    assert.ErrorIs(t, repo.Create(ctx, dup), ErrConflict)

    // A named signature for the same user is allowed, and other users are
    // unaffected.
    named := &model.UserSignature{ID: uuid.NewString(), UserID: "U1", SignatureName: "formal", SignatureBase64: "img3"}
    require.NoError(t, repo.Create(ctx, named))
    other := &model.UserSignature{ID: uuid.NewString(), UserID: "U2", SignatureBase64: "img4"}
    require.NoError(t, repo.Create(ctx, other))
}

func TestMemoryUserSignatureRepo_DefaultInvariant(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemoryUserSignatureRepo()

    a := &model.UserSignature{ID: uuid.NewString(), UserID: "U1", SignatureName: "a", SignatureBase64: "img-a"}
    b := &model.UserSignature{ID: uuid.NewString(), UserID: "U1", SignatureName: "b", SignatureBase64: "img-b"}
    require.NoError(t, repo.Create(ctx, a))
    require.NoError(t, repo.Create(ctx, b))

    _, err := repo.FindDefault(ctx, "U1")
    assert.ErrorIs(t, err, ErrNotFound)

    require.NoError(t, repo.SetDefault(ctx, "U1", a.ID))
    def, err := repo.FindDefault(ctx, "U1")
    require.NoError(t, err)
    assert.Equal(t, a.ID, def.ID)

    // Promoting b demotes a in the same operation.
    require.NoError(t, repo.SetDefault(ctx, "U1", b.ID))
    def, err = repo.FindDefault(ctx, "U1")
    require.NoError(t, err)
    assert.Equal(t, b.ID, def.ID)
    was, err := repo.FindByID(ctx, a.ID)
    require.NoError(t, err)
    assert.False(t, was.IsDefault)

    // Setting a default owned by another user fails.
    assert.ErrorIs(t, repo.SetDefault(ctx, "U2", b.ID), ErrNotFound)

    // Deleting the default leaves the user with no default.
    require.NoError(t, repo.DeleteByUserAndID(ctx, "U1", b.ID))
    _, err = repo.FindDefault(ctx, "U1")
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserSignatureRepo_Lookups(t *testing.T) {
    t.Parallel()

    ctx := context.Background()
    repo := NewMemoryUserSignatureRepo()

    sig := &model.UserSignature{ID: uuid.NewString(), UserID: "U1", SignatureName: "a", SignatureBase64: "img"}
    require.NoError(t, repo.Create(ctx, sig))

    got, err := repo.FindByUserAndID(ctx, "U1", sig.ID)
    require.NoError(t, err)
    assert.Equal(t, "img", got.SignatureBase64)

    _, err = repo.FindByUserAndID(ctx, "U2", sig.ID)
    assert.ErrorIs(t, err, ErrNotFound)

    assert.ErrorIs(t, repo.DeleteByUserAndID(ctx, "U2", sig.ID), ErrNotFound)

    list, err := repo.ListByUser(ctx, "U1")
    require.NoError(t, err)
    require.Len(t, list, 1)

    if errors.Is(repo.DeleteByUserAndID(ctx, "U1", sig.ID), ErrNotFound) {
        t.Fatalf("expected delete of owned signature to succeed")
    }
    list, err = repo.ListByUser(ctx, "U1")
    require.NoError(t, err)
    assert.Empty(t, list)
}
