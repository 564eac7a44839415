package repository

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/signhub/remote-signature/internal/model"
)

// MemorySignRecordRepo is an in-process SignRecordRepository used by tests
// and single-node development runs.  A single mutex serializes every
// operation, which also serializes sequence assignment per session key and
// makes ConfirmSigned's check-and-set atomic, matching the guarantees the
// MySQL implementation gets from its unique key and conditional update.
type MemorySignRecordRepo struct {
    mu      sync.Mutex
    records map[string]model.SignRecord
}

// NewMemorySignRecordRepo returns an empty in-memory repo.
func NewMemorySignRecordRepo() *MemorySignRecordRepo {
    return &MemorySignRecordRepo{records: make(map[string]model.SignRecord)}
}

func (r *MemorySignRecordRepo) Create(_ context.Context, rec *model.SignRecord) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    max := 0
    for _, existing := range r.records {
        if existing.Key() == rec.Key() && existing.SignatureSequence > max {
            max = existing.SignatureSequence
        }
    }
    now := time.Now().UTC()
    rec.SignatureSequence = max + 1
    rec.CreateTime = now
    rec.UpdateTime = now
    r.records[rec.ID] = *rec
    return nil
}

func (r *MemorySignRecordRepo) FindByID(_ context.Context, id string) (*model.SignRecord, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    rec, ok := r.records[id]
    if !ok {
        return nil, ErrNotFound
    }
    return &rec, nil
}

func (r *MemorySignRecordRepo) MaxSequence(_ context.Context, key model.SessionKey) (int, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    max := 0
    for _, rec := range r.records {
        if rec.Key() == key && rec.SignatureSequence > max {
            max = rec.SignatureSequence
        }
    }
    return max, nil
}

func (r *MemorySignRecordRepo) ConfirmSigned(_ context.Context, id, signatureBase64 string, userSignatureID *string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    rec, ok := r.records[id]
    if !ok {
        return ErrNotFound
    }
    switch rec.Status {
    case model.StatusSigned:
        return ErrAlreadySigned
    case model.StatusDeleted:
        return ErrRecordDeleted
    }
    rec.Status = model.StatusSigned
    rec.SignatureBase64 = signatureBase64
    rec.UserSignatureID = userSignatureID
    rec.UpdateTime = time.Now().UTC()
    r.records[id] = rec
    return nil
}

func (r *MemorySignRecordRepo) MarkDeleted(_ context.Context, id string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    rec, ok := r.records[id]
    if !ok {
        return ErrNotFound
    }
    if rec.Status == model.StatusDeleted {
        return nil
    }
    rec.Status = model.StatusDeleted
    rec.UpdateTime = time.Now().UTC()
    r.records[id] = rec
    return nil
}

func (r *MemorySignRecordRepo) ListByKey(_ context.Context, key model.SessionKey) ([]model.SignRecord, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]model.SignRecord, 0)
    for _, rec := range r.records {
        if rec.Key() == key {
            out = append(out, rec)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        return out[i].SignatureSequence > out[j].SignatureSequence
    })
    return out, nil
}

func (r *MemorySignRecordRepo) ListByUser(_ context.Context, userID string) ([]model.SignRecord, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]model.SignRecord, 0)
    for _, rec := range r.records {
        if rec.UserID == userID {
            out = append(out, rec)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if !out[i].CreateTime.Equal(out[j].CreateTime) {
            return out[i].CreateTime.After(out[j].CreateTime)
        }
        return out[i].SignatureSequence > out[j].SignatureSequence
    })
    return out, nil
}

func (r *MemorySignRecordRepo) LatestSigned(_ context.Context, key model.SessionKey) (*model.SignRecord, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    var latest *model.SignRecord
    for _, rec := range r.records {
        rec := rec
        if rec.Key() != key || rec.Status != model.StatusSigned {
            continue
        }
        if latest == nil || rec.SignatureSequence > latest.SignatureSequence {
            latest = &rec
        }
    }
    if latest == nil {
        return nil, ErrNotFound
    }
    return latest, nil
}

// MemoryUserSignatureRepo is the in-process UserSignatureRepository
// counterpart.
type MemoryUserSignatureRepo struct {
    mu   sync.Mutex
    sigs map[string]model.UserSignature
}

// NewMemoryUserSignatureRepo returns an empty in-memory repo.
func NewMemoryUserSignatureRepo() *MemoryUserSignatureRepo {
    return &MemoryUserSignatureRepo{sigs: make(map[string]model.UserSignature)}
}

func (r *MemoryUserSignatureRepo) Create(_ context.Context, sig *model.UserSignature) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if sig.SignatureName == "" {
        for _, existing := range r.sigs {
            if existing.UserID == sig.UserID {
                return ErrConflict
            }
        }
    }
    now := time.Now().UTC()
    sig.CreatedAt = now
    sig.UpdatedAt = now
    r.sigs[sig.ID] = *sig
    return nil
}

func (r *MemoryUserSignatureRepo) FindByID(_ context.Context, id string) (*model.UserSignature, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    sig, ok := r.sigs[id]
    if !ok {
        return nil, ErrNotFound
    }
    return &sig, nil
}

func (r *MemoryUserSignatureRepo) FindByUserAndID(_ context.Context, userID, id string) (*model.UserSignature, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    sig, ok := r.sigs[id]
    if !ok || sig.UserID != userID {
        return nil, ErrNotFound
    }
    return &sig, nil
}

func (r *MemoryUserSignatureRepo) ListByUser(_ context.Context, userID string) ([]model.UserSignature, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]model.UserSignature, 0)
    for _, sig := range r.sigs {
        if sig.UserID == userID {
            out = append(out, sig)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        return out[i].CreatedAt.After(out[j].CreatedAt)
    })
    return out, nil
}

func (r *MemoryUserSignatureRepo) FindDefault(_ context.Context, userID string) (*model.UserSignature, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, sig := range r.sigs {
        if sig.UserID == userID && sig.IsDefault {
            sig := sig
            return &sig, nil
        }
    }
    return nil, ErrNotFound
}

func (r *MemoryUserSignatureRepo) SetDefault(_ context.Context, userID, id string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    target, ok := r.sigs[id]
    if !ok || target.UserID != userID {
        return ErrNotFound
    }
    now := time.Now().UTC()
    for sid, sig := range r.sigs {
        if sig.UserID == userID && sig.IsDefault {
            sig.IsDefault = false
            sig.UpdatedAt = now
            r.sigs[sid] = sig
        }
    }
    target.IsDefault = true
    target.UpdatedAt = now
    r.sigs[id] = target
    return nil
}

func (r *MemoryUserSignatureRepo) DeleteByUserAndID(_ context.Context, userID, id string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    sig, ok := r.sigs[id]
    if !ok || sig.UserID != userID {
        return ErrNotFound
    }
    delete(r.sigs, id)
    return nil
}
