package repository

import (
    "context"

    "github.com/signhub/remote-signature/internal/model"
)

// SignRecordRepository is the durable store for signing attempts.  The store
// is the single source of truth and the only writer of record state; caches
// in front of it are optimization layers.
type SignRecordRepository interface {
    // Create inserts rec, assigning its signature sequence as 1 + max of the
    // existing sequences for the record's session key.  Assignment is
    // serialized per session key: two concurrent creates never share a
    // sequence.  The implementation populates SignatureSequence, CreateTime
    // and UpdateTime on rec.
    Create(ctx context.Context, rec *model.SignRecord) error

    // FindByID returns the record or ErrNotFound.
    FindByID(ctx context.Context, id string) (*model.SignRecord, error)

    // MaxSequence returns the highest sequence assigned for key, or zero
    // when the key has no records.
    MaxSequence(ctx context.Context, key model.SessionKey) (int, error)

    // ConfirmSigned transitions the record to SIGNED with the resolved image
    // in a single conditional update: it succeeds only while the current
    // status is neither SIGNED nor DELETED.  Zero rows affected is
    // disambiguated by a re-read into ErrNotFound, ErrAlreadySigned or
    // ErrRecordDeleted.
    ConfirmSigned(ctx context.Context, id, signatureBase64 string, userSignatureID *string) error

    // MarkDeleted soft-deletes the record.  Deleting an already-deleted
    // record is a no-op; a missing record yields ErrNotFound.
    MarkDeleted(ctx context.Context, id string) error

    // ListByKey returns every record for the session key, deleted ones
    // included, ordered by sequence descending.
    ListByKey(ctx context.Context, key model.SessionKey) ([]model.SignRecord, error)

    // ListByUser returns every record for the user, newest sequence first.
    ListByUser(ctx context.Context, userID string) ([]model.SignRecord, error)

    // LatestSigned returns the SIGNED record with the highest sequence for
    // key, or ErrNotFound when the key has no completed signature.
    LatestSigned(ctx context.Context, key model.SessionKey) (*model.SignRecord, error)
}

// UserSignatureRepository stores reusable signature images.  At most one
// signature per user carries the default flag; SetDefault enforces this by
// resetting every default for the user before setting the new one.
type UserSignatureRepository interface {
    // Create inserts sig and populates its timestamps.  When sig carries no
    // name and the user already has saved signatures, ErrConflict is
    // returned (the legacy one-signature-per-user variant).
    Create(ctx context.Context, sig *model.UserSignature) error

    // FindByID returns the signature or ErrNotFound.
    FindByID(ctx context.Context, id string) (*model.UserSignature, error)

    // FindByUserAndID returns the signature scoped to its owner, or
    // ErrNotFound when it does not exist or belongs to someone else.
    FindByUserAndID(ctx context.Context, userID, id string) (*model.UserSignature, error)

    // ListByUser returns the user's signatures ordered by creation time
    // descending.
    ListByUser(ctx context.Context, userID string) ([]model.UserSignature, error)

    // FindDefault returns the user's default signature or ErrNotFound.
    FindDefault(ctx context.Context, userID string) (*model.UserSignature, error)

    // SetDefault atomically clears the default flag on all of the user's
    // signatures and sets it on the given one.  ErrNotFound when the
    // signature does not exist for the user.
    SetDefault(ctx context.Context, userID, id string) error

    // DeleteByUserAndID removes the signature scoped to its owner.  Deleting
    // the current default leaves the user with no default.
    DeleteByUserAndID(ctx context.Context, userID, id string) error
}
