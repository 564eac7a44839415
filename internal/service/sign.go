package service

import (
    "context"
    "errors"
    "fmt"
    "net/url"
    "time"

    "github.com/google/uuid"

    "github.com/signhub/remote-signature/internal/cache"
    "github.com/signhub/remote-signature/internal/model"
    "github.com/signhub/remote-signature/internal/queue"
    "github.com/signhub/remote-signature/internal/repository"
    "github.com/signhub/remote-signature/internal/utils"
)

// SignURLResult is the answer to a sign-URL request.  Token carries the
// canonical "Bearer "-prefixed form; SignURL embeds the raw token as a query
// parameter for the human-facing link.
type SignURLResult struct {
    SignURL           string `json:"signUrl"`
    Token             string `json:"token"`
    Status            string `json:"status"`
    SignatureSequence int    `json:"signatureSequence"`
    SignRecordID      string `json:"signRecordId"`
}

// StatusResult is the answer to a status poll.  SignatureBase64 is populated
// only when the record is signed.
type StatusResult struct {
    SignRecordID      string `json:"signRecordId"`
    Status            string `json:"status"`
    SignatureBase64   string `json:"signatureBase64,omitempty"`
    SignatureSequence int    `json:"signatureSequence"`
}

// ConfirmRequest carries the signer's submission.
type ConfirmRequest struct {
    SignatureBase64 string `json:"signatureBase64"`
    UserSignatureID string `json:"userSignatureId"`
    SaveForReuse    bool   `json:"saveForReuse"`
    SignatureName   string `json:"signatureName"`
    SetAsDefault    bool   `json:"setAsDefault"`
}

// ConfirmResult is the answer to a successful confirm.
type ConfirmResult struct {
    Message           string `json:"message"`
    Status            string `json:"status"`
    SignatureBase64   string `json:"signatureBase64"`
    SignRecordID      string `json:"signRecordId"`
    SignatureSequence int    `json:"signatureSequence"`
}

// HistoryResult bundles a user's sign records and saved signatures.
type HistoryResult struct {
    SignRecords    []model.SignRecord    `json:"signRecords"`
    UserSignatures []model.UserSignature `json:"userSignatures"`
}

// SignService orchestrates the signing-session lifecycle.  The relational
// store is the single source of truth; the session and status caches are
// optimization layers constructed once at process start and injected here,
// never consulted as the sole basis of a state transition.
type SignService struct {
    records    repository.SignRecordRepository
    signatures repository.UserSignatureRepository
    codec      *utils.TokenCodec
    sessions   *cache.SessionCache
    statuses   *cache.StatusCache
    baseURL    string

    // publish emits the completion event after confirm commits.  Failures
    // are ignored: the durable transition already happened.  Overridable in
    // tests.
    publish func(ctx context.Context, ev queue.SignCompletedEvent) error
}

// NewSignService constructs the orchestrator.  All dependencies must be
// non-nil; baseURL is the externally reachable origin used to compose sign
// URLs (e.g. "http://localhost:8080").
func NewSignService(
    records repository.SignRecordRepository,
    signatures repository.UserSignatureRepository,
    codec *utils.TokenCodec,
    sessions *cache.SessionCache,
    statuses *cache.StatusCache,
    baseURL string,
) *SignService {
    if records == nil || signatures == nil || codec == nil || sessions == nil || statuses == nil {
        panic("nil dependency passed to NewSignService")
    }
    return &SignService{
        records:    records,
        signatures: signatures,
        codec:      codec,
        sessions:   sessions,
        statuses:   statuses,
        baseURL:    baseURL,
        publish:    queue.PublishSignCompleted,
    }
}

// GenerateSignURL creates or resumes a signing session.
//
// With no token, or an invalid or expired one, it behaves identically in
// every case: a fresh record is minted with the next sequence for the
// session key, a fresh token is issued and bound in the session cache.  With
// a valid token it resolves the in-flight session, self-healing a missing
// binding or record by creating a replacement under the same session key.  A
// resolved session whose record is already signed is rejected: completed
// state is observed via CheckStatus, not by opening new sessions.
//
// The session entry's TTL is refreshed only on state-changing paths (fresh
// mint, rebind); the idempotent re-fetch leaves the entry untouched so a
// stale session cannot be extended indefinitely by polling.
func (s *SignService) GenerateSignURL(ctx context.Context, token, projectID, userID, fileID, metaCode string) (*SignURLResult, error) {
    raw := utils.NormalizeBearer(token)

    if raw == "" || !s.codec.Validate(raw) {
        rec, err := s.createRecord(ctx, model.SessionKey{ProjectID: projectID, UserID: userID, FileID: fileID}, metaCode)
        if err != nil {
            return nil, err
        }
        fresh, err := s.codec.Issue(projectID, userID, fileID, metaCode)
        if err != nil {
            return nil, err
        }
        if err := s.bindSession(ctx, fresh, rec); err != nil {
            return nil, err
        }
        return s.urlResult(fresh, rec), nil
    }

    claims, err := s.codec.Claims(raw)
    if err != nil {
        return nil, ErrInvalidToken
    }
    rec, rebound, err := s.resolveOrCreate(ctx, raw, claims)
    if err != nil {
        return nil, err
    }
    if !rebound && rec.Status == model.StatusSigned {
        return nil, ErrAlreadySigned
    }
    return s.urlResult(raw, rec), nil
}

// resolveOrCreate is the single reconciliation path behind every valid-token
// request: it returns the record the token's session resolves to, creating a
// replacement record under the token's session key and rebinding the cache
// entry whenever the entry is missing, its record is gone, or the record was
// soft-deleted.  The second return value reports whether a rebind happened.
func (s *SignService) resolveOrCreate(ctx context.Context, rawToken string, claims *utils.SignClaims) (*model.SignRecord, bool, error) {
    sess, ok, err := s.sessions.Get(ctx, rawToken)
    if err != nil {
        return nil, false, err
    }
    if ok {
        rec, err := s.records.FindByID(ctx, sess.SignRecordID)
        if err == nil && rec.Status != model.StatusDeleted {
            return rec, false, nil
        }
        if err != nil && !errors.Is(err, repository.ErrNotFound) {
            return nil, false, err
        }
        // Entry points at a missing or deleted record; fall through and
        // replace it.
    }
    key := model.SessionKey{ProjectID: claims.ProjectID, UserID: claims.UserID, FileID: claims.FileID}
    rec, err := s.createRecord(ctx, key, claims.MetaCode)
    if err != nil {
        return nil, false, err
    }
    if err := s.bindSession(ctx, rawToken, rec); err != nil {
        return nil, false, err
    }
    return rec, true, nil
}

func (s *SignService) createRecord(ctx context.Context, key model.SessionKey, metaCode string) (*model.SignRecord, error) {
    rec := &model.SignRecord{
        ID:        uuid.NewString(),
        ProjectID: key.ProjectID,
        UserID:    key.UserID,
        FileID:    key.FileID,
        MetaCode:  metaCode,
        Status:    model.StatusUnscanned,
    }
    if err := s.records.Create(ctx, rec); err != nil {
        return nil, err
    }
    return rec, nil
}

func (s *SignService) bindSession(ctx context.Context, rawToken string, rec *model.SignRecord) error {
    return s.sessions.Put(ctx, rawToken, &model.SignSession{
        ProjectID:    rec.ProjectID,
        UserID:       rec.UserID,
        FileID:       rec.FileID,
        MetaCode:     rec.MetaCode,
        SignRecordID: rec.ID,
    })
}

func (s *SignService) urlResult(rawToken string, rec *model.SignRecord) *SignURLResult {
    return &SignURLResult{
        SignURL:           fmt.Sprintf("%s/sign?token=%s", s.baseURL, url.QueryEscape(rawToken)),
        Token:             "Bearer " + rawToken,
        Status:            rec.Status.Description(),
        SignatureSequence: rec.SignatureSequence,
        SignRecordID:      rec.ID,
    }
}

// CheckStatus returns the record's current status through the single-flight
// read-through cache: concurrent polls for one record collapse into at most
// one store read, and the snapshot expires after a fixed window so polling
// periodically re-validates against the store.
func (s *SignService) CheckStatus(ctx context.Context, signRecordID string) (*StatusResult, error) {
    snap, err := s.statuses.Load(ctx, signRecordID, func(ctx context.Context) (*cache.StatusSnapshot, error) {
        rec, err := s.records.FindByID(ctx, signRecordID)
        if err != nil {
            if errors.Is(err, repository.ErrNotFound) {
                return nil, ErrRecordNotFound
            }
            return nil, err
        }
        snap := &cache.StatusSnapshot{
            SignRecordID:      rec.ID,
            Status:            rec.Status,
            SignatureSequence: rec.SignatureSequence,
        }
        if rec.Status == model.StatusSigned {
            snap.SignatureBase64 = rec.SignatureBase64
        }
        return snap, nil
    })
    if err != nil {
        return nil, err
    }
    return &StatusResult{
        SignRecordID:      snap.SignRecordID,
        Status:            snap.Status.Description(),
        SignatureBase64:   snap.SignatureBase64,
        SignatureSequence: snap.SignatureSequence,
    }, nil
}

// Confirm captures the signature for the session bound to token.  The order
// is fixed: validate the token (no store access happens for a bad token),
// load the session binding, load the record, reject completed or deleted
// records, resolve the image, persist through the conditional update, then
// invalidate both caches.  Under concurrent confirms on one record exactly
// one caller wins; every other observes ErrAlreadySigned from the store.
func (s *SignService) Confirm(ctx context.Context, token string, req *ConfirmRequest) (*ConfirmResult, error) {
    raw := utils.NormalizeBearer(token)
    if !s.codec.Validate(raw) {
        return nil, ErrInvalidToken
    }
    if req.SignatureBase64 == "" && req.UserSignatureID == "" {
        return nil, ErrMissingSignature
    }

    sess, ok, err := s.sessions.Get(ctx, raw)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, ErrSessionExpired
    }

    rec, err := s.records.FindByID(ctx, sess.SignRecordID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrRecordNotFound
        }
        return nil, err
    }
    switch rec.Status {
    case model.StatusSigned:
        return nil, ErrAlreadySigned
    case model.StatusDeleted:
        return nil, ErrRecordDeleted
    }

    signature, userSigID, err := s.resolveSignature(ctx, rec, req)
    if err != nil {
        return nil, err
    }

    if err := s.records.ConfirmSigned(ctx, rec.ID, signature, userSigID); err != nil {
        switch {
        case errors.Is(err, repository.ErrAlreadySigned):
            return nil, ErrAlreadySigned
        case errors.Is(err, repository.ErrRecordDeleted):
            return nil, ErrRecordDeleted
        case errors.Is(err, repository.ErrNotFound):
            return nil, ErrRecordNotFound
        }
        return nil, err
    }

    // Invalidation strictly after the durable transition: a poll between
    // commit and invalidation sees stale UNSCANNED briefly, the reverse
    // order could claim unsigned forever.
    _ = s.statuses.Invalidate(ctx, rec.ID)
    _ = s.sessions.Invalidate(ctx, raw)

    ev := queue.SignCompletedEvent{
        SignRecordID:      rec.ID,
        ProjectID:         rec.ProjectID,
        UserID:            rec.UserID,
        FileID:            rec.FileID,
        MetaCode:          rec.MetaCode,
        SignatureSequence: rec.SignatureSequence,
        ConfirmedAt:       time.Now().UTC().Format(time.RFC3339),
    }
    if userSigID != nil {
        ev.ReusedSignatureID = *userSigID
    }
    _ = s.publish(ctx, ev)

    return &ConfirmResult{
        Message:           "签署成功",
        Status:            model.StatusSigned.Description(),
        SignatureBase64:   signature,
        SignRecordID:      rec.ID,
        SignatureSequence: rec.SignatureSequence,
    }, nil
}

// resolveSignature applies the payload priority: a referenced saved
// signature wins, then save-for-reuse of the submitted image, then the
// submitted image alone.
func (s *SignService) resolveSignature(ctx context.Context, rec *model.SignRecord, req *ConfirmRequest) (string, *string, error) {
    if req.UserSignatureID != "" {
        sig, err := s.signatures.FindByID(ctx, req.UserSignatureID)
        if err != nil {
            if errors.Is(err, repository.ErrNotFound) {
                return "", nil, ErrSignatureNotFound
            }
            return "", nil, err
        }
        return sig.SignatureBase64, &sig.ID, nil
    }

    if req.SaveForReuse {
        saved := &model.UserSignature{
            ID:              uuid.NewString(),
            UserID:          rec.UserID,
            SignatureName:   req.SignatureName,
            SignatureBase64: req.SignatureBase64,
        }
        if err := s.signatures.Create(ctx, saved); err != nil {
            if errors.Is(err, repository.ErrConflict) {
                return "", nil, ErrSignatureExists
            }
            return "", nil, err
        }
        if req.SetAsDefault {
            if err := s.signatures.SetDefault(ctx, rec.UserID, saved.ID); err != nil {
                return "", nil, err
            }
        }
        return req.SignatureBase64, &saved.ID, nil
    }

    return req.SignatureBase64, nil, nil
}

// DeleteRecord soft-deletes a sign record; the row is retained for audit.
// The status cache is invalidated so the next poll observes the deletion.
func (s *SignService) DeleteRecord(ctx context.Context, signRecordID string) error {
    if err := s.records.MarkDeleted(ctx, signRecordID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return ErrRecordNotFound
        }
        return err
    }
    _ = s.statuses.Invalidate(ctx, signRecordID)
    return nil
}

// DeleteUserSignature removes a saved signature scoped to its owner.
// Deleting the current default leaves the user with no default; a new one
// must be set explicitly.
func (s *SignService) DeleteUserSignature(ctx context.Context, userID, signatureID string) error {
    if err := s.signatures.DeleteByUserAndID(ctx, userID, signatureID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return ErrSignatureNotFound
        }
        return err
    }
    return nil
}

// UserSignatures lists the user's saved signatures, newest first.
func (s *SignService) UserSignatures(ctx context.Context, userID string) ([]model.UserSignature, error) {
    return s.signatures.ListByUser(ctx, userID)
}

// History returns the user's sign records together with their saved
// signatures, for the signer-facing history view.
func (s *SignService) History(ctx context.Context, userID string) (*HistoryResult, error) {
    recs, err := s.records.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    sigs, err := s.signatures.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    return &HistoryResult{SignRecords: recs, UserSignatures: sigs}, nil
}

// LatestSignature returns the image of the most recent completed signature
// for a session key.
func (s *SignService) LatestSignature(ctx context.Context, projectID, userID, fileID string) (string, error) {
    rec, err := s.records.LatestSigned(ctx, model.SessionKey{ProjectID: projectID, UserID: userID, FileID: fileID})
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return "", ErrRecordNotFound
        }
        return "", err
    }
    return rec.SignatureBase64, nil
}

// SignatureImage returns the image captured on one record; empty until the
// record is signed.
func (s *SignService) SignatureImage(ctx context.Context, signRecordID string) (string, error) {
    rec, err := s.records.FindByID(ctx, signRecordID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return "", ErrRecordNotFound
        }
        return "", err
    }
    return rec.SignatureBase64, nil
}
