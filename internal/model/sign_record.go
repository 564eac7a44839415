package model

import "time"

// SignStatus enumerates the lifecycle states of a sign record.  A record
// starts UNSCANNED, may be marked SCANNED_UNCONFIRMED when the signer opens
// the page, and moves to SIGNED exactly once on confirmation.  DELETED is
// terminal and reachable from any state; deleted records are retained for
// audit and never removed physically.
type SignStatus string

const (
    StatusUnscanned          SignStatus = "UNSCANNED"
    StatusScannedUnconfirmed SignStatus = "SCANNED_UNCONFIRMED"
    StatusSigned             SignStatus = "SIGNED"
    StatusDeleted            SignStatus = "DELETED"
)

// Description returns the human-facing display label used in API responses.
func (s SignStatus) Description() string {
    switch s {
    case StatusUnscanned:
        return "未扫描"
    case StatusScannedUnconfirmed:
        return "已扫描未签署"
    case StatusSigned:
        return "已签署"
    case StatusDeleted:
        return "已删除"
    }
    return string(s)
}

// Valid reports whether s is one of the known states.
func (s SignStatus) Valid() bool {
    switch s {
    case StatusUnscanned, StatusScannedUnconfirmed, StatusSigned, StatusDeleted:
        return true
    }
    return false
}

// SignRecord is one signing attempt for a (project, user, file) session key.
//
// Fields:
//  ID                – opaque unique id (UUID, assigned at creation).
//  ProjectID         – sign_records.project_id, part of the session key.
//  UserID            – sign_records.user_id, part of the session key.
//  FileID            – sign_records.file_id, part of the session key.
//  MetaCode          – opaque passthrough metadata supplied by the requester.
//  Status            – lifecycle state; see SignStatus.
//  SignatureBase64   – captured image; non-empty iff Status is SIGNED.
//  SignatureSequence – unique and increasing per session key, 1 + max(existing).
//  UserSignatureID   – back-reference to a reused UserSignature, if any.
//  CreateTime        – set by the store on insert.
//  UpdateTime        – set by the store on every update.
type SignRecord struct {
    ID                string     // sign_records.id
    ProjectID         string     // sign_records.project_id
    UserID            string     // sign_records.user_id
    FileID            string     // sign_records.file_id
    MetaCode          string     // sign_records.meta_code
    Status            SignStatus // sign_records.status
    SignatureBase64   string     // sign_records.signature_base64
    SignatureSequence int        // sign_records.signature_sequence
    UserSignatureID   *string    // sign_records.user_signature_id (nullable)
    CreateTime        time.Time  // sign_records.create_time
    UpdateTime        time.Time  // sign_records.update_time
}

// SessionKey identifies one signable subject.  All sequence numbering and
// latest-signature lookups are scoped to a session key.
type SessionKey struct {
    ProjectID string
    UserID    string
    FileID    string
}

// Key returns the record's session key.
func (r *SignRecord) Key() SessionKey {
    return SessionKey{ProjectID: r.ProjectID, UserID: r.UserID, FileID: r.FileID}
}
