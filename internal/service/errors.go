// Package service implements the signing-session orchestrator: issuing sign
// URLs, validating and repairing token bindings, transitioning record status
// and reconciling reused-signature semantics.
package service

import "errors"

// Sentinel errors surfaced to the HTTP layer.  Handlers translate them into
// client-facing structured errors; no internal detail crosses that boundary.
var (
    // ErrInvalidToken covers an invalid, expired or malformed token.
    ErrInvalidToken = errors.New("invalid or expired token")

    // ErrSessionExpired means the token is valid but no session-cache entry
    // binds it to a record anymore.
    ErrSessionExpired = errors.New("signing session expired or not found")

    // ErrRecordNotFound means no sign record exists for the identifier.
    ErrRecordNotFound = errors.New("sign record not found")

    // ErrSignatureNotFound means no saved signature exists for the
    // identifier, or it belongs to a different user.
    ErrSignatureNotFound = errors.New("user signature not found")

    // ErrAlreadySigned means the record already reached SIGNED.  A second
    // confirm is an error, never a no-op.
    ErrAlreadySigned = errors.New("sign request already completed")

    // ErrRecordDeleted means the record was soft-deleted; DELETED is
    // terminal.
    ErrRecordDeleted = errors.New("sign record deleted")

    // ErrSignatureExists means the user already has a saved signature and
    // the unnamed one-per-user variant forbids another.
    ErrSignatureExists = errors.New("user already has a saved signature")

    // ErrMissingSignature means the confirm carried neither a drawn image
    // nor a reusable signature reference.
    ErrMissingSignature = errors.New("signatureBase64 or userSignatureId is required")
)
