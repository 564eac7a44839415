package model

import "time"

// UserSignature is a reusable signature image saved by a signer during a
// confirm with save-for-reuse.  At most one signature per user may carry
// IsDefault at any time; the repository enforces this by resetting every
// default for the user before setting a new one.
//
// Fields:
//  ID              – opaque unique id (UUID).
//  UserID          – owning user.
//  SignatureName   – optional display name; empty for the legacy unnamed save.
//  SignatureBase64 – stored image.
//  IsDefault       – flagged for automatic reuse absent an explicit choice.
//  CreatedAt       – set by the store on insert.
//  UpdatedAt       – set by the store on every update.
type UserSignature struct {
    ID              string    // user_signatures.id
    UserID          string    // user_signatures.user_id
    SignatureName   string    // user_signatures.signature_name
    SignatureBase64 string    // user_signatures.signature_base64
    IsDefault       bool      // user_signatures.is_default
    CreatedAt       time.Time // user_signatures.created_at
    UpdatedAt       time.Time // user_signatures.updated_at
}
