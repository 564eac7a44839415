// Package repository defines the persistence contracts for sign records and
// user signatures together with their MySQL and in-memory implementations.
// Sentinel errors let the service layer distinguish failure scenarios
// without inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a record or signature does not exist for the
// given identifier.  Both implementations return it in place of their
// backend's native not-found signal.
var ErrNotFound = errors.New("not found")

// ErrAlreadySigned is returned by ConfirmSigned when the record has already
// reached SIGNED.  Confirm is deliberately not idempotent: exactly one
// caller wins the conditional update, every other one observes this error.
var ErrAlreadySigned = errors.New("record already signed")

// ErrRecordDeleted is returned when an operation targets a soft-deleted
// record.  DELETED is terminal; no transition leaves it.
var ErrRecordDeleted = errors.New("record deleted")

// ErrConflict is returned when a write collides with existing state, such as
// saving an unnamed signature for a user that already has one.
var ErrConflict = errors.New("conflict")
