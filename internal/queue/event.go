// Package queue defines the completion event published over the message
// broker and its background consumer.
package queue

// SignCompletedEvent is published after a confirm commits.  It carries
// enough for downstream consumers to log, notify or trigger follow-up work
// without querying the primary database.  The signature image itself is
// deliberately omitted; consumers needing it fetch by record id.
type SignCompletedEvent struct {
    SignRecordID      string `json:"sign_record_id"`
    ProjectID         string `json:"project_id"`
    UserID            string `json:"user_id"`
    FileID            string `json:"file_id"`
    MetaCode          string `json:"meta_code"`
    SignatureSequence int    `json:"signature_sequence"`
    ReusedSignatureID string `json:"reused_signature_id,omitempty"`
    ConfirmedAt       string `json:"confirmed_at"`
}
