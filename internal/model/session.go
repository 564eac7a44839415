package model

// SignSession is the ephemeral binding from an issued token to its routing
// claims and backing sign record.  It lives only in the session cache with a
// short TTL and is deleted on successful confirm; it is never persisted.
type SignSession struct {
    ProjectID    string `json:"project_id"`
    UserID       string `json:"user_id"`
    FileID       string `json:"file_id"`
    MetaCode     string `json:"meta_code"`
    SignRecordID string `json:"sign_record_id"`
}

// Key returns the session key the binding was issued for.
func (s *SignSession) Key() SessionKey {
    return SessionKey{ProjectID: s.ProjectID, UserID: s.UserID, FileID: s.FileID}
}
