package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/signhub/remote-signature/internal/model"
)

// MySQLSignRecordRepo persists sign records in the sign_records table.  The
// table carries a unique key on (project_id, user_id, file_id,
// signature_sequence) which backs the serialized sequence assignment.
type MySQLSignRecordRepo struct {
    db *sql.DB
}

// NewMySQLSignRecordRepo returns a repo bound to the given database.
func NewMySQLSignRecordRepo(db *sql.DB) *MySQLSignRecordRepo {
    return &MySQLSignRecordRepo{db: db}
}

// DB exposes the underlying handle for callers that need a transaction
// spanning repositories.
func (r *MySQLSignRecordRepo) DB() *sql.DB { return r.db }

const signRecordColumns = `id, project_id, user_id, file_id, meta_code, status,
    signature_base64, signature_sequence, user_signature_id, create_time, update_time`

// mysqlErrDuplicateEntry is the server error for a unique-key collision.
const mysqlErrDuplicateEntry = 1062

// Create inserts the record with its sequence computed in the same statement
// as the insert: SELECT COALESCE(MAX(sequence),0)+1 scoped to the session
// key.  A concurrent create for the same key can compute the same value; the
// unique key rejects the loser with a duplicate-entry error and the insert
// is retried.  A read-max-then-insert split would race without this
// constraint backing it.
func (r *MySQLSignRecordRepo) Create(ctx context.Context, rec *model.SignRecord) error {
    const q = `INSERT INTO sign_records
        (id, project_id, user_id, file_id, meta_code, status, signature_base64, signature_sequence, create_time, update_time)
        SELECT ?, ?, ?, ?, ?, ?, '', COALESCE(MAX(signature_sequence), 0) + 1, NOW(), NOW()
        FROM sign_records WHERE project_id = ? AND user_id = ? AND file_id = ?`
    for attempt := 0; ; attempt++ {
        _, err := r.db.ExecContext(ctx, q,
            rec.ID, rec.ProjectID, rec.UserID, rec.FileID, rec.MetaCode, string(rec.Status),
            rec.ProjectID, rec.UserID, rec.FileID)
        if err == nil {
            break
        }
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry && attempt < 5 {
            continue
        }
        return err
    }
    // Read the row back to populate the assigned sequence and timestamps.
    loaded, err := r.FindByID(ctx, rec.ID)
    if err != nil {
        return err
    }
    *rec = *loaded
    return nil
}

func (r *MySQLSignRecordRepo) FindByID(ctx context.Context, id string) (*model.SignRecord, error) {
    const q = `SELECT ` + signRecordColumns + ` FROM sign_records WHERE id = ?`
    rec, err := scanSignRecord(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return rec, nil
}

func (r *MySQLSignRecordRepo) MaxSequence(ctx context.Context, key model.SessionKey) (int, error) {
    const q = `SELECT COALESCE(MAX(signature_sequence), 0) FROM sign_records
               WHERE project_id = ? AND user_id = ? AND file_id = ?`
    var max int
    if err := r.db.QueryRowContext(ctx, q, key.ProjectID, key.UserID, key.FileID).Scan(&max); err != nil {
        return 0, err
    }
    return max, nil
}

// ConfirmSigned is the conditional update at the heart of the exactly-once
// guarantee: the WHERE clause excludes SIGNED and DELETED rows, so of any
// number of concurrent confirms exactly one affects a row.
func (r *MySQLSignRecordRepo) ConfirmSigned(ctx context.Context, id, signatureBase64 string, userSignatureID *string) error {
    const q = `UPDATE sign_records
               SET status = ?, signature_base64 = ?, user_signature_id = ?, update_time = NOW()
               WHERE id = ? AND status NOT IN (?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        string(model.StatusSigned), signatureBase64, userSignatureID,
        id, string(model.StatusSigned), string(model.StatusDeleted))
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    // No row moved: tell the caller why.
    rec, err := r.FindByID(ctx, id)
    if err != nil {
        return err
    }
    switch rec.Status {
    case model.StatusSigned:
        return ErrAlreadySigned
    case model.StatusDeleted:
        return ErrRecordDeleted
    }
    return ErrNotFound
}

func (r *MySQLSignRecordRepo) MarkDeleted(ctx context.Context, id string) error {
    const q = `UPDATE sign_records SET status = ?, update_time = NOW()
               WHERE id = ? AND status <> ?`
    res, err := r.db.ExecContext(ctx, q, string(model.StatusDeleted), id, string(model.StatusDeleted))
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Either absent or already deleted; only the former is an error.
        if _, err := r.FindByID(ctx, id); err != nil {
            return err
        }
    }
    return nil
}

func (r *MySQLSignRecordRepo) ListByKey(ctx context.Context, key model.SessionKey) ([]model.SignRecord, error) {
    const q = `SELECT ` + signRecordColumns + ` FROM sign_records
               WHERE project_id = ? AND user_id = ? AND file_id = ?
               ORDER BY signature_sequence DESC`
    return r.queryRecords(ctx, q, key.ProjectID, key.UserID, key.FileID)
}

func (r *MySQLSignRecordRepo) ListByUser(ctx context.Context, userID string) ([]model.SignRecord, error) {
    const q = `SELECT ` + signRecordColumns + ` FROM sign_records
               WHERE user_id = ?
               ORDER BY create_time DESC, signature_sequence DESC`
    return r.queryRecords(ctx, q, userID)
}

func (r *MySQLSignRecordRepo) LatestSigned(ctx context.Context, key model.SessionKey) (*model.SignRecord, error) {
    const q = `SELECT ` + signRecordColumns + ` FROM sign_records
               WHERE project_id = ? AND user_id = ? AND file_id = ? AND status = ?
               ORDER BY signature_sequence DESC LIMIT 1`
    rec, err := scanSignRecord(r.db.QueryRowContext(ctx, q,
        key.ProjectID, key.UserID, key.FileID, string(model.StatusSigned)))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return rec, nil
}

func (r *MySQLSignRecordRepo) queryRecords(ctx context.Context, q string, args ...interface{}) ([]model.SignRecord, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    records := make([]model.SignRecord, 0)
    for rows.Next() {
        rec, err := scanSignRecord(rows)
        if err != nil {
            return nil, err
        }
        records = append(records, *rec)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return records, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanSignRecord(row rowScanner) (*model.SignRecord, error) {
    var (
        rec       model.SignRecord
        status    string
        signature sql.NullString
        userSigID sql.NullString
    )
    if err := row.Scan(
        &rec.ID, &rec.ProjectID, &rec.UserID, &rec.FileID, &rec.MetaCode, &status,
        &signature, &rec.SignatureSequence, &userSigID, &rec.CreateTime, &rec.UpdateTime,
    ); err != nil {
        return nil, err
    }
    rec.Status = model.SignStatus(status)
    if signature.Valid {
        rec.SignatureBase64 = signature.String
    }
    if userSigID.Valid {
        usID := userSigID.String
        rec.UserSignatureID = &usID
    }
    return &rec, nil
}
