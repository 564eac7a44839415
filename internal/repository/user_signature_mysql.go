package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/signhub/remote-signature/internal/model"
)

// MySQLUserSignatureRepo persists reusable signatures in the user_signatures
// table.
type MySQLUserSignatureRepo struct {
    db *sql.DB
}

// NewMySQLUserSignatureRepo returns a repo bound to the given database.
func NewMySQLUserSignatureRepo(db *sql.DB) *MySQLUserSignatureRepo {
    return &MySQLUserSignatureRepo{db: db}
}

const userSignatureColumns = `id, user_id, signature_name, signature_base64, is_default, created_at, updated_at`

// Create inserts the signature.  The unnamed legacy variant allows only one
// saved signature per user; the existence check and insert run in one
// transaction so two concurrent unnamed saves cannot both pass the check.
func (r *MySQLUserSignatureRepo) Create(ctx context.Context, sig *model.UserSignature) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if sig.SignatureName == "" {
        // FOR UPDATE serializes concurrent unnamed saves for the same user.
        const existsQ = `SELECT COUNT(*) FROM user_signatures WHERE user_id = ? FOR UPDATE`
        var n int
        if err := tx.QueryRowContext(ctx, existsQ, sig.UserID).Scan(&n); err != nil {
            return err
        }
        if n > 0 {
            return ErrConflict
        }
    }
    const ins = `INSERT INTO user_signatures
        (id, user_id, signature_name, signature_base64, is_default, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, NOW(), NOW())`
    if _, err := tx.ExecContext(ctx, ins,
        sig.ID, sig.UserID, sig.SignatureName, sig.SignatureBase64, sig.IsDefault); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    loaded, err := r.FindByID(ctx, sig.ID)
    if err != nil {
        return err
    }
    *sig = *loaded
    return nil
}

func (r *MySQLUserSignatureRepo) FindByID(ctx context.Context, id string) (*model.UserSignature, error) {
    const q = `SELECT ` + userSignatureColumns + ` FROM user_signatures WHERE id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *MySQLUserSignatureRepo) FindByUserAndID(ctx context.Context, userID, id string) (*model.UserSignature, error) {
    const q = `SELECT ` + userSignatureColumns + ` FROM user_signatures WHERE user_id = ? AND id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, userID, id))
}

func (r *MySQLUserSignatureRepo) ListByUser(ctx context.Context, userID string) ([]model.UserSignature, error) {
    const q = `SELECT ` + userSignatureColumns + ` FROM user_signatures
               WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    sigs := make([]model.UserSignature, 0)
    for rows.Next() {
        var sig model.UserSignature
        if err := rows.Scan(&sig.ID, &sig.UserID, &sig.SignatureName, &sig.SignatureBase64,
            &sig.IsDefault, &sig.CreatedAt, &sig.UpdatedAt); err != nil {
            return nil, err
        }
        sigs = append(sigs, sig)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return sigs, nil
}

func (r *MySQLUserSignatureRepo) FindDefault(ctx context.Context, userID string) (*model.UserSignature, error) {
    const q = `SELECT ` + userSignatureColumns + ` FROM user_signatures
               WHERE user_id = ? AND is_default = TRUE LIMIT 1`
    return r.scanOne(r.db.QueryRowContext(ctx, q, userID))
}

// SetDefault clears every default flag for the user and sets the new one in
// a single transaction, keeping the at-most-one-default invariant even under
// concurrent SetDefault calls for the same user.
func (r *MySQLUserSignatureRepo) SetDefault(ctx context.Context, userID, id string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const reset = `UPDATE user_signatures SET is_default = FALSE, updated_at = NOW()
                   WHERE user_id = ? AND is_default = TRUE`
    if _, err := tx.ExecContext(ctx, reset, userID); err != nil {
        return err
    }
    const set = `UPDATE user_signatures SET is_default = TRUE, updated_at = NOW()
                 WHERE user_id = ? AND id = ?`
    res, err := tx.ExecContext(ctx, set, userID, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func (r *MySQLUserSignatureRepo) DeleteByUserAndID(ctx context.Context, userID, id string) error {
    const q = `DELETE FROM user_signatures WHERE user_id = ? AND id = ?`
    res, err := r.db.ExecContext(ctx, q, userID, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

func (r *MySQLUserSignatureRepo) scanOne(row *sql.Row) (*model.UserSignature, error) {
    var sig model.UserSignature
    if err := row.Scan(&sig.ID, &sig.UserID, &sig.SignatureName, &sig.SignatureBase64,
        &sig.IsDefault, &sig.CreatedAt, &sig.UpdatedAt); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &sig, nil
}
