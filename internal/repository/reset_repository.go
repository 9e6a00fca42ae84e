package repository

import (
	"context"
	"database/sql"

	"github.com/influyo/auth-service/internal/model"
)

// ResetRepo persists password reset tokens (hashed at rest, single-use).
type ResetRepo struct{ DB *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{DB: db} }

// Store inserts a reset token after voiding the user's older unused ones,
// so at most one reset token per user is live at a time.
func (r *ResetRepo) Store(ctx context.Context, t *model.PasswordResetToken) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used_at=UTC_TIMESTAMP() WHERE user_id=? AND used_at IS NULL",
		t.UserID)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		t.UserID, t.TokenHash, t.ExpiresAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = uint64(id)
	}
	return nil
}

// Lookup returns the user behind a live reset token hash. Unknown, expired
// and already-used tokens all collapse to ErrNotFound (fail closed).
func (r *ResetRepo) Lookup(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM password_reset_tokens WHERE token_hash=? AND used_at IS NULL AND expires_at > UTC_TIMESTAMP() LIMIT 1",
		tokenHash).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// Consume marks a token used. The used_at IS NULL predicate makes the
// consume atomic: of two concurrent resets with the same token, exactly
// one sees an affected row.
func (r *ResetRepo) Consume(ctx context.Context, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used_at=UTC_TIMESTAMP() WHERE token_hash=? AND used_at IS NULL AND expires_at > UTC_TIMESTAMP()",
		tokenHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes expired or consumed rows. Hygiene only.
func (r *ResetRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE expires_at <= UTC_TIMESTAMP() OR used_at IS NOT NULL")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
