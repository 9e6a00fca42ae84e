package repository

import (
	"context"
	"database/sql"

	"github.com/influyo/auth-service/internal/model"
)

// TokenRepo persists refresh tokens. Only SHA-256 digests are stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row with its device metadata.
func (r *TokenRepo) Store(ctx context.Context, t *model.RefreshToken) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, user_agent, ip_address, expires_at) VALUES (?,?,?,?,?)",
		t.UserID, t.TokenHash, t.UserAgent, t.IPAddress, t.ExpiresAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = uint64(id)
	}
	return nil
}

// Validate returns the user ID behind a live token hash. The revoked and
// expiry predicates sit in the same SELECT as the hash lookup, so a token
// revoked before this read can never validate: unknown, expired and
// revoked all collapse to ErrNotFound.
func (r *TokenRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP() LIMIT 1",
		tokenHash).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// RevokeByHash marks one token revoked. Idempotent: revoking an unknown or
// already-revoked hash affects no rows and reports no error, so logout can
// never leak whether a token existed.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeByID revokes one of the user's own sessions. The user_id predicate
// stops one account from revoking another's token by guessing IDs.
func (r *TokenRepo) RevokeByID(ctx context.Context, userID, tokenID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND user_id=? AND revoked_at IS NULL",
		tokenID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser revokes every live token for a user across devices.
// Used on logout-all, password change and password reset.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// ListActiveForUser returns the user's live sessions, newest first.
func (r *TokenRepo) ListActiveForUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,user_agent,ip_address,expires_at,created_at FROM refresh_tokens WHERE user_id=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP() ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RefreshToken
	for rows.Next() {
		var t model.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.UserAgent, &t.IPAddress, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteExpired removes rows past their expiry. Storage hygiene only:
// Validate already rejects expired rows, so a missed sweep is harmless.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
