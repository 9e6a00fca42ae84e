package handler

import (
	"context"
	"time"

	"github.com/influyo/auth-service/internal/model"
	"github.com/influyo/auth-service/internal/queue"
)

// Store handles are injected explicitly; handlers never reach for process
// globals. The concrete implementations live in internal/repository and
// internal/service, and tests substitute in-memory fakes.

// UserStore is the credential store surface the handlers need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	TouchLastLogin(ctx context.Context, id uint64) error
}

// RefreshTokenStore manages persisted refresh tokens.
type RefreshTokenStore interface {
	Store(ctx context.Context, t *model.RefreshToken) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeByID(ctx context.Context, userID, tokenID uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	ListActiveForUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// ResetTokenStore manages single-use password reset tokens.
type ResetTokenStore interface {
	Store(ctx context.Context, t *model.PasswordResetToken) error
	Lookup(ctx context.Context, tokenHash string) (uint64, error)
	Consume(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Denylist records logged-out access-token jtis.
type Denylist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
}

// ResetPublisher dispatches reset mails out-of-band.
type ResetPublisher interface {
	PublishPasswordReset(ctx context.Context, event queue.PasswordResetRequestedEvent) error
}
