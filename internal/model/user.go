package model

import "time"

// User mirrors the 'users' table. Accounts are soft-deactivated via
// IsActive and never hard-deleted in normal operation.
type User struct {
	ID            uint64     // users.id
	Email         string     // users.email (unique, lowercased)
	PasswordHash  string     // users.password_hash (bcrypt)
	FirstName     string     // users.first_name
	LastName      string     // users.last_name
	Role          Role       // users.role
	IsActive      bool       // users.is_active
	EmailVerified bool       // users.email_verified
	LastLoginAt   *time.Time // users.last_login_at (nullable)
	CreatedAt     time.Time  // users.created_at
	UpdatedAt     time.Time  // users.updated_at
}

// FullName joins first and last name for display.
func (u User) FullName() string { return u.FirstName + " " + u.LastName }

// RefreshToken models a row in 'refresh_tokens'. The plain token is never
// stored; only its SHA-256 hex digest. A user may hold several live tokens
// at once (one per device), each independently revocable.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	UserAgent string     // refresh_tokens.user_agent
	IPAddress string     // refresh_tokens.ip_address
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (null while active)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// PasswordResetToken models a row in 'password_reset_tokens'. Single-use:
// once UsedAt is set the token is permanently invalid regardless of expiry.
type PasswordResetToken struct {
	ID        uint64     // password_reset_tokens.id
	UserID    uint64     // password_reset_tokens.user_id
	TokenHash string     // password_reset_tokens.token_hash
	ExpiresAt time.Time  // password_reset_tokens.expires_at
	UsedAt    *time.Time // password_reset_tokens.used_at (null until consumed)
	CreatedAt time.Time  // password_reset_tokens.created_at
}
