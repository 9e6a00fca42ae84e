// Package queue defines message payloads exchanged over the message broker.
package queue

// PasswordResetRequestedEvent is published when an existing, active account
// requests a password reset. It carries the raw reset token for the mailer;
// the token never appears in any HTTP response, so the broker is the only
// out-of-band channel. Consumers must treat the payload as sensitive.
type PasswordResetRequestedEvent struct {
	UserID      uint64 `json:"user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	ResetToken  string `json:"reset_token"`
	ExpiresAt   string `json:"expires_at"`
	RequestedAt string `json:"requested_at"`
}
