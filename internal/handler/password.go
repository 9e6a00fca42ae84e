package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/influyo/auth-service/internal/middleware"
	"github.com/influyo/auth-service/internal/model"
	"github.com/influyo/auth-service/internal/queue"
	"github.com/influyo/auth-service/internal/utils"
)

type resetRequestReq struct {
	Email string `json:"email"`
}
type validateResetReq struct {
	Token string `json:"token"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// resetRequestedBody is the one and only response for a reset request.
// It is byte-identical whether or not the email maps to an account.
var resetRequestedBody = echo.Map{
	"message": "if the email exists, password reset instructions have been sent",
}

// RequestPasswordReset: create a reset token for an existing active account
// and hand it to the mailer queue. The response never varies with account
// existence, and the token is generated on both paths to keep their cost
// close; only storage and publish differ.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email, ok := utils.NormalizeEmail(req.Email)
	if !ok {
		return validationError(c, map[string][]string{"email": {"invalid email address"}})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	token, err := utils.NewResetToken(h.Cfg.ResetTTLHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err == nil && u.IsActive {
		rec := model.PasswordResetToken{
			UserID:    u.ID,
			TokenHash: utils.HashTokenRaw(token.Raw),
			ExpiresAt: token.Exp,
		}
		if err := h.Resets.Store(ctx, &rec); err == nil {
			// Delivery failures must not change the response; the mail
			// worker retries from the durable queue once the broker is back.
			_ = h.Mailer.PublishPasswordReset(ctx, queue.PasswordResetRequestedEvent{
				UserID:      u.ID,
				Email:       u.Email,
				FirstName:   u.FirstName,
				ResetToken:  token.Raw,
				ExpiresAt:   token.Exp.Format(time.RFC3339),
				RequestedAt: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	return c.JSON(http.StatusOK, resetRequestedBody)
}

// ValidateResetToken: lets the client decide whether to render the reset
// form. Fails closed: any miss, expiry or prior use reports invalid.
func (h *AuthHandler) ValidateResetToken(c echo.Context) error {
	var req validateResetReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusOK, echo.Map{"valid": false})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Resets.Lookup(ctx, utils.HashTokenRaw(strings.TrimSpace(req.Token)))
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"valid": false})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusOK, echo.Map{"valid": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid": true,
		"email": utils.MaskEmail(u.Email),
	})
}

// ResetPassword: consume the token exactly once, replace the hash and
// revoke every refresh token so a pre-reset session cannot outlive the
// reset. A used token fails with the same shape as an expired one.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	}
	if reasons := utils.ValidatePasswordStrength(req.NewPassword); len(reasons) > 0 {
		return validationError(c, map[string][]string{"new_password": reasons})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash := utils.HashTokenRaw(strings.TrimSpace(req.Token))
	userID, err := h.Resets.Lookup(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	}

	pwHash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	// Consume first: of two racing resets with the same token, only the
	// one that flips used_at proceeds to change the password.
	if err := h.Resets.Consume(ctx, hash); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	}
	if err := h.Users.UpdatePassword(ctx, userID, pwHash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password reset successfully"})
}

// ChangePassword: authenticated variant. Verifies the current password,
// then replaces the hash and revokes all refresh tokens across devices.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	details := map[string][]string{}
	if req.CurrentPassword == "" {
		details["current_password"] = []string{"current password is required"}
	}
	if reasons := utils.ValidatePasswordStrength(req.NewPassword); len(reasons) > 0 {
		details["new_password"] = reasons
	} else if req.NewPassword == req.CurrentPassword {
		details["new_password"] = []string{"new password must be different from current password"}
	}
	if len(details) > 0 {
		return validationError(c, details)
	}

	userID, _ := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return validationError(c, map[string][]string{
			"current_password": {"current password is incorrect"},
		})
	}

	pwHash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := h.Users.UpdatePassword(ctx, userID, pwHash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password changed successfully"})
}
