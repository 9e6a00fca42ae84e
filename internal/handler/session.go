package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/influyo/auth-service/internal/middleware"
	"github.com/influyo/auth-service/internal/repository"
)

type sessionPart struct {
	ID        uint64    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sessions: list the caller's live refresh tokens, one per device.
func (h *AuthHandler) Sessions(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := reqCtx(c)
	defer cancel()

	tokens, err := h.Tokens.ListActiveForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]sessionPart, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, sessionPart{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// RevokeSession: revoke one of the caller's own sessions by id. Other
// sessions, including the one performing the call, stay valid.
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(uint64)
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || sessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tokens.RevokeByID(ctx, userID, sessionID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "session revoked"})
}

// AdminCleanup: purge expired refresh tokens and spent reset tokens.
// Hygiene only — lookups already reject expired rows — so the endpoint
// just reports how much it swept.
func (h *AuthHandler) AdminCleanup(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	refreshN, err := h.Tokens.DeleteExpired(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cleanup failed"})
	}
	resetN, err := h.Resets.DeleteExpired(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cleanup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"refresh_tokens_removed": refreshN,
		"reset_tokens_removed":   resetN,
	})
}
