package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/influyo/auth-service/internal/repository"
	"github.com/influyo/auth-service/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxUserID = "user_id" // uint64
	CtxRole   = "role"    // model.Role
	CtxJTI    = "jti"     // string
	CtxExp    = "exp"     // time.Time (UTC)
)

// JWTAuth validates the bearer access token on protected routes: signature,
// expiry, then the jti denylist. All failures produce the same generic 401
// body; the specific defect is never surfaced to the client. A denylist
// lookup error also yields 401 — an undeterminable revocation status counts
// as revoked.
func JWTAuth(secret string, bl *repository.Blacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			id, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return unauthorized(c)
			}

			revoked, err := bl.IsRevoked(c.Request().Context(), id.JTI)
			if err != nil {
				c.Logger().Warnf("denylist lookup failed, failing closed: %v", err)
			}
			if revoked {
				return unauthorized(c)
			}

			c.Set(CtxUserID, id.UserID)
			c.Set(CtxRole, id.Role)
			c.Set(CtxJTI, id.JTI)
			c.Set(CtxExp, id.Exp)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
}
