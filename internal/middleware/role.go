package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/influyo/auth-service/internal/model"
)

// RequireRole enforces a minimum role on routes already behind JWTAuth.
// The check is a rank comparison over the fixed role order, not a
// membership test, so an admin passes any analyst- or guest-gated route.
// Authorization failure is 403, distinct from the 401 of a missing or
// invalid token, and carries no further detail.
func RequireRole(min model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(model.Role)
			if !ok || !role.AtLeast(min) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}
			return next(c)
		}
	}
}
