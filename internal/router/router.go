// Package router wires handlers, middleware and per-route rate budgets.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/influyo/auth-service/internal/config"
	"github.com/influyo/auth-service/internal/handler"
	"github.com/influyo/auth-service/internal/middleware"
	"github.com/influyo/auth-service/internal/model"
	"github.com/influyo/auth-service/internal/repository"
)

// RegisterRoutes registers routes that carry no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth surface under /api/auth. Each credential
// endpoint gets its own rate budget (per client IP); protected endpoints
// sit behind JWTAuth, and the admin cleanup additionally behind the
// admin role guard.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, bl *repository.Blacklist, rdb *redis.Client) {
	rl := config.LoadRateLimitConfig()

	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup, middleware.RateLimit(rl.RouteLimit(5, time.Minute), rdb))
	g.POST("/login", a.Login, middleware.RateLimit(rl.RouteLimit(10, time.Minute), rdb))
	g.POST("/refresh", a.Refresh, middleware.RateLimit(rl.RouteLimit(20, time.Minute), rdb))
	g.POST("/logout", a.Logout)
	g.POST("/request-password-reset", a.RequestPasswordReset, middleware.RateLimit(rl.RouteLimit(3, time.Hour), rdb))
	g.POST("/validate-reset-token", a.ValidateResetToken)
	g.POST("/reset-password", a.ResetPassword, middleware.RateLimit(rl.RouteLimit(5, time.Hour), rdb))

	auth := g.Group("")
	auth.Use(middleware.JWTAuth(a.Cfg.JWTSecret, bl))
	auth.GET("/me", a.Me)
	auth.POST("/change-password", a.ChangePassword)
	auth.GET("/sessions", a.Sessions)
	auth.DELETE("/sessions/:id", a.RevokeSession)

	admin := g.Group("/admin")
	admin.Use(middleware.JWTAuth(a.Cfg.JWTSecret, bl))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/cleanup", a.AdminCleanup)
}
