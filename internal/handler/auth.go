package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/influyo/auth-service/internal/config"
	"github.com/influyo/auth-service/internal/middleware"
	"github.com/influyo/auth-service/internal/model"
	"github.com/influyo/auth-service/internal/repository"
	"github.com/influyo/auth-service/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   RefreshTokenStore
	Resets   ResetTokenStore
	Denylist Denylist
	Mailer   ResetPublisher
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens RefreshTokenStore,
	resets ResetTokenStore, denylist Denylist, mailer ResetPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens,
		Resets: resets, Denylist: denylist, Mailer: mailer}
}

// ----- DTOs -----

type signupReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"` // optional, defaults to guest
}
type loginReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID            uint64     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	FullName      string     `json:"full_name"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		FullName:      u.FullName(),
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// validationError renders field-level reasons so the client can show
// inline errors instead of one opaque message.
func validationError(c echo.Context, details map[string][]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":   "validation_error",
		"details": details,
	})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Signup: create an account and return its summary. Tokens are not issued
// here; the client follows up with a login.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	details := map[string][]string{}
	email, ok := utils.NormalizeEmail(req.Email)
	if !ok {
		details["email"] = []string{"invalid email address"}
	}
	if reasons := utils.ValidatePasswordStrength(req.Password); len(reasons) > 0 {
		details["password"] = reasons
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || len(req.FirstName) > 100 {
		details["first_name"] = []string{"first name must be between 1 and 100 characters"}
	}
	if req.LastName == "" || len(req.LastName) > 100 {
		details["last_name"] = []string{"last name must be between 1 and 100 characters"}
	}
	if len(details) > 0 {
		return validationError(c, details)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.ParseRole(req.Role),
		IsActive:     true,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, &user)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	user.ID = id
	user.CreatedAt = time.Now().UTC()

	return c.JSON(http.StatusCreated, echo.Map{"user": toUserPart(user)})
}

// Login: verify credentials and return a fresh token pair. The same 401
// covers unknown email and wrong password so neither can be probed apart.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email, ok := utils.NormalizeEmail(req.Email)
	if !ok || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account_inactive"})
	}

	_ = h.Users.TouchLastLogin(ctx, u.ID)
	now := time.Now().UTC()
	u.LastLoginAt = &now

	pair, err := h.issueTokenPair(ctx, c, u, req.RememberMe)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	pair.User = toUserPart(u)
	return c.JSON(http.StatusOK, pair)
}

// issueTokenPair signs an access token and persists a new refresh token
// carrying the caller's device metadata. Each login gets its own refresh
// token; concurrent sessions from other devices are untouched.
func (h *AuthHandler) issueTokenPair(ctx context.Context, c echo.Context, u model.User, remember bool) (*authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	ttlDays := h.Cfg.RefreshTTLDays
	if remember {
		ttlDays = h.Cfg.RememberTTLDays
	}
	refresh, err := utils.NewRefreshToken(ttlDays)
	if err != nil {
		return nil, err
	}
	rt := model.RefreshToken{
		UserID:    u.ID,
		TokenHash: utils.HashTokenRaw(refresh.Raw),
		UserAgent: truncate(c.Request().UserAgent(), 500),
		IPAddress: c.RealIP(),
		ExpiresAt: refresh.Exp,
	}
	if err := h.Tokens.Store(ctx, &rt); err != nil {
		return nil, err
	}
	return &authResp{
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Refresh: exchange a live refresh token for a new access token. The
// refresh token itself is not rotated; it stays valid until its own expiry
// or revocation. Unknown, expired and revoked tokens are indistinguishable
// from the outside.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashTokenRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.Validate(ctx, hash)
	if err != nil {
		return refreshRejected(c)
	}

	// Role and active flag are re-read here, not cached from login, so a
	// role change or deactivation takes effect on the next refresh.
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return refreshRejected(c)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// refreshRejected is the single failure shape for every refresh defect.
func refreshRejected(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "please log in again"})
}

// Logout: always answers 200. A refresh token in the body revokes that
// session; a valid bearer with no body token revokes every session and
// denylists the access token for its remaining lifetime. Unknown tokens
// are a silent no-op so logout can never confirm token existence.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	var identity *utils.Identity
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			identity = &id
		}
	}

	if refreshToken != "" {
		_ = h.Tokens.RevokeByHash(ctx, utils.HashTokenRaw(refreshToken))
	} else if identity != nil {
		_ = h.Tokens.RevokeAllForUser(ctx, identity.UserID)
	}
	if identity != nil {
		_ = h.Denylist.Revoke(ctx, identity.JTI, identity.Exp)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me: return the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
