// Package client is the session client for the auth service: it owns the
// browser-equivalent credential lifecycle for Go callers. It stores the
// token pair, attaches the access token as a bearer credential, refreshes
// once on a 401 and retries the original request once, and clears all
// local state when the refresh also fails.
//
// The role predicates (HasRole, IsAdmin, ...) exist for UI gating only.
// They use the same rank order as the server but are NOT a security
// boundary; the authoritative check is always the server-side middleware.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/influyo/auth-service/internal/model"
)

// ErrLoggedOut is returned when no session is held or the session could
// not be refreshed; the caller must log in again.
var ErrLoggedOut = errors.New("logged out: authentication required")

// User is the profile summary returned by the service.
type User struct {
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

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Client talks to one auth service. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	access  string
	refresh string
	role    model.Role
}

// New returns a client for baseURL. All requests carry a bounded timeout;
// a timed-out login or refresh is a failure, never an indeterminate
// success.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Signup registers an account. No tokens are issued; follow with Login.
func (c *Client) Signup(ctx context.Context, email, password, firstName, lastName string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.postJSON(ctx, "/api/auth/signup", map[string]any{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}, http.StatusCreated, &out)
	return out.User, err
}

// Login obtains and stores a token pair.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (User, error) {
	var out struct {
		User    User      `json:"user"`
		Access  tokenPart `json:"access"`
		Refresh tokenPart `json:"refresh"`
	}
	err := c.postJSON(ctx, "/api/auth/login", map[string]any{
		"email":       email,
		"password":    password,
		"remember_me": remember,
	}, http.StatusOK, &out)
	if err != nil {
		return User{}, err
	}

	c.mu.Lock()
	c.access = out.Access.Token
	c.refresh = out.Refresh.Token
	c.role = model.Role(out.User.Role)
	c.mu.Unlock()
	return out.User, nil
}

// Logout revokes the held refresh token server-side and clears local
// state. Always clears locally, even when the server is unreachable.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	access, refresh := c.access, c.refresh
	c.mu.Unlock()

	var err error
	if refresh != "" || access != "" {
		body, _ := json.Marshal(map[string]any{"refresh_token": refresh})
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", bytes.NewReader(body))
		if reqErr == nil {
			req.Header.Set("Content-Type", "application/json")
			if access != "" {
				req.Header.Set("Authorization", "Bearer "+access)
			}
			var resp *http.Response
			if resp, err = c.http.Do(req); err == nil {
				drain(resp)
			}
		}
	}
	c.forceLogout()
	return err
}

// Me fetches the authenticated profile, refreshing once if needed.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/auth/me", nil, http.StatusOK, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// ChangePassword changes the password of the logged-in account. The server
// revokes every refresh token afterwards, so the client state is cleared
// and the caller must log in again.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	err := c.authed(ctx, http.MethodPost, "/api/auth/change-password", map[string]any{
		"current_password": current,
		"new_password":     next,
	}, http.StatusOK, nil)
	if err == nil {
		c.forceLogout()
	}
	return err
}

// RequestPasswordReset asks for reset instructions. The server answers
// identically whether or not the email exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/api/auth/request-password-reset",
		map[string]any{"email": email}, http.StatusOK, nil)
}

// ValidateResetToken reports whether a reset token is usable, and the
// masked email it belongs to, before the user commits to a new password.
func (c *Client) ValidateResetToken(ctx context.Context, token string) (valid bool, maskedEmail string, err error) {
	var out struct {
		Valid bool   `json:"valid"`
		Email string `json:"email"`
	}
	err = c.postJSON(ctx, "/api/auth/validate-reset-token",
		map[string]any{"token": token}, http.StatusOK, &out)
	return out.Valid, out.Email, err
}

// ResetPassword consumes a reset token and sets a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.postJSON(ctx, "/api/auth/reset-password", map[string]any{
		"token":        token,
		"new_password": newPassword,
	}, http.StatusOK, nil)
}

// ----- derived predicates (UI convenience, not enforcement) -----

// IsAuthenticated reports whether a token pair is held locally.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access != ""
}

// HasRole applies the server's rank order to the locally cached role.
func (c *Client) HasRole(required model.Role) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role.AtLeast(required)
}

// IsAdmin is shorthand for HasRole(model.RoleAdmin).
func (c *Client) IsAdmin() bool { return c.HasRole(model.RoleAdmin) }

// IsAnalyst is shorthand for HasRole(model.RoleAnalyst).
func (c *Client) IsAnalyst() bool { return c.HasRole(model.RoleAnalyst) }

// ----- internals -----

// authed performs a bearer-authenticated request. On a 401 it attempts
// exactly one refresh and retries the original request once; if the
// refresh fails too, local state is cleared and ErrLoggedOut returned.
// One retry, never more: a second 401 means the session is gone, and
// looping refreshes would hammer the server for nothing.
func (c *Client) authed(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	c.mu.Lock()
	access := c.access
	c.mu.Unlock()
	if access == "" {
		return ErrLoggedOut
	}

	status, err := c.doJSON(ctx, method, path, body, access, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		access, err = c.refreshAccess(ctx)
		if err != nil {
			c.forceLogout()
			return ErrLoggedOut
		}
		status, err = c.doJSON(ctx, method, path, body, access, out)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.forceLogout()
			return ErrLoggedOut
		}
	}
	if status != wantStatus {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, status)
	}
	return nil
}

// refreshAccess exchanges the stored refresh token for a new access token.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()
	if refresh == "" {
		return "", ErrLoggedOut
	}

	var out struct {
		Access tokenPart `json:"access"`
	}
	status, err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]any{"refresh_token": refresh}, "", &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || out.Access.Token == "" {
		return "", ErrLoggedOut
	}

	c.mu.Lock()
	c.access = out.Access.Token
	c.mu.Unlock()
	return out.Access.Token, nil
}

// forceLogout drops all local credential state.
func (c *Client) forceLogout() {
	c.mu.Lock()
	c.access = ""
	c.refresh = ""
	c.role = ""
	c.mu.Unlock()
}

// postJSON is for unauthenticated endpoints with a fixed success status.
func (c *Client) postJSON(ctx context.Context, path string, body any, wantStatus int, out any) error {
	status, err := c.doJSON(ctx, http.MethodPost, path, body, "", out)
	if err != nil {
		return err
	}
	if status != wantStatus {
		return fmt.Errorf("POST %s: unexpected status %d", path, status)
	}
	return nil
}

// doJSON sends one JSON request and decodes a JSON response into out when
// the response carries a body and out is non-nil. The status is returned
// for the caller to interpret.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, bearer string, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	if out != nil && resp.StatusCode < http.StatusInternalServerError {
		// Tolerate error bodies that don't match out's shape.
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
