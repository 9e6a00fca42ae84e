package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/influyo/auth-service/internal/config"
	"github.com/influyo/auth-service/internal/handler"
	"github.com/influyo/auth-service/internal/model"
	"github.com/influyo/auth-service/internal/repository"
	"github.com/influyo/auth-service/internal/router"
	"github.com/influyo/auth-service/internal/utils"
)

const testSecret = "test-secret"

// env is a fully wired auth surface over in-memory stores. Requests go
// through the real router, so middleware and route guards are exercised
// along with the handlers.
type env struct {
	e      *echo.Echo
	users  *fakeUserStore
	tokens *fakeTokenStore
	resets *fakeResetStore
	deny   *fakeDenylist
	mails  *fakePublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Config{
		JWTSecret:       testSecret,
		AccessTTLMin:    15,
		RefreshTTLDays:  7,
		RememberTTLDays: 30,
		ResetTTLHours:   1,
		BcryptCost:      bcrypt.MinCost,
	}
	v := &env{
		e:      echo.New(),
		users:  newFakeUserStore(),
		tokens: newFakeTokenStore(),
		resets: newFakeResetStore(),
		deny:   newFakeDenylist(),
		mails:  &fakePublisher{},
	}
	a := handler.NewAuthHandler(cfg, v.users, v.tokens, v.resets, v.deny, v.mails)
	router.RegisterRoutes(v.e)
	router.RegisterAuth(v.e, a, repository.NewBlacklist(nil), nil)
	return v
}

// seedUser inserts an active user directly into the store.
func (v *env) seedUser(t *testing.T, email, password string, role model.Role) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	u := model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}
	_, err = v.users.Create(context.Background(), &u)
	require.NoError(t, err)
	return u
}

func (v *env) do(method, path string, body any, bearer string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		rdr = bytes.NewReader(buf)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("User-Agent", "handler-test/1.0")
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

type tokenJSON struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userJSON struct {
	ID          uint64     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}
type loginJSON struct {
	User    userJSON  `json:"user"`
	Access  tokenJSON `json:"access"`
	Refresh tokenJSON `json:"refresh"`
}

// login runs the login endpoint and decodes the token pair.
func (v *env) login(t *testing.T, email, password string) loginJSON {
	t.Helper()
	rec := v.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())
	var out loginJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Access.Token)
	require.NotEmpty(t, out.Refresh.Token)
	return out
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
