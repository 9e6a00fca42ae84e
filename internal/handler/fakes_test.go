package handler_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/influyo/auth-service/internal/model"
	"github.com/influyo/auth-service/internal/queue"
	"github.com/influyo/auth-service/internal/repository"
)

// In-memory stores standing in for the MySQL repositories. They mirror the
// SQL semantics the handlers rely on: hash lookups that reject revoked and
// expired rows in one read, idempotent revocation, single-use consume.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[uint64]model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	id := s.nextID
	s.nextID++
	u.ID = id
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[id] = *u
	return id, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) TouchLastLogin(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		now := time.Now().UTC()
		u.LastLoginAt = &now
		s.users[id] = u
	}
	return nil
}

func (s *fakeUserStore) setRole(id uint64, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.Role = role
	s.users[id] = u
}

func (s *fakeUserStore) setActive(id uint64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.IsActive = active
	s.users[id] = u
}

type fakeTokenStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   []model.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore { return &fakeTokenStore{nextID: 1} }

func (s *fakeTokenStore) Store(_ context.Context, t *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = time.Now().UTC()
	s.rows = append(s.rows, *t)
	return nil
}

func (s *fakeTokenStore) Validate(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, r := range s.rows {
		if r.TokenHash == tokenHash && r.RevokedAt == nil && r.ExpiresAt.After(now) {
			return r.UserID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (s *fakeTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.rows {
		if s.rows[i].TokenHash == tokenHash && s.rows[i].RevokedAt == nil {
			s.rows[i].RevokedAt = &now
		}
	}
	return nil
}

func (s *fakeTokenStore) RevokeByID(_ context.Context, userID, tokenID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.rows {
		if s.rows[i].ID == tokenID && s.rows[i].UserID == userID && s.rows[i].RevokedAt == nil {
			s.rows[i].RevokedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].RevokedAt == nil {
			s.rows[i].RevokedAt = &now
		}
	}
	return nil
}

func (s *fakeTokenStore) ListActiveForUser(_ context.Context, userID uint64) ([]model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var out []model.RefreshToken
	for _, r := range s.rows {
		if r.UserID == userID && r.RevokedAt == nil && r.ExpiresAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var kept []model.RefreshToken
	var n int64
	for _, r := range s.rows {
		if r.ExpiresAt.After(now) {
			kept = append(kept, r)
		} else {
			n++
		}
	}
	s.rows = kept
	return n, nil
}

// expireAll backdates every row, simulating the passage of time.
func (s *fakeTokenStore) expireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	past := time.Now().UTC().Add(-time.Hour)
	for i := range s.rows {
		s.rows[i].ExpiresAt = past
	}
}

type fakeResetStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   []model.PasswordResetToken
}

func newFakeResetStore() *fakeResetStore { return &fakeResetStore{nextID: 1} }

func (s *fakeResetStore) Store(_ context.Context, t *model.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.rows {
		if s.rows[i].UserID == t.UserID && s.rows[i].UsedAt == nil {
			s.rows[i].UsedAt = &now
		}
	}
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = now
	s.rows = append(s.rows, *t)
	return nil
}

func (s *fakeResetStore) Lookup(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, r := range s.rows {
		if r.TokenHash == tokenHash && r.UsedAt == nil && r.ExpiresAt.After(now) {
			return r.UserID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (s *fakeResetStore) Consume(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.rows {
		if s.rows[i].TokenHash == tokenHash && s.rows[i].UsedAt == nil && s.rows[i].ExpiresAt.After(now) {
			s.rows[i].UsedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeResetStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var kept []model.PasswordResetToken
	var n int64
	for _, r := range s.rows {
		if r.ExpiresAt.After(now) && r.UsedAt == nil {
			kept = append(kept, r)
		} else {
			n++
		}
	}
	s.rows = kept
	return n, nil
}

func (s *fakeResetStore) expireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	past := time.Now().UTC().Add(-time.Hour)
	for i := range s.rows {
		s.rows[i].ExpiresAt = past
	}
}

type fakeDenylist struct {
	mu   sync.Mutex
	jtis map[string]time.Time
}

func newFakeDenylist() *fakeDenylist { return &fakeDenylist{jtis: map[string]time.Time{}} }

func (d *fakeDenylist) Revoke(_ context.Context, jti string, exp time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if jti != "" {
		d.jtis[jti] = exp
	}
	return nil
}

func (d *fakeDenylist) has(jti string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.jtis[jti]
	return ok
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.PasswordResetRequestedEvent
}

func (p *fakePublisher) PublishPasswordReset(_ context.Context, ev queue.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) last() (queue.PasswordResetRequestedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return queue.PasswordResetRequestedEvent{}, false
	}
	return p.events[len(p.events)-1], true
}
