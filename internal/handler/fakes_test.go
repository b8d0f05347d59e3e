package handler_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthcare-portal-api/internal/availability"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/scheduler"
	"healthcare-portal-api/internal/store"
)

// stubScheduling returns err from every call when set, otherwise canned data.
type stubScheduling struct {
	err      error
	appt     *model.Appointment
	list     []model.Appointment
	sched    availability.Schedule
	doctors  []model.User
	lastBook scheduler.BookRequest
	lastDoc  []byte
}

func (s *stubScheduling) Book(_ context.Context, _ model.Actor, req scheduler.BookRequest) (*model.Appointment, error) {
	s.lastBook = req
	return s.appt, s.err
}
func (s *stubScheduling) UpdateStatus(context.Context, model.Actor, string, string) (*model.Appointment, error) {
	return s.appt, s.err
}
func (s *stubScheduling) Cancel(context.Context, model.Actor, string) error { return s.err }
func (s *stubScheduling) ListForPatient(context.Context, model.Actor, string) ([]model.Appointment, error) {
	return s.list, s.err
}
func (s *stubScheduling) ListForDoctor(context.Context, model.Actor, string) ([]model.Appointment, error) {
	return s.list, s.err
}
func (s *stubScheduling) SetAvailability(_ context.Context, _ model.Actor, doc []byte) (availability.Schedule, error) {
	s.lastDoc = doc
	return s.sched, s.err
}
func (s *stubScheduling) GetAvailability(context.Context, string) (availability.Schedule, error) {
	return s.sched, s.err
}
func (s *stubScheduling) ListDoctors(context.Context) ([]model.User, error) { return s.doctors, s.err }

type memAccounts struct {
	mu     sync.Mutex
	users  map[string]*model.User
	tokens map[string]*store.RefreshToken
}

func newMemAccounts() *memAccounts {
	return &memAccounts{users: map[string]*model.User{}, tokens: map[string]*store.RefreshToken{}}
}

func (m *memAccounts) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memAccounts) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memAccounts) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memAccounts) CreateRefreshToken(_ context.Context, userID, hash string, exp time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.tokens[hash] = &store.RefreshToken{ID: id, UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return id, nil
}

func (m *memAccounts) GetRefreshTokenByHash(_ context.Context, hash string) (*store.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (m *memAccounts) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.ID == oldID {
			if rt.Revoked {
				return store.ErrConflict
			}
			rt.Revoked = true
			rt.ReplacedBy = &newID
			m.tokens[newHash] = &store.RefreshToken{ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: exp}
			return nil
		}
	}
	return store.ErrConflict
}

func (m *memAccounts) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func (m *memAccounts) liveTokens(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rt := range m.tokens {
		if rt.UserID == userID && !rt.Revoked {
			n++
		}
	}
	return n
}
