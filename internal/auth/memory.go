package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"emhana.org/internal/ids"
)

var _ UserStore = (*MemoryUserStore)(nil)

// MemoryUserStore is an in-process UserStore used by tests and DSN-less dev
// runs. It mirrors the PostgreSQL semantics, including the unique email
// constraint.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
	now   Clock
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*User), now: time.Now}
}

// SetClock pins the store's timestamp source; tests only.
func (s *MemoryUserStore) SetClock(now Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

func (s *MemoryUserStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == NormalizeEmail(u.Email) {
			return ErrAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	cp := *u
	cp.Email = NormalizeEmail(u.Email)
	cp.CreatedAt = s.now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	s.users[cp.ID] = &cp
	return nil
}

func (s *MemoryUserStore) Find(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryUserStore) SetActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryUserStore) List(_ context.Context, page, pageSize int) ([]*User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	all := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}
