package otp

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process challenge log used by tests and DSN-less dev
// runs. Semantics match the PostgreSQL store.
type MemoryStore struct {
	mu         sync.RWMutex
	challenges []*Challenge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(_ context.Context, ch *Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ch
	s.challenges = append(s.challenges, &cp)
	return nil
}

func (s *MemoryStore) FindByEmailAndCode(_ context.Context, email, code string) (*Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Challenge
	for _, ch := range s.challenges {
		if ch.Email != email || ch.Code != code {
			continue
		}
		if best == nil {
			best = ch
			continue
		}
		// Unconsumed rows win; among equals the newest wins.
		switch {
		case best.Verified && !ch.Verified:
			best = ch
		case best.Verified == ch.Verified && ch.CreatedAt.After(best.CreatedAt):
			best = ch
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *MemoryStore) MarkVerified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.challenges {
		if ch.ID == id {
			if ch.Verified {
				return ErrNotFound
			}
			ch.Verified = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CountSince(_ context.Context, email string, from time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, ch := range s.challenges {
		if ch.Email == email && !ch.CreatedAt.Before(from) {
			count++
		}
	}
	return count, nil
}
