package business

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory business repository for tests and early
// development.
type MemoryRepo struct {
	mu       sync.Mutex
	byNumber map[string]Profile
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byNumber: map[string]Profile{}}
}

func (r *MemoryRepo) Add(p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNumber[p.PhoneNumber] = p
}

func (r *MemoryRepo) GetByPhoneNumber(_ context.Context, number string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byNumber[number]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}
