package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"receptionist-platform/internal/callstore"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early development.
// It enforces business isolation on reads.

type MemoryRepo struct {
	mu sync.Mutex

	Calls []callstore.Call
	Appts []callstore.Appointment
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(_ context.Context, businessID string, from, to time.Time) ([]callstore.Call, error) {
	if businessID == "" {
		return nil, errors.New("business_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]callstore.Call, 0)
	for _, c := range r.Calls {
		if c.BusinessID != businessID {
			continue
		}
		if !c.CreatedAt.IsZero() {
			if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) ListAppointments(_ context.Context, businessID string, from, to time.Time) ([]callstore.Appointment, error) {
	if businessID == "" {
		return nil, errors.New("business_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]callstore.Appointment, 0)
	for _, a := range r.Appts {
		if a.BusinessID != businessID {
			continue
		}
		if !a.StartsAt.IsZero() {
			if a.StartsAt.Before(from) || !a.StartsAt.Before(to) {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}
