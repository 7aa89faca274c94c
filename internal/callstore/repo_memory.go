package callstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory call store for tests and early development.
type MemoryRepo struct {
	mu          sync.Mutex
	Calls       map[string]Call // keyed by provider_call_id
	Transcripts map[string][]TranscriptTurn
	Appts       []Appointment

	Now func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Calls:       map[string]Call{},
		Transcripts: map[string][]TranscriptTurn{},
	}
}

func (r *MemoryRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *MemoryRepo) CreateCall(_ context.Context, c Call) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = CallStatusInProgress
	}
	c.CreatedAt = r.now()
	c.UpdatedAt = c.CreatedAt
	r.Calls[c.ProviderCallID] = c
	return c, nil
}

func (r *MemoryRepo) UpdateCallStatus(_ context.Context, providerCallID string, status CallStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Calls[providerCallID]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = r.now()
	r.Calls[providerCallID] = c
	return nil
}

func (r *MemoryRepo) UpdateCallEntities(_ context.Context, providerCallID string, name, email, businessType, companyName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Calls[providerCallID]
	if !ok {
		return ErrNotFound
	}
	c.CustomerName = name
	c.CustomerEmail = email
	c.BusinessType = businessType
	c.CompanyName = companyName
	c.UpdatedAt = r.now()
	r.Calls[providerCallID] = c
	return nil
}

func (r *MemoryRepo) AppendTranscript(_ context.Context, providerCallID, role, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Calls[providerCallID]
	if !ok {
		return ErrNotFound
	}
	r.Transcripts[providerCallID] = append(r.Transcripts[providerCallID], TranscriptTurn{
		ID:        uuid.NewString(),
		CallID:    c.ID,
		Role:      role,
		Content:   content,
		CreatedAt: r.now(),
	})
	return nil
}

func (r *MemoryRepo) GetCallByProviderID(_ context.Context, providerCallID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Calls[providerCallID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListTranscript(_ context.Context, providerCallID string) ([]TranscriptTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	turns := r.Transcripts[providerCallID]
	out := make([]TranscriptTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (r *MemoryRepo) CreateAppointment(_ context.Context, providerCallID string, a Appointment) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Calls[providerCallID]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CallID = c.ID
	a.BusinessID = c.BusinessID
	a.CreatedAt = r.now()
	r.Appts = append(r.Appts, a)
	return a, nil
}
