package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"receptionist-platform/internal/schedule"
)

// Memory is an in-memory calendar for tests.
type Memory struct {
	mu     sync.Mutex
	busy   map[string][]schedule.Interval
	Events map[string][]Event

	// Err, when set, is returned from every call to simulate an outage.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		busy:   map[string][]schedule.Interval{},
		Events: map[string][]Event{},
	}
}

func (m *Memory) Book(calendarID string, iv schedule.Interval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy[calendarID] = append(m.busy[calendarID], iv)
}

func (m *Memory) ListBusy(_ context.Context, calendarID string, from, to time.Time) ([]schedule.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []schedule.Interval
	for _, iv := range m.busy[calendarID] {
		if iv.Start.Before(to) && iv.End.After(from) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, calendarID string, ev Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if ev.End.Before(ev.Start) || ev.End.Equal(ev.Start) {
		return "", errors.New("calendar: event end must be after start")
	}
	m.Events[calendarID] = append(m.Events[calendarID], ev)
	m.busy[calendarID] = append(m.busy[calendarID], schedule.Interval{Start: ev.Start, End: ev.End})
	return uuid.NewString(), nil
}
