package callstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateAppointmentResolvesCallRow(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	created, err := repo.CreateCall(ctx, Call{
		BusinessID:     "biz-1",
		ProviderCallID: "CA300",
		CallerPhone:    "+15550001111",
	})
	if err != nil {
		t.Fatalf("create call: %v", err)
	}

	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	appt, err := repo.CreateAppointment(ctx, "CA300", Appointment{
		StartsAt: start,
		EndsAt:   start.Add(time.Hour),
		Label:    "cleaning",
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	if appt.CallID != created.ID {
		t.Fatalf("expected appointment linked to call %s, got %s", created.ID, appt.CallID)
	}
	if appt.BusinessID != "biz-1" {
		t.Fatalf("expected business from the call row, got %q", appt.BusinessID)
	}
	if appt.ID == "" {
		t.Fatalf("expected generated appointment id")
	}
}

func TestCreateAppointmentUnknownCall(t *testing.T) {
	repo := NewMemoryRepo()
	_, err := repo.CreateAppointment(context.Background(), "CA999", Appointment{
		StartsAt: time.Now(),
		EndsAt:   time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown call, got %v", err)
	}
}
