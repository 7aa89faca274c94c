package reporting

import (
	"context"
	"testing"
	"time"

	"receptionist-platform/internal/callstore"
)

func TestReporting_BusinessIsolation(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Calls = []callstore.Call{
		{ID: "c1", BusinessID: "biz-1", ProviderCallID: "CA1", Status: callstore.CallStatusCompleted, CreatedAt: now},
		{ID: "c2", BusinessID: "biz-2", ProviderCallID: "CA2", Status: callstore.CallStatusCompleted, CreatedAt: now},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{BusinessID: "biz-1", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 {
		t.Fatalf("expected 1 call, got %d", out.TotalCalls)
	}
}

func TestReporting_CallsSummaryCounts(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Calls = []callstore.Call{
		{ID: "c1", BusinessID: "biz-1", Status: callstore.CallStatusCompleted, CustomerEmail: "a@b.com", CustomerName: "Tony", CreatedAt: now},
		{ID: "c2", BusinessID: "biz-1", Status: callstore.CallStatusCompleted, CustomerName: "Maria", CreatedAt: now},
		{ID: "c3", BusinessID: "biz-1", Status: callstore.CallStatusFailed, CreatedAt: now},
		{ID: "c4", BusinessID: "biz-1", Status: callstore.CallStatusInProgress, CreatedAt: now},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{BusinessID: "biz-1", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 4 || out.CompletedCalls != 2 || out.FailedCalls != 1 || out.InProgressCalls != 1 {
		t.Fatalf("unexpected summary: %+v", out)
	}
	if out.EmailsCaptured != 1 || out.NamesCaptured != 2 {
		t.Fatalf("unexpected capture counts: %+v", out)
	}
}

func TestReporting_BookingMetrics(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.Calls = []callstore.Call{
		{ID: "c1", BusinessID: "biz-1", Status: callstore.CallStatusCompleted, CreatedAt: now},
		{ID: "c2", BusinessID: "biz-1", Status: callstore.CallStatusCompleted, CreatedAt: now},
		{ID: "c3", BusinessID: "biz-1", Status: callstore.CallStatusFailed, CreatedAt: now},
	}
	repo.Appts = []callstore.Appointment{
		{ID: "a1", BusinessID: "biz-1", CallID: "c1", StartsAt: now.Add(24 * time.Hour)},
	}
	svc := NewService(repo)

	m, err := svc.BookingMetrics(context.Background(), BookingMetricsRequest{BusinessID: "biz-1", Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(48 * time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.CallsAnswered != 2 || m.Appointments != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if m.BookingRate != 0.5 {
		t.Fatalf("expected booking rate 0.5, got %v", m.BookingRate)
	}
}

func TestReporting_RejectsInvalidRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	now := time.Now()
	_, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{BusinessID: "biz-1", Range: TimeRange{From: now, To: now}})
	if err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	_, err = svc.BookingMetrics(context.Background(), BookingMetricsRequest{Range: TimeRange{From: now.Add(-time.Hour), To: now}})
	if err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest for missing business, got %v", err)
	}
}
