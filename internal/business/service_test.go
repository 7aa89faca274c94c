package business

import (
	"context"
	"testing"
)

func TestResolveConfiguredNumber(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Add(Profile{ID: "b1", Name: "Sunrise Dental", PhoneNumber: "+15550001111"})

	svc := Service{Repo: repo}
	p, err := svc.Resolve(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.ID != "b1" {
		t.Fatalf("expected b1, got %q", p.ID)
	}
}

func TestResolveUnknownNumberWithoutFallback(t *testing.T) {
	svc := Service{Repo: NewMemoryRepo()}
	if _, err := svc.Resolve(context.Background(), "+15559990000"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveUnknownNumberUsesFallback(t *testing.T) {
	fallback := Profile{ID: "default", Name: "Front Desk"}
	svc := Service{Repo: NewMemoryRepo(), Fallback: &fallback}

	p, err := svc.Resolve(context.Background(), "+15559990000")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.ID != "default" {
		t.Fatalf("expected fallback profile, got %q", p.ID)
	}
}
