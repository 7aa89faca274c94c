package utils

import (
	"context"
	"strings"
	"testing"
)

func TestConcurrencyScriptsInitialized(t *testing.T) {
	if concurrencyAcquireScript == nil || concurrencyReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestAcquireConcurrencyCapValidatesArgs(t *testing.T) {
	ctx := context.Background()
	if _, err := AcquireConcurrencyCap(ctx, nil, "calls:cap:biz-1", 2, 0); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseConcurrencyCap(ctx, nil, ""); err == nil || !strings.Contains(err.Error(), "redis client") {
		t.Fatalf("expected nil-client error, got %v", err)
	}
}
