package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreAllowsUpToLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := s.Allow(ctx, "1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("attempt %d denied before the limit", i+1)
		}
	}

	ok, err := s.Allow(ctx, "1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("fourth attempt should be denied")
	}
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if ok, _ := s.Allow(ctx, "a", 1, time.Minute); !ok {
		t.Fatal("first caller denied")
	}
	if ok, _ := s.Allow(ctx, "a", 1, time.Minute); ok {
		t.Error("first caller should now be limited")
	}
	if ok, _ := s.Allow(ctx, "b", 1, time.Minute); !ok {
		t.Error("second caller must not share the first caller's budget")
	}
}

func TestMemoryStoreWindowSlides(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := s.Allow(ctx, "k", 1, time.Minute); !ok {
		t.Fatal("first attempt denied")
	}
	if ok, _ := s.Allow(ctx, "k", 1, time.Minute); ok {
		t.Fatal("second attempt inside the window should be denied")
	}

	now = now.Add(61 * time.Second)
	if ok, _ := s.Allow(ctx, "k", 1, time.Minute); !ok {
		t.Error("attempt after the window should be allowed again")
	}
}

func TestMemoryStoreZeroLimitDisables(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 100; i++ {
		if ok, _ := s.Allow(context.Background(), "k", 0, time.Minute); !ok {
			t.Fatal("zero limit must disable limiting")
		}
	}
}
