package storage

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryDistinguishesEmptyFromMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.Get(ctx, "token"); ok || err != nil {
		t.Fatalf("expected absent entry, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "token", ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := m.Get(ctx, "token")
	if err != nil || !ok || v != "" {
		t.Fatalf("expected present empty value, got v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := m.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := m.Delete(ctx, "token"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "token"); ok {
		t.Fatal("expected entry removed")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = m.Set(ctx, "k", "v")
				_, _, _ = m.Get(ctx, "k")
				_ = m.Delete(ctx, "k")
			}
		}()
	}
	wg.Wait()
}
