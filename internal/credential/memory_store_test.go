package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStorePutOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := Record{
		Credential: Credential{ID: "CRED-1", HolderName: "Alice", CredentialType: "ID Card", IssueDate: "2025-01-01"},
		WorkerID:   "worker-1",
		IssuedAt:   "2025-01-01T00:00:00Z",
	}

	created, err := store.Put(ctx, rec)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true on first put")
	}

	other := rec
	other.HolderName = "Mallory"
	created, err = store.Put(ctx, other)
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if created {
		t.Fatalf("expected created=false on duplicate put")
	}

	got, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HolderName != "Alice" {
		t.Fatalf("duplicate put mutated stored record: %+v", got)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreConcurrentPutSameID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := Record{
				Credential: Credential{ID: "CRED-RACE", HolderName: "Alice", CredentialType: "ID Card", IssueDate: "2025-01-01"},
				WorkerID:   fmt.Sprintf("worker-%d", i),
				IssuedAt:   "2025-01-01T00:00:00Z",
			}
			created, err := store.Put(ctx, rec)
			if err != nil {
				t.Errorf("put %d: %v", i, err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if createdCount != 1 {
		t.Fatalf("expected exactly one created=true, got %d", createdCount)
	}
}

func TestMemoryStoreGetAll(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := Record{
			Credential: Credential{ID: fmt.Sprintf("CRED-%d", i), HolderName: "A", CredentialType: "T", IssueDate: "2025-01-01"},
			WorkerID:   "worker-1",
			IssuedAt:   "2025-01-01T00:00:00Z",
		}
		if _, err := store.Put(ctx, rec); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	records, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}
