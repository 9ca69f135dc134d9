package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"rhythm-flow/internal/repository"
)

func newTestCollectionService() *CollectionService {
	return NewCollectionService(repository.NewJSONCollectionRepository(repository.NewMemoryDocument(nil)))
}

func itemsJSON(t *testing.T, items []json.RawMessage) string {
	t.Helper()
	out, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal items: %v", err)
	}
	return string(out)
}

func TestCollectionService_ReplaceRoundTrip(t *testing.T) {
	svc := newTestCollectionService()
	ctx := context.Background()

	if err := svc.Replace(ctx, "a@x.com", json.RawMessage(`[{"id":1},{"id":2,"title":"B"}]`)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	items, err := svc.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := itemsJSON(t, items); got != `[{"id":1},{"id":2,"title":"B"}]` {
		t.Fatalf("unexpected items %s", got)
	}
}

func TestCollectionService_ReplaceRejectsNonArray(t *testing.T) {
	svc := newTestCollectionService()
	ctx := context.Background()
	if err := svc.Replace(ctx, "a@x.com", json.RawMessage(`[{"id":1}]`)); err != nil {
		t.Fatalf("replace: %v", err)
	}

	for _, raw := range []string{`{"id":1}`, `"x"`, `null`, `5`, ``, `[1,`} {
		if err := svc.Replace(ctx, "a@x.com", json.RawMessage(raw)); !errors.Is(err, ErrInvalidShape) {
			t.Fatalf("expected ErrInvalidShape for %q, got %v", raw, err)
		}
	}

	items, err := svc.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := itemsJSON(t, items); got != `[{"id":1}]` {
		t.Fatalf("prior value should be unchanged, got %s", got)
	}
}

func TestCollectionService_ReplaceEmptyArray(t *testing.T) {
	svc := newTestCollectionService()
	ctx := context.Background()
	if err := svc.Replace(ctx, "a@x.com", json.RawMessage(`[{"id":1}]`)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := svc.Replace(ctx, "a@x.com", json.RawMessage(`[]`)); err != nil {
		t.Fatalf("replace empty: %v", err)
	}
	items, err := svc.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty collection, got %d items", len(items))
	}
}

func TestCollectionService_AddItemDeduplicatesByID(t *testing.T) {
	svc := newTestCollectionService()
	ctx := context.Background()

	added, err := svc.AddItem(ctx, "a@x.com", json.RawMessage(`{"id":7,"title":"A"}`))
	if err != nil || !added {
		t.Fatalf("expected first add, got %v %v", added, err)
	}
	added, err = svc.AddItem(ctx, "a@x.com", json.RawMessage(`{"id":"7","title":"again"}`))
	if err != nil || added {
		t.Fatalf("expected duplicate to be skipped, got %v %v", added, err)
	}
	if _, err := svc.AddItem(ctx, "a@x.com", json.RawMessage(`{"title":"no id"}`)); !errors.Is(err, ErrItemNoID) {
		t.Fatalf("expected ErrItemNoID, got %v", err)
	}

	items, err := svc.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := itemsJSON(t, items); got != `[{"id":7,"title":"A"}]` {
		t.Fatalf("unexpected items %s", got)
	}
}

func TestCollectionService_RemoveItem(t *testing.T) {
	svc := newTestCollectionService()
	ctx := context.Background()
	if err := svc.Replace(ctx, "a@x.com", json.RawMessage(`[{"id":1},{"id":2},{"id":1}]`)); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := svc.RemoveItem(ctx, "a@x.com", "1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, err := svc.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := itemsJSON(t, items); got != `[{"id":2}]` {
		t.Fatalf("unexpected items %s", got)
	}
}

func TestCollectionService_ConcurrentAddItemKeepsEveryItem(t *testing.T) {
	svc := newTestCollectionService()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Cada id se intenta dos veces; solo una debe quedar.
			if _, err := svc.AddItem(ctx, "a@x.com", json.RawMessage(fmt.Sprintf(`{"id":%d}`, i%15))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("add item: %v", err)
	}

	items, err := svc.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(items) != 15 {
		t.Fatalf("expected 15 distinct items, got %d: %s", len(items), itemsJSON(t, items))
	}
}
