package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// CollectionRepository guarda la colección de cada cuenta como un valor único.
type CollectionRepository interface {
	Get(ctx context.Context, owner string) ([]json.RawMessage, error)
	Replace(ctx context.Context, owner string, items []json.RawMessage) error
	// Update aplica fn sobre la colección actual y guarda el resultado bajo el
	// mismo lock.
	Update(ctx context.Context, owner string, fn func([]json.RawMessage) ([]json.RawMessage, error)) error
}

// JSONCollectionRepository implementa CollectionRepository sobre un Document
// con forma {"<email>": [ ... ]}.
type JSONCollectionRepository struct {
	mu  sync.Mutex
	doc Document
}

func NewJSONCollectionRepository(doc Document) *JSONCollectionRepository {
	return &JSONCollectionRepository{doc: doc}
}

func (r *JSONCollectionRepository) Get(ctx context.Context, owner string) ([]json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	items := all[owner]
	if items == nil {
		return []json.RawMessage{}, nil
	}
	return items, nil
}

func (r *JSONCollectionRepository) Replace(ctx context.Context, owner string, items []json.RawMessage) error {
	return r.Update(ctx, owner, func([]json.RawMessage) ([]json.RawMessage, error) {
		return items, nil
	})
}

func (r *JSONCollectionRepository) Update(ctx context.Context, owner string, fn func([]json.RawMessage) ([]json.RawMessage, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	current := all[owner]
	if current == nil {
		current = []json.RawMessage{}
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		next = []json.RawMessage{}
	}
	all[owner] = next
	return r.save(ctx, all)
}

func (r *JSONCollectionRepository) load(ctx context.Context) (map[string][]json.RawMessage, error) {
	data, err := r.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	all := make(map[string][]json.RawMessage)
	if len(bytes.TrimSpace(data)) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("%w: decode collections: %v", ErrStoreIO, err)
	}
	return all, nil
}

func (r *JSONCollectionRepository) save(ctx context.Context, all map[string][]json.RawMessage) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode collections: %v", ErrStoreIO, err)
	}
	return r.doc.Save(ctx, data)
}
