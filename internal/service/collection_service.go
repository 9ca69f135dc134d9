package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"rhythm-flow/internal/domain"
	"rhythm-flow/internal/repository"
)

// CollectionService expone la colección guardada de cada cuenta.
//
// El store no valida items ni evita duplicados en Replace; AddItem es el
// único camino que deduplica por id.
type CollectionService struct {
	collections repository.CollectionRepository
}

var (
	ErrInvalidShape = errors.New("items must be an array")
	ErrItemNoID     = errors.New("item must be an object with an id")
)

func NewCollectionService(collections repository.CollectionRepository) *CollectionService {
	return &CollectionService{collections: collections}
}

func (s *CollectionService) Get(ctx context.Context, owner string) ([]json.RawMessage, error) {
	return s.collections.Get(ctx, owner)
}

// Replace sobrescribe la colección completa. raw debe ser un array JSON.
func (s *CollectionService) Replace(ctx context.Context, owner string, raw json.RawMessage) error {
	items, err := decodeItems(raw)
	if err != nil {
		return err
	}
	return s.collections.Replace(ctx, owner, items)
}

// AddItem agrega item al final salvo que ya exista uno con el mismo id.
func (s *CollectionService) AddItem(ctx context.Context, owner string, item json.RawMessage) (bool, error) {
	id, ok := domain.ItemID(item)
	if !ok {
		return false, ErrItemNoID
	}
	added := false
	err := s.collections.Update(ctx, owner, func(items []json.RawMessage) ([]json.RawMessage, error) {
		for _, existing := range items {
			if existingID, ok := domain.ItemID(existing); ok && existingID == id {
				return items, nil
			}
		}
		added = true
		return append(items, item), nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveItem quita todos los items con el id dado.
func (s *CollectionService) RemoveItem(ctx context.Context, owner, id string) error {
	return s.collections.Update(ctx, owner, func(items []json.RawMessage) ([]json.RawMessage, error) {
		kept := make([]json.RawMessage, 0, len(items))
		for _, existing := range items {
			if existingID, ok := domain.ItemID(existing); ok && existingID == id {
				continue
			}
			kept = append(kept, existing)
		}
		return kept, nil
	})
}

func decodeItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidShape
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, ErrInvalidShape
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}
