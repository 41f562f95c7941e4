package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collections used by the service. Each holds JSON documents keyed by id.
const (
	CollectionContactLists    = "contact_lists"
	CollectionCampaigns       = "campaigns"
	CollectionCallAnnotations = "call_annotations"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrInvalidArgument = errors.New("store: invalid argument")
)

// Store is a string-keyed document store. Values are opaque JSON documents.
// List returns documents ordered by id so callers get a stable order.
type Store interface {
	Put(ctx context.Context, collection, id string, value []byte) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	List(ctx context.Context, collection string) ([][]byte, error)
	Delete(ctx context.Context, collection, id string) error
}

// PutJSON marshals v and stores it under collection/id.
func PutJSON(ctx context.Context, s Store, collection, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, collection, id, b)
}

// GetJSON loads collection/id into v.
func GetJSON(ctx context.Context, s Store, collection, id string, v any) error {
	b, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ListJSON decodes every document of a collection.
func ListJSON[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	raw, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, b := range raw {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func validKey(collection, id string) error {
	if collection == "" || id == "" {
		return ErrInvalidArgument
	}
	return nil
}
