package store

import (
	"context"
	"encoding/json"

	dErrors "carebook/pkg/domain-errors"
)

// Collection is a typed view of one collection. Records are always handled
// as the whole slice.
type Collection[T any] struct {
	store *Store
	name  string
}

func NewCollection[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// All returns every record. A corrupt collection is reported and read as
// empty so callers can proceed.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	var records []T
	err := c.store.Read(ctx, c.name, &records)
	if dErrors.HasCode(err, dErrors.CodeStorageCorrupt) {
		c.store.reportCorrupt(ctx, c.name, err)
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Update runs fn on the current records and writes back what it returns.
// fn may be called again if another writer got there first, so it must
// derive everything from its argument. A corrupt collection is reported and
// fn sees an empty slice.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	return c.store.Update(ctx, c.name, func(current []byte) ([]byte, error) {
		var records []T
		if err := decode(c.name, current, &records); err != nil {
			c.store.reportCorrupt(ctx, c.name, err)
			records = nil
		}
		if records == nil {
			records = []T{}
		}
		next, err := fn(records)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []T{}
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode "+c.name)
		}
		return payload, nil
	})
}

// Replace overwrites the collection with records.
func (c *Collection[T]) Replace(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	return c.store.Replace(ctx, c.name, records)
}
