// Package memory is an in-process store backend for tests and ephemeral runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"carebook/internal/store"
	"carebook/pkg/platform/sentinel"
)

type Backend struct {
	mu   sync.RWMutex
	docs map[string]store.Document
}

func New() *Backend {
	return &Backend{docs: make(map[string]store.Document)}
}

func (b *Backend) Load(_ context.Context, name string) (store.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	doc := b.docs[name]
	return store.Document{Version: doc.Version, Payload: slices.Clone(doc.Payload)}, nil
}

func (b *Backend) Swap(_ context.Context, name string, expected int64, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.docs[name]
	if current.Version != expected {
		return current.Version, sentinel.ErrConflict
	}
	next := store.Document{Version: current.Version + 1, Payload: slices.Clone(payload)}
	b.docs[name] = next
	return next.Version, nil
}

func (b *Backend) Put(_ context.Context, name string, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := store.Document{Version: b.docs[name].Version + 1, Payload: slices.Clone(payload)}
	b.docs[name] = next
	return next.Version, nil
}
