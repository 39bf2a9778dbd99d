// Package file keeps each collection as a JSON envelope in a data directory.
// Writes go to a temporary file that is renamed over the old one, so a
// reader never sees a half-written collection. Version checks are enforced
// within one process; the directory must not be shared between hosts.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"carebook/internal/store"
	"carebook/pkg/platform/sentinel"
)

var validName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

type envelope struct {
	Version int64           `json:"version"`
	Records json.RawMessage `json:"records"`
}

type Backend struct {
	dir string
	mu  sync.Mutex
}

// New creates the data directory if needed.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) Dir() string {
	return b.dir
}

func (b *Backend) path(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return filepath.Join(b.dir, name+".json"), nil
}

func (b *Backend) Load(_ context.Context, name string) (store.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(name)
}

// load reads an envelope. A file that is not a valid envelope is returned
// as a version 0 document with the raw bytes so the store reports it
// corrupt and the next write replaces it.
func (b *Backend) load(name string) (store.Document, error) {
	path, err := b.path(name)
	if err != nil {
		return store.Document{}, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store.Document{}, nil
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("read %s: %w", name, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return store.Document{Payload: raw}, nil
	}
	if len(env.Records) == 0 || string(env.Records) == "null" {
		return store.Document{Version: env.Version}, nil
	}
	return store.Document{Version: env.Version, Payload: env.Records}, nil
}

func (b *Backend) Swap(_ context.Context, name string, expected int64, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, err := b.load(name)
	if err != nil {
		return 0, err
	}
	if current.Version != expected {
		return current.Version, sentinel.ErrConflict
	}
	return b.write(name, current.Version+1, payload)
}

func (b *Backend) Put(_ context.Context, name string, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, err := b.load(name)
	if err != nil {
		return 0, err
	}
	return b.write(name, current.Version+1, payload)
}

func (b *Backend) write(name string, version int64, payload []byte) (int64, error) {
	path, err := b.path(name)
	if err != nil {
		return 0, err
	}
	if !json.Valid(payload) {
		return 0, fmt.Errorf("write %s: payload is not valid JSON", name)
	}
	raw, err := json.Marshal(envelope{Version: version, Records: payload})
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(b.dir, name+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("commit %s: %w", name, err)
	}
	return version, nil
}
