// Package redis stores each collection as a hash holding its version and
// records. Conditional writes use WATCH/MULTI so two processes sharing one
// Redis cannot overwrite each other's changes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"carebook/internal/store"
	"carebook/pkg/platform/sentinel"
)

const (
	defaultPrefix = "carebook:collection:"
	fieldVersion  = "version"
	fieldRecords  = "records"
)

type Backend struct {
	client redis.UniversalClient
	prefix string
}

type Option func(*Backend)

// WithPrefix namespaces keys, e.g. per test.
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

func New(client redis.UniversalClient, opts ...Option) *Backend {
	b := &Backend{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) key(name string) string {
	return b.prefix + name
}

func (b *Backend) Load(ctx context.Context, name string) (store.Document, error) {
	return load(ctx, b.client, b.key(name))
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func load(ctx context.Context, c hashReader, key string) (store.Document, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return store.Document{}, fmt.Errorf("load %s: %w", key, err)
	}
	if len(fields) == 0 {
		return store.Document{}, nil
	}
	version, err := strconv.ParseInt(fields[fieldVersion], 10, 64)
	if err != nil {
		// Unreadable version: surface the records so the store flags corruption.
		return store.Document{Payload: []byte(fields[fieldRecords])}, nil
	}
	doc := store.Document{Version: version}
	if raw, ok := fields[fieldRecords]; ok && raw != "" {
		doc.Payload = []byte(raw)
	}
	return doc, nil
}

func (b *Backend) Swap(ctx context.Context, name string, expected int64, payload []byte) (int64, error) {
	key := b.key(name)
	var next int64
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		if current.Version != expected {
			return sentinel.ErrConflict
		}
		next = current.Version + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldVersion, next, fieldRecords, payload)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("swap %s: %w", key, err)
	}
	return next, nil
}

func (b *Backend) Put(ctx context.Context, name string, payload []byte) (int64, error) {
	key := b.key(name)
	var incr *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, fieldVersion, 1)
		pipe.HSet(ctx, key, fieldRecords, payload)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	return incr.Val(), nil
}

// LoadMany pipelines HGETALL for each collection.
func (b *Backend) LoadMany(ctx context.Context, names []string) (map[string]store.Document, error) {
	cmds := make(map[string]*redis.MapStringStringCmd, len(names))
	_, err := b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range names {
			cmds[name] = pipe.HGetAll(ctx, b.key(name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	out := make(map[string]store.Document, len(names))
	for name, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			out[name] = store.Document{}
			continue
		}
		version, _ := strconv.ParseInt(fields[fieldVersion], 10, 64)
		out[name] = store.Document{Version: version, Payload: []byte(fields[fieldRecords])}
	}
	return out, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
