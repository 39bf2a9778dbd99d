// Package store is the shared persistence layer for every clinic component.
// Each collection is a whole JSON array read and written as one document on
// a key-value backend. Mutations go through Update, which in serialized mode
// holds a per-collection owner lock and commits with an optimistic version
// check, retrying the whole read-modify-write on conflict.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"carebook/internal/platform/metrics"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/platform/audit"
	"carebook/pkg/platform/sentinel"
	"carebook/pkg/requestcontext"
)

// Collection names.
const (
	Users        = "users"
	Appointments = "appointments"
	Availability = "doctorAvailability"
	Payments     = "payments"
	Wellness     = "wellnessServices"
)

// Mode selects how mutations are coordinated.
type Mode string

const (
	// ModeSerialized locks each collection in-process and commits with a
	// version check, retrying on conflict with other processes.
	ModeSerialized Mode = "serialized"
	// ModeUnguarded reads, modifies and blindly overwrites. Concurrent
	// mutations can lose updates.
	ModeUnguarded Mode = "unguarded"
)

const (
	numCollectionShards = 16
	defaultTxTimeout    = 5 * time.Second
	defaultMaxRetries   = 5
)

// ErrUnchanged can be returned by an update function to finish the update
// successfully without writing anything.
var ErrUnchanged = errors.New("store: collection unchanged")

// Document is one collection as held by a backend. A collection that was
// never written has Version 0 and a nil Payload.
type Document struct {
	Version int64
	Payload []byte
}

// Backend is the key-value substrate. Implementations hold whole documents
// and never interpret the payload.
type Backend interface {
	Load(ctx context.Context, name string) (Document, error)
	// Swap stores payload only if the current version equals expected and
	// returns the new version. A mismatch is sentinel.ErrConflict.
	Swap(ctx context.Context, name string, expected int64, payload []byte) (int64, error)
	// Put overwrites unconditionally and returns the new version.
	Put(ctx context.Context, name string, payload []byte) (int64, error)
}

// BatchLoader is implemented by backends that can load several collections
// in one round trip.
type BatchLoader interface {
	LoadMany(ctx context.Context, names []string) (map[string]Document, error)
}

// Pinger is implemented by backends with a remote connection to check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuditPublisher emits audit events for storage integrity problems.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Store struct {
	backend    Backend
	mode       Mode
	maxRetries int
	timeout    time.Duration
	shards     [numCollectionShards]sync.Mutex
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    AuditPublisher
	tracer     trace.Tracer
}

type Option func(*Store)

func WithMode(mode Mode) Option {
	return func(s *Store) {
		if mode != "" {
			s.mode = mode
		}
	}
}

func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Store) {
		s.auditor = p
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		mode:       ModeSerialized,
		maxRetries: defaultMaxRetries,
		timeout:    defaultTxTimeout,
		logger:     slog.Default(),
		tracer:     otel.Tracer("carebook/internal/store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Mode() Mode {
	return s.mode
}

func (s *Store) Backend() Backend {
	return s.backend
}

// Read decodes a collection into dst. A collection that was never written
// leaves dst untouched. Bytes that do not decode yield CodeStorageCorrupt.
func (s *Store) Read(ctx context.Context, name string, dst any) error {
	doc, err := s.backend.Load(ctx, name)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load "+name)
	}
	return decode(name, doc.Payload, dst)
}

// Replace overwrites a whole collection with records.
func (s *Store) Replace(ctx context.Context, name string, records any) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode "+name)
	}
	return s.Update(ctx, name, func([]byte) ([]byte, error) {
		return payload, nil
	})
}

// Update applies fn to the raw payload of a collection and commits the
// result. fn may run more than once in serialized mode and must not have
// side effects beyond computing the new payload. An error from fn aborts
// without writing; ErrUnchanged aborts without writing and without error.
func (s *Store) Update(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.Update", trace.WithAttributes(
		attribute.String("collection", name),
		attribute.String("mode", string(s.mode)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if s.mode == ModeUnguarded {
		return s.blindUpdate(ctx, name, fn)
	}
	return s.runInTx(ctx, name, func(ctx context.Context) error {
		return s.casUpdate(ctx, name, fn)
	})
}

func (s *Store) blindUpdate(ctx context.Context, name string, fn func([]byte) ([]byte, error)) error {
	doc, err := s.backend.Load(ctx, name)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load "+name)
	}
	next, err := fn(doc.Payload)
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.backend.Put(ctx, name, next); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write "+name)
	}
	return nil
}

func (s *Store) casUpdate(ctx context.Context, name string, fn func([]byte) ([]byte, error)) error {
	for attempt := 1; ; attempt++ {
		doc, err := s.backend.Load(ctx, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load "+name)
		}
		next, err := fn(doc.Payload)
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = s.backend.Swap(ctx, name, doc.Version, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "write "+name)
		}
		s.metrics.IncrementStorageConflict(name)
		s.logger.DebugContext(ctx, "collection changed underneath update, retrying",
			"collection", name,
			"attempt", attempt,
		)
		if attempt >= s.maxRetries {
			return dErrors.Wrap(err, dErrors.CodeConflict,
				fmt.Sprintf("%s kept changing after %d attempts", name, attempt))
		}
		if err := ctx.Err(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "update aborted: context cancelled")
		}
	}
}

// runInTx holds the owner lock of the collection for the duration of fn and
// applies the default timeout when ctx has no deadline.
func (s *Store) runInTx(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := &s.shards[hashString(name)%numCollectionShards]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// Snapshot loads several collections at once, in one round trip when the
// backend supports it.
func (s *Store) Snapshot(ctx context.Context, names ...string) (map[string]Document, error) {
	if bl, ok := s.backend.(BatchLoader); ok {
		docs, err := bl.LoadMany(ctx, names)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load collections")
		}
		return docs, nil
	}
	docs := make(map[string]Document, len(names))
	for _, name := range names {
		doc, err := s.backend.Load(ctx, name)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load "+name)
		}
		docs[name] = doc
	}
	return docs, nil
}

// Ping checks the backend connection when it has one.
func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.backend.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

// reportCorrupt logs, counts and audits a collection that failed to decode.
func (s *Store) reportCorrupt(ctx context.Context, name string, err error) {
	s.metrics.IncrementStorageCorrupt(name)
	s.logger.WarnContext(ctx, "collection is corrupt, treating as empty",
		"collection", name,
		"error", err,
		"event", audit.EventStorageCorrupt,
		"log_type", "audit",
	)
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:      string(audit.EventStorageCorrupt),
		Subject:     name,
		Reason:      err.Error(),
		OperationID: requestcontext.OperationID(ctx),
		ActorID:     requestcontext.ActorID(ctx),
	})
}

func decode(name string, payload []byte, dst any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return dErrors.Wrap(fmt.Errorf("%w: %v", sentinel.ErrCorrupt, err),
			dErrors.CodeStorageCorrupt, name+" could not be decoded")
	}
	return nil
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
