package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"carebook/internal/clinic"
	"carebook/internal/platform/config"
	"carebook/internal/platform/httpserver"
	"carebook/internal/platform/logger"
	"carebook/internal/platform/metrics"
	platformredis "carebook/internal/platform/redis"
	"carebook/internal/store"
	"carebook/internal/store/file"
	"carebook/internal/store/memory"
	mongostore "carebook/internal/store/mongo"
	postgresstore "carebook/internal/store/postgres"
	redisstore "carebook/internal/store/redis"
	"carebook/pkg/platform/audit"
	"carebook/pkg/platform/audit/publisher"
	"carebook/pkg/platform/audit/publishers/kafka"
	auditmemory "carebook/pkg/platform/audit/store/memory"
	auditpostgres "carebook/pkg/platform/audit/store/postgres"
	"carebook/pkg/platform/circuit"
)

const shutdownGrace = 10 * time.Second

// main loads configuration, opens the configured backend, seeds the demo
// accounts and serves health and metrics until interrupted.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("carebook stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	backend, auditStore, closeBackend, err := openBackend(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	defer closeBackend()

	pubOpts := []publisher.Option{
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := kafka.NewSink(ctx, cfg.Audit.KafkaBrokers, kafka.WithTopic(cfg.Audit.KafkaTopic))
		if err != nil {
			return err
		}
		defer sink.Close()
		pubOpts = append(pubOpts, publisher.WithSinks(publisher.Guard(sink, circuit.New("audit-kafka"), log)))
		log.Info("audit events mirrored to kafka", "topic", sink.Topic())
	}
	auditPublisher := publisher.NewPublisher(auditStore, pubOpts...)
	defer auditPublisher.Close()

	st := store.New(backend, append(clinic.StoreOptions(cfg.Store),
		store.WithLogger(log),
		store.WithMetrics(m),
		store.WithAuditPublisher(auditPublisher),
	)...)
	core, err := clinic.New(st, cfg,
		clinic.WithLogger(log),
		clinic.WithMetrics(m),
		clinic.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}

	created, err := core.Seed(ctx)
	if err != nil {
		return err
	}
	snapshot, err := st.Snapshot(ctx, store.Users, store.Availability, store.Appointments, store.Payments, store.Wellness)
	if err != nil {
		return err
	}
	versions := make([]any, 0, 2*len(snapshot))
	for name, doc := range snapshot {
		versions = append(versions, name, doc.Version)
	}
	log.Info("carebook ready",
		"backend", cfg.Backend.Kind,
		"concurrency_mode", st.Mode(),
		"enforce_capacity", cfg.Booking.EnforceCapacity,
		"seeded", created,
		slog.Group("versions", versions...),
	)

	ops := httpserver.New(cfg.Ops.Addr, httpserver.NewOpsRouter(prometheus.DefaultGatherer,
		map[string]httpserver.HealthCheck{"store": st.Ping},
	))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("ops listener started", "addr", cfg.Ops.Addr)
		return httpserver.Serve(gctx, ops, shutdownGrace)
	})
	return g.Wait()
}

// openBackend returns the configured backend, the audit store that lives
// beside it and a func releasing their connections.
func openBackend(ctx context.Context, cfg config.Backend) (store.Backend, audit.Store, func(), error) {
	noop := func() {}
	inMemoryAudit := auditmemory.NewInMemoryStore()
	switch cfg.Kind {
	case config.BackendMemory:
		return memory.New(), inMemoryAudit, noop, nil
	case config.BackendFile:
		b, err := file.New(cfg.DataDir)
		return b, inMemoryAudit, noop, err
	case config.BackendRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, noop, err
		}
		return redisstore.New(client.Client), inMemoryAudit, func() { _ = client.Close() }, nil
	case config.BackendPostgres:
		db, err := postgresstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, noop, err
		}
		b := postgresstore.New(db)
		auditStore := auditpostgres.New(db)
		for _, migrate := range []func(context.Context) error{b.Migrate, auditStore.Migrate} {
			if err := migrate(ctx); err != nil {
				_ = db.Close()
				return nil, nil, noop, err
			}
		}
		return b, auditStore, func() { _ = db.Close() }, nil
	case config.BackendMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, noop, err
		}
		return mongostore.New(client, cfg.MongoDatabase), inMemoryAudit, func() {
			_ = client.Disconnect(context.Background())
		}, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown backend %q", cfg.Kind)
}
