package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	platformstrings "carebook/pkg/platform/strings"
)

// Backend kinds accepted by CAREBOOK_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Concurrency modes accepted by CAREBOOK_CONCURRENCY_MODE.
const (
	ModeSerialized = "serialized"
	ModeUnguarded  = "unguarded"
)

// Config is the whole process configuration.
type Config struct {
	Backend Backend
	Store   Store
	Booking Booking
	Payment Payment
	Auth    Auth
	Log     Log
	Ops     Ops
	Audit   Audit
}

// Backend selects and addresses the key-value substrate.
type Backend struct {
	Kind          string
	DataDir       string
	Redis         RedisConfig
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
}

// RedisConfig holds connection pool settings for the redis backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Store struct {
	ConcurrencyMode string
	MaxRetries      int
	TxTimeout       time.Duration
}

type Booking struct {
	EnforceCapacity bool
	ReleaseOnCancel bool
	DefaultFee      string
}

type Payment struct {
	Delay time.Duration
}

type Auth struct {
	JWTSigningKey string
	SessionTTL    time.Duration
	BcryptCost    int
}

type Log struct {
	Level  string
	Format string
}

// Ops configures the operational HTTP listener (health and metrics).
type Ops struct {
	Addr string
}

type Audit struct {
	BufferSize   int
	KafkaBrokers []string
	KafkaTopic   string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		Backend: Backend{
			Kind:          BackendFile,
			DataDir:       "./data",
			MongoDatabase: "carebook",
			Redis: RedisConfig{
				PoolSize:     10,
				MinIdleConns: 2,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
		},
		Store: Store{
			ConcurrencyMode: ModeSerialized,
			MaxRetries:      5,
			TxTimeout:       5 * time.Second,
		},
		Booking: Booking{
			EnforceCapacity: true,
			ReleaseOnCancel: false,
			DefaultFee:      "100",
		},
		Payment: Payment{Delay: 2 * time.Second},
		Auth: Auth{
			// Development default; override in any shared environment.
			JWTSigningKey: "dev-secret-key-change-in-production",
			SessionTTL:    12 * time.Hour,
			BcryptCost:    10,
		},
		Log:   Log{Level: "info", Format: "json"},
		Ops:   Ops{Addr: ":9090"},
		Audit: Audit{BufferSize: 256, KafkaTopic: "carebook.audit"},
	}
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unset variables keep their defaults; malformed ones are an error.
func FromEnv() (Config, error) {
	cfg := Default()
	p := parser{}

	cfg.Backend.Kind = p.str("CAREBOOK_BACKEND", cfg.Backend.Kind)
	cfg.Backend.DataDir = p.str("CAREBOOK_DATA_DIR", cfg.Backend.DataDir)
	cfg.Backend.Redis.URL = p.str("CAREBOOK_REDIS_URL", cfg.Backend.Redis.URL)
	cfg.Backend.Redis.PoolSize = p.integer("CAREBOOK_REDIS_POOL_SIZE", cfg.Backend.Redis.PoolSize)
	cfg.Backend.PostgresDSN = p.str("CAREBOOK_POSTGRES_DSN", cfg.Backend.PostgresDSN)
	cfg.Backend.MongoURI = p.str("CAREBOOK_MONGO_URI", cfg.Backend.MongoURI)
	cfg.Backend.MongoDatabase = p.str("CAREBOOK_MONGO_DATABASE", cfg.Backend.MongoDatabase)

	cfg.Store.ConcurrencyMode = p.str("CAREBOOK_CONCURRENCY_MODE", cfg.Store.ConcurrencyMode)
	cfg.Store.MaxRetries = p.integer("CAREBOOK_STORE_MAX_RETRIES", cfg.Store.MaxRetries)
	cfg.Store.TxTimeout = p.duration("CAREBOOK_STORE_TX_TIMEOUT", cfg.Store.TxTimeout)

	cfg.Booking.EnforceCapacity = p.boolean("CAREBOOK_ENFORCE_CAPACITY", cfg.Booking.EnforceCapacity)
	cfg.Booking.ReleaseOnCancel = p.boolean("CAREBOOK_RELEASE_ON_CANCEL", cfg.Booking.ReleaseOnCancel)
	cfg.Booking.DefaultFee = p.str("CAREBOOK_DEFAULT_FEE", cfg.Booking.DefaultFee)

	cfg.Payment.Delay = p.duration("CAREBOOK_PAYMENT_DELAY", cfg.Payment.Delay)

	cfg.Auth.JWTSigningKey = p.str("CAREBOOK_JWT_SIGNING_KEY", cfg.Auth.JWTSigningKey)
	cfg.Auth.SessionTTL = p.duration("CAREBOOK_SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Auth.BcryptCost = p.integer("CAREBOOK_BCRYPT_COST", cfg.Auth.BcryptCost)

	cfg.Log.Level = p.str("CAREBOOK_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = p.str("CAREBOOK_LOG_FORMAT", cfg.Log.Format)
	cfg.Ops.Addr = p.str("CAREBOOK_OPS_ADDR", cfg.Ops.Addr)

	cfg.Audit.BufferSize = p.integer("CAREBOOK_AUDIT_BUFFER", cfg.Audit.BufferSize)
	cfg.Audit.KafkaBrokers = p.list("CAREBOOK_AUDIT_KAFKA_BROKERS", cfg.Audit.KafkaBrokers)
	cfg.Audit.KafkaTopic = p.str("CAREBOOK_AUDIT_KAFKA_TOPIC", cfg.Audit.KafkaTopic)

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations the process cannot start with.
func (c Config) Validate() error {
	switch c.Backend.Kind {
	case BackendFile:
		if c.Backend.DataDir == "" {
			return fmt.Errorf("CAREBOOK_DATA_DIR is required for the file backend")
		}
	case BackendMemory:
	case BackendRedis:
		if c.Backend.Redis.URL == "" {
			return fmt.Errorf("CAREBOOK_REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if c.Backend.PostgresDSN == "" {
			return fmt.Errorf("CAREBOOK_POSTGRES_DSN is required for the postgres backend")
		}
	case BackendMongo:
		if c.Backend.MongoURI == "" {
			return fmt.Errorf("CAREBOOK_MONGO_URI is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend.Kind)
	}
	if c.Store.ConcurrencyMode != ModeSerialized && c.Store.ConcurrencyMode != ModeUnguarded {
		return fmt.Errorf("unknown concurrency mode %q", c.Store.ConcurrencyMode)
	}
	if c.Store.MaxRetries < 1 {
		return fmt.Errorf("CAREBOOK_STORE_MAX_RETRIES must be at least 1")
	}
	if c.Payment.Delay < 0 {
		return fmt.Errorf("CAREBOOK_PAYMENT_DELAY must not be negative")
	}
	return nil
}

// parser keeps the first error so FromEnv reads as a flat list.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) boolean(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *parser) integer(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) list(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	return platformstrings.SplitList(v)
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
}
