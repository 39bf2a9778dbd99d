// Package clinic assembles the booking core on one shared store: identity,
// availability, appointments, payments, the wellness catalog, statistics
// and sessions.
package clinic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	appointmentservice "carebook/internal/appointment/service"
	appointmentstore "carebook/internal/appointment/store"
	availabilityservice "carebook/internal/availability/service"
	availabilitystore "carebook/internal/availability/store"
	identityservice "carebook/internal/identity/service"
	"carebook/internal/identity/session"
	identitystore "carebook/internal/identity/store"
	"carebook/internal/payment/processor"
	paymentservice "carebook/internal/payment/service"
	paymentstore "carebook/internal/payment/store"
	"carebook/internal/platform/config"
	"carebook/internal/platform/metrics"
	"carebook/internal/seed"
	"carebook/internal/stats"
	"carebook/internal/store"
	wellnessservice "carebook/internal/wellness/service"
	wellnessstore "carebook/internal/wellness/store"
	"carebook/pkg/platform/audit"
)

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Core is the public surface UI collaborators call.
type Core struct {
	Store        *store.Store
	Identity     *identityservice.Service
	Availability *availabilityservice.Service
	Appointments *appointmentservice.Service
	Payments     *paymentservice.Service
	Wellness     *wellnessservice.Service
	Stats        *stats.Service
	Sessions     *session.Issuer

	logger *slog.Logger
}

type Option func(*options)

type options struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(o *options) {
		o.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New wires every component on st using the booking, payment and auth
// settings of cfg.
func New(st *store.Store, cfg config.Config, opts ...Option) (*Core, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	fee, err := decimal.NewFromString(cfg.Booking.DefaultFee)
	if err != nil || !fee.IsPositive() {
		return nil, fmt.Errorf("invalid default fee %q", cfg.Booking.DefaultFee)
	}

	identity := identityservice.New(identitystore.New(st),
		identityservice.WithLogger(o.logger),
		identityservice.WithAuditPublisher(o.auditPublisher),
		identityservice.WithMetrics(o.metrics),
		identityservice.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	availability := availabilityservice.New(availabilitystore.New(st), identity,
		availabilityservice.WithLogger(o.logger),
		availabilityservice.WithAuditPublisher(o.auditPublisher),
		availabilityservice.WithMetrics(o.metrics),
	)
	appointments := appointmentservice.New(appointmentstore.New(st), identity, availability,
		appointmentservice.WithLogger(o.logger),
		appointmentservice.WithAuditPublisher(o.auditPublisher),
		appointmentservice.WithMetrics(o.metrics),
		appointmentservice.WithCapacityEnforcement(cfg.Booking.EnforceCapacity),
		appointmentservice.WithReleaseOnCancel(cfg.Booking.ReleaseOnCancel),
		appointmentservice.WithDefaultFee(fee),
	)
	payments := paymentservice.New(paymentstore.New(st), appointments,
		paymentservice.WithLogger(o.logger),
		paymentservice.WithAuditPublisher(o.auditPublisher),
		paymentservice.WithMetrics(o.metrics),
		paymentservice.WithProcessor(processor.New(cfg.Payment.Delay)),
	)

	wellness := wellnessservice.New(wellnessstore.New(st), identity,
		wellnessservice.WithLogger(o.logger),
		wellnessservice.WithAuditPublisher(o.auditPublisher),
		wellnessservice.WithMetrics(o.metrics),
	)

	return &Core{
		Store:        st,
		Identity:     identity,
		Availability: availability,
		Appointments: appointments,
		Payments:     payments,
		Wellness:     wellness,
		Stats:        stats.New(identity, appointments, payments),
		Sessions:     session.NewIssuer(cfg.Auth.JWTSigningKey, cfg.Auth.SessionTTL),
		logger:       o.logger,
	}, nil
}

// Seed registers the demo accounts that are not present yet.
func (c *Core) Seed(ctx context.Context) (int, error) {
	return seed.Run(ctx, c.Identity, c.logger)
}

// StoreOptions translates cfg into store options.
func StoreOptions(cfg config.Store) []store.Option {
	mode := store.ModeSerialized
	if cfg.ConcurrencyMode == config.ModeUnguarded {
		mode = store.ModeUnguarded
	}
	return []store.Option{
		store.WithMode(mode),
		store.WithMaxRetries(cfg.MaxRetries),
		store.WithTxTimeout(cfg.TxTimeout),
	}
}
