package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	appointment "carebook/internal/appointment/models"
	"carebook/internal/payment/models"
	"carebook/internal/payment/processor"
	"carebook/internal/platform/metrics"
	"carebook/pkg/attrs"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/platform/audit"
	"carebook/pkg/platform/sentinel"
	"carebook/pkg/platform/validate"
	"carebook/pkg/requestcontext"
)

var tracer = otel.Tracer("carebook/internal/payment")

type PaymentStore interface {
	AppendIfFirst(ctx context.Context, p *models.Payment) error
	FindByAppointment(ctx context.Context, apptID id.AppointmentID) (*models.Payment, error)
	ListByPatient(ctx context.Context, patientID id.UserID) ([]models.Payment, error)
	ListAll(ctx context.Context) ([]models.Payment, error)
}

// AppointmentLedger is the slice of the appointment lifecycle payments need.
type AppointmentLedger interface {
	Get(ctx context.Context, apptID id.AppointmentID) (*appointment.Appointment, error)
	MarkPaid(ctx context.Context, apptID id.AppointmentID) (*appointment.Appointment, error)
	MarkUnpaid(ctx context.Context, apptID id.AppointmentID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service settles appointment fees into the payment ledger.
type Service struct {
	payments       PaymentStore
	appointments   AppointmentLedger
	processor      *processor.Processor
	validator      *validate.Validator
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithProcessor replaces the default two second processor.
func WithProcessor(p *processor.Processor) Option {
	return func(s *Service) {
		s.processor = p
	}
}

func New(payments PaymentStore, appointments AppointmentLedger, opts ...Option) *Service {
	s := &Service{
		payments:     payments,
		appointments: appointments,
		processor:    processor.New(processor.DefaultDelay),
		validator:    validate.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pay validates the card, waits for the processor, then flips the
// appointment to paid and appends the ledger entry. If the append fails the
// appointment is flipped back so paid and ledger stay in step.
func (s *Service) Pay(ctx context.Context, apptID id.AppointmentID, card models.CardDetails) (*models.Payment, error) {
	defer s.metrics.ObserveOperation("payment.pay", time.Now())
	ctx, span := tracer.Start(ctx, "payment.Pay")
	defer span.End()

	card = card.Normalize()
	if err := s.validator.Struct(card, "invalid card details"); err != nil {
		return nil, err
	}

	appt, err := s.appointments.Get(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if err := appt.CanMarkPaid(); err != nil {
		s.logAudit(ctx, string(audit.EventPaymentRejected),
			"user_id", appt.PatientID,
			"appointment_id", apptID,
			"reason", "already_paid",
		)
		return nil, err
	}

	if err := s.processor.Begin(ctx).Wait(); err != nil {
		return nil, err
	}

	// Paid without a ledger entry until AppendIfFirst commits.
	appt, err = s.appointments.MarkPaid(ctx, apptID)
	if err != nil {
		return nil, err
	}
	payment := &models.Payment{
		ID:            id.NewPaymentID(),
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		AppointmentID: appt.ID,
		Amount:        appt.Amount,
		Status:        models.StatusCompleted,
		TransactionID: models.NewTransactionID(),
		CardLast4:     card.Last4(),
		PaidAt:        requestcontext.Now(ctx),
	}
	if err := s.payments.AppendIfFirst(ctx, payment); err != nil {
		// An existing entry means the appointment is legitimately paid.
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeAlreadyPaid, "appointment is already paid")
		}
		s.compensate(ctx, apptID)
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to record payment")
	}

	s.metrics.IncrementPaymentsCompleted()
	s.logAudit(ctx, string(audit.EventPaymentCompleted),
		"user_id", payment.PatientID,
		"appointment_id", payment.AppointmentID,
		"transaction_id", payment.TransactionID,
		"amount", payment.Amount.String(),
	)
	return payment, nil
}

func (s *Service) compensate(ctx context.Context, apptID id.AppointmentID) {
	if err := s.appointments.MarkUnpaid(ctx, apptID); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to revert appointment payment status",
			"appointment_id", apptID,
			"error", err,
		)
	}
}

func (s *Service) FindByAppointment(ctx context.Context, apptID id.AppointmentID) (*models.Payment, error) {
	p, err := s.payments.FindByAppointment(ctx, apptID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to load payment")
	}
	return p, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID id.UserID) ([]models.Payment, error) {
	payments, err := s.payments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}

// Revenue sums completed payments, for one doctor when doctorID is set and
// across the clinic otherwise.
func (s *Service) Revenue(ctx context.Context, doctorID id.UserID) (decimal.Decimal, error) {
	payments, err := s.ListAll(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range payments {
		if p.Status != models.StatusCompleted {
			continue
		}
		if !doctorID.IsNil() && p.DoctorID != doctorID {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if opID := requestcontext.OperationID(ctx); opID != "" {
		attributes = append(attributes, "operation_id", opID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:      id.UserID(attrs.ExtractString(attributes, "user_id")),
		Subject:     attrs.ExtractString(attributes, "appointment_id"),
		Action:      event,
		Reason:      attrs.ExtractString(attributes, "reason"),
		OperationID: requestcontext.OperationID(ctx),
		ActorID:     requestcontext.ActorID(ctx),
	})
}
