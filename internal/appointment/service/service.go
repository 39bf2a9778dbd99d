package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"carebook/internal/appointment/models"
	slots "carebook/internal/availability/models"
	identity "carebook/internal/identity/models"
	"carebook/internal/platform/metrics"
	"carebook/pkg/attrs"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/platform/audit"
	"carebook/pkg/platform/sentinel"
	"carebook/pkg/platform/validate"
	"carebook/pkg/requestcontext"
)

var tracer = otel.Tracer("carebook/internal/appointment")

// DefaultFee is charged when a booking names no fee.
var DefaultFee = decimal.NewFromInt(100)

type AppointmentStore interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, apptID id.AppointmentID) (*models.Appointment, error)
	ListByPatient(ctx context.Context, patientID id.UserID) ([]models.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID id.UserID) ([]models.Appointment, error)
	ListAll(ctx context.Context) ([]models.Appointment, error)
	Execute(ctx context.Context, apptID id.AppointmentID, fn func(*models.Appointment) error) (*models.Appointment, error)
}

type UserLookup interface {
	Get(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// CapacityLedger is the slice of the availability ledger bookings need.
type CapacityLedger interface {
	ReserveMatching(ctx context.Context, doctorID id.UserID, date, clock string) (*slots.Slot, bool, error)
	ReleaseCapacity(ctx context.Context, slotID id.SlotID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns the appointment lifecycle.
type Service struct {
	appointments    AppointmentStore
	users           UserLookup
	capacity        CapacityLedger
	validator       *validate.Validator
	enforceCapacity bool
	releaseOnCancel bool
	defaultFee      decimal.Decimal
	logger          *slog.Logger
	auditPublisher  AuditPublisher
	metrics         *metrics.Metrics
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

// WithCapacityEnforcement toggles slot reservation on booking. On by default.
func WithCapacityEnforcement(enabled bool) Option {
	return func(s *Service) {
		s.enforceCapacity = enabled
	}
}

// WithReleaseOnCancel gives the slot place back when an appointment is
// cancelled. Off by default.
func WithReleaseOnCancel(enabled bool) Option {
	return func(s *Service) {
		s.releaseOnCancel = enabled
	}
}

func WithDefaultFee(fee decimal.Decimal) Option {
	return func(s *Service) {
		if fee.IsPositive() {
			s.defaultFee = fee
		}
	}
}

// New creates the service. capacity may be nil when enforcement is off.
func New(appointments AppointmentStore, users UserLookup, capacity CapacityLedger, opts ...Option) *Service {
	s := &Service{
		appointments:    appointments,
		users:           users,
		capacity:        capacity,
		validator:       validate.New(),
		enforceCapacity: true,
		defaultFee:      DefaultFee,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity == nil {
		s.enforceCapacity = false
		s.releaseOnCancel = false
	}
	return s
}

// Book creates a scheduled, unpaid appointment. With capacity enforcement
// on, the first matching slot with room is reserved; a time no slot covers
// books without a reservation.
func (s *Service) Book(ctx context.Context, req models.BookingRequest) (*models.Appointment, error) {
	defer s.metrics.ObserveOperation("appointment.book", time.Now())
	ctx, span := tracer.Start(ctx, "appointment.Book")
	defer span.End()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	patient, err := s.participant(ctx, req.PatientID, id.RolePatient)
	if err != nil {
		return nil, err
	}
	doctor, err := s.participant(ctx, req.DoctorID, id.RoleDoctor)
	if err != nil {
		return nil, err
	}
	invalid := map[string]string{}
	if patient == nil {
		invalid["patientId"] = "patient not found"
	}
	if doctor == nil {
		invalid["doctorId"] = "doctor not found"
	}
	if err := dErrors.Validation("invalid booking", invalid); err != nil {
		return nil, err
	}

	var slotID id.SlotID
	if s.enforceCapacity {
		slot, matched, err := s.capacity.ReserveMatching(ctx, doctor.ID, req.Date, req.Time)
		if err != nil {
			return nil, err
		}
		if matched {
			slotID = slot.ID
		}
	}

	fee := req.Fee
	if fee.IsZero() {
		fee = s.defaultFee
	}
	now := requestcontext.Now(ctx)
	appt := &models.Appointment{
		ID:            id.NewAppointmentID(),
		PatientID:     patient.ID,
		DoctorID:      doctor.ID,
		PatientName:   patient.Name,
		DoctorName:    doctor.Name,
		Date:          req.Date,
		Time:          req.Time,
		Status:        models.StatusScheduled,
		Notes:         req.Notes,
		Amount:        fee,
		PaymentStatus: models.PaymentUnpaid,
		SlotID:        slotID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if slotID != "" {
			s.release(ctx, slotID)
		}
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to book appointment")
	}

	s.metrics.IncrementAppointmentsBooked()
	s.logAudit(ctx, string(audit.EventAppointmentBooked),
		"user_id", appt.PatientID,
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"slot_id", appt.SlotID,
	)
	return appt, nil
}

func (s *Service) validateRequest(req models.BookingRequest) error {
	err := s.validator.Struct(req, "invalid booking")
	fields := dErrors.FieldErrors(err)
	if err != nil && fields == nil {
		return err
	}
	if req.Fee.IsNegative() {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["fee"] = "fee must not be negative"
	}
	return dErrors.Validation("invalid booking", fields)
}

// participant returns nil when the user is missing or holds another role.
func (s *Service) participant(ctx context.Context, userID id.UserID, role id.Role) (*identity.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.HasRole(role) {
		return nil, nil
	}
	return user, nil
}

// Transition moves a scheduled appointment to completed or cancelled.
func (s *Service) Transition(ctx context.Context, apptID id.AppointmentID, next models.Status) (*models.Appointment, error) {
	defer s.metrics.ObserveOperation("appointment.transition", time.Now())
	ctx, span := tracer.Start(ctx, "appointment.Transition")
	defer span.End()

	if !next.IsValid() {
		return nil, dErrors.Validation("invalid transition", map[string]string{"status": "unknown status " + next.String()})
	}
	now := requestcontext.Now(ctx)
	appt, err := s.appointments.Execute(ctx, apptID, func(a *models.Appointment) error {
		return a.Transition(next, now)
	})
	if err != nil {
		return nil, translate(err, "failed to update appointment")
	}

	if next == models.StatusCancelled && s.releaseOnCancel && appt.SlotID != "" {
		s.release(ctx, appt.SlotID)
	}

	event := audit.EventAppointmentCompleted
	if next == models.StatusCancelled {
		event = audit.EventAppointmentCancelled
	}
	s.metrics.IncrementTransition(next.String())
	s.logAudit(ctx, string(event),
		"user_id", appt.PatientID,
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
	)
	return appt, nil
}

// Complete and Cancel are shorthands for Transition.
func (s *Service) Complete(ctx context.Context, apptID id.AppointmentID) (*models.Appointment, error) {
	return s.Transition(ctx, apptID, models.StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, apptID id.AppointmentID) (*models.Appointment, error) {
	return s.Transition(ctx, apptID, models.StatusCancelled)
}

// MarkPaid flips unpaid to paid in one update. Of concurrent callers exactly
// one succeeds; the others get already_paid.
func (s *Service) MarkPaid(ctx context.Context, apptID id.AppointmentID) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.MarkPaid")
	defer span.End()

	now := requestcontext.Now(ctx)
	appt, err := s.appointments.Execute(ctx, apptID, func(a *models.Appointment) error {
		if err := a.CanMarkPaid(); err != nil {
			return err
		}
		a.ApplyPaid(now)
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to mark appointment paid")
	}
	return appt, nil
}

// MarkUnpaid reverts MarkPaid. It is a no-op on an unpaid appointment.
func (s *Service) MarkUnpaid(ctx context.Context, apptID id.AppointmentID) error {
	now := requestcontext.Now(ctx)
	_, err := s.appointments.Execute(ctx, apptID, func(a *models.Appointment) error {
		a.ApplyUnpaid(now)
		return nil
	})
	if err != nil {
		return translate(err, "failed to mark appointment unpaid")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, apptID id.AppointmentID) (*models.Appointment, error) {
	appt, err := s.appointments.FindByID(ctx, apptID)
	if err != nil {
		return nil, translate(err, "failed to load appointment")
	}
	return appt, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID id.UserID) ([]models.Appointment, error) {
	appts, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return appts, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID id.UserID) ([]models.Appointment, error) {
	appts, err := s.appointments.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return appts, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.Appointment, error) {
	appts, err := s.appointments.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return appts, nil
}

// release is best effort; the slot stays over-counted on failure.
func (s *Service) release(ctx context.Context, slotID id.SlotID) {
	if err := s.capacity.ReleaseCapacity(ctx, slotID); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to release slot capacity",
			"slot_id", slotID,
			"error", err,
		)
	}
}

func translate(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "appointment not found")
	}
	return dErrors.Ensure(err, dErrors.CodeInternal, message)
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
		OperationID: requestcontext.OperationID(ctx),
		ActorID:     requestcontext.ActorID(ctx),
	})
}
