package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"carebook/internal/availability/models"
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

var tracer = otel.Tracer("carebook/internal/availability")

type SlotStore interface {
	Create(ctx context.Context, slot *models.Slot) error
	FindByID(ctx context.Context, slotID id.SlotID) (*models.Slot, error)
	ListByDoctor(ctx context.Context, doctorID id.UserID) ([]models.Slot, error)
	ListAll(ctx context.Context) ([]models.Slot, error)
	Execute(ctx context.Context, slotID id.SlotID, fn func(*models.Slot) error) (*models.Slot, error)
	ExecuteFirst(ctx context.Context, match func(*models.Slot) bool, fn func(*models.Slot) error) (*models.Slot, bool, error)
}

type UserLookup interface {
	Get(ctx context.Context, userID id.UserID) (*identity.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service is the availability ledger: doctors publish slots and bookings
// consume their capacity.
type Service struct {
	slots          SlotStore
	users          UserLookup
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

func New(slots SlotStore, users UserLookup, opts ...Option) *Service {
	s := &Service{slots: slots, users: users, validator: validate.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish creates a slot for a doctor with zero bookings.
func (s *Service) Publish(ctx context.Context, doctorID id.UserID, draft models.SlotDraft) (*models.Slot, error) {
	defer s.metrics.ObserveOperation("availability.publish", time.Now())
	ctx, span := tracer.Start(ctx, "availability.Publish")
	defer span.End()

	if err := s.validateDraft(draft); err != nil {
		return nil, err
	}
	doctor, err := s.users.Get(ctx, doctorID)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}
	if doctor == nil || !doctor.HasRole(id.RoleDoctor) {
		return nil, dErrors.Validation("invalid slot", map[string]string{"doctorId": "doctor not found"})
	}

	slot := &models.Slot{
		ID:          id.NewSlotID(),
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
		Date:        draft.Date,
		StartTime:   draft.StartTime,
		EndTime:     draft.EndTime,
		MaxPatients: draft.MaxPatients,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to publish slot")
	}
	s.metrics.IncrementSlotsPublished()
	s.logAudit(ctx, string(audit.EventSlotPublished),
		"user_id", slot.DoctorID,
		"slot_id", slot.ID,
		"date", slot.Date,
	)
	return slot, nil
}

func (s *Service) validateDraft(draft models.SlotDraft) error {
	err := s.validator.Struct(draft, "invalid slot")
	fields := dErrors.FieldErrors(err)
	if err != nil && fields == nil {
		return err
	}
	if _, bad := fields["startTime"]; !bad {
		if _, bad := fields["endTime"]; !bad && draft.StartTime >= draft.EndTime {
			if fields == nil {
				fields = map[string]string{}
			}
			fields["endTime"] = "end time must be after start time"
		}
	}
	return dErrors.Validation("invalid slot", fields)
}

// ListForDoctor returns every slot the doctor published.
func (s *Service) ListForDoctor(ctx context.Context, doctorID id.UserID) ([]models.Slot, error) {
	slots, err := s.slots.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list slots")
	}
	return slots, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.Slot, error) {
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list slots")
	}
	return slots, nil
}

func (s *Service) Get(ctx context.Context, slotID id.SlotID) (*models.Slot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, translate(err, "failed to load slot")
	}
	return slot, nil
}

// ReserveCapacity takes one place in the slot, failing with
// capacity_exceeded when it is full. Check and increment are one update.
func (s *Service) ReserveCapacity(ctx context.Context, slotID id.SlotID) (*models.Slot, error) {
	ctx, span := tracer.Start(ctx, "availability.ReserveCapacity")
	defer span.End()

	slot, err := s.slots.Execute(ctx, slotID, func(slot *models.Slot) error {
		return slot.Reserve()
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCapacityExceeded) {
			s.rejected(ctx, slotID)
		}
		return nil, translate(err, "failed to reserve slot")
	}
	s.logAudit(ctx, string(audit.EventCapacityReserved),
		"slot_id", slot.ID,
		"current_patients", slot.CurrentPatients,
	)
	return slot, nil
}

// ReserveMatching reserves the first of the doctor's slots on date whose
// window contains clock and has room. matched is false when no slot covers
// the time at all; that is not an error.
func (s *Service) ReserveMatching(ctx context.Context, doctorID id.UserID, date, clock string) (*models.Slot, bool, error) {
	ctx, span := tracer.Start(ctx, "availability.ReserveMatching")
	defer span.End()

	slot, matched, err := s.slots.ExecuteFirst(ctx,
		func(slot *models.Slot) bool { return slot.Covers(doctorID, date, clock) },
		func(slot *models.Slot) error { return slot.Reserve() },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCapacityExceeded) {
			s.rejected(ctx, "")
		}
		return nil, matched, translate(err, "failed to reserve slot")
	}
	if !matched {
		return nil, false, nil
	}
	s.logAudit(ctx, string(audit.EventCapacityReserved),
		"slot_id", slot.ID,
		"current_patients", slot.CurrentPatients,
	)
	return slot, true, nil
}

// ReleaseCapacity gives one place back to the slot, floored at zero.
func (s *Service) ReleaseCapacity(ctx context.Context, slotID id.SlotID) error {
	ctx, span := tracer.Start(ctx, "availability.ReleaseCapacity")
	defer span.End()

	slot, err := s.slots.Execute(ctx, slotID, func(slot *models.Slot) error {
		slot.Release()
		return nil
	})
	if err != nil {
		return translate(err, "failed to release slot")
	}
	s.logAudit(ctx, string(audit.EventCapacityReleased),
		"slot_id", slot.ID,
		"current_patients", slot.CurrentPatients,
	)
	return nil
}

func (s *Service) rejected(ctx context.Context, slotID id.SlotID) {
	s.metrics.IncrementCapacityRejections()
	s.logAudit(ctx, string(audit.EventCapacityExceeded), "slot_id", slotID)
}

func translate(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "slot not found")
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
		Subject:     attrs.ExtractString(attributes, "slot_id"),
		Action:      event,
		OperationID: requestcontext.OperationID(ctx),
		ActorID:     requestcontext.ActorID(ctx),
	})
}
