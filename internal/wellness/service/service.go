package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	identity "carebook/internal/identity/models"
	"carebook/internal/platform/metrics"
	"carebook/internal/wellness/models"
	"carebook/pkg/attrs"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/platform/audit"
	"carebook/pkg/platform/sentinel"
	"carebook/pkg/platform/validate"
	"carebook/pkg/requestcontext"
)

var tracer = otel.Tracer("carebook/internal/wellness")

type ProgramStore interface {
	Create(ctx context.Context, program *models.Program) error
	FindByID(ctx context.Context, programID id.ProgramID) (*models.Program, error)
	List(ctx context.Context, keep func(*models.Program) bool) ([]models.Program, error)
	Execute(ctx context.Context, programID id.ProgramID, fn func(*models.Program) error) (*models.Program, error)
}

type UserLookup interface {
	Get(ctx context.Context, userID id.UserID) (*identity.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// CatalogStats summarizes the active catalog.
type CatalogStats struct {
	Active        int             `json:"totalServices"`
	Available     int             `json:"availableServices"`
	ByCategory    map[string]int  `json:"byCategory"`
	EnrolledValue decimal.Decimal `json:"enrolledValue"`
}

// Service is the wellness catalog: admins publish programs and patients
// take places in them.
type Service struct {
	programs       ProgramStore
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

func New(programs ProgramStore, users UserLookup, opts ...Option) *Service {
	s := &Service{programs: programs, users: users, validator: validate.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish adds an active program with no participants.
func (s *Service) Publish(ctx context.Context, draft models.ProgramDraft) (*models.Program, error) {
	defer s.metrics.ObserveOperation("wellness.publish", time.Now())
	ctx, span := tracer.Start(ctx, "wellness.Publish")
	defer span.End()

	category, err := s.validateDraft(draft)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	program := &models.Program{
		ID:        id.NewProgramID(),
		Active:    true,
		CreatedAt: now,
	}
	program.ApplyDraft(draft, category, now)
	if err := s.programs.Create(ctx, program); err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to publish wellness program")
	}
	s.logAudit(ctx, string(audit.EventProgramPublished),
		"program_id", program.ID,
		"category", program.Category.String(),
	)
	return program, nil
}

// Update replaces the editable fields of a program, keeping its
// participant count and active flag.
func (s *Service) Update(ctx context.Context, programID id.ProgramID, draft models.ProgramDraft) (*models.Program, error) {
	ctx, span := tracer.Start(ctx, "wellness.Update")
	defer span.End()

	category, err := s.validateDraft(draft)
	if err != nil {
		return nil, err
	}
	program, err := s.programs.Execute(ctx, programID, func(p *models.Program) error {
		if err := p.CanUpdate(draft); err != nil {
			return err
		}
		p.ApplyDraft(draft, category, requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update wellness program")
	}
	s.logAudit(ctx, string(audit.EventProgramUpdated), "program_id", program.ID)
	return program, nil
}

// Deactivate removes a program from the catalog. The record is kept.
func (s *Service) Deactivate(ctx context.Context, programID id.ProgramID) error {
	ctx, span := tracer.Start(ctx, "wellness.Deactivate")
	defer span.End()

	_, err := s.programs.Execute(ctx, programID, func(p *models.Program) error {
		p.ApplyDeactivation(requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return translate(err, "failed to deactivate wellness program")
	}
	s.logAudit(ctx, string(audit.EventProgramDeactivated), "program_id", programID)
	return nil
}

func (s *Service) validateDraft(draft models.ProgramDraft) (models.Category, error) {
	err := s.validator.Struct(draft, "invalid wellness program")
	fields := dErrors.FieldErrors(err)
	if err != nil && fields == nil {
		return "", err
	}
	if fields == nil {
		fields = map[string]string{}
	}
	category, catErr := models.ParseCategory(draft.Category)
	if _, bad := fields["category"]; !bad && catErr != nil {
		fields["category"] = "unknown category"
	}
	if !draft.Price.IsPositive() {
		fields["price"] = "price must be positive"
	}
	if err := dErrors.Validation("invalid wellness program", fields); err != nil {
		return "", err
	}
	return category, nil
}

// Get returns a program whether or not it is active.
func (s *Service) Get(ctx context.Context, programID id.ProgramID) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, translate(err, "failed to load wellness program")
	}
	return program, nil
}

// ListActive returns the catalog.
func (s *Service) ListActive(ctx context.Context) ([]models.Program, error) {
	return s.list(ctx, func(*models.Program) bool { return true })
}

// ListByCategory accepts the category in any letter case.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]models.Program, error) {
	c, err := models.ParseCategory(category)
	if err != nil {
		return nil, dErrors.Validation("invalid category", map[string]string{"category": "unknown category"})
	}
	return s.list(ctx, func(p *models.Program) bool { return p.Category == c })
}

// Search matches keyword against name and description, ignoring case.
func (s *Service) Search(ctx context.Context, keyword string) ([]models.Program, error) {
	return s.list(ctx, func(p *models.Program) bool { return p.Matches(keyword) })
}

// ListByPriceRange keeps programs priced within the bounds; an unset bound
// is open.
func (s *Service) ListByPriceRange(ctx context.Context, low, high decimal.NullDecimal) ([]models.Program, error) {
	if low.Valid && high.Valid && low.Decimal.GreaterThan(high.Decimal) {
		return nil, dErrors.Validation("invalid price range", map[string]string{"minPrice": "greater than maxPrice"})
	}
	return s.list(ctx, func(p *models.Program) bool { return p.InPriceRange(low, high) })
}

// ListAvailable returns programs with a free place. Unlimited programs
// always have one.
func (s *Service) ListAvailable(ctx context.Context) ([]models.Program, error) {
	return s.list(ctx, func(p *models.Program) bool { return p.HasRoom() })
}

func (s *Service) list(ctx context.Context, keep func(*models.Program) bool) ([]models.Program, error) {
	programs, err := s.programs.List(ctx, func(p *models.Program) bool {
		return p.Active && keep(p)
	})
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list wellness programs")
	}
	return programs, nil
}

// Enroll takes one place in the program for a patient. Check and increment
// are one update.
func (s *Service) Enroll(ctx context.Context, programID id.ProgramID, patientID id.UserID) (*models.Program, error) {
	defer s.metrics.ObserveOperation("wellness.enroll", time.Now())
	ctx, span := tracer.Start(ctx, "wellness.Enroll")
	defer span.End()

	patient, err := s.users.Get(ctx, patientID)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}
	if patient == nil || !patient.HasRole(id.RolePatient) {
		return nil, dErrors.Validation("invalid enrollment", map[string]string{"patientId": "patient not found"})
	}

	program, err := s.programs.Execute(ctx, programID, func(p *models.Program) error {
		if err := p.CanEnroll(); err != nil {
			return err
		}
		p.ApplyEnrollment(requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCapacityExceeded) {
			s.metrics.IncrementWellnessEnrollment("full")
		}
		return nil, translate(err, "failed to enroll")
	}
	s.metrics.IncrementWellnessEnrollment("enrolled")
	s.logAudit(ctx, string(audit.EventProgramEnrolled),
		"user_id", patient.ID,
		"program_id", program.ID,
		"current_participants", program.CurrentParticipants,
	)
	return program, nil
}

// Withdraw gives one place back, floored at zero.
func (s *Service) Withdraw(ctx context.Context, programID id.ProgramID, patientID id.UserID) (*models.Program, error) {
	ctx, span := tracer.Start(ctx, "wellness.Withdraw")
	defer span.End()

	program, err := s.programs.Execute(ctx, programID, func(p *models.Program) error {
		p.ApplyWithdrawal(requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to withdraw")
	}
	s.logAudit(ctx, string(audit.EventProgramWithdrawn),
		"user_id", patientID,
		"program_id", program.ID,
		"current_participants", program.CurrentParticipants,
	)
	return program, nil
}

// SetParticipants overwrites the participant count, bounded by the limit.
func (s *Service) SetParticipants(ctx context.Context, programID id.ProgramID, n int) (*models.Program, error) {
	program, err := s.programs.Execute(ctx, programID, func(p *models.Program) error {
		if err := p.CanSetParticipants(n); err != nil {
			return err
		}
		p.ApplyParticipants(n, requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update participants")
	}
	s.logAudit(ctx, string(audit.EventProgramUpdated),
		"program_id", program.ID,
		"current_participants", program.CurrentParticipants,
	)
	return program, nil
}

// Stats counts the active catalog per category and values current
// enrollments at the program price.
func (s *Service) Stats(ctx context.Context) (*CatalogStats, error) {
	programs, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := &CatalogStats{ByCategory: map[string]int{}, EnrolledValue: decimal.Zero}
	for i := range programs {
		p := &programs[i]
		out.Active++
		out.ByCategory[p.Category.String()]++
		if p.HasRoom() {
			out.Available++
		}
		out.EnrolledValue = out.EnrolledValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.CurrentParticipants))))
	}
	return out, nil
}

func translate(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "wellness program not found")
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
		Subject:     attrs.ExtractString(attributes, "program_id"),
		Action:      event,
		OperationID: requestcontext.OperationID(ctx),
		ActorID:     requestcontext.ActorID(ctx),
	})
}
