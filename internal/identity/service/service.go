package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"carebook/internal/identity/models"
	"carebook/internal/identity/secrets"
	"carebook/internal/platform/metrics"
	"carebook/pkg/attrs"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/email"
	"carebook/pkg/platform/audit"
	"carebook/pkg/platform/sentinel"
	"carebook/pkg/platform/validate"
	"carebook/pkg/requestcontext"
)

var tracer = otel.Tracer("carebook/internal/identity")

type UserStore interface {
	CreateIfEmailAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, address string) ([]models.User, error)
	ListByRole(ctx context.Context, role id.Role) ([]models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service is the identity registry: registration, credential checks and
// user lookup for the other components.
type Service struct {
	users          UserStore
	hasher         secrets.Hasher
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

// WithBcryptCost sets the hashing cost for new credentials.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.hasher = secrets.NewHasher(cost)
	}
}

func New(users UserStore, opts ...Option) *Service {
	s := &Service{
		users:     users,
		hasher:    secrets.NewHasher(0),
		validator: validate.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the draft, hashes the secret and stores a new user
// with a fresh id. Every invalid field is reported in one validation error.
func (s *Service) Register(ctx context.Context, draft models.UserDraft) (*models.User, error) {
	defer s.metrics.ObserveOperation("identity.register", time.Now())
	ctx, span := tracer.Start(ctx, "identity.Register")
	defer span.End()

	user, err := s.create(ctx, id.NewUserID(), draft)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(audit.EventUserRegistered),
		"user_id", user.ID,
		"role", user.Role().String(),
	)
	s.metrics.IncrementUsersRegistered()
	return user, nil
}

// Seed registers a user under a fixed id unless its email is taken.
// Returns false when the user already existed.
func (s *Service) Seed(ctx context.Context, userID id.UserID, draft models.UserDraft) (bool, error) {
	user, err := s.create(ctx, userID, draft)
	if dErrors.HasCode(err, dErrors.CodeDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logAudit(ctx, string(audit.EventUserSeeded),
		"user_id", user.ID,
		"role", user.Role().String(),
	)
	return true, nil
}

func (s *Service) create(ctx context.Context, userID id.UserID, draft models.UserDraft) (*models.User, error) {
	draft.Normalize()
	if err := s.validator.Struct(draft, "invalid registration"); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(draft.Secret)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.Validation("invalid registration", map[string]string{"password": err.Error()})
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	user := &models.User{
		ID:           userID,
		Name:         draft.Name,
		Email:        email.Normalize(draft.Email),
		PasswordHash: hash,
		Phone:        draft.Phone,
		Profile:      draft.Profile(),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.users.CreateIfEmailAvailable(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeDuplicateEmail, "an account with this email already exists")
		}
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to register user")
	}
	return user, nil
}

// Authenticate returns the single user matching email, secret and role.
// Any mismatch, including a right secret under the wrong role, is the same
// invalid_credentials error.
func (s *Service) Authenticate(ctx context.Context, address, secret string, role id.Role) (*models.User, error) {
	defer s.metrics.ObserveOperation("identity.authenticate", time.Now())
	ctx, span := tracer.Start(ctx, "identity.Authenticate")
	defer span.End()

	candidates, err := s.users.FindByEmail(ctx, email.Normalize(address))
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to load users")
	}
	var matched []models.User
	for _, u := range candidates {
		if u.HasRole(role) && secrets.Matches(secret, u.PasswordHash) {
			matched = append(matched, u)
		}
	}
	if len(matched) != 1 {
		s.metrics.IncrementAuthFailures()
		s.logAudit(ctx, string(audit.EventAuthFailed),
			"role", role.String(),
			"reason", "credentials_mismatch",
		)
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email, password or role")
	}
	user := matched[0]
	s.logAudit(ctx, string(audit.EventAuthSucceeded), "user_id", user.ID)
	return &user, nil
}

// ListByRole returns every user with role.
func (s *Service) ListByRole(ctx context.Context, role id.Role) ([]models.User, error) {
	if !role.IsValid() {
		return nil, dErrors.Validation("invalid role", map[string]string{"role": "unknown role " + role.String()})
	}
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

func (s *Service) ListAll(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Ensure(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
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
	userID := id.UserID(attrs.ExtractString(attributes, "user_id"))
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		UserID:      userID,
		Subject:     userID.String(),
		Action:      event,
		Reason:      attrs.ExtractString(attributes, "reason"),
		OperationID: requestcontext.OperationID(ctx),
		ActorID:     requestcontext.ActorID(ctx),
	})
}
