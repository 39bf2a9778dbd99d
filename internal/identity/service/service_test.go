package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,AuditPublisher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"carebook/internal/identity/models"
	"carebook/internal/identity/service/mocks"
	identitystore "carebook/internal/identity/store"
	"carebook/internal/store"
	"carebook/internal/store/memory"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/platform/audit"
	auditmemory "carebook/pkg/platform/audit/store/memory"
	"carebook/pkg/platform/audit/publisher"
	"carebook/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	service    *Service
	auditStore *auditmemory.InMemoryStore
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.auditStore = auditmemory.NewInMemoryStore()
	st := store.New(memory.New())
	s.service = New(identitystore.New(st),
		WithBcryptCost(bcrypt.MinCost),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

func patientDraft(address string) models.UserDraft {
	return models.UserDraft{
		Name:        "Jane Smith",
		Email:       address,
		Secret:      "password123",
		Phone:       "+1-555-0104",
		Role:        id.RolePatient,
		Address:     "456 Oak Ave, City, State 12345",
		DateOfBirth: "1985-08-22",
		Gender:      "female",
	}
}

func doctorDraft(address string) models.UserDraft {
	return models.UserDraft{
		Name:           "Dr. Sarah Johnson",
		Email:          address,
		Secret:         "password123",
		Phone:          "+1-555-0102",
		Role:           id.RoleDoctor,
		Specialization: "Pediatrics",
	}
}

func (s *ServiceSuite) TestRegister() {
	s.Run("stores a hashed secret under a fresh id", func() {
		user, err := s.service.Register(s.ctx, patientDraft("jane@patient.com"))
		s.Require().NoError(err)
		s.NotEmpty(user.ID)
		s.Equal(id.RolePatient, user.Role())
		s.NotEqual("password123", user.PasswordHash)

		got, err := s.service.Get(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user.Email, got.Email)
		s.Equal(models.PatientProfile{Address: "456 Oak Ave, City, State 12345", DateOfBirth: "1985-08-22", Gender: "female"}, got.Profile)
	})

	s.Run("emails are normalized", func() {
		user, err := s.service.Register(s.ctx, doctorDraft("  Sarah.Johnson@Doctor.com "))
		s.Require().NoError(err)
		s.Equal("sarah.johnson@doctor.com", user.Email)
	})

	s.Run("duplicate email is rejected regardless of case or role", func() {
		_, err := s.service.Register(s.ctx, doctorDraft("JANE@patient.com"))
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateEmail))

		users, err := s.service.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(users, 2)
	})

	s.Run("registration is audited", func() {
		events, err := s.auditStore.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(string(audit.EventUserRegistered), events[0].Action)
	})
}

func (s *ServiceSuite) TestRegisterValidation() {
	s.Run("collects every failing field", func() {
		_, err := s.service.Register(s.ctx, models.UserDraft{Email: "nope", Secret: "123", Role: id.RolePatient})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		fields := dErrors.FieldErrors(err)
		for _, f := range []string{"name", "email", "password", "phone", "address", "dateOfBirth", "gender"} {
			s.Contains(fields, f)
		}
		s.NotContains(fields, "specialization")
	})

	s.Run("doctor needs a specialization", func() {
		d := doctorDraft("doc@doctor.com")
		d.Specialization = " "
		_, err := s.service.Register(s.ctx, d)
		s.Equal([]string{"specialization"}, keys(dErrors.FieldErrors(err)))
	})

	s.Run("unknown role", func() {
		d := doctorDraft("doc@doctor.com")
		d.Role = "nurse"
		_, err := s.service.Register(s.ctx, d)
		s.Contains(dErrors.FieldErrors(err), "role")
	})

	s.Run("malformed date of birth", func() {
		d := patientDraft("p@patient.com")
		d.DateOfBirth = "15/05/1990"
		_, err := s.service.Register(s.ctx, d)
		s.Equal([]string{"dateOfBirth"}, keys(dErrors.FieldErrors(err)))
	})
}

func (s *ServiceSuite) TestConcurrentRegistrationKeepsEmailUnique() {
	const attempts = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.Register(s.ctx, patientDraft("race@patient.com")); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, success)
}

func (s *ServiceSuite) TestAuthenticate() {
	registered, err := s.service.Register(s.ctx, doctorDraft("sarah@doctor.com"))
	s.Require().NoError(err)

	s.Run("matching email, secret and role", func() {
		user, err := s.service.Authenticate(s.ctx, "Sarah@Doctor.com", "password123", id.RoleDoctor)
		s.Require().NoError(err)
		s.Equal(registered.ID, user.ID)
	})

	cases := map[string]struct {
		email, secret string
		role          id.Role
	}{
		"wrong secret":  {"sarah@doctor.com", "password124", id.RoleDoctor},
		"wrong role":    {"sarah@doctor.com", "password123", id.RolePatient},
		"unknown email": {"nobody@doctor.com", "password123", id.RoleDoctor},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			_, err := s.service.Authenticate(s.ctx, tc.email, tc.secret, tc.role)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
		})
	}

	s.Run("failures are audited as security events", func() {
		events, err := s.auditStore.ListAll(s.ctx)
		s.Require().NoError(err)
		var failed int
		for _, e := range events {
			if e.Action == string(audit.EventAuthFailed) {
				failed++
				s.Equal(audit.CategorySecurity, e.Category)
			}
		}
		s.Equal(3, failed)
	})
}

func (s *ServiceSuite) TestListByRoleAndGet() {
	_, err := s.service.Register(s.ctx, doctorDraft("a@doctor.com"))
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, patientDraft("b@patient.com"))
	s.Require().NoError(err)

	doctors, err := s.service.ListByRole(s.ctx, id.RoleDoctor)
	s.Require().NoError(err)
	s.Len(doctors, 1)

	admins, err := s.service.ListByRole(s.ctx, id.RoleAdmin)
	s.Require().NoError(err)
	s.Empty(admins)

	_, err = s.service.ListByRole(s.ctx, "nurse")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Get(s.ctx, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSeedIsIdempotent() {
	created, err := s.service.Seed(s.ctx, "2", doctorDraft("sarah.johnson@doctor.com"))
	s.Require().NoError(err)
	s.True(created)

	created, err = s.service.Seed(s.ctx, "2", doctorDraft("sarah.johnson@doctor.com"))
	s.Require().NoError(err)
	s.False(created)

	user, err := s.service.Get(s.ctx, "2")
	s.Require().NoError(err)
	s.Equal("Dr. Sarah Johnson", user.Name)
}

func TestService_StoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserStore(ctrl)
	svc := New(users, WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()

	t.Run("storage conflict keeps its code", func(t *testing.T) {
		users.EXPECT().CreateIfEmailAvailable(gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeConflict, "users kept changing"))
		_, err := svc.Register(ctx, doctorDraft("x@doctor.com"))
		if !dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.CodeOf(err) != dErrors.CodeConflict {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("backend failure is internal", func(t *testing.T) {
		users.EXPECT().FindByEmail(gomock.Any(), "x@doctor.com").Return(nil, errors.New("connection reset"))
		_, err := svc.Authenticate(ctx, "x@doctor.com", "password123", id.RoleDoctor)
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			t.Fatalf("expected internal, got %v", err)
		}
	})

	t.Run("not found is translated", func(t *testing.T) {
		users.EXPECT().FindByID(gomock.Any(), id.UserID("9")).Return(nil, sentinel.ErrNotFound)
		_, err := svc.Get(ctx, "9")
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
