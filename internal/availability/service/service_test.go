package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SlotStore,UserLookup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"carebook/internal/availability/models"
	"carebook/internal/availability/service/mocks"
	availabilitystore "carebook/internal/availability/store"
	identity "carebook/internal/identity/models"
	identitystore "carebook/internal/identity/store"
	"carebook/internal/store"
	"carebook/internal/store/memory"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
)

const (
	doctorID  = id.UserID("1")
	patientID = id.UserID("4")
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	st := store.New(memory.New())
	users := identitystore.New(st)
	s.Require().NoError(users.CreateIfEmailAvailable(s.ctx, &identity.User{
		ID: doctorID, Name: "Dr. John Smith", Email: "john.smith@doctor.com",
		Profile: identity.DoctorProfile{Specialization: "Cardiology"},
	}))
	s.Require().NoError(users.CreateIfEmailAvailable(s.ctx, &identity.User{
		ID: patientID, Name: "John Doe", Email: "john.doe@patient.com",
		Profile: identity.PatientProfile{},
	}))
	s.service = New(availabilitystore.New(st), lookup{users})
}

// lookup adapts the identity store to UserLookup without the identity
// service's error translation.
type lookup struct {
	users *identitystore.Store
}

func (l lookup) Get(ctx context.Context, userID id.UserID) (*identity.User, error) {
	u, err := l.users.FindByID(ctx, userID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return u, nil
}

func draft(date, start, end string, maxPatients int) models.SlotDraft {
	return models.SlotDraft{Date: date, StartTime: start, EndTime: end, MaxPatients: maxPatients}
}

func (s *ServiceSuite) TestPublish() {
	s.Run("creates an empty slot with the doctor's name", func() {
		slot, err := s.service.Publish(s.ctx, doctorID, draft("2025-03-10", "09:00", "12:00", 5))
		s.Require().NoError(err)
		s.Equal(0, slot.CurrentPatients)
		s.Equal(5, slot.MaxPatients)
		s.Equal("Dr. John Smith", slot.DoctorName)

		slots, err := s.service.ListForDoctor(s.ctx, doctorID)
		s.Require().NoError(err)
		s.Len(slots, 1)
	})

	cases := map[string]struct {
		doctor id.UserID
		draft  models.SlotDraft
		field  string
	}{
		"missing date":        {doctorID, draft("", "09:00", "12:00", 5), "date"},
		"malformed date":      {doctorID, draft("10/03/2025", "09:00", "12:00", 5), "date"},
		"malformed start":     {doctorID, draft("2025-03-10", "9am", "12:00", 5), "startTime"},
		"single-digit hour":   {doctorID, draft("2025-03-10", "9:00", "10:00", 5), "startTime"},
		"missing end":         {doctorID, draft("2025-03-10", "09:00", "", 5), "endTime"},
		"zero capacity":       {doctorID, draft("2025-03-10", "09:00", "12:00", 0), "maxPatients"},
		"end before start":    {doctorID, draft("2025-03-10", "12:00", "09:00", 5), "endTime"},
		"empty window":        {doctorID, draft("2025-03-10", "09:00", "09:00", 5), "endTime"},
		"unknown doctor":      {"99", draft("2025-03-10", "09:00", "12:00", 5), "doctorId"},
		"patient as a doctor": {patientID, draft("2025-03-10", "09:00", "12:00", 5), "doctorId"},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			_, err := s.service.Publish(s.ctx, tc.doctor, tc.draft)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			s.Contains(dErrors.FieldErrors(err), tc.field)
		})
	}

	s.Run("an early morning window is accepted when padded", func() {
		slot, err := s.service.Publish(s.ctx, doctorID, draft("2025-03-10", "09:00", "10:00", 1))
		s.Require().NoError(err)
		s.Equal("09:00", slot.StartTime)
	})
}

func (s *ServiceSuite) TestReserveCapacity() {
	slot, err := s.service.Publish(s.ctx, doctorID, draft("2025-03-10", "09:00", "12:00", 2))
	s.Require().NoError(err)

	s.Run("fills up then rejects", func() {
		for want := 1; want <= 2; want++ {
			got, err := s.service.ReserveCapacity(s.ctx, slot.ID)
			s.Require().NoError(err)
			s.Equal(want, got.CurrentPatients)
		}
		_, err := s.service.ReserveCapacity(s.ctx, slot.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))

		stored, err := s.service.Get(s.ctx, slot.ID)
		s.Require().NoError(err)
		s.Equal(2, stored.CurrentPatients)
	})

	s.Run("release gives a place back and floors at zero", func() {
		s.Require().NoError(s.service.ReleaseCapacity(s.ctx, slot.ID))
		s.Require().NoError(s.service.ReleaseCapacity(s.ctx, slot.ID))
		s.Require().NoError(s.service.ReleaseCapacity(s.ctx, slot.ID))
		stored, err := s.service.Get(s.ctx, slot.ID)
		s.Require().NoError(err)
		s.Equal(0, stored.CurrentPatients)
	})

	s.Run("unknown slot", func() {
		_, err := s.service.ReserveCapacity(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		err = s.service.ReleaseCapacity(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestConcurrentReservationsNeverExceedCapacity() {
	slot, err := s.service.Publish(s.ctx, doctorID, draft("2025-03-10", "09:00", "12:00", 5))
	s.Require().NoError(err)

	const attempts = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.ReserveCapacity(s.ctx, slot.ID); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(5, accepted)
	stored, err := s.service.Get(s.ctx, slot.ID)
	s.Require().NoError(err)
	s.Equal(5, stored.CurrentPatients)
}

func (s *ServiceSuite) TestReserveMatching() {
	full, err := s.service.Publish(s.ctx, doctorID, draft("2025-03-10", "09:00", "12:00", 1))
	s.Require().NoError(err)
	overlap, err := s.service.Publish(s.ctx, doctorID, draft("2025-03-10", "10:00", "11:00", 1))
	s.Require().NoError(err)
	_, err = s.service.ReserveCapacity(s.ctx, full.ID)
	s.Require().NoError(err)

	s.Run("no covering slot is not an error", func() {
		slot, matched, err := s.service.ReserveMatching(s.ctx, doctorID, "2025-03-10", "14:00")
		s.Require().NoError(err)
		s.False(matched)
		s.Nil(slot)
	})

	s.Run("skips a full slot for one with room", func() {
		slot, matched, err := s.service.ReserveMatching(s.ctx, doctorID, "2025-03-10", "10:30")
		s.Require().NoError(err)
		s.True(matched)
		s.Equal(overlap.ID, slot.ID)
		s.Equal(1, slot.CurrentPatients)
	})

	s.Run("every covering slot full", func() {
		_, matched, err := s.service.ReserveMatching(s.ctx, doctorID, "2025-03-10", "10:30")
		s.True(matched)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	})
}

func TestService_DoctorLookupFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	slots := mocks.NewMockSlotStore(ctrl)
	users := mocks.NewMockUserLookup(ctrl)
	svc := New(slots, users)

	boom := dErrors.Wrap(errors.New("connection reset"), dErrors.CodeInternal, "failed to load user")
	users.EXPECT().Get(gomock.Any(), doctorID).Return(nil, boom)

	_, err := svc.Publish(context.Background(), doctorID, draft("2025-03-10", "09:00", "12:00", 5))
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup failure to propagate, got %v", err)
	}
}

func TestService_StoreFailureOnCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	slots := mocks.NewMockSlotStore(ctrl)
	users := mocks.NewMockUserLookup(ctrl)
	svc := New(slots, users)

	users.EXPECT().Get(gomock.Any(), doctorID).
		Return(&identity.User{ID: doctorID, Profile: identity.DoctorProfile{}}, nil)
	slots.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := svc.Publish(context.Background(), doctorID, draft("2025-03-10", "09:00", "12:00", 5))
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
