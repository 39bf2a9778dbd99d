package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AppointmentStore,UserLookup,CapacityLedger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"carebook/internal/appointment/models"
	"carebook/internal/appointment/service/mocks"
	appointmentstore "carebook/internal/appointment/store"
	slots "carebook/internal/availability/models"
	availability "carebook/internal/availability/service"
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
	ctx          context.Context
	st           *store.Store
	users        lookup
	availability *availability.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.st = store.New(memory.New())
	users := identitystore.New(s.st)
	s.Require().NoError(users.CreateIfEmailAvailable(s.ctx, &identity.User{
		ID: doctorID, Name: "Dr. John Smith", Email: "john.smith@doctor.com",
		Profile: identity.DoctorProfile{Specialization: "Cardiology"},
	}))
	s.Require().NoError(users.CreateIfEmailAvailable(s.ctx, &identity.User{
		ID: patientID, Name: "John Doe", Email: "john.doe@patient.com",
		Profile: identity.PatientProfile{},
	}))
	s.users = lookup{users}
	s.availability = availability.New(availabilitystore.New(s.st), s.users)
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	return New(appointmentstore.New(s.st), s.users, s.availability, opts...)
}

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

func request(date, clock string) models.BookingRequest {
	return models.BookingRequest{PatientID: patientID, DoctorID: doctorID, Date: date, Time: clock}
}

func (s *ServiceSuite) publish(date, start, end string, maxPatients int) *slots.Slot {
	slot, err := s.availability.Publish(s.ctx, doctorID, slots.SlotDraft{
		Date: date, StartTime: start, EndTime: end, MaxPatients: maxPatients,
	})
	s.Require().NoError(err)
	return slot
}

func (s *ServiceSuite) TestBook() {
	svc := s.newService()

	s.Run("creates a scheduled unpaid appointment with the default fee", func() {
		appt, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
		s.Require().NoError(err)
		s.Equal(models.StatusScheduled, appt.Status)
		s.Equal(models.PaymentUnpaid, appt.PaymentStatus)
		s.True(appt.Amount.Equal(decimal.NewFromInt(100)))
		s.Equal("John Doe", appt.PatientName)
		s.Equal("Dr. John Smith", appt.DoctorName)
		s.Empty(appt.SlotID)

		stored, err := svc.Get(s.ctx, appt.ID)
		s.Require().NoError(err)
		s.Equal(appt.ID, stored.ID)
	})

	s.Run("keeps an explicit fee", func() {
		req := request("2025-03-10", "11:00")
		req.Fee = decimal.RequireFromString("150.50")
		appt, err := svc.Book(s.ctx, req)
		s.Require().NoError(err)
		s.Equal("150.5", appt.Amount.String())
	})

	cases := map[string]struct {
		mutate func(*models.BookingRequest)
		field  string
	}{
		"missing date":      {func(r *models.BookingRequest) { r.Date = "" }, "date"},
		"malformed date":    {func(r *models.BookingRequest) { r.Date = "March 10" }, "date"},
		"malformed time":    {func(r *models.BookingRequest) { r.Time = "25:99" }, "time"},
		"single-digit hour": {func(r *models.BookingRequest) { r.Time = "9:30" }, "time"},
		"negative fee":      {func(r *models.BookingRequest) { r.Fee = decimal.NewFromInt(-1) }, "fee"},
		"unknown doctor":    {func(r *models.BookingRequest) { r.DoctorID = "99" }, "doctorId"},
		"doctor as patient": {func(r *models.BookingRequest) { r.PatientID = doctorID }, "patientId"},
		"patient as doctor": {func(r *models.BookingRequest) { r.DoctorID = patientID }, "doctorId"},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			req := request("2025-03-10", "10:00")
			tc.mutate(&req)
			_, err := svc.Book(s.ctx, req)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
			s.Contains(dErrors.FieldErrors(err), tc.field)
		})
	}
}

func (s *ServiceSuite) TestBookWithCapacity() {
	s.Run("reserves the matching slot and rejects once full", func() {
		s.SetupTest()
		svc := s.newService()
		slot := s.publish("2025-03-10", "09:00", "12:00", 1)

		appt, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
		s.Require().NoError(err)
		s.Equal(slot.ID, appt.SlotID)

		_, err = svc.Book(s.ctx, request("2025-03-10", "10:30"))
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded), "got %v", err)

		all, err := svc.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("an unpadded hour cannot slip past a full slot", func() {
		s.SetupTest()
		svc := s.newService()
		slot := s.publish("2025-03-10", "09:00", "12:00", 1)

		_, err := svc.Book(s.ctx, request("2025-03-10", "09:30"))
		s.Require().NoError(err)

		_, err = svc.Book(s.ctx, request("2025-03-10", "9:30"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)

		got, err := s.availability.Get(s.ctx, slot.ID)
		s.Require().NoError(err)
		s.Equal(1, got.CurrentPatients)
		all, err := svc.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("books outside any slot without reserving", func() {
		s.SetupTest()
		svc := s.newService()
		s.publish("2025-03-10", "09:00", "12:00", 1)

		appt, err := svc.Book(s.ctx, request("2025-03-10", "14:00"))
		s.Require().NoError(err)
		s.Empty(appt.SlotID)
	})

	s.Run("ignores capacity when enforcement is off", func() {
		s.SetupTest()
		svc := s.newService(WithCapacityEnforcement(false))
		slot := s.publish("2025-03-10", "09:00", "12:00", 1)

		for range 3 {
			_, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
			s.Require().NoError(err)
		}
		got, err := s.availability.Get(s.ctx, slot.ID)
		s.Require().NoError(err)
		s.Equal(0, got.CurrentPatients)
	})

	s.Run("concurrent bookings never exceed capacity", func() {
		s.SetupTest()
		svc := s.newService()
		slot := s.publish("2025-03-10", "09:00", "12:00", 3)

		var wg sync.WaitGroup
		var mu sync.Mutex
		booked := 0
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Book(s.ctx, request("2025-03-10", "09:30")); err == nil {
					mu.Lock()
					booked++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		s.Equal(3, booked)
		got, err := s.availability.Get(s.ctx, slot.ID)
		s.Require().NoError(err)
		s.Equal(3, got.CurrentPatients)
	})
}

func (s *ServiceSuite) TestTransition() {
	svc := s.newService()
	book := func() *models.Appointment {
		appt, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
		s.Require().NoError(err)
		return appt
	}

	s.Run("completes a scheduled appointment once", func() {
		appt := book()
		got, err := svc.Complete(s.ctx, appt.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, got.Status)

		_, err = svc.Cancel(s.ctx, appt.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)

		stored, err := svc.Get(s.ctx, appt.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, stored.Status)
	})

	s.Run("cancelled is terminal", func() {
		appt := book()
		_, err := svc.Cancel(s.ctx, appt.ID)
		s.Require().NoError(err)
		_, err = svc.Transition(s.ctx, appt.ID, models.StatusScheduled)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown status", func() {
		appt := book()
		_, err := svc.Transition(s.ctx, appt.ID, models.Status("archived"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(dErrors.FieldErrors(err), "status")
	})

	s.Run("unknown appointment", func() {
		_, err := svc.Complete(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestCancelRelease() {
	s.Run("keeps the slot place by default", func() {
		s.SetupTest()
		svc := s.newService()
		slot := s.publish("2025-03-10", "09:00", "12:00", 1)
		appt, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
		s.Require().NoError(err)

		_, err = svc.Cancel(s.ctx, appt.ID)
		s.Require().NoError(err)
		got, err := s.availability.Get(s.ctx, slot.ID)
		s.Require().NoError(err)
		s.Equal(1, got.CurrentPatients)
	})

	s.Run("gives the place back when enabled", func() {
		s.SetupTest()
		svc := s.newService(WithReleaseOnCancel(true))
		slot := s.publish("2025-03-10", "09:00", "12:00", 1)
		appt, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
		s.Require().NoError(err)

		_, err = svc.Cancel(s.ctx, appt.ID)
		s.Require().NoError(err)
		got, err := s.availability.Get(s.ctx, slot.ID)
		s.Require().NoError(err)
		s.Equal(0, got.CurrentPatients)

		_, err = svc.Book(s.ctx, request("2025-03-10", "10:00"))
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestMarkPaid() {
	svc := s.newService()
	appt, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
	s.Require().NoError(err)

	s.Run("only one concurrent caller wins", func() {
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins, alreadyPaid := 0, 0
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.MarkPaid(s.ctx, appt.ID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case dErrors.HasCode(err, dErrors.CodeAlreadyPaid):
					alreadyPaid++
				}
			}()
		}
		wg.Wait()
		s.Equal(1, wins)
		s.Equal(9, alreadyPaid)
	})

	s.Run("mark unpaid reverts", func() {
		s.Require().NoError(svc.MarkUnpaid(s.ctx, appt.ID))
		stored, err := svc.Get(s.ctx, appt.ID)
		s.Require().NoError(err)
		s.False(stored.IsPaid())
	})
}

func (s *ServiceSuite) TestLists() {
	svc := s.newService()
	_, err := svc.Book(s.ctx, request("2025-03-10", "10:00"))
	s.Require().NoError(err)

	forPatient, err := svc.ListForPatient(s.ctx, patientID)
	s.Require().NoError(err)
	s.Len(forPatient, 1)

	forDoctor, err := svc.ListForDoctor(s.ctx, doctorID)
	s.Require().NoError(err)
	s.Len(forDoctor, 1)

	none, err := svc.ListForPatient(s.ctx, "someone-else")
	s.Require().NoError(err)
	s.Empty(none)
}

func TestBook_ReleasesReservationWhenPersistFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	appts := mocks.NewMockAppointmentStore(ctrl)
	users := mocks.NewMockUserLookup(ctrl)
	capacity := mocks.NewMockCapacityLedger(ctrl)
	ctx := context.Background()

	users.EXPECT().Get(gomock.Any(), patientID).Return(&identity.User{ID: patientID, Profile: identity.PatientProfile{}}, nil)
	users.EXPECT().Get(gomock.Any(), doctorID).Return(&identity.User{ID: doctorID, Profile: identity.DoctorProfile{}}, nil)
	capacity.EXPECT().ReserveMatching(gomock.Any(), doctorID, "2025-03-10", "10:00").
		Return(&slots.Slot{ID: "slot-1"}, true, nil)
	appts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	capacity.EXPECT().ReleaseCapacity(gomock.Any(), id.SlotID("slot-1")).Return(nil)

	svc := New(appts, users, capacity)
	_, err := svc.Book(ctx, request("2025-03-10", "10:00"))
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestBook_LookupFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserLookup(ctrl)
	users.EXPECT().Get(gomock.Any(), patientID).Return(nil, dErrors.New(dErrors.CodeTimeout, "store busy"))

	svc := New(mocks.NewMockAppointmentStore(ctrl), users, mocks.NewMockCapacityLedger(ctrl))
	_, err := svc.Book(context.Background(), request("2025-03-10", "10:00"))
	if !dErrors.HasCode(err, dErrors.CodeTimeout) {
		t.Fatalf("expected timeout to pass through, got %v", err)
	}
}
