// Package store persists appointments in the shared appointments collection.
package store

import (
	"context"

	"carebook/internal/appointment/models"
	"carebook/internal/store"
	id "carebook/pkg/domain"
	"carebook/pkg/platform/sentinel"
)

type Store struct {
	appointments *store.Collection[models.Appointment]
}

func New(s *store.Store) *Store {
	return &Store{appointments: store.NewCollection[models.Appointment](s, store.Appointments)}
}

func (s *Store) Create(ctx context.Context, appt *models.Appointment) error {
	return s.appointments.Update(ctx, func(all []models.Appointment) ([]models.Appointment, error) {
		return append(all, *appt), nil
	})
}

func (s *Store) FindByID(ctx context.Context, apptID id.AppointmentID) (*models.Appointment, error) {
	all, err := s.appointments.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == apptID {
			return &all[i], nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListByPatient(ctx context.Context, patientID id.UserID) ([]models.Appointment, error) {
	return s.filter(ctx, func(a *models.Appointment) bool { return a.PatientID == patientID })
}

func (s *Store) ListByDoctor(ctx context.Context, doctorID id.UserID) ([]models.Appointment, error) {
	return s.filter(ctx, func(a *models.Appointment) bool { return a.DoctorID == doctorID })
}

func (s *Store) ListAll(ctx context.Context) ([]models.Appointment, error) {
	return s.appointments.All(ctx)
}

func (s *Store) filter(ctx context.Context, keep func(*models.Appointment) bool) ([]models.Appointment, error) {
	all, err := s.appointments.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Appointment{}
	for i := range all {
		if keep(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Execute applies fn to one appointment inside a single collection update.
// fn's error aborts the write.
func (s *Store) Execute(ctx context.Context, apptID id.AppointmentID, fn func(*models.Appointment) error) (*models.Appointment, error) {
	var result models.Appointment
	err := s.appointments.Update(ctx, func(all []models.Appointment) ([]models.Appointment, error) {
		for i := range all {
			if all[i].ID != apptID {
				continue
			}
			if err := fn(&all[i]); err != nil {
				return nil, err
			}
			result = all[i]
			return all, nil
		}
		return nil, sentinel.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
