// Package store is the append-only payment ledger.
package store

import (
	"context"

	"carebook/internal/payment/models"
	"carebook/internal/store"
	id "carebook/pkg/domain"
	"carebook/pkg/platform/sentinel"
)

type Store struct {
	payments *store.Collection[models.Payment]
}

func New(s *store.Store) *Store {
	return &Store{payments: store.NewCollection[models.Payment](s, store.Payments)}
}

// AppendIfFirst appends p unless the appointment already has an entry, in
// which case it returns sentinel.ErrAlreadyUsed.
func (s *Store) AppendIfFirst(ctx context.Context, p *models.Payment) error {
	return s.payments.Update(ctx, func(all []models.Payment) ([]models.Payment, error) {
		for i := range all {
			if all[i].AppointmentID == p.AppointmentID {
				return nil, sentinel.ErrAlreadyUsed
			}
		}
		return append(all, *p), nil
	})
}

func (s *Store) FindByAppointment(ctx context.Context, apptID id.AppointmentID) (*models.Payment, error) {
	all, err := s.payments.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].AppointmentID == apptID {
			return &all[i], nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListByPatient(ctx context.Context, patientID id.UserID) ([]models.Payment, error) {
	all, err := s.payments.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Payment{}
	for _, p := range all {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Payment, error) {
	return s.payments.All(ctx)
}
