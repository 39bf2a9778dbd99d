// Package store persists wellness programs in the shared wellnessServices
// collection.
package store

import (
	"context"

	"carebook/internal/store"
	"carebook/internal/wellness/models"
	id "carebook/pkg/domain"
	"carebook/pkg/platform/sentinel"
)

type Store struct {
	programs *store.Collection[models.Program]
}

func New(s *store.Store) *Store {
	return &Store{programs: store.NewCollection[models.Program](s, store.Wellness)}
}

func (s *Store) Create(ctx context.Context, program *models.Program) error {
	return s.programs.Update(ctx, func(programs []models.Program) ([]models.Program, error) {
		return append(programs, *program), nil
	})
}

func (s *Store) FindByID(ctx context.Context, programID id.ProgramID) (*models.Program, error) {
	programs, err := s.programs.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		if programs[i].ID == programID {
			return &programs[i], nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns the programs accepted by keep, in collection order.
func (s *Store) List(ctx context.Context, keep func(*models.Program) bool) ([]models.Program, error) {
	programs, err := s.programs.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Program{}
	for i := range programs {
		if keep(&programs[i]) {
			out = append(out, programs[i])
		}
	}
	return out, nil
}

// Execute applies fn to the program with programID inside one collection
// update. fn's error aborts the write.
func (s *Store) Execute(ctx context.Context, programID id.ProgramID, fn func(*models.Program) error) (*models.Program, error) {
	var result models.Program
	err := s.programs.Update(ctx, func(programs []models.Program) ([]models.Program, error) {
		for i := range programs {
			if programs[i].ID != programID {
				continue
			}
			if err := fn(&programs[i]); err != nil {
				return nil, err
			}
			result = programs[i]
			return programs, nil
		}
		return nil, sentinel.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
