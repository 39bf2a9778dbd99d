// Package store persists availability slots in the shared
// doctorAvailability collection.
package store

import (
	"context"

	"carebook/internal/availability/models"
	"carebook/internal/store"
	id "carebook/pkg/domain"
	"carebook/pkg/platform/sentinel"
)

type Store struct {
	slots *store.Collection[models.Slot]
}

func New(s *store.Store) *Store {
	return &Store{slots: store.NewCollection[models.Slot](s, store.Availability)}
}

func (s *Store) Create(ctx context.Context, slot *models.Slot) error {
	return s.slots.Update(ctx, func(slots []models.Slot) ([]models.Slot, error) {
		return append(slots, *slot), nil
	})
}

func (s *Store) FindByID(ctx context.Context, slotID id.SlotID) (*models.Slot, error) {
	slots, err := s.slots.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].ID == slotID {
			return &slots[i], nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListByDoctor(ctx context.Context, doctorID id.UserID) ([]models.Slot, error) {
	slots, err := s.slots.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Slot{}
	for _, slot := range slots {
		if slot.DoctorID == doctorID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Slot, error) {
	return s.slots.All(ctx)
}

// Execute applies fn to the slot with slotID inside one collection update
// and persists the result. fn's error aborts the write.
func (s *Store) Execute(ctx context.Context, slotID id.SlotID, fn func(*models.Slot) error) (*models.Slot, error) {
	var result models.Slot
	err := s.slots.Update(ctx, func(slots []models.Slot) ([]models.Slot, error) {
		for i := range slots {
			if slots[i].ID != slotID {
				continue
			}
			if err := fn(&slots[i]); err != nil {
				return nil, err
			}
			result = slots[i]
			return slots, nil
		}
		return nil, sentinel.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExecuteFirst tries fn on each slot accepted by match, in collection
// order, until one succeeds, all inside one update. When no slot matches,
// found is false and nothing is written. When every matching slot fails,
// the last failure is returned and nothing is written.
func (s *Store) ExecuteFirst(ctx context.Context, match func(*models.Slot) bool, fn func(*models.Slot) error) (*models.Slot, bool, error) {
	var (
		result models.Slot
		found  bool
	)
	err := s.slots.Update(ctx, func(slots []models.Slot) ([]models.Slot, error) {
		found = false
		var lastErr error
		for i := range slots {
			if !match(&slots[i]) {
				continue
			}
			found = true
			candidate := slots[i]
			if err := fn(&candidate); err != nil {
				lastErr = err
				continue
			}
			slots[i] = candidate
			result = candidate
			return slots, nil
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, store.ErrUnchanged
	})
	if err != nil {
		return nil, found, err
	}
	if !found {
		return nil, false, nil
	}
	return &result, true, nil
}
