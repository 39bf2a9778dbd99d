// Package store persists users in the shared users collection.
package store

import (
	"context"

	"carebook/internal/identity/models"
	"carebook/internal/store"
	id "carebook/pkg/domain"
	"carebook/pkg/email"
	"carebook/pkg/platform/sentinel"
)

type Store struct {
	users *store.Collection[models.User]
}

func New(s *store.Store) *Store {
	return &Store{users: store.NewCollection[models.User](s, store.Users)}
}

// CreateIfEmailAvailable appends user unless another user already has the
// same email. The check and the append are one update.
func (s *Store) CreateIfEmailAvailable(ctx context.Context, user *models.User) error {
	return s.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		for _, existing := range users {
			if email.Normalize(existing.Email) == email.Normalize(user.Email) {
				return nil, sentinel.ErrAlreadyUsed
			}
		}
		return append(users, *user), nil
	})
}

func (s *Store) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindByEmail returns every user with the email. More than one only happens
// when records were written outside the registry.
func (s *Store) FindByEmail(ctx context.Context, address string) ([]models.User, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	address = email.Normalize(address)
	var out []models.User
	for _, u := range users {
		if email.Normalize(u.Email) == address {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ListByRole(ctx context.Context, role id.Role) ([]models.User, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, u := range users {
		if u.HasRole(role) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.All(ctx)
}
