// Package seed bootstraps the demo accounts a fresh clinic starts with.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"carebook/internal/identity/models"
	id "carebook/pkg/domain"
)

type Seeder interface {
	Seed(ctx context.Context, userID id.UserID, draft models.UserDraft) (bool, error)
}

// Account is one demo user with its fixed id.
type Account struct {
	ID    id.UserID
	Draft models.UserDraft
}

// DemoAccounts are two doctors, one admin and two patients.
var DemoAccounts = []Account{
	{ID: "1", Draft: models.UserDraft{
		Name: "Dr. John Smith", Email: "john.smith@doctor.com", Secret: "password123",
		Phone: "+1-555-0101", Role: id.RoleDoctor, Specialization: "Cardiology",
	}},
	{ID: "2", Draft: models.UserDraft{
		Name: "Dr. Sarah Johnson", Email: "sarah.johnson@doctor.com", Secret: "password123",
		Phone: "+1-555-0102", Role: id.RoleDoctor, Specialization: "Pediatrics",
	}},
	{ID: "3", Draft: models.UserDraft{
		Name: "Admin User", Email: "admin@doctorpat.com", Secret: "admin123",
		Phone: "+1-555-0000", Role: id.RoleAdmin,
	}},
	{ID: "4", Draft: models.UserDraft{
		Name: "John Doe", Email: "john.doe@patient.com", Secret: "password123",
		Phone: "+1-555-0103", Role: id.RolePatient,
		Address: "123 Main St, City, State 12345", DateOfBirth: "1990-05-15", Gender: "male",
	}},
	{ID: "5", Draft: models.UserDraft{
		Name: "Jane Smith", Email: "jane.smith@patient.com", Secret: "password123",
		Phone: "+1-555-0104", Role: id.RolePatient,
		Address: "456 Oak Ave, City, State 12345", DateOfBirth: "1985-08-22", Gender: "female",
	}},
}

// Run registers every account whose email is not yet taken and returns how
// many were created. Running it again is a no-op.
func Run(ctx context.Context, seeder Seeder, logger *slog.Logger, accounts ...Account) (int, error) {
	if len(accounts) == 0 {
		accounts = DemoAccounts
	}
	created := 0
	for _, acct := range accounts {
		ok, err := seeder.Seed(ctx, acct.ID, acct.Draft)
		if err != nil {
			return created, fmt.Errorf("seed user %s: %w", acct.ID, err)
		}
		if ok {
			created++
		}
	}
	if logger != nil {
		logger.InfoContext(ctx, "seed complete", "created", created, "total", len(accounts))
	}
	return created, nil
}
