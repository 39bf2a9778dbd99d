package models

import (
	"strings"

	id "carebook/pkg/domain"
)

// UserDraft is the registration input. Role selects which profile fields
// are required.
type UserDraft struct {
	Name           string  `json:"name" validate:"required"`
	Email          string  `json:"email" validate:"required,looseemail"`
	Secret         string  `json:"password" validate:"required,min=6"`
	Phone          string  `json:"phone" validate:"required"`
	Role           id.Role `json:"role" validate:"required,oneof=patient doctor admin"`
	Address        string  `json:"address" validate:"required_if=Role patient"`
	DateOfBirth    string  `json:"dateOfBirth" validate:"required_if=Role patient,omitempty,date"`
	Gender         string  `json:"gender" validate:"required_if=Role patient"`
	Specialization string  `json:"specialization" validate:"required_if=Role doctor"`
}

// Normalize trims free-text fields. The secret is left untouched.
func (d *UserDraft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.Gender = strings.TrimSpace(d.Gender)
	d.Specialization = strings.TrimSpace(d.Specialization)
}

// Profile builds the role profile. Only meaningful after validation.
func (d *UserDraft) Profile() Profile {
	switch d.Role {
	case id.RolePatient:
		return PatientProfile{Address: d.Address, DateOfBirth: d.DateOfBirth, Gender: d.Gender}
	case id.RoleDoctor:
		return DoctorProfile{Specialization: d.Specialization}
	default:
		return AdminProfile{}
	}
}
