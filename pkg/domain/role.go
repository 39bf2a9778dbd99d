package domain

import dErrors "carebook/pkg/domain-errors"

// Role is the user's role in the clinic. It is part of the credential:
// the same email and secret authenticate only for the role they registered
// with.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

var validRoles = map[Role]bool{
	RolePatient: true,
	RoleDoctor:  true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}
