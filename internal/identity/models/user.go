package models

import (
	"encoding/json"
	"fmt"
	"time"

	id "carebook/pkg/domain"
)

// User is a registered clinic member.
//
// Invariants:
//   - Email is stored normalized (trimmed, lower-case) and is unique
//   - PasswordHash is a bcrypt hash; the plaintext secret is never stored
//   - Role is derived from Profile and cannot disagree with it
type User struct {
	ID           id.UserID
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Profile      Profile
	CreatedAt    time.Time
}

func (u *User) Role() id.Role {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Role()
}

func (u *User) HasRole(role id.Role) bool {
	return u.Role() == role
}

// Profile is the role-specific part of a user. Exactly one of
// PatientProfile, DoctorProfile or AdminProfile.
type Profile interface {
	Role() id.Role
	isProfile()
}

type PatientProfile struct {
	Address     string
	DateOfBirth string
	Gender      string
}

type DoctorProfile struct {
	Specialization string
}

type AdminProfile struct{}

func (PatientProfile) Role() id.Role { return id.RolePatient }
func (DoctorProfile) Role() id.Role  { return id.RoleDoctor }
func (AdminProfile) Role() id.Role   { return id.RoleAdmin }

func (PatientProfile) isProfile() {}
func (DoctorProfile) isProfile()  {}
func (AdminProfile) isProfile()   {}

// userRecord is the persisted shape: one flat record tagged by role, with
// the field names the booking views already read.
type userRecord struct {
	ID             id.UserID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"passwordHash"`
	Phone          string    `json:"phone"`
	Role           id.Role   `json:"role"`
	Address        string    `json:"address,omitempty"`
	DateOfBirth    string    `json:"dateOfBirth,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (u User) MarshalJSON() ([]byte, error) {
	rec := userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Role:         u.Role(),
		CreatedAt:    u.CreatedAt,
	}
	switch p := u.Profile.(type) {
	case PatientProfile:
		rec.Address, rec.DateOfBirth, rec.Gender = p.Address, p.DateOfBirth, p.Gender
	case DoctorProfile:
		rec.Specialization = p.Specialization
	case AdminProfile:
	default:
		return nil, fmt.Errorf("user %s has no profile", u.ID)
	}
	return json.Marshal(rec)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	profile, err := profileFor(rec)
	if err != nil {
		return err
	}
	*u = User{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Phone:        rec.Phone,
		Profile:      profile,
		CreatedAt:    rec.CreatedAt,
	}
	return nil
}

func profileFor(rec userRecord) (Profile, error) {
	switch rec.Role {
	case id.RolePatient:
		return PatientProfile{Address: rec.Address, DateOfBirth: rec.DateOfBirth, Gender: rec.Gender}, nil
	case id.RoleDoctor:
		return DoctorProfile{Specialization: rec.Specialization}, nil
	case id.RoleAdmin:
		return AdminProfile{}, nil
	default:
		return nil, fmt.Errorf("user %s has unknown role %q", rec.ID, rec.Role)
	}
}
