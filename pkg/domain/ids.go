package domain

import (
	"github.com/google/uuid"

	dErrors "carebook/pkg/domain-errors"
)

// Identifiers are opaque strings unique within their collection. Fresh ids
// are UUIDv4 strings; seeded records may carry short fixed ids ("1", "2").
//
// Usage: construct via the Parse functions at trust boundaries; New*
// functions mint fresh ids for records about to be created.
type (
	UserID        string
	SlotID        string
	AppointmentID string
	PaymentID     string
	ProgramID     string
)

const maxIDLength = 64

func NewUserID() UserID               { return UserID(uuid.NewString()) }
func NewSlotID() SlotID               { return SlotID(uuid.NewString()) }
func NewAppointmentID() AppointmentID { return AppointmentID(uuid.NewString()) }
func NewPaymentID() PaymentID         { return PaymentID(uuid.NewString()) }
func NewProgramID() ProgramID         { return ProgramID(uuid.NewString()) }

func ParseUserID(s string) (UserID, error) {
	if err := validateID("user id", s); err != nil {
		return "", err
	}
	return UserID(s), nil
}

func ParseSlotID(s string) (SlotID, error) {
	if err := validateID("slot id", s); err != nil {
		return "", err
	}
	return SlotID(s), nil
}

func ParseAppointmentID(s string) (AppointmentID, error) {
	if err := validateID("appointment id", s); err != nil {
		return "", err
	}
	return AppointmentID(s), nil
}

func ParsePaymentID(s string) (PaymentID, error) {
	if err := validateID("payment id", s); err != nil {
		return "", err
	}
	return PaymentID(s), nil
}

func ParseProgramID(s string) (ProgramID, error) {
	if err := validateID("program id", s); err != nil {
		return "", err
	}
	return ProgramID(s), nil
}

// validateID accepts 1..64 characters from [A-Za-z0-9_-].
func validateID(kind, s string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return dErrors.New(dErrors.CodeInvalidInput, kind+" contains invalid characters")
		}
	}
	return nil
}

func (id UserID) String() string        { return string(id) }
func (id SlotID) String() string        { return string(id) }
func (id AppointmentID) String() string { return string(id) }
func (id PaymentID) String() string     { return string(id) }
func (id ProgramID) String() string     { return string(id) }

func (id UserID) IsNil() bool        { return id == "" }
func (id SlotID) IsNil() bool        { return id == "" }
func (id AppointmentID) IsNil() bool { return id == "" }
func (id PaymentID) IsNil() bool     { return id == "" }
func (id ProgramID) IsNil() bool     { return id == "" }
