package models

import (
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	id "carebook/pkg/domain"
	"carebook/pkg/platform/validate"
)

// Status of a ledger entry. Simulated payments always complete.
type Status string

const StatusCompleted Status = "completed"

const (
	referencePrefix = "TXN_"
	referenceLength = 9
)

// Payment is an immutable ledger entry settling one appointment.
type Payment struct {
	ID            id.PaymentID     `json:"id"`
	PatientID     id.UserID        `json:"patientId"`
	DoctorID      id.UserID        `json:"doctorId"`
	AppointmentID id.AppointmentID `json:"appointmentId"`
	Amount        decimal.Decimal  `json:"amount"`
	Status        Status           `json:"paymentStatus"`
	TransactionID string           `json:"transactionId"`
	CardLast4     string           `json:"cardLast4"`
	PaidAt        time.Time        `json:"paymentDate"`
}

// CardDetails is the card form input. Number may contain spaces or dashes.
type CardDetails struct {
	Number string `json:"cardNumber" validate:"required,card16"`
	Holder string `json:"cardHolder" validate:"required"`
	Expiry string `json:"expiryDate" validate:"required,expiry"`
	CVV    string `json:"cvv" validate:"required,cvv3"`
}

// Normalize trims whitespace around every field.
func (c CardDetails) Normalize() CardDetails {
	return CardDetails{
		Number: strings.TrimSpace(c.Number),
		Holder: strings.TrimSpace(c.Holder),
		Expiry: strings.TrimSpace(c.Expiry),
		CVV:    strings.TrimSpace(c.CVV),
	}
}

// Last4 returns the final four digits of the card number.
func (c CardDetails) Last4() string {
	digits := validate.StripCardSeparators(c.Number)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// NewTransactionID mints a reference such as TXN_K3Z9QW1AB.
func NewTransactionID() string {
	u := uuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < referenceLength {
		s = strings.Repeat("0", referenceLength-len(s)) + s
	}
	return referencePrefix + strings.ToUpper(s[len(s)-referenceLength:])
}
