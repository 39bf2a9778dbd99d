package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
)

// Appointment is a patient's booking with a doctor.
//
// Invariants:
//   - Status moves only scheduled -> completed | cancelled; terminal states never change
//   - PaymentStatus moves unpaid -> paid at most once, except when a failed
//     ledger append compensates it back
//   - SlotID names the slot whose capacity the booking consumed, empty when none
type Appointment struct {
	ID            id.AppointmentID `json:"id"`
	PatientID     id.UserID        `json:"patientId"`
	DoctorID      id.UserID        `json:"doctorId"`
	PatientName   string           `json:"patientName"`
	DoctorName    string           `json:"doctorName"`
	Date          string           `json:"date"`
	Time          string           `json:"time"`
	Status        Status           `json:"status"`
	Notes         string           `json:"notes"`
	Amount        decimal.Decimal  `json:"amount"`
	PaymentStatus PaymentStatus    `json:"paymentStatus"`
	SlotID        id.SlotID        `json:"slotId,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// BookingRequest is the booking input. A zero Fee means the default fee.
type BookingRequest struct {
	PatientID id.UserID       `json:"patientId" validate:"required"`
	DoctorID  id.UserID       `json:"doctorId" validate:"required"`
	Date      string          `json:"date" validate:"required,date"`
	Time      string          `json:"time" validate:"required,clock"`
	Notes     string          `json:"notes"`
	Fee       decimal.Decimal `json:"fee"`
}

func (a *Appointment) IsPaid() bool {
	return a.PaymentStatus == PaymentPaid
}

// CanTransition checks the status machine.
func (a *Appointment) CanTransition(next Status) error {
	if !a.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("appointment cannot move from %s to %s", a.Status, next))
	}
	return nil
}

// ApplyTransition sets the new status. Call CanTransition first.
func (a *Appointment) ApplyTransition(next Status, now time.Time) {
	a.Status = next
	a.UpdatedAt = now
}

// Transition validates and applies a status change in one call.
func (a *Appointment) Transition(next Status, now time.Time) error {
	if err := a.CanTransition(next); err != nil {
		return err
	}
	a.ApplyTransition(next, now)
	return nil
}

func (a *Appointment) CanMarkPaid() error {
	if a.IsPaid() {
		return dErrors.New(dErrors.CodeAlreadyPaid, "appointment is already paid")
	}
	return nil
}

func (a *Appointment) ApplyPaid(now time.Time) {
	a.PaymentStatus = PaymentPaid
	a.UpdatedAt = now
}

// ApplyUnpaid reverts a payment flag whose ledger entry could not be written.
func (a *Appointment) ApplyUnpaid(now time.Time) {
	a.PaymentStatus = PaymentUnpaid
	a.UpdatedAt = now
}
