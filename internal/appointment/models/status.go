package models

import dErrors "carebook/pkg/domain-errors"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown appointment status")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo allows scheduled -> completed and scheduled -> cancelled
// only.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusScheduled && (next == StatusCompleted || next == StatusCancelled)
}

func (s Status) String() string {
	return string(s)
}

// PaymentStatus tracks whether the appointment fee was paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

func (p PaymentStatus) String() string {
	return string(p)
}
