package audit

import (
	"context"
	"time"

	id "carebook/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers changes to the clinic record: registrations,
	// bookings, status changes, payments.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication failures and integrity alerts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// UserID is the user the event is about (patient, doctor, registrant).
	UserID  id.UserID `json:"user_id,omitempty"`
	Subject string    `json:"subject,omitempty"`
	Action  string    `json:"action"`
	// Decision carries the outcome for events that can fail (auth_failed,
	// booking rejected) or the new state for transitions.
	Decision    string `json:"decision,omitempty"`
	Reason      string `json:"reason,omitempty"`
	OperationID string `json:"operation_id,omitempty"`
	// ActorID tracks who performed the action when different from UserID,
	// e.g. a doctor completing a patient's appointment.
	ActorID id.UserID `json:"actor_id,omitempty"`
}

type AuditEvent string

const (
	EventUserRegistered         AuditEvent = "user_registered"
	EventUserSeeded             AuditEvent = "user_seeded"
	EventAuthSucceeded          AuditEvent = "auth_succeeded"
	EventAuthFailed             AuditEvent = "auth_failed"
	EventSlotPublished          AuditEvent = "slot_published"
	EventCapacityReserved       AuditEvent = "capacity_reserved"
	EventCapacityReleased       AuditEvent = "capacity_released"
	EventCapacityExceeded       AuditEvent = "capacity_exceeded"
	EventAppointmentBooked      AuditEvent = "appointment_booked"
	EventAppointmentCompleted   AuditEvent = "appointment_completed"
	EventAppointmentCancelled   AuditEvent = "appointment_cancelled"
	EventPaymentCompleted       AuditEvent = "payment_completed"
	EventPaymentRejected        AuditEvent = "payment_rejected"
	EventProgramPublished       AuditEvent = "program_published"
	EventProgramUpdated         AuditEvent = "program_updated"
	EventProgramDeactivated     AuditEvent = "program_deactivated"
	EventProgramEnrolled        AuditEvent = "program_enrolled"
	EventProgramWithdrawn       AuditEvent = "program_withdrawn"
	EventStorageCorrupt         AuditEvent = "storage_corrupt"
	EventStorageConflictRetried AuditEvent = "storage_conflict_retried"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserRegistered:       CategoryCompliance,
	EventUserSeeded:           CategoryCompliance,
	EventAppointmentBooked:    CategoryCompliance,
	EventAppointmentCompleted: CategoryCompliance,
	EventAppointmentCancelled: CategoryCompliance,
	EventPaymentCompleted:     CategoryCompliance,

	EventAuthFailed:      CategorySecurity,
	EventPaymentRejected: CategorySecurity,
	EventStorageCorrupt:  CategorySecurity,

	EventAuthSucceeded:          CategoryOperations,
	EventSlotPublished:          CategoryOperations,
	EventCapacityReserved:       CategoryOperations,
	EventCapacityReleased:       CategoryOperations,
	EventCapacityExceeded:       CategoryOperations,
	EventStorageConflictRetried: CategoryOperations,
	EventProgramPublished:       CategoryOperations,
	EventProgramUpdated:         CategoryOperations,
	EventProgramDeactivated:     CategoryOperations,
	EventProgramEnrolled:        CategoryOperations,
	EventProgramWithdrawn:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Appender is the write side shared by stores and fan-out sinks.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store persists audit events and answers the admin queries.
type Store interface {
	Appender
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
}
