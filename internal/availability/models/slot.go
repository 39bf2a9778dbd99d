package models

import (
	"time"

	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
	"carebook/pkg/platform/validate"
)

// Slot is a window on one date during which a doctor accepts up to
// MaxPatients bookings.
//
// Invariants:
//   - StartTime < EndTime, both HH:MM
//   - MaxPatients >= 1
//   - 0 <= CurrentPatients <= MaxPatients
type Slot struct {
	ID              id.SlotID `json:"id"`
	DoctorID        id.UserID `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	Date            string    `json:"date"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
	MaxPatients     int       `json:"maxPatients"`
	CurrentPatients int       `json:"currentPatients"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SlotDraft is the publish input.
type SlotDraft struct {
	Date        string `json:"date" validate:"required,date"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" validate:"required,clock"`
	MaxPatients int    `json:"maxPatients" validate:"gte=1"`
}

func (s *Slot) HasRoom() bool {
	return s.CurrentPatients < s.MaxPatients
}

func (s *Slot) Remaining() int {
	return max(s.MaxPatients-s.CurrentPatients, 0)
}

// Covers reports whether a booking for doctor at date and clock falls in
// this slot: same doctor and date, StartTime <= clock < EndTime. Clocks are
// compared as times of day, so "9:30" and "09:30" are the same minute.
func (s *Slot) Covers(doctorID id.UserID, date, clock string) bool {
	if s.DoctorID != doctorID || s.Date != date {
		return false
	}
	start, okStart := minuteOfDay(s.StartTime)
	end, okEnd := minuteOfDay(s.EndTime)
	at, okAt := minuteOfDay(clock)
	return okStart && okEnd && okAt && start <= at && at < end
}

func minuteOfDay(clock string) (int, bool) {
	t, err := time.Parse(validate.ClockLayout, clock)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// CanReserve checks that one more patient fits.
func (s *Slot) CanReserve() error {
	if !s.HasRoom() {
		return dErrors.New(dErrors.CodeCapacityExceeded, "slot is fully booked")
	}
	return nil
}

// ApplyReservation takes one place. Call CanReserve first.
func (s *Slot) ApplyReservation() {
	s.CurrentPatients++
}

// Reserve validates and applies a reservation in one call.
func (s *Slot) Reserve() error {
	if err := s.CanReserve(); err != nil {
		return err
	}
	s.ApplyReservation()
	return nil
}

// Release gives one place back, never going below zero.
func (s *Slot) Release() {
	if s.CurrentPatients > 0 {
		s.CurrentPatients--
	}
}
