package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
)

// Category groups wellness programs in the catalog.
type Category string

const (
	CategoryFitness          Category = "fitness"
	CategoryNutrition        Category = "nutrition"
	CategoryMentalHealth     Category = "mental_health"
	CategoryPreventiveCare   Category = "preventive_care"
	CategoryRehabilitation   Category = "rehabilitation"
	CategoryWeightManagement Category = "weight_management"
	CategoryStressManagement Category = "stress_management"
	CategorySleepTherapy     Category = "sleep_therapy"
	CategoryYoga             Category = "yoga"
	CategoryMeditation       Category = "meditation"
)

// Categories lists every category in catalog order.
var Categories = []Category{
	CategoryFitness,
	CategoryNutrition,
	CategoryMentalHealth,
	CategoryPreventiveCare,
	CategoryRehabilitation,
	CategoryWeightManagement,
	CategoryStressManagement,
	CategorySleepTherapy,
	CategoryYoga,
	CategoryMeditation,
}

// ParseCategory accepts any letter case, so "MENTAL_HEALTH" and
// "mental_health" are the same category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown wellness category")
	}
	return c, nil
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Program is a wellness service offered to patients.
//
// Invariants:
//   - Price > 0, DurationMinutes > 0
//   - MaxParticipants == 0 means no participant limit
//   - 0 <= CurrentParticipants, and <= MaxParticipants when limited
//   - inactive programs stay stored but leave the catalog
type Program struct {
	ID                  id.ProgramID    `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Category            Category        `json:"category"`
	DurationMinutes     int             `json:"durationMinutes"`
	Price               decimal.Decimal `json:"price"`
	Active              bool            `json:"isActive"`
	MaxParticipants     int             `json:"maxParticipants"`
	CurrentParticipants int             `json:"currentParticipants"`
	Requirements        string          `json:"requirements,omitempty"`
	Benefits            string          `json:"benefits,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// ProgramDraft is the publish and update input.
type ProgramDraft struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	Category        string          `json:"category" validate:"required"`
	DurationMinutes int             `json:"durationMinutes" validate:"gte=1"`
	Price           decimal.Decimal `json:"price"`
	MaxParticipants int             `json:"maxParticipants" validate:"gte=0"`
	Requirements    string          `json:"requirements"`
	Benefits        string          `json:"benefits"`
}

func (p *Program) IsLimited() bool {
	return p.MaxParticipants > 0
}

func (p *Program) HasRoom() bool {
	return !p.IsLimited() || p.CurrentParticipants < p.MaxParticipants
}

// Matches reports whether keyword appears in the name or description,
// ignoring case. An empty keyword matches everything.
func (p *Program) Matches(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	return strings.Contains(strings.ToLower(p.Name), keyword) ||
		strings.Contains(strings.ToLower(p.Description), keyword)
}

// InPriceRange treats an invalid bound as open.
func (p *Program) InPriceRange(low, high decimal.NullDecimal) bool {
	if low.Valid && p.Price.LessThan(low.Decimal) {
		return false
	}
	if high.Valid && p.Price.GreaterThan(high.Decimal) {
		return false
	}
	return true
}

// CanEnroll checks that the program is listed and has a free place.
func (p *Program) CanEnroll() error {
	if !p.Active {
		return dErrors.New(dErrors.CodeNotFound, "wellness program not found")
	}
	if !p.HasRoom() {
		return dErrors.New(dErrors.CodeCapacityExceeded, "wellness program is full")
	}
	return nil
}

func (p *Program) ApplyEnrollment(now time.Time) {
	p.CurrentParticipants++
	p.UpdatedAt = now
}

// ApplyWithdrawal gives one place back, never going below zero.
func (p *Program) ApplyWithdrawal(now time.Time) {
	if p.CurrentParticipants > 0 {
		p.CurrentParticipants--
	}
	p.UpdatedAt = now
}

// CanSetParticipants accepts 0..MaxParticipants, or any non-negative count
// when the program is unlimited.
func (p *Program) CanSetParticipants(n int) error {
	if n < 0 || (p.IsLimited() && n > p.MaxParticipants) {
		return dErrors.Validation("invalid participant count", map[string]string{
			"currentParticipants": "must be between 0 and maxParticipants",
		})
	}
	return nil
}

func (p *Program) ApplyParticipants(n int, now time.Time) {
	p.CurrentParticipants = n
	p.UpdatedAt = now
}

// ApplyDraft overwrites the editable fields. The participant count is kept.
func (p *Program) ApplyDraft(d ProgramDraft, category Category, now time.Time) {
	p.Name = strings.TrimSpace(d.Name)
	p.Description = d.Description
	p.Category = category
	p.DurationMinutes = d.DurationMinutes
	p.Price = d.Price
	p.MaxParticipants = d.MaxParticipants
	p.Requirements = d.Requirements
	p.Benefits = d.Benefits
	p.UpdatedAt = now
}

// CanUpdate rejects a new limit below the current participant count.
func (p *Program) CanUpdate(d ProgramDraft) error {
	if d.MaxParticipants > 0 && d.MaxParticipants < p.CurrentParticipants {
		return dErrors.Validation("invalid wellness program", map[string]string{
			"maxParticipants": "below the current participant count",
		})
	}
	return nil
}

func (p *Program) ApplyDeactivation(now time.Time) {
	p.Active = false
	p.UpdatedAt = now
}
