package models

import (
	"strings"
	"time"
)

// UnknownCategory is stored when a unit card carries no floor plan.
const UnknownCategory = "UNKNOWN"

// UnitRecord is one unit observed as available.
type UnitRecord struct {
	ID         string    `json:"unit"`
	Category   string    `json:"floor_plan"`
	Bedrooms   *int      `json:"bedrooms"`
	ObservedAt time.Time `json:"last_seen"`
}

// NewUnitRecord builds a record with normalized id and category.
func NewUnitRecord(id, category string, bedrooms *int, observedAt time.Time) UnitRecord {
	return UnitRecord{
		ID:         NormalizeID(id),
		Category:   NormalizeCategory(category),
		Bedrooms:   bedrooms,
		ObservedAt: observedAt,
	}
}

// Normalized returns a copy with id and category normalized and bedrooms detached.
func (r UnitRecord) Normalized() UnitRecord {
	out := r
	out.ID = NormalizeID(r.ID)
	out.Category = NormalizeCategory(r.Category)
	if r.Bedrooms != nil {
		v := *r.Bedrooms
		out.Bedrooms = &v
	}
	return out
}

// NormalizeID trims the id and prefixes it with '#'. Empty stays empty.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "#") {
		return id
	}
	return "#" + id
}

// NormalizeCategory uppercases the floor plan code, UNKNOWN when empty.
func NormalizeCategory(category string) string {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category == "" {
		return UnknownCategory
	}
	return category
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
