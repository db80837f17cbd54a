// Package filter decides which units are worth a notification.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/models"
)

// Config is the immutable notification filter.
// A nil category set disables the category filter, a nil minimum the size filter.
type Config struct {
	categories  map[string]struct{}
	minBedrooms *int
}

// NewConfig builds a filter from application settings.
func NewConfig(cfg config.FilterConfig) Config {
	return New(cfg.FloorPlans, cfg.MinBedrooms)
}

// New builds a filter. Categories are normalized to uppercase; blanks are dropped.
func New(categories []string, minBedrooms *int) Config {
	var c Config
	for _, category := range categories {
		if strings.TrimSpace(category) == "" {
			continue
		}
		if c.categories == nil {
			c.categories = make(map[string]struct{})
		}
		c.categories[models.NormalizeCategory(category)] = struct{}{}
	}
	if minBedrooms != nil {
		v := *minBedrooms
		c.minBedrooms = &v
	}
	return c
}

// And returns a filter that keeps only units kept by both c and other.
func (c Config) And(other Config) Config {
	out := Config{minBedrooms: c.minBedrooms}
	switch {
	case c.categories == nil:
		out.categories = other.categories
	case other.categories == nil:
		out.categories = c.categories
	default:
		out.categories = make(map[string]struct{})
		for category := range c.categories {
			if _, ok := other.categories[category]; ok {
				out.categories[category] = struct{}{}
			}
		}
	}
	if other.minBedrooms != nil && (out.minBedrooms == nil || *other.minBedrooms > *out.minBedrooms) {
		out.minBedrooms = other.minBedrooms
	}
	return out
}

// Active reports whether any predicate is configured.
func (c Config) Active() bool {
	return c.categories != nil || c.minBedrooms != nil
}

// Categories returns the allowed categories sorted, nil when unrestricted.
func (c Config) Categories() []string {
	if c.categories == nil {
		return nil
	}
	out := make([]string, 0, len(c.categories))
	for category := range c.categories {
		out = append(out, category)
	}
	slices.Sort(out)
	return out
}

// MinBedrooms returns the minimum size, or false when unrestricted.
func (c Config) MinBedrooms() (int, bool) {
	if c.minBedrooms == nil {
		return 0, false
	}
	return *c.minBedrooms, true
}

// Describe renders the filter for operators, e.g. "Plans A, B; 2+ bedrooms".
func (c Config) Describe() string {
	if !c.Active() {
		return "all units"
	}
	var parts []string
	if c.categories != nil {
		parts = append(parts, "Plans "+strings.Join(c.Categories(), ", "))
	}
	if c.minBedrooms != nil {
		parts = append(parts, fmt.Sprintf("%d+ bedrooms", *c.minBedrooms))
	}
	return strings.Join(parts, "; ")
}

// Match reports whether a single record passes every predicate.
func (c Config) Match(r models.UnitRecord) bool {
	if c.categories != nil {
		if _, ok := c.categories[models.NormalizeCategory(r.Category)]; !ok {
			return false
		}
	}
	if c.minBedrooms != nil {
		if r.Bedrooms == nil || *r.Bedrooms < *c.minBedrooms {
			return false
		}
	}
	return true
}

// Apply returns the units of inv that pass the filter. inv is not modified.
func Apply(inv models.Inventory, c Config) models.Inventory {
	out := make(models.Inventory, len(inv))
	for id, r := range inv {
		if c.Match(r) {
			out[id] = r
		}
	}
	return out
}

// ApplyDelta filters both sides of d with each member's own stored attributes.
// Order is preserved.
func ApplyDelta(d models.Delta, c Config) models.Delta {
	return models.Delta{
		Added:   matching(d.Added, c),
		Removed: matching(d.Removed, c),
	}
}

func matching(records []models.UnitRecord, c Config) []models.UnitRecord {
	out := make([]models.UnitRecord, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
