// Package differ computes additions and removals between two inventories.
package differ

import (
	"slices"
	"strings"

	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/rs/zerolog"
)

// Diff compares current against previous by id only.
// Added records come from current, removed records from previous, both sorted by id.
// A shared id with changed attributes is not a change.
func Diff(current, previous models.Inventory) models.Delta {
	delta := models.Delta{
		Added:   []models.UnitRecord{},
		Removed: []models.UnitRecord{},
	}
	for id, r := range current {
		if !previous.Has(id) {
			delta.Added = append(delta.Added, r)
		}
	}
	for id, r := range previous {
		if !current.Has(id) {
			delta.Removed = append(delta.Removed, r)
		}
	}
	sortByID(delta.Added)
	sortByID(delta.Removed)
	return delta
}

func sortByID(records []models.UnitRecord) {
	slices.SortFunc(records, func(a, b models.UnitRecord) int {
		return strings.Compare(a.ID, b.ID)
	})
}

// InventoryDiffer wraps Diff with debug logging.
type InventoryDiffer struct {
	logger zerolog.Logger
}

// NewInventoryDiffer creates a differ logging under the InventoryDiffer component.
func NewInventoryDiffer(logger zerolog.Logger) *InventoryDiffer {
	return &InventoryDiffer{
		logger: logger.With().Str("component", "InventoryDiffer").Logger(),
	}
}

// Compare returns Diff(current, previous) and logs the counts.
func (d *InventoryDiffer) Compare(current, previous models.Inventory) models.Delta {
	delta := Diff(current, previous)
	d.logger.Debug().
		Int("current_units", current.Len()).
		Int("previous_units", previous.Len()).
		Int("added", len(delta.Added)).
		Int("removed", len(delta.Removed)).
		Msg("Inventory comparison completed")
	return delta
}
