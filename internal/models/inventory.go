package models

import (
	"maps"
	"slices"
)

// Inventory maps unit id to record: every unit available at one observation.
type Inventory map[string]UnitRecord

// NewInventory indexes records by id. A later duplicate id replaces the earlier one.
func NewInventory(records ...UnitRecord) Inventory {
	inv := make(Inventory, len(records))
	for _, r := range records {
		inv[r.ID] = r
	}
	return inv
}

// Len returns the number of units.
func (inv Inventory) Len() int {
	return len(inv)
}

// IsEmpty reports whether no unit is available.
func (inv Inventory) IsEmpty() bool {
	return len(inv) == 0
}

// Has reports whether id is present.
func (inv Inventory) Has(id string) bool {
	_, ok := inv[id]
	return ok
}

// SortedIDs returns all ids ascending.
func (inv Inventory) SortedIDs() []string {
	return slices.Sorted(maps.Keys(inv))
}

// Records returns all records sorted by id.
func (inv Inventory) Records() []UnitRecord {
	out := make([]UnitRecord, 0, len(inv))
	for _, id := range inv.SortedIDs() {
		out = append(out, inv[id])
	}
	return out
}

// Clone returns a shallow copy of the map.
func (inv Inventory) Clone() Inventory {
	if inv == nil {
		return Inventory{}
	}
	return maps.Clone(inv)
}

// CategoryGroup holds the ids of one floor plan.
type CategoryGroup struct {
	Category string
	IDs      []string
}

// GroupByCategory returns groups sorted by category, ids sorted within each group.
func (inv Inventory) GroupByCategory() []CategoryGroup {
	byCategory := make(map[string][]string)
	for id, r := range inv {
		byCategory[r.Category] = append(byCategory[r.Category], id)
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for _, category := range slices.Sorted(maps.Keys(byCategory)) {
		ids := byCategory[category]
		slices.Sort(ids)
		groups = append(groups, CategoryGroup{Category: category, IDs: ids})
	}
	return groups
}

// Categories returns the distinct categories, sorted.
func (inv Inventory) Categories() []string {
	groups := inv.GroupByCategory()
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Category)
	}
	return out
}
