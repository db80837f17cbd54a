package models

// Delta is the set difference between two inventories, both sides sorted by id.
type Delta struct {
	Added   []UnitRecord `json:"added"`
	Removed []UnitRecord `json:"removed"`
}

// IsEmpty reports whether nothing was added or removed.
func (d Delta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// AddedIDs returns the ids of added units in order.
func (d Delta) AddedIDs() []string {
	return recordIDs(d.Added)
}

// RemovedIDs returns the ids of removed units in order.
func (d Delta) RemovedIDs() []string {
	return recordIDs(d.Removed)
}

func recordIDs(records []UnitRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}
