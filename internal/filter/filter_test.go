package filter

import (
	"testing"
	"time"

	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(id, category string, bedrooms *int) models.UnitRecord {
	return models.NewUnitRecord(id, category, bedrooms, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func sampleInventory() models.Inventory {
	return models.NewInventory(
		unit("101", "A", models.IntPtr(1)),
		unit("102", "B", models.IntPtr(3)),
		unit("103", "a", models.IntPtr(2)),
		unit("104", "C", nil),
		unit("105", "", models.IntPtr(4)),
	)
}

func TestApply_NoFilterIsIdentity(t *testing.T) {
	inv := sampleInventory()
	out := Apply(inv, Config{})

	assert.Equal(t, inv, out)
	delete(out, "#101")
	assert.True(t, inv.Has("#101"), "input is not modified")
}

func TestApply_Category(t *testing.T) {
	out := Apply(sampleInventory(), New([]string{"a", " ", "unknown"}, nil))
	assert.Equal(t, []string{"#101", "#103", "#105"}, out.SortedIDs())
}

func TestApply_MinBedroomsExcludesUnknownSize(t *testing.T) {
	out := Apply(sampleInventory(), New(nil, models.IntPtr(2)))
	assert.Equal(t, []string{"#102", "#103", "#105"}, out.SortedIDs())
}

func TestApply_Composition(t *testing.T) {
	inv := sampleInventory()
	category := New([]string{"A", "C"}, nil)
	size := New(nil, models.IntPtr(2))

	sequential := Apply(Apply(inv, category), size)
	combined := Apply(inv, category.And(size))
	direct := Apply(inv, New([]string{"A", "C"}, models.IntPtr(2)))

	assert.Equal(t, sequential, combined)
	assert.Equal(t, sequential, direct)
	assert.Equal(t, []string{"#103"}, combined.SortedIDs())
}

func TestApply_EmptyCategoryListDisablesFilter(t *testing.T) {
	c := New([]string{}, nil)
	assert.False(t, c.Active())
	assert.Nil(t, c.Categories())
}

func TestApplyDelta_UsesStoredAttributes(t *testing.T) {
	previous := models.NewInventory(unit("101", "A", models.IntPtr(1)), unit("102", "B", models.IntPtr(3)))
	current := models.NewInventory(unit("102", "B", models.IntPtr(3)), unit("103", "A", models.IntPtr(2)))
	delta := models.Delta{
		Added:   []models.UnitRecord{current["#103"]},
		Removed: []models.UnitRecord{previous["#101"]},
	}
	minSize := New(nil, models.IntPtr(2))

	filtered := ApplyDelta(delta, minSize)

	require.Len(t, filtered.Added, 1)
	assert.Equal(t, "#103", filtered.Added[0].ID)
	assert.Empty(t, filtered.Removed, "removed #101 has size 1 and is filtered like any member")
	assert.NotEqual(t, []string{"#101"}, filtered.RemovedIDs())
	assert.Equal(t, []string{"#102", "#103"}, Apply(current, minSize).SortedIDs())
}

func TestNewConfig(t *testing.T) {
	c := NewConfig(config.NewDefaultFilterConfig())
	min, ok := c.MinBedrooms()
	assert.True(t, ok)
	assert.Equal(t, 2, min)
	assert.Nil(t, c.Categories())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "all units", Config{}.Describe())
	assert.Equal(t, "Plans A, B; 2+ bedrooms", New([]string{"b", "a"}, models.IntPtr(2)).Describe())
	assert.Equal(t, "3+ bedrooms", New(nil, models.IntPtr(3)).Describe())
}

func TestAnd_TakesStricterMinimum(t *testing.T) {
	c := New([]string{"A", "B"}, models.IntPtr(1)).And(New([]string{"B"}, models.IntPtr(3)))
	min, _ := c.MinBedrooms()
	assert.Equal(t, 3, min)
	assert.Equal(t, []string{"B"}, c.Categories())
}
