package fetcher

import (
	"os"
	"testing"
	"time"

	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parsedAt = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestParser() *UnitParser {
	return NewUnitParser(zerolog.Nop()).WithClock(func() time.Time { return parsedAt })
}

func TestUnitParser_Fixture(t *testing.T) {
	html, err := os.ReadFile("testdata/units.html")
	require.NoError(t, err)

	inv, err := newTestParser().ParseHTML(html)
	require.NoError(t, err)

	assert.Equal(t, []string{"#433", "#612", "#758", "#901"}, inv.SortedIDs())

	assert.Equal(t, models.UnitRecord{ID: "#758", Category: "B2", Bedrooms: models.IntPtr(2), ObservedAt: parsedAt}, inv["#758"])
	assert.Equal(t, "A1", inv["#612"].Category)
	assert.Equal(t, models.UnknownCategory, inv["#901"].Category, "empty plan name")
	assert.Nil(t, inv["#901"].Bedrooms, "non-numeric bed count")
	assert.Nil(t, inv["#433"].Bedrooms, "missing bed attribute")
	assert.False(t, inv.Has("#100"), "unavailable card")
}

func TestUnitParser_EmptyPage(t *testing.T) {
	inv, err := newTestParser().ParseHTML([]byte("<html><body><p>Loading…</p></body></html>"))
	require.NoError(t, err)
	assert.NotNil(t, inv)
	assert.Empty(t, inv)
}

func TestUnitsURL(t *testing.T) {
	u, err := UnitsURL("https://example.com/floorplans/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/floorplans/?spaces_tab=unit", u)

	u, err = UnitsURL("https://example.com/floorplans/?beds=2")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/floorplans/?beds=2&spaces_tab=unit", u)

	u, err = UnitsURL("https://example.com/?spaces_tab=unit")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/?spaces_tab=unit", u)

	_, err = UnitsURL("floorplans")
	assert.Error(t, err)
}

func TestLauncherFlag(t *testing.T) {
	name, value := launcherFlag("--lang=en-US")
	assert.Equal(t, "lang", string(name))
	assert.Equal(t, "en-US", value)

	name, value = launcherFlag("mute-audio")
	assert.Equal(t, "mute-audio", string(name))
	assert.Empty(t, value)
}
