package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/unitwatch/internal/models"
)

const (
	// TimestampLayout is the stamp appended to every notification body.
	TimestampLayout = "2006-01-02 15:04:05"

	titleUpdate  = "🏠 Apartment Update"
	titleStarted = "🏠 Apartment Monitor Started"

	maxTitleIDs = 3
	lineBreak   = "<br>"
)

// Formatter builds notification messages. The clock is injectable for tests.
type Formatter struct {
	now func() time.Time
}

// NewFormatter creates a formatter. A nil now uses time.Now.
func NewFormatter(now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{now: now}
}

// ChangeNotification names the changed units in the title and restates the whole
// current inventory in the body.
func (f *Formatter) ChangeNotification(delta models.Delta, current models.Inventory) Message {
	var parts []string
	if len(delta.Added) > 0 {
		parts = append(parts, "✨ NEW: "+abbreviateIDs(delta.AddedIDs()))
	}
	if len(delta.Removed) > 0 {
		parts = append(parts, "❌ GONE: "+abbreviateIDs(delta.RemovedIDs()))
	}
	title := titleUpdate
	if len(parts) > 0 {
		title = strings.Join(parts, " | ")
	}

	lines := []string{
		fmt.Sprintf("<b>📊 ALL AVAILABLE UNITS (%d total)</b>:", current.Len()),
		"",
	}
	lines = append(lines, categoryLines(current, "")...)
	lines = append(lines, "", f.stamp())

	return Message{Title: title, Body: strings.Join(lines, lineBreak)}
}

// StartedNotification lists the first observed inventory. categories names the
// floor plan filter in display order and may be empty.
func (f *Formatter) StartedNotification(current models.Inventory, categories []string) Message {
	heading := fmt.Sprintf("✨ <b>Found %d available units</b>:", current.Len())
	if len(categories) > 0 {
		heading = fmt.Sprintf("✨ <b>Found %d available units (Floor Plans: %s)</b>:",
			current.Len(), strings.Join(categories, ", "))
	}

	lines := []string{heading}
	lines = append(lines, categoryLines(current, "  ")...)
	lines = append(lines, "", f.stamp())

	return Message{Title: titleStarted, Body: strings.Join(lines, lineBreak)}
}

func (f *Formatter) stamp() string {
	return "🕐 " + f.now().Format(TimestampLayout)
}

func categoryLines(inv models.Inventory, indent string) []string {
	groups := inv.GroupByCategory()
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("%sFloor Plan %s: %s", indent, g.Category, strings.Join(g.IDs, ", ")))
	}
	return lines
}

// abbreviateIDs lists up to three ids, then "+N more".
func abbreviateIDs(ids []string) string {
	if len(ids) <= maxTitleIDs {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(ids[:maxTitleIDs], ", "), len(ids)-maxTitleIDs)
}
