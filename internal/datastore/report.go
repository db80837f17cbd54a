package datastore

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	reportRule      = "================================================================================"
	reportTimestamp = "2006-01-02 15:04:05"
)

// ReportRenderer renders the operator-facing text form of an inventory.
type ReportRenderer struct {
	now func() time.Time
}

// NewReportRenderer creates a renderer stamping reports with now().
func NewReportRenderer(now func() time.Time) *ReportRenderer {
	if now == nil {
		now = time.Now
	}
	return &ReportRenderer{now: now}
}

// Render returns a header with the update time and total, then one section per floor plan.
func (r *ReportRenderer) Render(inv models.Inventory) string {
	var sb strings.Builder
	sb.WriteString(reportRule + "\n")
	sb.WriteString("AVAILABLE APARTMENTS\n")
	fmt.Fprintf(&sb, "Last Updated: %s\n", r.now().Format(reportTimestamp))
	fmt.Fprintf(&sb, "Total Units: %d\n", inv.Len())
	sb.WriteString(reportRule + "\n\n")

	if inv.IsEmpty() {
		sb.WriteString("No units currently available.\n")
		return sb.String()
	}

	for _, group := range inv.GroupByCategory() {
		fmt.Fprintf(&sb, "Floor Plan %s (%d units):\n", group.Category, len(group.IDs))
		for _, id := range group.IDs {
			fmt.Fprintf(&sb, "  %s\n", id)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ReportChange counts line-level edits between two renderings, header excluded.
type ReportChange struct {
	LinesAdded   int
	LinesRemoved int
}

// Changed reports whether any body line differs.
func (c ReportChange) Changed() bool {
	return c.LinesAdded > 0 || c.LinesRemoved > 0
}

// SummarizeReportChange runs a line-mode diff over the report bodies.
func SummarizeReportChange(previous, current string) ReportChange {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(reportBody(previous), reportBody(current))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var change ReportChange
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			change.LinesAdded += n
		case diffmatchpatch.DiffDelete:
			change.LinesRemoved += n
		}
	}
	return change
}

// reportBody drops everything up to the second rule line.
func reportBody(report string) string {
	parts := strings.SplitN(report, reportRule+"\n", 3)
	if len(parts) == 3 {
		return parts[2]
	}
	return report
}
