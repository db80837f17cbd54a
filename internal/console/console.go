// Package console renders operator narration: banners, inventories and change blocks.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	ruleWidth  = 80
	idsPerLine = 8
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
)

// Printer writes styled narration to one writer. Safe for concurrent use.
type Printer struct {
	mu  sync.Mutex
	out io.Writer

	accent  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	bold    lipgloss.Style
}

// New creates a printer on out. noColor forces plain ASCII output.
func New(out io.Writer, noColor bool) *Printer {
	r := lipgloss.NewRenderer(out)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		out:     out,
		accent:  r.NewStyle().Foreground(purple),
		success: r.NewStyle().Foreground(green),
		failure: r.NewStyle().Foreground(red),
		warn:    r.NewStyle().Foreground(yellow),
		muted:   r.NewStyle().Foreground(dim),
		bold:    r.NewStyle().Bold(true),
	}
}

// Banner prints a title between two rules followed by label/value lines.
func (p *Printer) Banner(title string, pairs ...Pair) {
	var sb strings.Builder
	sb.WriteString(p.accent.Render(rule("=")) + "\n")
	sb.WriteString(p.bold.Render(title) + "\n")
	sb.WriteString(p.accent.Render(rule("=")) + "\n")
	sb.WriteString(p.keyValues("  ", pairs...))
	p.write(sb.String())
}

// Pair is one label/value line of a banner.
type Pair struct {
	key   string
	value string
}

// KV creates a Pair.
func KV(key, value string) Pair {
	return Pair{key: key, value: value}
}

func (p *Printer) keyValues(indent string, pairs ...Pair) string {
	maxLen := 0
	for _, kv := range pairs {
		maxLen = max(maxLen, len(kv.key))
	}
	var sb strings.Builder
	for _, kv := range pairs {
		label := fmt.Sprintf("%-*s", maxLen+1, kv.key+":")
		sb.WriteString(indent + p.muted.Render(label) + " " + kv.value + "\n")
	}
	return sb.String()
}

// Inventory prints every unit grouped by floor plan, eight ids per line.
func (p *Printer) Inventory(inv models.Inventory) {
	var sb strings.Builder
	sb.WriteString("\n" + rule("=") + "\n")
	sb.WriteString(p.bold.Render(fmt.Sprintf("📊 Available Units (%d total)", inv.Len())) + "\n")
	sb.WriteString(rule("=") + "\n")

	if inv.IsEmpty() {
		sb.WriteString(p.warn.Render("⚠️  No units currently available.") + "\n")
		p.write(sb.String())
		return
	}

	for _, g := range inv.GroupByCategory() {
		sb.WriteString("\n" + p.accent.Render(fmt.Sprintf("🏠 Floor Plan %s (%d units):", g.Category, len(g.IDs))) + "\n")
		for _, row := range chunk(g.IDs, idsPerLine) {
			sb.WriteString("   " + strings.Join(row, ", ") + "\n")
		}
	}
	p.write(sb.String())
}

// Changes prints the added and removed units of d. An empty delta prints nothing.
func (p *Printer) Changes(d models.Delta) {
	if d.IsEmpty() {
		return
	}

	var sb strings.Builder
	sb.WriteString("\n🔔 " + rule("=")[:ruleWidth-2] + "\n")
	sb.WriteString(p.bold.Render("  CHANGES DETECTED!") + "\n")
	sb.WriteString(rule("=") + "\n")

	if len(d.Added) > 0 {
		sb.WriteString("\n" + p.success.Render(fmt.Sprintf("✨ NEW UNITS AVAILABLE (%d):", len(d.Added))) + "\n")
		sb.WriteString(groupLines(d.Added))
	}
	if len(d.Removed) > 0 {
		sb.WriteString("\n" + p.failure.Render(fmt.Sprintf("❌ UNITS NO LONGER AVAILABLE (%d):", len(d.Removed))) + "\n")
		sb.WriteString(groupLines(d.Removed))
	}
	sb.WriteString("\n" + rule("=") + "\n")
	p.write(sb.String())
}

// Info prints a neutral status line.
func (p *Printer) Info(format string, a ...any) {
	p.write(fmt.Sprintf(format, a...) + "\n")
}

// Success prints a line prefixed with a check mark.
func (p *Printer) Success(format string, a ...any) {
	p.write(p.success.Render("✓") + " " + fmt.Sprintf(format, a...) + "\n")
}

// Warn prints a line prefixed with a warning sign.
func (p *Printer) Warn(format string, a ...any) {
	p.write(p.warn.Render("⚠️ ") + " " + fmt.Sprintf(format, a...) + "\n")
}

// Error prints a line prefixed with a cross.
func (p *Printer) Error(format string, a ...any) {
	p.write(p.failure.Render("❌") + " " + fmt.Sprintf(format, a...) + "\n")
}

// Muted prints a dimmed line.
func (p *Printer) Muted(format string, a ...any) {
	p.write(p.muted.Render(fmt.Sprintf(format, a...)) + "\n")
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, s)
}

func groupLines(records []models.UnitRecord) string {
	var sb strings.Builder
	for _, g := range models.NewInventory(records...).GroupByCategory() {
		sb.WriteString(fmt.Sprintf("   Floor Plan %s: %s\n", g.Category, strings.Join(g.IDs, ", ")))
	}
	return sb.String()
}

func chunk(ids []string, size int) [][]string {
	var rows [][]string
	for start := 0; start < len(ids); start += size {
		rows = append(rows, ids[start:min(start+size, len(ids))])
	}
	return rows
}

func rule(ch string) string {
	return strings.Repeat(ch, ruleWidth)
}
