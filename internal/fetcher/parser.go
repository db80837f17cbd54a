package fetcher

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	unitCardSelector          = "article.spaces-unit"
	availableUnitCardSelector = `article.spaces-unit[data-spaces-available="true"]`

	attrUnit     = "data-spaces-unit"
	attrPlanName = "data-spaces-sort-plan-name"
	attrBedrooms = "data-spaces-sort-bed"
)

var ariaUnitPattern = regexp.MustCompile(`Unit\s*(\w+)`)

// UnitParser extracts available unit cards from rendered listing HTML.
type UnitParser struct {
	now    func() time.Time
	logger zerolog.Logger
}

// NewUnitParser creates a parser stamping records with the current time.
func NewUnitParser(logger zerolog.Logger) *UnitParser {
	return &UnitParser{
		now:    time.Now,
		logger: logger.With().Str("component", "UnitParser").Logger(),
	}
}

// WithClock replaces the observation clock.
func (p *UnitParser) WithClock(now func() time.Time) *UnitParser {
	p.now = now
	return p
}

// ParseHTML parses an HTML document.
func (p *UnitParser) ParseHTML(html []byte) (models.Inventory, error) {
	return p.Parse(bytes.NewReader(html))
}

// Parse reads HTML from r. A page without unit cards yields an empty inventory.
func (p *UnitParser) Parse(r io.Reader) (models.Inventory, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse listing HTML")
	}
	return p.ParseDocument(doc), nil
}

// ParseDocument collects every available unit card. Cards without an id are skipped.
func (p *UnitParser) ParseDocument(doc *goquery.Document) models.Inventory {
	observedAt := p.now()
	inv := models.Inventory{}
	skipped := 0

	doc.Find(availableUnitCardSelector).Each(func(i int, s *goquery.Selection) {
		id := unitID(s)
		if id == "" {
			skipped++
			return
		}
		record := models.NewUnitRecord(id, s.AttrOr(attrPlanName, ""), bedrooms(s), observedAt)
		inv[record.ID] = record
	})

	p.logger.Debug().
		Int("cards", doc.Find(unitCardSelector).Length()).
		Int("available_units", inv.Len()).
		Int("skipped", skipped).
		Msg("Parsed unit cards")
	return inv
}

func unitID(s *goquery.Selection) string {
	if id := strings.TrimSpace(s.AttrOr(attrUnit, "")); id != "" {
		return id
	}
	if m := ariaUnitPattern.FindStringSubmatch(s.AttrOr("aria-label", "")); m != nil {
		return m[1]
	}
	return ""
}

func bedrooms(s *goquery.Selection) *int {
	raw, ok := s.Attr(attrBedrooms)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}
