// Package fetcher turns the listing page into an inventory of available units.
package fetcher

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/rs/zerolog"
)

// ErrNotSetup is returned by Fetch before a successful Setup.
var ErrNotSetup = errors.New("fetcher is not set up")

// Fetcher produces the current inventory.
// Setup and Cleanup are idempotent; Cleanup is safe when Setup failed or never ran.
type Fetcher interface {
	Setup(ctx context.Context) error
	Fetch(ctx context.Context) (models.Inventory, error)
	Cleanup()
}

// New returns the engine selected by cfg.Engine.
func New(cfg config.FetcherConfig, targetURL string, logger zerolog.Logger) (Fetcher, error) {
	unitsURL, err := UnitsURL(targetURL)
	if err != nil {
		return nil, err
	}
	parser := NewUnitParser(logger)

	switch cfg.Engine {
	case config.FetcherEngineBrowser, "":
		return NewBrowserFetcher(cfg, unitsURL, parser, logger), nil
	case config.FetcherEngineStatic:
		return NewStaticFetcher(cfg, unitsURL, parser, logger), nil
	default:
		return nil, errorwrapper.NewValidationError("engine", cfg.Engine, "unsupported fetcher engine")
	}
}

// UnitsURL appends spaces_tab=unit so the page opens on the units tab.
func UnitsURL(targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", errorwrapper.NewValidationError("target_url", targetURL, "target URL must be absolute")
	}
	if parsed.Query().Has("spaces_tab") {
		return targetURL, nil
	}
	sep := "?"
	if strings.Contains(targetURL, "?") {
		sep = "&"
	}
	return targetURL + sep + "spaces_tab=unit", nil
}
