package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

const pageCloseTimeout = 5 * time.Second

// BrowserFetcher renders the listing in Chromium so client-side unit cards exist.
type BrowserFetcher struct {
	config   config.FetcherConfig
	url      string
	parser   *UnitParser
	logger   zerolog.Logger
	mutex    sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserFetcher creates a fetcher for unitsURL. Nothing is launched until Setup.
func NewBrowserFetcher(cfg config.FetcherConfig, unitsURL string, parser *UnitParser, logger zerolog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		config: cfg,
		url:    unitsURL,
		parser: parser,
		logger: logger.With().Str("component", "BrowserFetcher").Logger(),
	}
}

// Setup launches and connects the browser once.
func (bf *BrowserFetcher) Setup(ctx context.Context) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.browser != nil {
		return nil
	}

	l := launcher.New().Context(ctx).Headless(bf.config.Headless)
	if bf.config.ChromePath != "" {
		l = l.Bin(bf.config.ChromePath)
	}
	l = l.UserDataDir(bf.userDataDir())

	l = l.
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-default-apps").
		Set("window-size", fmt.Sprintf("%d,%d", bf.config.WindowWidth, bf.config.WindowHeight))
	for _, arg := range bf.config.BrowserArgs {
		name, value := launcherFlag(arg)
		if value == "" {
			l = l.Set(name)
		} else {
			l = l.Set(name, value)
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return errorwrapper.WrapError(err, "failed to launch browser")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return errorwrapper.WrapError(err, "failed to connect to browser")
	}

	bf.launcher = l
	bf.browser = browser
	bf.logger.Info().Bool("headless", bf.config.Headless).Msg("Browser started")
	return nil
}

// Fetch loads the units tab and parses the rendered HTML.
func (bf *BrowserFetcher) Fetch(ctx context.Context) (models.Inventory, error) {
	bf.mutex.Lock()
	browser := bf.browser
	bf.mutex.Unlock()
	if browser == nil {
		return nil, ErrNotSetup
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create page")
	}
	defer bf.releasePage(ctx, func(closeCtx context.Context) error {
		return page.Context(closeCtx).Close()
	})

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  bf.config.WindowWidth,
		Height: bf.config.WindowHeight,
	}); err != nil {
		bf.logger.Warn().Err(err).Msg("Failed to set viewport")
	}
	if bf.config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: bf.config.UserAgent}); err != nil {
			bf.logger.Warn().Err(err).Msg("Failed to set user agent")
		}
	}

	bf.logger.Debug().Str("url", bf.url).Msg("Loading listing page")
	if err := page.Navigate(bf.url); err != nil {
		return nil, errorwrapper.NewNetworkError(bf.url, "navigation failed", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, errorwrapper.NewNetworkError(bf.url, "page load failed", err)
	}

	bf.waitForUnits(ctx, page)

	html, err := page.HTML()
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to read page HTML")
	}
	return bf.parser.ParseHTML([]byte(html))
}

// releasePage closes the tab even when ctx has already expired. The close call
// gets its own bound so a hung browser cannot stall the loop.
func (bf *BrowserFetcher) releasePage(ctx context.Context, closeFn func(context.Context) error) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pageCloseTimeout)
	defer cancel()
	if err := closeFn(closeCtx); err != nil {
		bf.logger.Warn().Err(err).Msg("Failed to close page")
	}
}

// waitForUnits waits for the first unit card, falling back to a short fixed wait.
func (bf *BrowserFetcher) waitForUnits(ctx context.Context, page *rod.Page) {
	wait := time.Duration(bf.config.WaitForUnitsSecs) * time.Second
	if wait <= 0 {
		wait = time.Duration(config.DefaultWaitForUnitsSecs) * time.Second
	}
	if _, err := page.Timeout(wait).Element(unitCardSelector); err == nil {
		return
	}

	fallback := time.Duration(bf.config.FallbackWaitSecs) * time.Second
	bf.logger.Warn().Dur("waited", wait).Dur("fallback", fallback).Msg("Unit cards did not appear, using fallback wait")
	timer := time.NewTimer(fallback)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Cleanup closes the browser and removes its profile. Safe to call repeatedly.
func (bf *BrowserFetcher) Cleanup() {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.browser != nil {
		if err := bf.browser.Close(); err != nil {
			bf.logger.Warn().Err(err).Msg("Failed to close browser")
		}
		bf.browser = nil
	}
	if bf.launcher != nil {
		bf.launcher.Kill()
		bf.launcher.Cleanup()
		bf.launcher = nil
		bf.logger.Info().Msg("Browser stopped")
	}
}

func (bf *BrowserFetcher) userDataDir() string {
	if bf.config.UserDataDir != "" {
		return bf.config.UserDataDir
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("unitwatch-profile-%d", os.Getpid()))
}
