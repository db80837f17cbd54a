package fetcher

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/models"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// StaticFetcher downloads the listing without running JavaScript.
type StaticFetcher struct {
	config    config.FetcherConfig
	url       string
	parser    *UnitParser
	logger    zerolog.Logger
	transport http.RoundTripper
	mutex     sync.Mutex
	options   []colly.CollectorOption
}

// NewStaticFetcher creates a colly-backed fetcher for unitsURL.
func NewStaticFetcher(cfg config.FetcherConfig, unitsURL string, parser *UnitParser, logger zerolog.Logger) *StaticFetcher {
	return &StaticFetcher{
		config:    cfg,
		url:       unitsURL,
		parser:    parser,
		logger:    logger.With().Str("component", "StaticFetcher").Logger(),
		transport: http.DefaultTransport,
	}
}

// WithTransport replaces the HTTP transport used by the collector.
func (sf *StaticFetcher) WithTransport(rt http.RoundTripper) *StaticFetcher {
	sf.transport = rt
	return sf
}

// Setup prepares the collector options once.
func (sf *StaticFetcher) Setup(ctx context.Context) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()

	if sf.options != nil {
		return nil
	}

	options := []colly.CollectorOption{
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	}
	if sf.config.UserAgent != "" {
		options = append(options, colly.UserAgent(sf.config.UserAgent))
	}
	sf.options = options
	sf.logger.Debug().Str("url", sf.url).Msg("Static fetcher ready")
	return nil
}

// Fetch downloads the page with a fresh collector and parses it. Non-2xx responses are errors.
func (sf *StaticFetcher) Fetch(ctx context.Context) (models.Inventory, error) {
	sf.mutex.Lock()
	options := sf.options
	sf.mutex.Unlock()
	if options == nil {
		return nil, ErrNotSetup
	}

	c := colly.NewCollector(options...)
	c.WithTransport(&contextTransport{ctx: ctx, base: sf.transport})
	if deadline, ok := ctx.Deadline(); ok {
		c.SetRequestTimeout(time.Until(deadline))
	}

	var (
		body     []byte
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = errorwrapper.NewHTTPErrorWithURL(r.StatusCode, err.Error(), sf.url)
			return
		}
		fetchErr = errorwrapper.NewNetworkError(sf.url, "request failed", err)
	})

	if err := c.Visit(sf.url); err != nil && fetchErr == nil {
		fetchErr = errorwrapper.NewNetworkError(sf.url, "request failed", err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return sf.parser.ParseHTML(body)
}

// Cleanup forgets the collector setup. Safe to call repeatedly.
func (sf *StaticFetcher) Cleanup() {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	sf.options = nil
}

// contextTransport binds every request to the fetch context.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
