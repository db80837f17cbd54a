// Package httpclient is a bounded, retrying HTTP client for notification providers.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClient wraps net/http.Client with default headers, size limits and retries.
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	logger       zerolog.Logger
	retryHandler *RetryHandler
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", config.Proxy).Msg("HTTP client configured with proxy")
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	if !config.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if config.MaxRedirects > 0 {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= config.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
			}
			return nil
		}
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("follow_redirects", config.FollowRedirects).
		Bool("http2_enabled", config.EnableHTTP2).
		Msg("HTTP client created")

	return &HTTPClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Do performs an HTTP request, with retries if a retry handler is configured.
func (c *HTTPClient) Do(req *HTTPRequest) (*HTTPResponse, error) {
	if c.retryHandler != nil {
		ctx := req.Context
		if ctx == nil {
			ctx = context.Background()
		}
		return c.retryHandler.DoWithRetry(ctx, c.do, req)
	}
	return c.do(req)
}

// PostJSON sends payload as JSON and returns the response, non-2xx as *errorwrapper.HTTPError.
func (c *HTTPClient) PostJSON(ctx context.Context, targetURL string, payload any) (*HTTPResponse, error) {
	req, err := NewJSONRequest(ctx, targetURL, payload)
	if err != nil {
		return nil, err
	}
	return c.expectSuccess(c.Do(req))
}

// PostForm sends form values and returns the response, non-2xx as *errorwrapper.HTTPError.
func (c *HTTPClient) PostForm(ctx context.Context, targetURL string, values url.Values) (*HTTPResponse, error) {
	return c.expectSuccess(c.Do(NewFormRequest(ctx, targetURL, values)))
}

func (c *HTTPClient) expectSuccess(resp *HTTPResponse, err error) (*HTTPResponse, error) {
	if err != nil {
		return resp, err
	}
	if !resp.IsSuccess() {
		return resp, errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, truncateBody(resp.Body), resp.URL)
	}
	return resp, nil
}

func (c *HTTPClient) do(req *HTTPRequest) (*HTTPResponse, error) {
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create HTTP request")
	}

	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(redactURL(req.URL), "request failed", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.config.MaxResponseSize > 0 {
		reader = io.LimitReader(resp.Body, c.config.MaxResponseSize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errorwrapper.NewNetworkError(redactURL(req.URL), "failed to read response body", err)
	}

	httpResp := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
		Body:       body,
		URL:        redactURL(req.URL),
	}
	for key, values := range resp.Header {
		if len(values) > 0 {
			httpResp.Headers[key] = values[0]
		}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", redactURL(req.URL)).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("HTTP request completed")

	return httpResp, nil
}

// redactURL keeps scheme and host only. Provider tokens travel in paths and queries.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Scheme + "://" + u.Host
}
