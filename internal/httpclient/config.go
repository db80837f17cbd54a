package httpclient

import (
	"net/http"
	"time"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout             time.Duration     // Request timeout
	UserAgent           string            // User-Agent header for every request
	FollowRedirects     bool              // Whether to follow redirects
	MaxRedirects        int               // Maximum number of redirects to follow
	Proxy               string            // Proxy URL, environment proxies when empty
	CustomHeaders       map[string]string // Custom headers to add to all requests
	MaxIdleConns        int               // Maximum idle connections
	MaxIdleConnsPerHost int               // Maximum idle connections per host
	IdleConnTimeout     time.Duration     // Idle connection timeout
	TLSHandshakeTimeout time.Duration     // TLS handshake timeout
	DialTimeout         time.Duration     // Connection dial timeout
	KeepAlive           time.Duration     // Keep-alive duration
	EnableHTTP2         bool              // Enable HTTP/2 support
	MaxResponseSize     int64             // Response bodies are cut at this size, 0 for no limit
}

// DefaultHTTPClientConfig returns the default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             10 * time.Second,
		UserAgent:           "unitwatch/1.0",
		FollowRedirects:     true,
		MaxRedirects:        5,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		EnableHTTP2:         true,
		MaxResponseSize:     1 << 20,
		CustomHeaders: map[string]string{
			"Accept": "application/json, */*",
		},
	}
}

// RetryHandlerConfig configuration for retry handler
type RetryHandlerConfig struct {
	MaxRetries       int           `json:"max_retries"`
	BaseDelay        time.Duration `json:"base_delay"`
	MaxDelay         time.Duration `json:"max_delay"`
	EnableJitter     bool          `json:"enable_jitter"`
	RetryStatusCodes []int         `json:"retry_status_codes"`
}

// DefaultRetryHandlerConfig retries throttling and gateway failures twice.
func DefaultRetryHandlerConfig() RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:   2,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     3 * time.Second,
		EnableJitter: true,
		RetryStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}
