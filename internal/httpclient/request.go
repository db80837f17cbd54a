package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
)

// HTTPRequest represents an HTTP request. Body is kept as bytes so retries can resend it.
type HTTPRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
	Context context.Context
}

// HTTPResponse represents an HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	URL        string // scheme and host of the request
}

// IsSuccess reports a 2xx status.
func (r *HTTPResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *HTTPResponse) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errorwrapper.WrapError(err, "failed to decode JSON response")
	}
	return nil
}

// NewJSONRequest builds a POST with payload encoded as JSON.
func NewJSONRequest(ctx context.Context, targetURL string, payload any) (*HTTPRequest, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to encode JSON payload")
	}
	return &HTTPRequest{
		URL:     targetURL,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json; charset=utf-8"},
		Body:    body,
		Context: ctx,
	}, nil
}

// NewFormRequest builds a POST with form-encoded values.
func NewFormRequest(ctx context.Context, targetURL string, values url.Values) *HTTPRequest {
	return &HTTPRequest{
		URL:     targetURL,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(values.Encode()),
		Context: ctx,
	}
}

// truncateBody shortens a body for error messages.
func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return strings.TrimSpace(s)
}
