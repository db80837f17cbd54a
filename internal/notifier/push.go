package notifier

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/httpclient"
	"github.com/rs/zerolog"
)

// PushMethod selects one of the fixed push-provider wire formats.
type PushMethod string

const (
	PushPlus   PushMethod = config.PushMethodPushPlus
	ServerChan PushMethod = config.PushMethodServerChan
	WeChatWork PushMethod = config.PushMethodWork
)

// Valid reports whether m is one of the known methods.
func (m PushMethod) Valid() bool {
	switch m {
	case PushPlus, ServerChan, WeChatWork:
		return true
	default:
		return false
	}
}

// DefaultEndpoint returns the provider base URL.
func (m PushMethod) DefaultEndpoint() string {
	switch m {
	case PushPlus:
		return "http://www.pushplus.plus"
	case ServerChan:
		return "https://sctapi.ftqq.com"
	case WeChatWork:
		return "https://qyapi.weixin.qq.com"
	default:
		return ""
	}
}

// ProviderError reports a provider response that did not carry the success value.
type ProviderError struct {
	Method PushMethod
	Field  string
	Value  any
	Detail string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s rejected the message: %s=%v", e.Method, e.Field, e.Value)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// providerResponse covers the success fields of every provider.
type providerResponse struct {
	Code    *int   `json:"code"`
	ErrCode *int   `json:"errcode"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
	ErrMsg  string `json:"errmsg"`
}

func (r providerResponse) detail() string {
	for _, s := range []string{r.Msg, r.Message, r.ErrMsg} {
		if s != "" {
			return s
		}
	}
	return ""
}

// PushChannel sends through the push provider chosen by Method.
type PushChannel struct {
	method   PushMethod
	token    string
	endpoint string
	client   *httpclient.HTTPClient
	logger   zerolog.Logger
}

// NewPushChannel creates a push channel. cfg.Endpoint replaces the provider base URL.
func NewPushChannel(cfg config.PushConfig, client *httpclient.HTTPClient, logger zerolog.Logger) *PushChannel {
	method := PushMethod(cfg.Method)
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = method.DefaultEndpoint()
	}
	return &PushChannel{
		method:   method,
		token:    cfg.Token,
		endpoint: endpoint,
		client:   client,
		logger:   logger.With().Str("component", "PushChannel").Str("method", string(method)).Logger(),
	}
}

// Name returns "push:<method>".
func (p *PushChannel) Name() string {
	return "push:" + string(p.method)
}

// Method returns the configured provider.
func (p *PushChannel) Method() PushMethod {
	return p.method
}

// Enabled reports whether a method and a token are configured.
func (p *PushChannel) Enabled() bool {
	return p.method != "" && p.token != ""
}

// Send posts msg in the provider's wire format and checks its success field.
func (p *PushChannel) Send(ctx context.Context, msg Message) error {
	var (
		resp    *httpclient.HTTPResponse
		err     error
		field   string
		success int
	)

	switch p.method {
	case PushPlus:
		field, success = "code", 200
		resp, err = p.client.PostJSON(ctx, p.endpoint+"/send", map[string]string{
			"token":    p.token,
			"title":    msg.Title,
			"content":  msg.Body,
			"template": "html",
		})
	case ServerChan:
		field, success = "code", 0
		resp, err = p.client.PostForm(ctx, p.endpoint+"/"+url.PathEscape(p.token)+".send", url.Values{
			"title": {msg.Title},
			"desp":  {msg.Body},
		})
	case WeChatWork:
		field, success = "errcode", 0
		resp, err = p.client.PostJSON(ctx, p.endpoint+"/cgi-bin/webhook/send?key="+url.QueryEscape(p.token), map[string]any{
			"msgtype": "text",
			"text": map[string]string{
				"content": msg.Title + "\n\n" + msg.Body,
			},
		})
	default:
		return errorwrapper.NewValidationError("method", string(p.method), "unknown push method")
	}
	if err != nil {
		return errorwrapper.WrapErrorf(err, "%s request failed", p.method)
	}

	var decoded providerResponse
	if err := resp.DecodeJSON(&decoded); err != nil {
		return errorwrapper.WrapErrorf(err, "%s returned a non-JSON response", p.method)
	}

	value := decoded.Code
	if field == "errcode" {
		value = decoded.ErrCode
	}
	if value == nil {
		return &ProviderError{Method: p.method, Field: field, Value: "<missing>", Detail: decoded.detail()}
	}
	if *value != success {
		return &ProviderError{Method: p.method, Field: field, Value: *value, Detail: decoded.detail()}
	}

	p.logger.Debug().Int(field, *value).Msg("Push provider accepted the message")
	return nil
}
