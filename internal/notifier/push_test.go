package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/aleister1102/unitwatch/internal/httpclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPushChannel(t *testing.T, method, endpoint string) *PushChannel {
	t.Helper()
	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)
	return NewPushChannel(config.PushConfig{Method: method, Token: "tok", Endpoint: endpoint}, client, zerolog.Nop())
}

func TestPushChannel_PushPlus(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
	}{
		{name: "success code", response: `{"code":200,"msg":"ok"}`},
		{name: "failure code", response: `{"code":500,"msg":"bad token"}`, wantErr: true},
		{name: "missing code", response: `{"msg":"??"}`, wantErr: true},
		{name: "not json", response: `<html>oops</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/send", r.URL.Path)
				var payload map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, map[string]string{
					"token":    "tok",
					"title":    "T",
					"content":  "B",
					"template": "html",
				}, payload)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			ch := newTestPushChannel(t, config.PushMethodPushPlus, server.URL)
			err := ch.Send(context.Background(), Message{Title: "T", Body: "B"})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}
}

func TestPushChannel_PushPlusProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":500,"msg":"bad token"}`))
	}))
	defer server.Close()

	err := newTestPushChannel(t, config.PushMethodPushPlus, server.URL).Send(context.Background(), Message{Title: "T"})

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, PushPlus, providerErr.Method)
	assert.Equal(t, "code", providerErr.Field)
	assert.Equal(t, 500, providerErr.Value)
	assert.Equal(t, "bad token", providerErr.Detail)
}

func TestPushChannel_ServerChan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tok.send", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "T", r.PostForm.Get("title"))
		assert.Equal(t, "B", r.PostForm.Get("desp"))
		_, _ = w.Write([]byte(`{"code":0,"message":""}`))
	}))
	defer server.Close()

	ch := newTestPushChannel(t, config.PushMethodServerChan, server.URL)
	assert.NoError(t, ch.Send(context.Background(), Message{Title: "T", Body: "B"}))
}

func TestPushChannel_ServerChanFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":40001,"message":"bad key"}`))
	}))
	defer server.Close()

	err := newTestPushChannel(t, config.PushMethodServerChan, server.URL).Send(context.Background(), Message{Title: "T"})
	assert.ErrorContains(t, err, "bad key")
}

func TestPushChannel_WeChatWork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/webhook/send", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("key"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"msgtype":"text","text":{"content":"T\n\nB"}}`, string(body))
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer server.Close()

	ch := newTestPushChannel(t, config.PushMethodWork, server.URL)
	assert.NoError(t, ch.Send(context.Background(), Message{Title: "T", Body: "B"}))
}

func TestPushChannel_WeChatWorkIgnoresCodeField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"errcode":93000,"errmsg":"invalid webhook"}`))
	}))
	defer server.Close()

	err := newTestPushChannel(t, config.PushMethodWork, server.URL).Send(context.Background(), Message{Title: "T"})
	assert.ErrorContains(t, err, "errcode=93000")
}

func TestPushChannel_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := newTestPushChannel(t, config.PushMethodPushPlus, server.URL).Send(context.Background(), Message{Title: "T"})
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "tok")
}

func TestPushChannel_UnknownMethod(t *testing.T) {
	ch := newTestPushChannel(t, "telegram", "http://127.0.0.1:1")
	assert.ErrorContains(t, ch.Send(context.Background(), Message{Title: "T"}), "unknown push method")
}

func TestPushChannel_Metadata(t *testing.T) {
	ch := newTestPushChannel(t, config.PushMethodServerChan, "")
	assert.Equal(t, "push:serverchan", ch.Name())
	assert.Equal(t, ServerChan, ch.Method())
	assert.True(t, ch.Enabled())
	assert.Equal(t, "https://sctapi.ftqq.com", ch.endpoint)

	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)
	disabled := NewPushChannel(config.PushConfig{Method: config.PushMethodPushPlus}, client, zerolog.Nop())
	assert.False(t, disabled.Enabled())

	assert.True(t, WeChatWork.Valid())
	assert.False(t, PushMethod("x").Valid())
}
