package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
)

func TestSendPrefersBotService(t *testing.T) {
	var gotSecret string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notify", r.URL.Path)
		gotSecret = r.Header.Get("X-Bot-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewTelegramSender(
		config.NotifyConfig{Enabled: true, BotServiceURL: srv.URL + "/", BotSecret: "s3cret"},
		config.TelegramConfig{BotToken: "unused"},
	)
	assert.True(t, sender.Send(context.Background(), 42, "hello"))
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, float64(42), gotBody["chat_id"])
	assert.Equal(t, "hello", gotBody["text"])
}

func TestBotServiceResponseBodies(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "empty body", status: http.StatusOK, body: "", want: true},
		{name: "plain text", status: http.StatusOK, body: "queued", want: true},
		{name: "json without ok", status: http.StatusOK, body: `{"id":1}`, want: true},
		{name: "json ok false", status: http.StatusOK, body: `{"ok":false}`, want: false},
		{name: "server error", status: http.StatusBadGateway, body: "down", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			sender := NewTelegramSender(config.NotifyConfig{Enabled: true, BotServiceURL: srv.URL}, config.TelegramConfig{})
			assert.Equal(t, tc.want, sender.Send(context.Background(), 7, "hi"))
		})
	}
}

func TestSendFallsBackToBotAPI(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = io.WriteString(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewNotifyMetrics(reg)
	sender := NewTelegramSender(
		config.NotifyConfig{Enabled: true},
		config.TelegramConfig{BotToken: "TOKEN", APIBaseURL: srv.URL},
		WithMetrics(m),
	)
	assert.True(t, sender.Send(context.Background(), 99, "shift tomorrow"))
	assert.Equal(t, "99", form.Get("chat_id"))
	assert.Equal(t, "shift tomorrow", form.Get("text"))
	assert.Equal(t, "true", form.Get("disable_web_page_preview"))

	count, err := testutil.GatherAndCount(reg, "venueops_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBotAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"ok":false,"description":"bot was blocked by the user"}`)
	}))
	defer srv.Close()

	sender := NewTelegramSender(config.NotifyConfig{Enabled: true}, config.TelegramConfig{BotToken: "T", APIBaseURL: srv.URL})
	assert.False(t, sender.Send(context.Background(), 1, "x"))
}

func TestSendSkipsWhenDisabledOrUnconfigured(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	disabled := NewTelegramSender(config.NotifyConfig{Enabled: false, BotServiceURL: srv.URL}, config.TelegramConfig{})
	assert.False(t, disabled.Send(context.Background(), 1, "x"))

	bare := NewTelegramSender(config.NotifyConfig{Enabled: true}, config.TelegramConfig{})
	assert.False(t, bare.Send(context.Background(), 1, "x"))

	enabled := NewTelegramSender(config.NotifyConfig{Enabled: true, BotServiceURL: srv.URL}, config.TelegramConfig{})
	assert.False(t, enabled.Send(context.Background(), 1, "   "))
	assert.Zero(t, hits)

	var nilSender *TelegramSender
	assert.False(t, nilSender.Send(context.Background(), 1, "x"))
	assert.False(t, Nop{}.Send(context.Background(), 1, "x"))
}

func TestUnreachableServiceDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	sender := NewTelegramSender(config.NotifyConfig{Enabled: true, BotServiceURL: addr}, config.TelegramConfig{})
	assert.False(t, sender.Send(context.Background(), 1, "x"))
}
