package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
)

const (
	defaultTimeout           = 5 * time.Second
	defaultTelegramBaseURL   = "https://api.telegram.org"
	responseReadLimit  int64 = 4096

	channelBotService = "bot_service"
	channelTelegram   = "telegram"
	channelNone       = "none"
)

// Notifier delivers a plain text message to a Telegram chat. Delivery is
// best effort: implementations report success but never fail the caller.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) bool
}

// TelegramSender prefers the bot service relay and falls back to the Bot API.
type TelegramSender struct {
	httpClient    *http.Client
	enabled       bool
	botServiceURL string
	botSecret     string
	botToken      string
	apiBaseURL    string
	metrics       *metrics.NotifyMetrics
	logg          *logger.Logger
}

// Option configures optional sender behavior.
type Option func(*TelegramSender)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *TelegramSender) {
		if client != nil {
			s.httpClient = client
		}
	}
}

func WithMetrics(m *metrics.NotifyMetrics) Option {
	return func(s *TelegramSender) {
		s.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(s *TelegramSender) {
		if logg != nil {
			s.logg = logg
		}
	}
}

// NewTelegramSender builds a sender from the notify and telegram config sections.
func NewTelegramSender(cfg config.NotifyConfig, tg config.TelegramConfig, opts ...Option) *TelegramSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &TelegramSender{
		httpClient:    &http.Client{Timeout: timeout},
		enabled:       cfg.Enabled,
		botServiceURL: strings.TrimRight(strings.TrimSpace(cfg.BotServiceURL), "/"),
		botSecret:     strings.TrimSpace(cfg.BotSecret),
		botToken:      strings.TrimSpace(tg.BotToken),
		apiBaseURL:    strings.TrimRight(strings.TrimSpace(tg.APIBaseURL), "/"),
		logg:          logger.Nop(),
	}
	if s.apiBaseURL == "" {
		s.apiBaseURL = defaultTelegramBaseURL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) bool {
	if s == nil || !s.enabled {
		return false
	}
	if strings.TrimSpace(text) == "" || chatID == 0 {
		return false
	}

	logCtx := s.logg.WithField(ctx, "chat_id", chatID)
	switch {
	case s.botServiceURL != "":
		ok, err := s.sendViaBotService(ctx, chatID, text)
		s.observe(logCtx, channelBotService, ok, err)
		return ok
	case s.botToken != "":
		ok, err := s.sendViaTelegram(ctx, chatID, text)
		s.observe(logCtx, channelTelegram, ok, err)
		return ok
	default:
		s.metrics.Observe(channelNone, "skipped")
		s.logg.Warn(logCtx, "notify.skipped_unconfigured")
		return false
	}
}

func (s *TelegramSender) observe(ctx context.Context, channel string, ok bool, err error) {
	switch {
	case err != nil:
		s.metrics.Observe(channel, "error")
		s.logg.Error(s.logg.WithField(ctx, "channel", channel), "notify.send_failed", err)
	case !ok:
		s.metrics.Observe(channel, "rejected")
		s.logg.Warn(s.logg.WithField(ctx, "channel", channel), "notify.rejected")
	default:
		s.metrics.Observe(channel, "sent")
	}
}

// sendViaBotService posts to the relay. A 2xx with an empty or non-JSON body
// counts as delivered; a JSON body may veto with ok=false.
func (s *TelegramSender) sendViaBotService(ctx context.Context, chatID int64, text string) (bool, error) {
	payload, err := json.Marshal(map[string]any{"chat_id": chatID, "text": text})
	if err != nil {
		return false, fmt.Errorf("marshal notify payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.botServiceURL+"/notify", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.botSecret != "" {
		req.Header.Set("X-Bot-Secret", s.botSecret)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute notify request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("bot service status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true, nil
	}
	var result struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return true, nil
	}
	if result.OK == nil {
		return true, nil
	}
	return *result.OK, nil
}

func (s *TelegramSender) sendViaTelegram(ctx context.Context, chatID int64, text string) (bool, error) {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBaseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// the url carries the bot token
		return false, fmt.Errorf("execute sendMessage request: %w", redactURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseReadLimit)).Decode(&result); err != nil {
		return false, fmt.Errorf("decode sendMessage response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return false, fmt.Errorf("sendMessage status %d: %s", resp.StatusCode, result.Description)
	}
	return true, nil
}

func redactURLError(err error) error {
	if uerr, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

// Nop drops every message.
type Nop struct{}

func (Nop) Send(context.Context, int64, string) bool { return false }
