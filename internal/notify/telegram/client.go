// Package telegram sends bot messages through the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/provider/resilience"
)

const (
	// ProviderName identifies this notifier.
	ProviderName = "telegram"

	// DefaultBaseURL is the Telegram Bot API base URL.
	DefaultBaseURL = "https://api.telegram.org"

	// ParseModeMarkdown enables Telegram's legacy Markdown rendering.
	ParseModeMarkdown = "Markdown"
)

// ErrRejected is returned when Telegram answers with ok=false.
var ErrRejected = errors.New("telegram rejected message")

// ClientConfig holds configuration for the Telegram client.
type ClientConfig struct {
	// Token is the bot token (required).
	Token string

	// ChatID is the destination chat (required).
	ChatID string

	// BaseURL is the API base URL (optional, defaults to the public Bot API).
	BaseURL string

	// HTTPClient is the upstream client (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Telegram Bot API client bound to one chat.
type Client struct {
	token      string
	chatID     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Telegram client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		token:      cfg.Token,
		chatID:     cfg.ChatID,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Send posts text to the configured chat with Markdown parse mode.
func (c *Client) Send(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", c.chatID)
	form.Set("text", text)
	form.Set("parse_mode", ParseModeMarkdown)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", redact(err, c.token))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", redact(err, c.token))
	}
	defer resp.Body.Close()

	var body sendMessageResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && body.Description != "" {
			return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, body.Description)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("decoding response: %w", decodeErr)
	}
	if !body.OK {
		return fmt.Errorf("%w: %s", ErrRejected, body.Description)
	}

	c.logger.Debug().
		Int64("message_id", body.Result.MessageID).
		Msg("telegram message sent")

	return nil
}

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}

// Telegram API response structures.

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}
