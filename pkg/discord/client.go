package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://discord.com/api/v10"
	defaultTimeout              = 5 * time.Second
	responseBodyReadLimit int64 = 1024
)

// Client talks to the Discord REST API for guild membership checks and to a
// channel webhook for deal announcements.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	guildID    string
	webhookURL string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a client from config. Missing credentials do not fail
// construction; the affected calls report CodeDependency instead.
func NewClient(cfg config.DiscordConfig, opts ...Option) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSpace(cfg.APIBaseURL),
		botToken:   strings.TrimSpace(cfg.BotToken),
		guildID:    strings.TrimSpace(cfg.GuildID),
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// MembershipConfigured reports whether guild lookups can be made.
func (c *Client) MembershipConfigured() bool {
	return c != nil && c.botToken != "" && c.guildID != ""
}

// WebhookConfigured reports whether announcements can be posted.
func (c *Client) WebhookConfigured() bool {
	return c != nil && c.webhookURL != ""
}

// IsGuildMember reports whether the Discord user belongs to the configured guild.
func (c *Client) IsGuildMember(ctx context.Context, discordUserID string) (bool, error) {
	if !c.MembershipConfigured() {
		return false, pkgerrors.New(pkgerrors.CodeDependency, "discord membership lookup not configured")
	}
	userID := strings.TrimSpace(discordUserID)
	if userID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "discord user id is required")
	}

	endpoint := fmt.Sprintf("%s/guilds/%s/members/%s",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.guildID), url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build guild member request")
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute guild member request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(resp, "guild member request failed")
	}
}

// Embed is the subset of Discord's embed object used for announcements.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

// WebhookMessage is the body posted to a channel webhook.
type WebhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// PostWebhook delivers a message to the configured channel webhook.
func (c *Client) PostWebhook(ctx context.Context, msg WebhookMessage) error {
	if !c.WebhookConfigured() {
		return pkgerrors.New(pkgerrors.CodeDependency, "discord webhook not configured")
	}
	if strings.TrimSpace(msg.Content) == "" && len(msg.Embeds) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook message is empty")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal webhook message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute webhook request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp, "webhook request failed")
	}
	return nil
}

func statusError(resp *http.Response, msg string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), msg)
}
