package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mcstatus/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	requestTimeout = 15 * time.Second
	userAgent      = "DiscordBot (https://github.com/mcstatus/mcstatus-discord, 1.0)"
	maxRetryAfter  = 10 * time.Second

	// MaxMessagesPerPage is the largest limit the list-messages endpoint accepts
	MaxMessagesPerPage = 100
)

// resource identifies which sentinel a bare 404 maps to
type resource int

const (
	resourceMessage resource = iota
	resourceChannel
	resourceUser
)

// Client is a minimal Discord REST client for a bot token
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger

	selfMu sync.Mutex
	self   *models.DiscordUser
}

// NewClient creates a client for baseURL (e.g. https://discord.com/api/v10)
func NewClient(baseURL, token string) *Client {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		// Message edits are bucketed at 5 per 5s per channel
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:  logger,
	}
}

// SetLogger replaces the request logger
func (c *Client) SetLogger(logger *logrus.Logger) {
	c.logger = logger
}

// CurrentUser returns the bot user. The result is cached after the first success.
func (c *Client) CurrentUser(ctx context.Context) (*models.DiscordUser, error) {
	c.selfMu.Lock()
	defer c.selfMu.Unlock()

	if c.self != nil {
		user := *c.self
		return &user, nil
	}

	var user models.DiscordUser
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, &user, resourceUser); err != nil {
		return nil, err
	}
	c.self = &user

	c.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Discord identity resolved")

	copied := user
	return &copied, nil
}

// GetChannel fetches a channel by id
func (c *Client) GetChannel(ctx context.Context, channelID string) (*models.DiscordChannel, error) {
	var channel models.DiscordChannel
	if err := c.do(ctx, http.MethodGet, "/channels/"+channelID, nil, &channel, resourceChannel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// GetMessage fetches one message
func (c *Client) GetMessage(ctx context.Context, channelID, messageID string) (*models.DiscordMessage, error) {
	var msg models.DiscordMessage
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	if err := c.do(ctx, http.MethodGet, path, nil, &msg, resourceMessage); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns up to limit of the channel's most recent messages, newest first
func (c *Client) ListMessages(ctx context.Context, channelID string, limit int) ([]models.DiscordMessage, error) {
	if limit <= 0 || limit > MaxMessagesPerPage {
		limit = MaxMessagesPerPage
	}

	var messages []models.DiscordMessage
	path := fmt.Sprintf("/channels/%s/messages?limit=%d", channelID, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &messages, resourceChannel); err != nil {
		return nil, err
	}
	return messages, nil
}

// CreateMessage posts a message carrying embed
func (c *Client) CreateMessage(ctx context.Context, channelID string, embed *models.Embed) (*models.DiscordMessage, error) {
	var msg models.DiscordMessage
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, messagePayload(embed), &msg, resourceChannel); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces the embeds of an existing message
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, embed *models.Embed) (*models.DiscordMessage, error) {
	var msg models.DiscordMessage
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	if err := c.do(ctx, http.MethodPatch, path, messagePayload(embed), &msg, resourceMessage); err != nil {
		return nil, err
	}
	return &msg, nil
}

type messageBody struct {
	Embeds []models.Embed `json:"embeds"`
}

func messagePayload(embed *models.Embed) *messageBody {
	if embed == nil {
		return &messageBody{Embeds: []models.Embed{}}
	}
	return &messageBody{Embeds: []models.Embed{*embed}}
}

// do sends one request, retrying once when Discord answers 429
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}, kind resource) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		err := c.send(ctx, method, path, payload, out, kind)

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests || attempt > 0 {
			return err
		}

		wait := time.Duration(apiErr.RetryAfter * float64(time.Second))
		if wait <= 0 || wait > maxRetryAfter {
			return err
		}

		c.logger.WithFields(logrus.Fields{
			"method":      method,
			"path":        path,
			"retry_after": wait.String(),
		}).Warn("Discord rate limit hit, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out interface{}, kind resource) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read discord response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Discord request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, respBody, kind)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse discord response: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response, body []byte, kind resource) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}

	if apiErr.RetryAfter == 0 {
		if header := resp.Header.Get("Retry-After"); header != "" {
			if secs, err := strconv.ParseFloat(header, 64); err == nil {
				apiErr.RetryAfter = secs
			}
		}
	}

	switch {
	case apiErr.Code == codeUnknownChannel:
		apiErr.sentinel = ErrChannelNotFound
	case apiErr.Code == codeUnknownMessage:
		apiErr.sentinel = ErrMessageNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.sentinel = ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound && kind == resourceMessage:
		apiErr.sentinel = ErrMessageNotFound
	case resp.StatusCode == http.StatusNotFound && kind == resourceChannel:
		apiErr.sentinel = ErrChannelNotFound
	}
	return apiErr
}
