package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mcstatus/internal/models"
)

const (
	statusAPITimeout   = 10 * time.Second
	statusAPIUserAgent = "mcstatus-discord/1.0"
	maxStatusBodyBytes = 1 << 20
)

// StatusAPIClient queries the mcsrvstat.us v3 API
type StatusAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewStatusAPIClient creates a client for the API rooted at baseURL
func NewStatusAPIClient(baseURL string) *StatusAPIClient {
	return &StatusAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: statusAPITimeout,
		},
	}
}

// GetStatus fetches the status document for address ("host" or "host:port")
func (c *StatusAPIClient) GetStatus(ctx context.Context, address string) (*models.StatusDocument, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// mcsrvstat.us rejects requests without a User-Agent
	req.Header.Set("User-Agent", statusAPIUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read status API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var doc models.StatusDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse status API response: %w", err)
	}

	return &doc, nil
}

// truncate shortens s to at most max runes, marking the cut with "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
