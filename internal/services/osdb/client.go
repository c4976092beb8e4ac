package osdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"metadarr/internal/config"
	"metadarr/internal/models"
)

const (
	baseURL = "https://api.opensubtitles.com/api/v1"

	tokenCacheKey = "session_token"
	tokenTTL      = 23 * time.Hour
)

// Client handles communication with the OpenSubtitles API, the
// hash-identification provider.
type Client struct {
	apiKey     string
	userAgent  string
	username   string
	password   string
	httpClient *http.Client
	// Session token cache: the token is valid for 24h, so it is cached with
	// an explicit expiry instead of being re-requested per call.
	tokens *gocache.Cache
	logger *logrus.Logger
}

// NewClient creates a new OpenSubtitles client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.OSDBAPIKey == "" {
		return nil, fmt.Errorf("OpenSubtitles API key is required")
	}

	return &Client{
		apiKey:     cfg.OSDBAPIKey,
		userAgent:  cfg.OSDBUserAgent,
		username:   cfg.OSDBUsername,
		password:   cfg.OSDBPassword,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     gocache.New(tokenTTL, 1*time.Hour),
		logger:     logger,
	}, nil
}

// doRequest performs an HTTP request against the OpenSubtitles API. Outage
// responses are translated to ErrProviderUnavailable so the resolver never
// records them in the failed-lookup cache.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	fullURL := baseURL + path
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    fullURL,
	}).Debug("Making OpenSubtitles API request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	if token, found := c.tokens.Get(tokenCacheKey); found {
		req.Header.Set("Authorization", "Bearer "+token.(string))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: opensubtitles request failed: %v", models.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= 500 {
		return fmt.Errorf("%w: opensubtitles returned status %d", models.ErrProviderUnavailable, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("opensubtitles request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
