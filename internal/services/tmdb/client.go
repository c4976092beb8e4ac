package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"metadarr/internal/config"
	"metadarr/internal/models"
)

const (
	baseURL   = "https://api.themoviedb.org/3"
	posterURL = "https://image.tmdb.org/t/p/w500"
)

// Client handles communication with the TMDb API
type Client struct {
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new TMDb client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDb API key is required")
	}

	return &Client{
		apiKey:     cfg.TMDBAPIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// doRequest performs a TMDb API GET request. A 404 is reported as
// ErrMediaNotFound; outage-class responses as ErrProviderUnavailable.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	fullURL := baseURL + path + "?" + params.Encode()

	c.logger.WithField("path", path).Debug("Making TMDb API request")

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: tmdb request failed: %v", models.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrMediaNotFound
	}

	if resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= 500 {
		return fmt.Errorf("%w: tmdb returned status %d", models.ErrProviderUnavailable, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tmdb request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// PosterURL builds the full image URL for a poster path, or "" when the
// provider returned none.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterURL + path
}
