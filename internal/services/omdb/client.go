package omdb

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

const baseURL = "https://www.omdbapi.com/"

// NotAvailable is OMDb's sentinel for a missing field value. The normalize
// layer discards fields carrying it so a sentinel never overwrites real data
// during a merge.
const NotAvailable = "N/A"

// Client handles communication with the OMDb API
type Client struct {
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new OMDb client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.OMDBAPIKey == "" {
		return nil, fmt.Errorf("OMDb API key is required")
	}

	return &Client{
		apiKey:     cfg.OMDBAPIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// doRequest performs an OMDb API request with the given query parameters
func (c *Client) doRequest(ctx context.Context, params url.Values, result interface{}) error {
	params.Set("apikey", c.apiKey)
	fullURL := baseURL + "?" + params.Encode()

	c.logger.WithField("url", baseURL).WithField("params", params.Encode()).Debug("Making OMDb API request")

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: omdb request failed: %v", models.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= 500 {
		return fmt.Errorf("%w: omdb returned status %d", models.ErrProviderUnavailable, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("omdb request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
