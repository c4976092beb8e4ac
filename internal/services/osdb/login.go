package osdb

import (
	"context"
	"fmt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// ensureSession logs in and caches the session token when account credentials
// are configured. Anonymous use (API key only) skips login entirely; the
// token just raises the request quota.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return nil
	}
	if _, found := c.tokens.Get(tokenCacheKey); found {
		return nil
	}

	c.logger.Debug("Logging in to OpenSubtitles")

	var response loginResponse
	err := c.doRequest(ctx, "POST", "/login", loginRequest{
		Username: c.username,
		Password: c.password,
	}, &response)
	if err != nil {
		return fmt.Errorf("opensubtitles login failed: %w", err)
	}
	if response.Token == "" {
		return fmt.Errorf("opensubtitles login returned no token")
	}

	c.tokens.Set(tokenCacheKey, response.Token, tokenTTL)
	return nil
}
