// Package directory implements the client for the remote config
// directory service. The manager never sees this package; callers
// fetch a config here and hand it to the manager by value.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gookit/goutil"

	"github.com/skiffvpn/tunnelctl/internal/shared/errors"
	"github.com/skiffvpn/tunnelctl/internal/shared/logger"
	"github.com/skiffvpn/tunnelctl/pkg/api"
	"github.com/skiffvpn/tunnelctl/pkg/wgtypes"
)

const defaultRetries = 2

// Client talks to the directory service. Every call is one-shot:
// nothing is cached and responses are never mutated.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	maxRetries int
}

// NewClient creates a directory client for baseURL.
func NewClient(baseURL string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDevelopment("directory")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.WithComponent("directory"),
		maxRetries: defaultRetries,
	}
}

// ListConfigs fetches the selectable configurations.
func (c *Client) ListConfigs(ctx context.Context) ([]api.RemoteConfigDescriptor, error) {
	var resp api.ListConfigsResponse
	if err := c.get(ctx, c.baseURL+"/api/v1/configs", &resp); err != nil {
		return nil, err
	}
	return resp.Configs, nil
}

// FetchConfig fetches one configuration by its listing ID.
func (c *Client) FetchConfig(ctx context.Context, id string) (wgtypes.TunnelConfig, error) {
	var resp api.FetchConfigResponse
	url := fmt.Sprintf("%s/api/v1/configs/%s", c.baseURL, id)
	if err := c.get(ctx, url, &resp); err != nil {
		return wgtypes.TunnelConfig{}, err
	}
	return resp.Config, nil
}

// get performs a GET with bounded retries on 503. A Retry-After header
// is honored up to a small cap so a draining directory doesn't stall
// the caller for minutes.
func (c *Client) get(ctx context.Context, url string, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		c.log.Debug("directory request", "url", url, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("directory request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read directory response: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode directory response: %w", err)
			}
			return nil

		case http.StatusNotFound:
			return errors.New(errors.KindNotFound, "no such config in the directory")

		case http.StatusServiceUnavailable:
			wait := retryAfter(resp)
			lastErr = fmt.Errorf("directory unavailable (status %d)", resp.StatusCode)
			c.log.Warn("directory unavailable, retrying", "wait", wait, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

		default:
			var apiErr api.ErrorResponse
			if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
				return fmt.Errorf("directory error (status %d): %s", resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("directory error (status %d)", resp.StatusCode)
		}
	}

	return fmt.Errorf("directory unavailable after %d attempts: %w", c.maxRetries+1, lastErr)
}

// retryAfter reads the Retry-After header, capped to keep interactive
// callers responsive.
func retryAfter(resp *http.Response) time.Duration {
	const (
		fallback = 2 * time.Second
		maxWait  = 15 * time.Second
	)

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	secs, err := goutil.ToInt(header)
	if err != nil || secs < 0 {
		return fallback
	}
	if d := time.Duration(secs) * time.Second; d < maxWait {
		return d
	}
	return maxWait
}
