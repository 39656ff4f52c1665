package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "coversync/pkg/errors"
	"coversync/pkg/logger"
	"coversync/pkg/ratelimit"
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Client fetches listing pages and cover images over HTTP.
// One Client is shared by every collection of a run.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a client with the given timeout and request limiter.
// A nil limiter means no pacing.
func NewClient(timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		limiter: limiter,
		logger:  logger.OrGlobal(log),
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchText returns the body of a listing page
func (c *Client) FetchText(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, "fetch page", url)
}

// FetchBinary returns the bytes of a cover image
func (c *Client) FetchBinary(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, "fetch cover", url)
}

func (c *Client) fetch(ctx context.Context, op, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Transport(op, url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Transport(op, url, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Transport(op, url, err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.Transport(op, url, &StatusError{Code: resp.StatusCode, URL: url})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transport(op, url, fmt.Errorf("failed to read response body: %w", err))
	}
	return body, nil
}
