// Package deliver pushes completed renditions to a caller-supplied callback
// URL.
package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the webhook HTTP client. A zero token disables the Authorization
// header.
type Client struct {
	token      string
	httpClient *http.Client
}

func NewClient(token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Push PUTs the payload as JSON to the callback URL. Any non-2xx response is
// an error carrying a body excerpt.
func (c *Client) Push(ctx context.Context, callbackURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push rendition: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push rendition to %s: status %d: %s", callbackURL, resp.StatusCode, string(respBody))
	}
	return nil
}
