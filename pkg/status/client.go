package status

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vexown/Moduri/pkg/config"
)

// Client issues requests against the status resource.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a Client from config. The HTTP timeout bounds each
// request end to end.
func NewClient(cfg config.StatusConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// Get fetches the current status message.
func (c *Client) Get(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+resourcePath, nil)
	if err != nil {
		return "", err
	}
	return c.do(req)
}

// Update replaces the status message and returns the message the unit
// reports back.
func (c *Client) Update(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(Status{Message: message})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+resourcePath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%s %s: unexpected status %s", req.Method, req.URL, resp.Status)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	return st.Message, nil
}
