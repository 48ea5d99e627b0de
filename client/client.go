// Package client provides a typed Go SDK for the graph-builder REST and WebSocket API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the top-level graph-builder API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	Graph *GraphService
	Runs  *RunService
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout. Streams are not bound by it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for the given base URL (e.g. "http://localhost:3040").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	c.Graph = &GraphService{c: c}
	c.Runs = &RunService{c: c}
	return c
}

// Health returns the liveness check response.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Connectors lists the connector types the server traverses.
func (c *Client) Connectors(ctx context.Context) ([]Connector, error) {
	var resp struct {
		Data []Connector `json:"data"`
	}
	if err := c.get(ctx, "/api/v1/connectors", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// raw executes a request and returns the body and headers of a successful response.
func (c *Client) raw(ctx context.Context, method, path string, params url.Values) ([]byte, http.Header, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, nil, parseAPIError(resp.StatusCode, body)
	}

	return body, resp.Header, nil
}

// do executes a request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, result any) error {
	body, _, err := c.raw(ctx, method, path, params)
	if err != nil {
		return err
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, params, result)
}

func (c *Client) del(ctx context.Context, path string, params url.Values, result any) error {
	return c.do(ctx, http.MethodDelete, path, params, result)
}

func (c *Client) authorize(h http.Header) {
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
}
