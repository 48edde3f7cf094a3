// Package analytics is the HTTP client for the remote certificate analytics API.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Loader toggles a loading indicator on a named container around a request.
type Loader interface {
	Show(container string)
	Hide(container string)
}

// Observer is told about every completed request. Status is 0 when no response arrived.
type Observer func(endpoint string, status int, elapsed time.Duration)

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	loader     Loader
	observe    Observer
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLoader returns a copy of the client that reports section loading to l.
func (c *Client) WithLoader(l Loader) *Client {
	cp := *c
	cp.loader = l
	return &cp
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches endpoint and decodes the JSON body into out. When container is
// non-empty its loader is shown before the request and hidden once it settles.
func (c *Client) Get(ctx context.Context, endpoint, container string, out any) error {
	if c.loader != nil && container != "" {
		c.loader.Show(container)
		defer c.loader.Hide(container)
	}

	start := time.Now()
	status, err := c.get(ctx, endpoint, out)
	if c.observe != nil {
		c.observe(endpoint, status, time.Since(start))
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, result any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("analytics GET %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("analytics GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, c.decode(path, resp, result)
}

func (c *Client) decode(path string, resp *http.Response, result any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return &RequestError{
			Endpoint:   path,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("analytics read body: %w", err)
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return &ParseError{Endpoint: path, Err: err}
		}
	}
	return nil
}
