package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout       = 10 * time.Second
	responseBodyMaxBytes = 1 << 20
)

// RequestObserver receives one callback per backend call. The metrics package
// implements it.
type RequestObserver interface {
	ObserveBackendRequest(endpoint string, status int, duration time.Duration)
}

// StoreClient is a thin JSON client for the shop backend REST API.
type StoreClient struct {
	baseURL    string
	httpClient *http.Client
	observer   RequestObserver
}

type Option func(*StoreClient)

func WithHTTPClient(client *http.Client) Option {
	return func(c *StoreClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *StoreClient) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func WithObserver(o RequestObserver) Option {
	return func(c *StoreClient) {
		c.observer = o
	}
}

func NewStoreClient(baseURL string, opts ...Option) *StoreClient {
	c := &StoreClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type request struct {
	method   string
	path     string
	endpoint string
	query    url.Values
	token    string
	body     any
}

// do sends the request and decodes a 2xx body into out. Transport failures
// come back as *NetworkError, non-2xx responses as *APIError.
func (c *StoreClient) do(ctx context.Context, r request, out any) error {
	var payload io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", r.endpoint, err)
		}
		payload = bytes.NewReader(raw)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, payload)
	if err != nil {
		return fmt.Errorf("build %s request: %w", r.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(r.endpoint, 0, start)
		return &NetworkError{Endpoint: r.endpoint, Err: err}
	}
	defer resp.Body.Close()
	c.observe(r.endpoint, resp.StatusCode, start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyMaxBytes))
	if err != nil {
		return &NetworkError{Endpoint: r.endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Endpoint: r.endpoint, Status: resp.StatusCode, Body: body}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.endpoint, err)
	}
	return nil
}

func (c *StoreClient) observe(endpoint string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendRequest(endpoint, status, time.Since(start))
}

func pathID[T int64 | string](format string, id T) string {
	return fmt.Sprintf(format, url.PathEscape(fmt.Sprint(id)))
}
