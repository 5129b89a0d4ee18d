package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/talentdao/talentdao-backend/pkg/logging"
	"github.com/talentdao/talentdao-backend/pkg/retry"
)

// HTTPRetryConfig holds configuration for HTTP retry operations.
type HTTPRetryConfig struct {
	RetryConfig     *retry.RetryConfig
	Timeout         time.Duration
	IdleConnTimeout time.Duration
	// MaxResponseSize caps how much of an error response body is read back.
	MaxResponseSize int64
}

func DefaultHTTPRetryConfig() *HTTPRetryConfig {
	return &HTTPRetryConfig{
		RetryConfig:     retry.DefaultRetryConfig(),
		Timeout:         10 * time.Second,
		IdleConnTimeout: 30 * time.Second,
		MaxResponseSize: 4096,
	}
}

func (c *HTTPRetryConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.IdleConnTimeout <= 0 {
		return fmt.Errorf("idleConnTimeout must be positive")
	}
	if c.MaxResponseSize < 0 {
		return fmt.Errorf("maxResponseSize must be >= 0")
	}
	return nil
}

// HTTPError is an HTTP-level failure with its status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// HTTPClient wraps http.Client with retry logic for transient failures.
type HTTPClient struct {
	client *http.Client
	config *HTTPRetryConfig
	logger logging.Logger
}

func NewHTTPClient(config *HTTPRetryConfig, logger logging.Logger) (*HTTPClient, error) {
	if config == nil {
		config = DefaultHTTPRetryConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid http config: %w", err)
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				IdleConnTimeout: config.IdleConnTimeout,
			},
		},
		config: config,
		logger: logger,
	}, nil
}

// DoWithRetry executes the request, retrying network errors and 5xx responses.
// 4xx responses are returned to the caller without retrying.
func (c *HTTPClient) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to buffer request body: %w", err)
		}
		_ = req.Body.Close()
	}

	config := *c.config.RetryConfig
	config.ShouldRetry = func(err error, attempt int) bool {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return true
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return httpErr.StatusCode >= 500
		}
		return true
	}

	return retry.Retry(ctx, func() (*http.Response, error) {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
		resp, err := c.client.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			msg := readLimited(resp.Body, c.config.MaxResponseSize)
			_ = resp.Body.Close()
			return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
		}
		return resp, nil
	}, &config, c.logger)
}

// Get issues a GET request with retries.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.DoWithRetry(ctx, req)
}

// Post issues a POST request with retries.
func (c *HTTPClient) Post(ctx context.Context, url, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.DoWithRetry(ctx, req)
}

func readLimited(r io.Reader, max int64) string {
	if max <= 0 {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(r, max))
	return string(data)
}
