package http

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

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	debug      bool
}

// Options configures the underlying net/http client.
type Options struct {
	Timeout   time.Duration
	ProxyURL  string
	Transport http.RoundTripper

	// Debug logs response bodies at debug level
	Debug bool
}

type RequestOptions struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	Body    interface{}
	Context context.Context

	// MaxRetries caps attempts after the first one; zero leaves only
	// MaxElapsed as the bound and a negative value disables retries.
	MaxRetries      int
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// RetryServerErrors retries 5xx responses instead of returning them.
	RetryServerErrors bool

	// Validate inspects a received response. A non-nil error marks the
	// attempt as failed and schedules a retry unless it is backoff.Permanent.
	Validate func(*Response) error
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// NewClientWithOptions creates a new HTTP client with a custom logger and
// transport settings.
func NewClientWithOptions(logger *zap.Logger, opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := opts.Transport
	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL: %w", err)
		}
		base, ok := transport.(*http.Transport)
		if !ok || base == nil {
			base = http.DefaultTransport.(*http.Transport)
		}
		base = base.Clone()
		base.Proxy = http.ProxyURL(proxyURL)
		transport = base
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
		debug:  opts.Debug,
	}, nil
}

func (c *Client) Do(opts RequestOptions) (*Response, error) {
	// Set default backoff configuration
	if opts.MaxElapsed == 0 {
		opts.MaxElapsed = 5 * time.Minute
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = 30 * time.Second
	}

	// Create exponential backoff
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = opts.InitialInterval
	expBackoff.MaxInterval = opts.MaxInterval
	expBackoff.Reset()

	// Use context if provided
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	attempt := 0
	operation := func() (*Response, error) {
		attempt++
		req, err := c.buildRequest(ctx, opts)
		if err != nil {
			c.logger.Error("Failed to build request", zap.Error(err), zap.String("method", opts.Method), zap.String("url", opts.URL))
			return nil, backoff.Permanent(err)
		}

		c.logger.Debug("Making HTTP request",
			zap.String("method", opts.Method),
			zap.String("url", opts.URL),
			zap.Int("attempt", attempt))

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, backoff.Permanent(ctxErr)
			}
			// Network errors are retryable
			c.logger.Warn("HTTP request failed, will retry",
				zap.Error(err),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL),
				zap.Int("attempt", attempt))
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			c.logger.Warn("Failed to read response body, will retry", zap.Error(err))
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		resp := &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       body,
		}

		if c.debug {
			c.logger.Debug("HTTP response received",
				zap.Int("status_code", resp.StatusCode),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL),
				zap.ByteString("response", body))
		}

		if opts.RetryServerErrors && httpResp.StatusCode >= 500 {
			c.logger.Warn("Server error, will retry",
				zap.Int("status_code", httpResp.StatusCode),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL))
			return nil, fmt.Errorf("server error: %d - %s", httpResp.StatusCode, string(body))
		}

		if opts.Validate != nil {
			if err := opts.Validate(resp); err != nil {
				c.logger.Warn("Response rejected, will retry",
					zap.Error(err),
					zap.Int("status_code", httpResp.StatusCode),
					zap.String("method", opts.Method),
					zap.String("url", opts.URL))
				return nil, err
			}
		}

		return resp, nil
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(opts.MaxElapsed),
	}
	switch {
	case opts.MaxRetries > 0:
		retryOpts = append(retryOpts, backoff.WithMaxTries(uint(opts.MaxRetries)+1))
	case opts.MaxRetries < 0:
		retryOpts = append(retryOpts, backoff.WithMaxTries(1))
	}

	resp, err := backoff.Retry(ctx, operation, retryOpts...)
	if err != nil {
		c.logger.Error("HTTP request failed after retries",
			zap.Error(err),
			zap.String("method", opts.Method),
			zap.String("url", opts.URL),
			zap.Int("attempts", attempt))
		return nil, err
	}

	c.logger.Info("HTTP request completed",
		zap.Int("status_code", resp.StatusCode),
		zap.String("method", opts.Method),
		zap.String("url", opts.URL))

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		if bodyBytes, ok := opts.Body.([]byte); ok {
			bodyReader = bytes.NewReader(bodyBytes)
		} else {
			// If Content-Type explicitly requests form encoding, honor it.
			contentType := opts.Headers["Content-Type"]
			if contentType == "" {
				contentType = opts.Headers["content-type"]
			}

			if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
				form, err := formValues(opts.Body)
				if err != nil {
					return nil, err
				}
				bodyReader = strings.NewReader(form.Encode())
			} else {
				bodyJSON, err := json.Marshal(opts.Body)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal request body: %w", err)
				}
				bodyReader = bytes.NewReader(bodyJSON)
			}
		}
	}

	target := opts.URL
	if len(opts.Query) > 0 {
		u, err := url.Parse(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse URL: %w", err)
		}
		q := u.Query()
		for key, values := range opts.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set default headers
	if opts.Body != nil && opts.Headers["Content-Type"] == "" && opts.Headers["content-type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// Set custom headers
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	// A header set without a body would describe nothing
	if bodyReader == nil {
		req.Header.Del("Content-Type")
	}

	return req, nil
}

func formValues(body interface{}) (url.Values, error) {
	form := url.Values{}

	switch v := body.(type) {
	case url.Values:
		form = v
	case map[string]string:
		for k, val := range v {
			form.Set(k, val)
		}
	case map[string]interface{}:
		for k, val := range v {
			if val == nil {
				continue
			}
			form.Set(k, fmt.Sprint(val))
		}
	default:
		// Convert structs (or other JSON-marshalable types) into a map first.
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		var m map[string]interface{}
		if err := json.Unmarshal(bodyJSON, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request body: %w", err)
		}
		for k, val := range m {
			if val == nil {
				continue
			}
			form.Set(k, fmt.Sprint(val))
		}
	}

	return form, nil
}
