// Package pipedrive provides a client for the Pipedrive CRM REST API.
//
// Every call resolves to an Envelope: the decoded JSON body merged with a
// success flag, and on failure with not_authorized (HTTP 401) and failed
// (HTTP 420) flags. API failures are never returned as errors; errors are
// reserved for requests that could not be completed at all, such as
// exhausted network retries or a cancelled context.
//
// Authentication uses an OAuth2 bearer token. When the API answers 401 the
// client exchanges its refresh token for a new token pair once, rebuilds
// its connection with the new bearer token, notifies the configured
// AuthenticationCallback and retries the original request.
package pipedrive

import (
	"fmt"
	"sync"

	httpclient "github.com/natserract/pipedrive/pkg/http"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Client is the main client for interacting with the Pipedrive API
type Client struct {
	config *Config
	logger *zap.Logger

	// mu guards the tokens in config and the cached connection
	mu   sync.RWMutex
	conn *connection

	// refreshMu serializes refresh grants; Pipedrive rotates the refresh
	// token on every grant, so two grants must never use the same one
	refreshMu sync.Mutex
	refreshes singleflight.Group
}

// connection is the transport bound to one set of credentials.
type connection struct {
	baseURL     string
	accessToken string
	headers     map[string]string
	http        *httpclient.Client
}

// New creates a new Pipedrive client with default production logger
func New(cfg Config) *Client {
	logger, _ := zap.NewProduction()
	return NewWithLogger(cfg, logger)
}

// NewWithLogger creates a new Pipedrive client with a custom logger
func NewWithLogger(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ClientOptions = cfg.ClientOptions.withDefaults()
	return &Client{
		config: &cfg,
		logger: logger,
	}
}

// SetTokens replaces the OAuth token pair. The next request is built with
// the new bearer token.
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.config.AccessToken = accessToken
	c.config.RefreshToken = refreshToken
	c.conn = nil
}

// Tokens returns the current OAuth token pair.
func (c *Client) Tokens() (accessToken, refreshToken string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.config.AccessToken, c.config.RefreshToken
}

// connection returns the cached connection, building it on first use.
func (c *Client) connection() (*connection, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn != nil {
		return conn, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	opts := c.config.ClientOptions
	transport, err := httpclient.NewClientWithOptions(c.logger, httpclient.Options{
		Timeout:   opts.Timeout,
		ProxyURL:  opts.ProxyURL,
		Transport: opts.Transport,
		Debug:     opts.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build connection: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.config.AccessToken,
		"Accept":        "application/json",
		"Content-Type":  "application/json",
		"User-Agent":    opts.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	c.conn = &connection{
		baseURL:     c.config.DomainURL,
		accessToken: c.config.AccessToken,
		headers:     headers,
		http:        transport,
	}
	c.logger.Debug("Built Pipedrive connection", zap.String("base_url", c.config.DomainURL))

	return c.conn, nil
}

// retryOptions copies the retry policy into a transport request.
func (c *Client) retryOptions(opts httpclient.RequestOptions) httpclient.RequestOptions {
	o := c.config.ClientOptions
	opts.MaxRetries = o.MaxRetries
	opts.InitialInterval = o.InitialInterval
	opts.MaxInterval = o.MaxInterval
	opts.MaxElapsed = o.MaxElapsed
	opts.RetryServerErrors = o.RetryServerErrors
	return opts
}
