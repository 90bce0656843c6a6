package pipedrive

import (
	"context"
	"net/http"
	"time"

	"github.com/natserract/pipedrive/pkg/config"
)

const (
	// Version of this client, sent in the User-Agent header
	Version = "0.1.0"

	// DefaultTokenURL is the Pipedrive OAuth token endpoint
	DefaultTokenURL = "https://oauth.pipedrive.com/oauth/token"
)

// AuthenticationCallback is invoked after every successful token refresh.
// The application is expected to persist the new tokens; errors are logged
// and never fail the API call that triggered the refresh.
type AuthenticationCallback func(ctx context.Context, tokens TokenResponse) error

// Config holds the credentials of a single Client.
type Config struct {
	ClientID               string
	ClientSecret           string
	AccessToken            string
	RefreshToken           string
	DomainURL              string
	AuthenticationCallback AuthenticationCallback
	ClientOptions          ClientOptions
}

// ClientOptions is merged into the transport configuration.
type ClientOptions struct {
	Timeout   time.Duration
	ProxyURL  string
	Transport http.RoundTripper
	UserAgent string

	// Headers are added to every API request and override the defaults
	Headers map[string]string

	// TokenURL overrides DefaultTokenURL
	TokenURL string

	// MaxRetries bounds retries of network and parse failures, a negative
	// value disables them
	MaxRetries        int
	InitialInterval   time.Duration
	MaxInterval       time.Duration
	MaxElapsed        time.Duration
	RetryServerErrors bool

	Debug bool
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "pipedrive-go/" + Version
	}
	if o.TokenURL == "" {
		o.TokenURL = DefaultTokenURL
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 5
	}
	if o.InitialInterval == 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
	if o.MaxInterval == 0 {
		o.MaxInterval = 10 * time.Second
	}
	if o.MaxElapsed == 0 {
		o.MaxElapsed = 2 * time.Minute
	}
	return o
}

// LoadConfig reads the client configuration from the environment (and a
// .env file when present).
func LoadConfig() (*Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return ConfigFrom(cfg), nil
}

// ConfigFrom converts environment settings into client credentials.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		DomainURL:    cfg.DomainURL,
		ClientOptions: ClientOptions{
			TokenURL: cfg.TokenURL,
			Debug:    cfg.Debug,
		},
	}
}
