package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DomainURL    string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	TokenURL     string
	Debug        bool
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := FromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv reads the PIPEDRIVE_* variables without validating them.
func FromEnv() *Config {
	debug, _ := strconv.ParseBool(os.Getenv("PIPEDRIVE_DEBUG"))

	return &Config{
		DomainURL:    os.Getenv("PIPEDRIVE_DOMAIN_URL"),
		ClientID:     os.Getenv("PIPEDRIVE_CLIENT_ID"),
		ClientSecret: os.Getenv("PIPEDRIVE_CLIENT_SECRET"),
		AccessToken:  os.Getenv("PIPEDRIVE_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("PIPEDRIVE_REFRESH_TOKEN"),
		TokenURL:     os.Getenv("PIPEDRIVE_TOKEN_URL"),
		Debug:        debug,
	}
}

func (c *Config) Validate() error {
	if c.DomainURL == "" {
		return fmt.Errorf("PIPEDRIVE_DOMAIN_URL is required")
	}
	if c.AccessToken == "" && c.RefreshToken == "" {
		return fmt.Errorf("PIPEDRIVE_ACCESS_TOKEN or PIPEDRIVE_REFRESH_TOKEN is required")
	}
	// A refresh token is useless without the client credentials to exchange it
	if c.RefreshToken != "" {
		if c.ClientID == "" {
			return fmt.Errorf("PIPEDRIVE_CLIENT_ID is required")
		}
		if c.ClientSecret == "" {
			return fmt.Errorf("PIPEDRIVE_CLIENT_SECRET is required")
		}
	}
	// TokenURL is optional, the client falls back to the public OAuth endpoint
	return nil
}
