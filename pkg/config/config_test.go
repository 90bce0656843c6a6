package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("PIPEDRIVE_DOMAIN_URL", "https://acme.pipedrive.com")
	t.Setenv("PIPEDRIVE_CLIENT_ID", "client-id")
	t.Setenv("PIPEDRIVE_CLIENT_SECRET", "client-secret")
	t.Setenv("PIPEDRIVE_ACCESS_TOKEN", "access")
	t.Setenv("PIPEDRIVE_REFRESH_TOKEN", "refresh")
	t.Setenv("PIPEDRIVE_TOKEN_URL", "http://localhost/oauth/token")
	t.Setenv("PIPEDRIVE_DEBUG", "true")

	cfg := FromEnv()

	assert.Equal(t, "https://acme.pipedrive.com", cfg.DomainURL)
	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, "client-secret", cfg.ClientSecret)
	assert.Equal(t, "access", cfg.AccessToken)
	assert.Equal(t, "refresh", cfg.RefreshToken)
	assert.Equal(t, "http://localhost/oauth/token", cfg.TokenURL)
	assert.True(t, cfg.Debug)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing domain",
			cfg:     Config{AccessToken: "a"},
			wantErr: "PIPEDRIVE_DOMAIN_URL is required",
		},
		{
			name:    "missing tokens",
			cfg:     Config{DomainURL: "https://x"},
			wantErr: "PIPEDRIVE_ACCESS_TOKEN or PIPEDRIVE_REFRESH_TOKEN is required",
		},
		{
			name:    "refresh token without client id",
			cfg:     Config{DomainURL: "https://x", RefreshToken: "r", ClientSecret: "s"},
			wantErr: "PIPEDRIVE_CLIENT_ID is required",
		},
		{
			name:    "refresh token without client secret",
			cfg:     Config{DomainURL: "https://x", RefreshToken: "r", ClientID: "id"},
			wantErr: "PIPEDRIVE_CLIENT_SECRET is required",
		},
		{
			name: "access token only",
			cfg:  Config{DomainURL: "https://x", AccessToken: "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
