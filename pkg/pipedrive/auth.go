package pipedrive

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	httpclient "github.com/natserract/pipedrive/pkg/http"
	"go.uber.org/zap"
)

var ErrNoRefreshToken = errors.New("pipedrive: no refresh token configured")

// RefreshAccessToken exchanges the stored refresh token for a new token
// pair. On success the tokens are replaced in memory, the cached
// connection is dropped and the AuthenticationCallback is invoked. On
// failure the current tokens are left untouched. Concurrent refreshes run
// one at a time, each with the refresh token stored when it starts.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.refreshMu.Lock()
	tokens, err := c.grant(ctx)
	c.refreshMu.Unlock()
	if err != nil {
		return err
	}

	c.notify(ctx, tokens)
	return nil
}

// refreshRejected refreshes after a 401 for the access token the request
// was sent with. Calls rejected with the same token share one grant, and
// a token that was already replaced is not refreshed again.
func (c *Client) refreshRejected(ctx context.Context, rejected string) error {
	_, err, shared := c.refreshes.Do(rejected, func() (interface{}, error) {
		c.refreshMu.Lock()

		c.mu.RLock()
		current := c.config.AccessToken
		c.mu.RUnlock()

		if current != rejected {
			c.refreshMu.Unlock()
			c.logger.Debug("Access token already replaced, skipping refresh")
			return nil, nil
		}

		tokens, err := c.grant(ctx)
		c.refreshMu.Unlock()
		if err != nil {
			return nil, err
		}

		c.notify(ctx, tokens)
		return nil, nil
	})
	if shared {
		c.logger.Debug("Joined in-flight token refresh")
	}
	return err
}

// grant performs the refresh_token grant and swaps the tokens in. Callers
// hold refreshMu.
func (c *Client) grant(ctx context.Context) (TokenResponse, error) {
	c.mu.RLock()
	clientID := c.config.ClientID
	clientSecret := c.config.ClientSecret
	refreshToken := c.config.RefreshToken
	c.mu.RUnlock()

	if refreshToken == "" {
		return TokenResponse{}, ErrNoRefreshToken
	}

	conn, err := c.connection()
	if err != nil {
		return TokenResponse{}, err
	}

	tokenURL := c.config.ClientOptions.TokenURL
	c.logger.Info("Refreshing Pipedrive access token", zap.String("url", tokenURL))

	headers := map[string]string{
		"Authorization": "Basic " + basicAuth(clientID, clientSecret),
		"Content-Type":  "application/x-www-form-urlencoded",
		"User-Agent":    c.config.ClientOptions.UserAgent,
	}
	form := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}

	resp, err := conn.http.Do(c.retryOptions(httpclient.RequestOptions{
		Method:  http.MethodPost,
		URL:     tokenURL,
		Headers: headers,
		Body:    form,
		Context: ctx,
	}))
	if err != nil {
		c.logger.Error("Token refresh request failed", zap.Error(err), zap.String("url", tokenURL))
		return TokenResponse{}, fmt.Errorf("token refresh request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Token refresh failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(resp.Body)))
		return TokenResponse{}, fmt.Errorf("token refresh failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var tokens TokenResponse
	if err := json.Unmarshal(resp.Body, &tokens); err != nil {
		c.logger.Error("Failed to parse token response", zap.Error(err))
		return TokenResponse{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return TokenResponse{}, errors.New("token response did not contain an access token")
	}

	c.mu.Lock()
	c.config.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.config.RefreshToken = tokens.RefreshToken
	}
	// Drop the cached connection so the next request carries the new bearer token
	c.conn = nil
	c.mu.Unlock()

	c.logger.Info("Successfully refreshed access token",
		zap.String("token_type", tokens.TokenType),
		zap.Int("expires_in", tokens.ExpiresIn))

	return tokens, nil
}

// notify hands a refreshed token pair to the AuthenticationCallback.
func (c *Client) notify(ctx context.Context, tokens TokenResponse) {
	c.mu.RLock()
	callback := c.config.AuthenticationCallback
	c.mu.RUnlock()

	if callback == nil {
		return
	}
	if err := callback(ctx, tokens); err != nil {
		c.logger.Warn("Authentication callback failed", zap.Error(err))
	}
}

func basicAuth(clientID, clientSecret string) string {
	return base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
}
