package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	httpclient "github.com/natserract/pipedrive/pkg/http"
	"go.uber.org/zap"
)

var (
	ErrMissingMethod     = errors.New("pipedrive: method is required")
	ErrMalformedResponse = errors.New("pipedrive: malformed response body")
)

// statusRateLimited is the status Pipedrive uses for exhausted quotas.
const statusRateLimited = 420

// Call describes one API request against an entity collection.
type Call struct {
	// ID addresses a single record; empty addresses the collection
	ID string
	// Params become the query string for GET and the JSON body otherwise.
	// DELETE requests never carry a body.
	Params map[string]interface{}
	// FieldsToSelect narrows the returned fields: /v1/persons/1:(id,name)
	FieldsToSelect []string
}

// MakeAPICall sends one request to /v1/<entity>. A 401 triggers a single
// token refresh followed by one retry of the same request; any other
// outcome is normalized into the returned Envelope. The error is non-nil
// only when no response could be obtained.
func (c *Client) MakeAPICall(ctx context.Context, method, entity string, call Call) (Envelope, error) {
	if method == "" {
		return nil, ErrMissingMethod
	}
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(method)
	path := buildPath(entity, call.ID, call.FieldsToSelect)

	requestID := uuid.NewString()
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path))

	canRefresh := true
	for {
		resp, sentToken, err := c.send(ctx, requestID, method, path, call.Params)
		if err != nil {
			logger.Error("Pipedrive request failed", zap.Error(err))
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && canRefresh {
			canRefresh = false
			logger.Info("Access token rejected, refreshing")
			if err := c.refreshRejected(ctx, sentToken); err != nil {
				if errors.Is(err, ErrNoRefreshToken) {
					logger.Warn("Access token rejected and no refresh token is configured")
					return processResponse(resp), nil
				}
				logger.Warn("Failed to refresh access token", zap.Error(err))
			}
			continue
		}

		env := processResponse(resp)
		logger.Debug("Pipedrive request finished",
			zap.Int("status_code", resp.StatusCode),
			zap.Bool("success", env.Success()))
		return env, nil
	}
}

// send returns the response together with the access token it carried.
func (c *Client) send(ctx context.Context, requestID, method, path string, params map[string]interface{}) (*httpclient.Response, string, error) {
	conn, err := c.connection()
	if err != nil {
		return nil, "", err
	}

	endpoint, err := httpclient.BuildURL(conn.baseURL, path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build URL: %w", err)
	}

	headers := make(map[string]string, len(conn.headers)+1)
	for k, v := range conn.headers {
		headers[k] = v
	}
	headers["X-Request-Id"] = requestID

	opts := c.retryOptions(httpclient.RequestOptions{
		Method:   method,
		URL:      endpoint,
		Headers:  headers,
		Context:  ctx,
		Validate: validateJSON,
	})

	switch method {
	case http.MethodGet:
		opts.Query = queryValues(params)
	case http.MethodDelete:
		// never send a body
	default:
		if params == nil {
			params = map[string]interface{}{}
		}
		opts.Body = params
	}

	resp, err := conn.http.Do(opts)
	return resp, conn.accessToken, err
}

// buildPath renders the escaped path /v1/<entity>[/<id>][:(<f1>,<f2>,...)].
// Only the id is escaped so the field selector stays literal.
func buildPath(entity, id string, fields []string) string {
	var b strings.Builder
	b.WriteString("/v1/")
	b.WriteString(entity)
	if id != "" {
		b.WriteString("/")
		b.WriteString(url.PathEscape(id))
	}
	if len(fields) > 0 {
		b.WriteString(":(")
		b.WriteString(strings.Join(fields, ","))
		b.WriteString(")")
	}
	return b.String()
}

func queryValues(params map[string]interface{}) url.Values {
	if len(params) == 0 {
		return nil
	}
	q := url.Values{}
	for key, value := range params {
		switch v := value.(type) {
		case nil:
			continue
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		case []interface{}:
			for _, item := range v {
				q.Add(key, fmt.Sprint(item))
			}
		default:
			q.Set(key, fmt.Sprint(v))
		}
	}
	return q
}

func isJSON(resp *httpclient.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Headers.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// validateJSON rejects bodies that claim to be JSON but do not parse, so
// the transport retries them.
func validateJSON(resp *httpclient.Response) error {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || !isJSON(resp) {
		return nil
	}
	if !json.Valid(body) {
		return fmt.Errorf("%w (status %d)", ErrMalformedResponse, resp.StatusCode)
	}
	return nil
}

// decodeObject returns the body as a JSON object, or nil when it is empty,
// not JSON, or not an object.
func decodeObject(resp *httpclient.Response) map[string]interface{} {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || body[0] != '{' || !isJSON(resp) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil
	}
	return m
}

func processResponse(resp *httpclient.Response) Envelope {
	body := decodeObject(resp)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if body == nil {
			return Envelope{"success": true}
		}
		env := Envelope(body)
		env["success"] = true
		return env
	}
	return failedResponse(resp.StatusCode, body)
}

func failedResponse(status int, body map[string]interface{}) Envelope {
	env := make(Envelope, len(body)+3)
	for k, v := range body {
		env[k] = v
	}
	env["success"] = false
	env["not_authorized"] = status == http.StatusUnauthorized
	env["failed"] = status == statusRateLimited
	return env
}
