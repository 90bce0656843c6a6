package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/natserract/pipedrive/pkg/pipedrive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runCommand(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCommand(app)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func testApp(t *testing.T, handler http.HandlerFunc, tokenURL string) *App {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := pipedrive.NewWithLogger(pipedrive.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AccessToken:  "access",
		RefreshToken: "refresh",
		DomainURL:    server.URL,
		ClientOptions: pipedrive.ClientOptions{
			TokenURL:        tokenURL,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxRetries:      -1,
		},
	}, zap.NewNop())

	return NewAppWithClient(client, zap.NewNop())
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand(NewApp())
	assert.Equal(t, "pipedrive", root.Use)
	assert.True(t, root.SilenceUsage)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"calllogs", "webhooks", "token", "entity-name", "version"})

	create, _, err := root.Find([]string{"calllogs", "create"})
	require.NoError(t, err)
	for _, flag := range []string{"outcome", "to", "person-id", "start-time"} {
		assert.NotNil(t, create.Flags().Lookup(flag), "flag %s should exist", flag)
	}
}

func TestEntityNameCommand(t *testing.T) {
	out, err := runCommand(t, NewAppWithClient(nil, zap.NewNop()), "entity-name", "CallLog")
	require.NoError(t, err)
	assert.Equal(t, "call_logs\n", out)
}

func TestCallLogsListCommand(t *testing.T) {
	app := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/call_logs", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"c1","outcome":"busy"}]}`))
	}, "")

	out, err := runCommand(t, app, "calllogs", "list", "--limit", "10")
	require.NoError(t, err)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, true, env["success"])
	assert.Len(t, env["data"], 1)
}

func TestCallLogsCreateCommand(t *testing.T) {
	app := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "connected", body["outcome"])
		assert.Equal(t, "+3725551234", body["to_phone_number"])
		assert.Equal(t, float64(42), body["person_id"])
		assert.Equal(t, "2024-03-01 09:15:00", body["start_time"])
		assert.NotContains(t, body, "end_time")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"c2"}}`))
	}, "")

	_, err := runCommand(t, app, "calllogs", "create",
		"--outcome", "connected",
		"--to", "+3725551234",
		"--person-id", "42",
		"--start-time", "2024-03-01 09:15:00")
	require.NoError(t, err)
}

func TestWebhooksDeleteCommand_Failure(t *testing.T) {
	app := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/webhooks/9", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Webhook not found"}`))
	}, "")

	out, err := runCommand(t, app, "webhooks", "delete", "9")
	require.Error(t, err)
	assert.Equal(t, "pipedrive: request failed: Webhook not found", err.Error())
	assert.Contains(t, out, `"error": "Webhook not found"`)
}

func TestTokenRefreshCommand(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","expires_in":3599}`))
	}))
	defer tokens.Close()

	app := testApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("api should not be called")
	}, tokens.URL)

	out, err := runCommand(t, app, "token", "refresh")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, out)

	access, refresh := app.client.Tokens()
	assert.Equal(t, "new-access", access)
	assert.Equal(t, "new-refresh", refresh)
}
