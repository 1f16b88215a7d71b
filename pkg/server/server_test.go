package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/browser"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/config"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/progress"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
	}
	return New(cfg, browser.NewManager(), nil)
}

func jsonRequest(method, target, body string) *http.Request {
	req, _ := http.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := srv.App().Test(jsonRequest(http.MethodGet, "/health", ""))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Zero(t, body.Sessions)
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t)

	resp, err := srv.App().Test(jsonRequest(http.MethodGet, "/health", ""))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := jsonRequest(http.MethodGet, "/health", "")
	req.Header.Set("X-Request-ID", "req-123")
	resp, err = srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}

func TestNavigateRequiresURL(t *testing.T) {
	srv := testServer(t)

	resp, err := srv.App().Test(jsonRequest(http.MethodPost, "/navigate", `{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "url is required", body.Error)
}

func TestSuggestionsEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := srv.App().Test(jsonRequest(http.MethodPost, "/playbook/suggestions",
		`{"steps": [{"id": "step-0", "action": "navigate"}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Suggestions []struct {
			Action      string `json:"action"`
			Description string `json:"description"`
		} `json:"suggestions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Suggestions, 3)
	assert.Equal(t, "screenshot", body.Suggestions[0].Action)
}

func TestSuggestionsRejectsBadBody(t *testing.T) {
	srv := testServer(t)

	resp, err := srv.App().Test(jsonRequest(http.MethodPost, "/playbook/suggestions", `{not json`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecutePlaybookRejectsInvalid(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown action", `{"name": "bad", "steps": [{"action": "teleport"}]}`},
		{"no steps", `{"name": "empty", "steps": []}`},
		{"no name", `{"steps": [{"action": "navigate"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.App().Test(jsonRequest(http.MethodPost, "/playbook/execute", tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestWSRouteRequiresUpgrade(t *testing.T) {
	srv := testServer(t)

	resp, err := srv.App().Test(jsonRequest(http.MethodGet, "/ws/client-1", ""))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestHubUnknownClient(t *testing.T) {
	hub := NewHub()

	assert.Nil(t, hub.Sink("ghost"))
	assert.False(t, hub.Connected("ghost"))

	err := hub.Send("ghost", map[string]string{"type": "pong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	// Unregistering an unknown client is a no-op.
	hub.Unregister("ghost")
}

func TestSinkDropsUpdatesAfterDisconnect(t *testing.T) {
	hub := NewHub()
	client := &hubClient{
		id:      "c1",
		updates: make(chan progress.Update, updateBuffer),
		done:    make(chan struct{}),
	}
	hub.mu.Lock()
	hub.clients[client.id] = client
	hub.mu.Unlock()

	sink := hub.Sink("c1")
	require.NotNil(t, sink)

	hub.Unregister("c1")

	// Publishing more than the channel buffer must not block once the
	// client is gone, or the run holding this sink never finishes.
	finished := make(chan struct{})
	go func() {
		for i := 0; i < updateBuffer+1; i++ {
			_ = sink.Publish(progress.Update{Message: "step"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked after client disconnect")
	}
}

func TestProgressFrameShape(t *testing.T) {
	frame := progressFrame{Type: "progress"}
	frame.Data.Message = "Step 1 completed successfully"

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"progress"`)
	assert.Contains(t, string(data), `"data"`)
}
