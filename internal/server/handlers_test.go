package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/lanchat/internal/history"
	"github.com/Tyrowin/lanchat/internal/server"
	"github.com/Tyrowin/lanchat/internal/testutil"
)

func doRequest(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthHandler(t *testing.T) {
	relay := testutil.StartRelay(t, nil)
	relay.Store.Append(history.Record{Text: "hello", Origin: "1.1.1.1", Time: "10:00:00"})
	relay.Join(t)

	for _, path := range []string{"/", "/health"} {
		resp, body := doRequest(t, http.MethodGet, relay.Server.URL+path)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var health server.HealthResponse
		require.NoError(t, json.Unmarshal(body, &health))
		require.Equal(t, server.HealthResponse{Status: "ok", Connections: 1, Messages: 1}, health)
	}
}

func TestClearHandler(t *testing.T) {
	relay := testutil.StartRelay(t, nil)
	relay.Store.Append(history.Record{Text: "hello"})

	resp, body := doRequest(t, http.MethodPost, relay.Server.URL+"/api/clear")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"message":"All messages cleared"}`, string(body))
	require.Zero(t, relay.Store.Len())

	// Clearing an empty history yields the same confirmation.
	resp, body = doRequest(t, http.MethodPost, relay.Server.URL+"/api/clear")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"message":"All messages cleared"}`, string(body))
}

func TestClearHandler_AfterHubShutdown(t *testing.T) {
	relay := testutil.StartRelay(t, nil)
	require.NoError(t, relay.Hub.Shutdown(testutil.DefaultReadTimeout))

	resp, _ := doRequest(t, http.MethodPost, relay.Server.URL+"/api/clear")

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMessagesHandler(t *testing.T) {
	relay := testutil.StartRelay(t, nil)

	resp, body := doRequest(t, http.MethodGet, relay.Server.URL+"/api/messages")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"messages":[]}`, string(body))

	first := history.Record{Text: "Alice: hi", Origin: "1.2.3.4", Time: "10:00:00"}
	second := history.Record{Text: "Bob: hey", Origin: "5.6.7.8", Time: "10:00:01"}
	relay.Store.Append(first)
	relay.Store.Append(second)

	_, body = doRequest(t, http.MethodGet, relay.Server.URL+"/api/messages")
	var messages server.MessagesResponse
	require.NoError(t, json.Unmarshal(body, &messages))
	require.Equal(t, []history.Record{first, second}, messages.Messages)
}

func TestMethodNotAllowed(t *testing.T) {
	relay := testutil.StartRelay(t, nil)

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/clear"},
		{method: http.MethodPost, path: "/ws"},
		{method: http.MethodDelete, path: "/api/messages"},
		{method: http.MethodPost, path: "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, _ := doRequest(t, tt.method, relay.Server.URL+tt.path)
			require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		})
	}
}

func TestWebSocketHandler_RequiresUpgrade(t *testing.T) {
	relay := testutil.StartRelay(t, nil)

	resp, _ := doRequest(t, http.MethodGet, relay.Server.URL+"/ws")

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, relay.Hub.ClientCount())
}

func TestUnknownRoute(t *testing.T) {
	relay := testutil.StartRelay(t, nil)

	resp, _ := doRequest(t, http.MethodGet, relay.Server.URL+"/nope")

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTestPage(t *testing.T) {
	relay := testutil.StartRelay(t, nil)

	resp, body := doRequest(t, http.MethodGet, relay.Server.URL+"/test")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	page := string(body)
	require.Contains(t, page, "<title>LAN Chat</title>")
	require.Contains(t, page, "'/ws'")
	require.Contains(t, page, "newMessage")
}

func TestClearPage(t *testing.T) {
	relay := testutil.StartRelay(t, nil)
	party, _ := relay.Join(t)
	testutil.SendText(t, party, "kept until the button is pressed")
	testutil.ReadRecord(t, party)

	resp, body := doRequest(t, http.MethodGet, relay.Server.URL+"/clear")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	page := string(body)
	require.Contains(t, page, "<title>Clear Chat</title>")
	require.Contains(t, page, "fetch('/api/clear', { method: 'POST' })")
	require.Contains(t, page, "data.message")
	// Loading the page alone must not clear anything.
	require.Equal(t, 1, relay.Store.Len())
}
