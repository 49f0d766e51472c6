// Package testutil provides shared helpers for exercising the relay end to end.
//
// It starts an httptest server around a fully wired hub, dials WebSocket
// parties against it, and decodes the envelopes they receive.
package testutil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/lanchat/internal/history"
	"github.com/Tyrowin/lanchat/internal/server"
)

// DefaultReadTimeout bounds every blocking read performed by the helpers.
const DefaultReadTimeout = 2 * time.Second

// Relay is a running relay backed by an httptest server.
type Relay struct {
	Server *httptest.Server
	Hub    *server.Hub
	Store  *history.Store
	Config *server.Config
}

// StartRelay wires a relay with default configuration, adjusted by customize,
// and registers cleanup that shuts everything down when the test ends.
// The test server's own URL is always an allowed origin.
func StartRelay(t *testing.T, customize func(cfg *server.Config)) *Relay {
	t.Helper()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	cfg := server.NewConfig()
	if customize != nil {
		customize(cfg)
	}

	store := history.New(cfg.HistoryCapacity)
	hub := server.NewHub(log, store, cfg)
	go hub.Run()

	// The listener exists before Start, so its address can be allowed up front.
	testServer := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + testServer.Listener.Addr().String()
	cfg.AllowedOrigins = append([]string{baseURL}, cfg.AllowedOrigins...)
	testServer.Config.Handler = server.SetupRoutes(server.NewHandlers(log, hub, cfg))
	testServer.Start()

	t.Cleanup(func() {
		_ = hub.Shutdown(2 * time.Second)
		testServer.Close()
	})

	return &Relay{Server: testServer, Hub: hub, Store: store, Config: cfg}
}

// WebSocketURL returns the ws:// URL of the relay's WebSocket endpoint.
func (r *Relay) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(r.Server.URL, "http") + "/ws"
}

// Dial connects a party using the relay URL as Origin plus any extra headers.
// The connection is closed when the test ends.
func (r *Relay) Dial(t *testing.T, extra http.Header) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	header.Set("Origin", r.Server.URL)
	for key, values := range extra {
		for _, value := range values {
			header.Add(key, value)
		}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(r.WebSocketURL(), header)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Join dials a party and consumes its catch-up envelope, which is returned.
func (r *Relay) Join(t *testing.T) (*websocket.Conn, server.Envelope) {
	t.Helper()
	conn := r.Dial(t, nil)
	initial := ReadEnvelope(t, conn)
	require.Equal(t, server.EventInit, initial.Type)
	return conn, initial
}

// SendText submits text as a JSON submission.
func SendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(server.Submission{Text: text}))
}

// ReadEnvelope reads and decodes the next frame within DefaultReadTimeout.
func ReadEnvelope(t *testing.T, conn *websocket.Conn) server.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(DefaultReadTimeout)))

	messageType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)

	var envelope server.Envelope
	require.NoError(t, json.Unmarshal(payload, &envelope))
	return envelope
}

// ReadRecord reads the next frame and requires it to be a newMessage envelope.
func ReadRecord(t *testing.T, conn *websocket.Conn) history.Record {
	t.Helper()
	envelope := ReadEnvelope(t, conn)
	require.Equal(t, server.EventNewMessage, envelope.Type)
	require.NotNil(t, envelope.Message)
	return *envelope.Message
}

// ExpectNoFrame fails the test if a data frame arrives within timeout.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))

	_, payload, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no frame, received %s", payload)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("unexpected error while waiting for absence of frame: %v", err)
}

// ExpectClosed requires the connection to be closed by the server within timeout.
func ExpectClosed(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			t.Fatalf("connection still open after %v", timeout)
		}
		return
	}
}

// WaitFor polls cond until it holds or the timeout expires.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, timeout, 10*time.Millisecond)
}
