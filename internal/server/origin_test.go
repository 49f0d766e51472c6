package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func requestWithOrigin(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "exact match", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:8080", want: true},
		{name: "case insensitive", allowed: []string{"http://LocalHost:8080"}, origin: "HTTP://localhost:8080", want: true},
		{name: "different port", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:9090", want: false},
		{name: "missing header", allowed: []string{"http://localhost:8080"}, origin: "", want: false},
		{name: "malformed header", allowed: []string{"http://localhost:8080"}, origin: "localhost", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://anything.lan", want: true},
		{name: "wildcard still needs a header", allowed: []string{"*"}, origin: "", want: false},
		{name: "invalid entries are ignored", allowed: []string{"not-an-origin", " "}, origin: "http://localhost:8080", want: false},
		{name: "nothing configured", allowed: nil, origin: "http://localhost:8080", want: false},
		{name: "same host as request", allowed: []string{"http://localhost:8080"}, origin: "http://example.com", want: true},
		{name: "same host ignores case", allowed: nil, origin: "http://EXAMPLE.com", want: true},
		{name: "same host different port", allowed: nil, origin: "http://example.com:9090", want: false},
	}

	// httptest requests target example.com.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := newOriginPolicy(log, tt.allowed)
			require.Equal(t, tt.want, policy.checkOrigin(requestWithOrigin(tt.origin)))
		})
	}
}

func TestPartyOrigin(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "remote host", remoteAddr: "192.168.1.20:53211", want: "192.168.1.20"},
		{name: "ipv6 remote host", remoteAddr: "[::1]:53211", want: "::1"},
		{name: "forwarded first entry", remoteAddr: "10.0.0.1:1", forwarded: "203.0.113.7, 10.0.0.1", trustProxy: true, want: "203.0.113.7"},
		{name: "forwarded ignored when untrusted", remoteAddr: "10.0.0.1:1", forwarded: "203.0.113.7", trustProxy: false, want: "10.0.0.1"},
		{name: "empty forwarded entry", remoteAddr: "10.0.0.1:1", forwarded: " , 203.0.113.7", trustProxy: true, want: "10.0.0.1"},
		{name: "remote address without port", remoteAddr: "pipe", want: "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			require.Equal(t, tt.want, PartyOrigin(req, tt.trustProxy))
		})
	}
}
