// Package server normalizes and validates HTTP origins for WebSocket requests
// to enforce configured access control, and derives the origin tag stamped on
// each record.
package server

import (
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
)

type originPolicy struct {
	allowed  map[string]struct{}
	allowAll bool
	log      *slog.Logger
}

func newOriginPolicy(log *slog.Logger, origins []string) *originPolicy {
	normalized, allowAll := normalizeOrigins(log, origins)
	allowed := make(map[string]struct{}, len(normalized))
	for _, origin := range normalized {
		allowed[origin] = struct{}{}
	}
	return &originPolicy{allowed: allowed, allowAll: allowAll, log: log}
}

func normalizeOrigins(log *slog.Logger, origins []string) ([]string, bool) {
	if len(origins) == 0 {
		return nil, false
	}

	normalized := make([]string, 0, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}

		if trimmed == "*" {
			allowAll = true
			continue
		}

		normalizedOrigin, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", "origin", origin)
			continue
		}

		normalized = append(normalized, normalizedOrigin)
	}

	return normalized, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)
	return normalized, true
}

func (p *originPolicy) isAllowed(r *http.Request) bool {
	originHeader := r.Header.Get("Origin")
	if originHeader == "" {
		return false
	}

	normalizedOrigin, ok := normalizeOrigin(originHeader)
	if !ok {
		return false
	}

	if p.allowAll || sameHost(originHeader, r.Host) {
		return true
	}

	_, exists := p.allowed[normalizedOrigin]
	return exists
}

// sameHost reports whether origin names the host the request was sent to,
// so a page served by the relay itself may always connect back to it.
func sameHost(origin, host string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	return strings.EqualFold(parsed.Host, host)
}

func (p *originPolicy) checkOrigin(r *http.Request) bool {
	if p.isAllowed(r) {
		return true
	}

	p.log.Warn("Blocked WebSocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
	return false
}

// PartyOrigin returns the unauthenticated identifier recorded for messages
// submitted over r. With trustProxy set, the first X-Forwarded-For entry wins.
// Otherwise it is the host part of the remote address.
func PartyOrigin(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
