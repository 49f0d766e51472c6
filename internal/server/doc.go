// Package server implements the WebSocket relay for LAN Chat.
//
// The implementation is organized into specialized files for configuration, the
// broadcast hub, per-connection clients, routing, and HTTP handlers. The hub owns
// the bounded message history and is the only goroutine that mutates it.
package server
