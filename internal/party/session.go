package party

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Tyrowin/lanchat/internal/server"
)

// Session is one open connection to the relay.
type Session struct {
	conn     *websocket.Conn
	nickname string
}

// Dial opens a session against cfg.ServerURL, presenting cfg.Origin.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	header := http.Header{}
	if cfg.Origin != "" {
		header.Set("Origin", cfg.Origin)
	}

	conn, _, err := websocket.Dial(ctx, cfg.ServerURL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.ServerURL, err)
	}
	return &Session{conn: conn, nickname: strings.TrimSpace(cfg.Nickname)}, nil
}

// Send submits text with the session's nickname prefix.
func (s *Session) Send(ctx context.Context, text string) error {
	submission := server.Submission{Text: Prefix(s.nickname, text)}
	if err := wsjson.Write(ctx, s.conn, submission); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Receive blocks until the next envelope arrives.
func (s *Session) Receive(ctx context.Context) (server.Envelope, error) {
	var envelope server.Envelope
	if err := wsjson.Read(ctx, s.conn, &envelope); err != nil {
		return server.Envelope{}, err
	}
	return envelope, nil
}

// Close performs a normal closure handshake.
func (s *Session) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Prefix returns text as submitted by nickname. An empty nickname leaves
// text untouched.
func Prefix(nickname, text string) string {
	if nickname == "" {
		return text
	}
	return nickname + ": " + text
}

// isNormalClosure reports whether err ends a session without failure.
func isNormalClosure(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
