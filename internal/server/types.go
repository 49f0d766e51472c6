// Package server defines the wire envelopes exchanged with parties and utility
// helpers that are reused across client and hub logic.
package server

import (
	"encoding/json"
	"strings"

	"github.com/Tyrowin/lanchat/internal/history"
)

// Outbound envelope types.
const (
	EventInit       = "init"
	EventNewMessage = "newMessage"
	EventClear      = "clear"
)

// ClearConfirmation is returned to the requester of an administrative clear.
const ClearConfirmation = "All messages cleared"

// Submission is the JSON payload a party sends to post a message.
type Submission struct {
	Text string `json:"text"`
}

// Envelope is the JSON frame delivered to parties. Exactly one of Messages or
// Message is set depending on Type; a clear envelope carries neither.
type Envelope struct {
	Type     string           `json:"type"`
	Messages []history.Record `json:"messages,omitempty"`
	Message  *history.Record  `json:"message,omitempty"`
}

// MarshalJSON keeps the messages field present on init envelopes even when
// the history is empty, so parties can always replace their local view.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	if e.Type == EventInit {
		messages := e.Messages
		if messages == nil {
			messages = []history.Record{}
		}
		return json.Marshal(struct {
			Type     string           `json:"type"`
			Messages []history.Record `json:"messages"`
		}{Type: e.Type, Messages: messages})
	}
	return json.Marshal(plain(e))
}

func initEnvelope(records []history.Record) Envelope {
	return Envelope{Type: EventInit, Messages: records}
}

func newMessageEnvelope(record history.Record) Envelope {
	return Envelope{Type: EventNewMessage, Message: &record}
}

func clearEnvelope() Envelope {
	return Envelope{Type: EventClear}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
