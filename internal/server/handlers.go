// Package server exposes HTTP handlers, including WebSocket upgrades, the
// administrative clear and history endpoints, health checks, and the built-in
// chat page.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/lanchat/internal/history"
)

// Handlers bundles the HTTP handlers that front a Hub.
type Handlers struct {
	hub      *Hub
	cfg      *Config
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandlers creates the handler set for hub. Origin checks on WebSocket
// upgrades follow cfg.AllowedOrigins.
func NewHandlers(log *slog.Logger, hub *Hub, cfg *Config) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	policy := newOriginPolicy(log, cfg.AllowedOrigins)
	return &Handlers{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.checkOrigin,
		},
		log: log,
	}
}

// HealthResponse is the body served by the health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Messages    int    `json:"messages"`
}

// ClearResponse is the body returned by the clear endpoint.
type ClearResponse struct {
	Message string `json:"message"`
}

// MessagesResponse is the body returned by the history endpoint.
type MessagesResponse struct {
	Messages []history.Record `json:"messages"`
}

// WebSocket upgrades the request and registers the new client with the hub;
// the hub sends the catch-up snapshot and launches the pump goroutines.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	origin := PartyOrigin(r, h.cfg.TrustProxyHeaders)
	h.hub.Register(NewClient(conn, h.hub, origin, h.cfg))
}

// Health reports that the relay is up along with connection and history counts.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Connections: h.hub.ClientCount(),
		Messages:    h.hub.HistoryLen(),
	})
}

// Clear empties the history and replies with a confirmation message.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.hub.Clear(r.Context())
	if err != nil {
		h.log.Error("Clear request failed", "error", err)
		http.Error(w, "clear failed", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, ClearResponse{Message: confirmation})
}

// Messages serves the current history snapshot.
func (h *Handlers) Messages(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, MessagesResponse{Messages: h.hub.Snapshot()})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("Error writing JSON response", "error", err)
	}
}

// TestPage serves a browser chat page that connects to the WebSocket endpoint,
// prefixes submissions with a nickname, and renders the shared history.
func (h *Handlers) TestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		h.log.Warn("Error writing HTML response", "error", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>LAN Chat</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] {
            width: 300px;
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        .own { text-align: right; color: #0b5394; }
        .meta { font-size: 11px; color: #777; }
    </style>
</head>
<body>
    <h1>LAN Chat</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="nicknameInput" placeholder="Nickname" maxlength="20">
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const nicknameInput = document.getElementById('nicknameInput');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        nicknameInput.value = localStorage.getItem('nickname') || 'Guest';
        nicknameInput.addEventListener('input', function() {
            localStorage.setItem('nickname', nicknameInput.value);
        });

        function nickname() {
            return nicknameInput.value.trim() || 'Guest';
        }

        function renderRecord(record) {
            const own = record.text.startsWith(nickname() + ':');
            const element = document.createElement('div');
            element.style.margin = '5px 0';
            if (own) {
                element.className = 'own';
            }
            const body = document.createElement('div');
            body.textContent = own ? record.text.slice(nickname().length + 1).trim() : record.text;
            const meta = document.createElement('div');
            meta.className = 'meta';
            meta.textContent = own ? record.time : record.ip + ' - ' + record.time;
            element.appendChild(body);
            element.appendChild(meta);
            messagesDiv.appendChild(element);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function addNotice(text) {
            const element = document.createElement('div');
            element.style.color = 'gray';
            element.textContent = text;
            messagesDiv.appendChild(element);
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = connected ? 'status connected' : 'status disconnected';
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');

            ws.onopen = function() {
                updateStatus(true);
            };

            ws.onmessage = function(event) {
                const envelope = JSON.parse(event.data);
                if (envelope.type === 'init') {
                    messagesDiv.textContent = '';
                    envelope.messages.forEach(renderRecord);
                } else if (envelope.type === 'newMessage') {
                    renderRecord(envelope.message);
                    while (messagesDiv.childElementCount > 20) {
                        messagesDiv.removeChild(messagesDiv.firstChild);
                    }
                } else if (envelope.type === 'clear') {
                    messagesDiv.textContent = '';
                    addNotice('History cleared');
                }
            };

            ws.onclose = function() {
                addNotice('Connection closed');
                updateStatus(false);
                ws = null;
            };

            ws.onerror = function() {
                addNotice('Connection error');
                updateStatus(false);
            };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (text && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ text: nickname() + ': ' + text }));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`

// ClearPage serves the admin page whose button clears the shared history.
func (h *Handlers) ClearPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, clearPageHTML); err != nil {
		h.log.Warn("Error writing HTML response", "error", err)
	}
}

const clearPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Clear Chat</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            display: flex;
            flex-direction: column;
            align-items: center;
            justify-content: center;
            min-height: 100vh;
            margin: 0;
            background-color: #fee2e2;
        }
        button {
            padding: 12px 24px;
            background-color: #ef4444;
            color: white;
            border: none;
            border-radius: 8px;
            cursor: pointer;
        }
        button:hover { background-color: #dc2626; }
        #status { margin-top: 16px; color: #15803d; }
    </style>
</head>
<body>
    <h1>Clear Chat</h1>
    <button id="clearButton" onclick="clearChat()">Clear All Messages</button>
    <p id="status"></p>

    <script>
        async function clearChat() {
            const statusEl = document.getElementById('status');
            try {
                const res = await fetch('/api/clear', { method: 'POST' });
                const data = await res.json();
                statusEl.textContent = data.message;
            } catch (err) {
                statusEl.textContent = 'Clear failed: ' + err;
            }
        }
    </script>
</body>
</html>`
