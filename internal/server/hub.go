// Package server coordinates client registration, message submission, history
// catch-up, and broadcast for the LAN Chat relay via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Tyrowin/lanchat/internal/history"
)

//go:generate go run go.uber.org/mock/mockgen -source=hub.go -destination=../mocks/mock_message_store.go -package=mocks

// MessageStore is the bounded history the hub appends to and replays from.
// *history.Store satisfies it.
type MessageStore interface {
	Append(record history.Record)
	Clear()
	Snapshot() []history.Record
	Len() int
}

type submission struct {
	origin string
	text   string
}

// Hub manages all WebSocket client connections and owns the message history.
// A single Run goroutine serializes registration, submissions, and clears, so
// every append is followed by its broadcast before the next event is handled,
// and a new client's catch-up snapshot always precedes any live record.
type Hub struct {
	clients        map[*Client]bool
	store          MessageStore
	submissions    chan submission
	register       chan *Client
	unregister     chan *Client
	clearRequests  chan chan struct{}
	mutex          sync.RWMutex
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	now            func() time.Time
	encode         func(Envelope) ([]byte, error)
	timeLayout     string
	clearBroadcast bool
	log            *slog.Logger
}

// NewHub creates a Hub around store. The time layout and clear broadcast
// behavior are taken from cfg.
func NewHub(log *slog.Logger, store MessageStore, cfg *Config) *Hub {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:        make(map[*Client]bool),
		store:          store,
		submissions:    make(chan submission),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		clearRequests:  make(chan chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		now:            time.Now,
		encode:         encodeEnvelope,
		timeLayout:     cfg.TimeLayout,
		clearBroadcast: cfg.ClearBroadcast,
		log:            log,
	}
}

// SetClock replaces the time source used to stamp records.
// It must be called before Run.
func (h *Hub) SetClock(now func() time.Time) {
	h.now = now
}

// Register hands a client to the hub. The hub sends it the current history
// and starts its pumps. If the hub has stopped the connection is closed.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		closeConn(client)
	}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Submit records text from the party identified by origin and broadcasts the
// resulting record to every connected client, the sender included.
func (h *Hub) Submit(origin, text string) {
	select {
	case h.submissions <- submission{origin: origin, text: text}:
	case <-h.ctx.Done():
	}
}

// Clear empties the history and returns ClearConfirmation. Connected clients
// are told only when clear broadcast is enabled in the configuration.
func (h *Hub) Clear(ctx context.Context) (string, error) {
	processed := make(chan struct{})
	select {
	case h.clearRequests <- processed:
	case <-h.ctx.Done():
		return "", ErrHubStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case <-processed:
		return ClearConfirmation, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Snapshot returns the current history, oldest first.
func (h *Hub) Snapshot() []history.Record {
	return h.store.Snapshot()
}

// HistoryLen returns the number of records currently retained.
func (h *Hub) HistoryLen() int {
	return h.store.Len()
}

// ClientCount returns the number of currently connected clients.
// It is safe for concurrent use.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	// Hold the lock during the entire send so the channel cannot be closed underneath us
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop. It should be called in its own
// goroutine and returns once Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case sub := <-h.submissions:
			h.handleSubmission(sub)

		case processed := <-h.clearRequests:
			h.handleClear()
			close(processed)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	payload, err := h.encode(initEnvelope(h.store.Snapshot()))
	if err != nil {
		h.log.Error("Error encoding catch-up snapshot", "client_id", client.id, "error", err)
		closeConn(client)
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// The send buffer is fresh, so the snapshot is always the first frame.
	if !h.safeSend(client, payload) {
		h.removeFailedClients([]*Client{client})
		closeConn(client)
		return
	}
	client.log.Info("Client registered", "clients", clientCount, "messages", h.store.Len())

	if client.conn != nil {
		h.startPumps(client)
	}
}

func (h *Hub) startPumps(client *Client) {
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closed = true
	close(client.send)
	client.log.Info("Client unregistered", "clients", len(h.clients))
}

func (h *Hub) handleSubmission(sub submission) {
	record := history.Record{
		Text:   sub.text,
		Origin: sub.origin,
		Time:   h.now().Format(h.timeLayout),
	}
	h.store.Append(record)

	payload, err := h.encode(newMessageEnvelope(record))
	if err != nil {
		h.log.Error("Error encoding record", "origin", sub.origin, "error", err)
		return
	}
	h.broadcast(payload)
}

func (h *Hub) handleClear() {
	h.store.Clear()
	h.log.Info("History cleared", "broadcast", h.clearBroadcast)

	if !h.clearBroadcast {
		return
	}
	payload, err := h.encode(clearEnvelope())
	if err != nil {
		h.log.Error("Error encoding clear notification", "error", err)
		return
	}
	h.broadcast(payload)
}

// broadcast delivers payload to every registered client and evicts the ones
// whose send buffer is full.
func (h *Hub) broadcast(payload []byte) {
	clients := h.getClientSnapshot()
	h.log.Debug("Broadcasting message", "clients", len(clients))

	clientsToRemove := lo.Filter(clients, func(client *Client, _ int) bool {
		return !h.safeSend(client, payload)
	})
	h.removeFailedClients(clientsToRemove)
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return lo.Keys(h.clients)
}

// removeFailedClients removes clients that failed to receive messages and closes their channels
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			close(client.send)
			client.log.Warn("Client removed due to full send buffer")
		}
	}
}

// shutdownClients closes every send channel so write pumps emit a close frame,
// then closes the underlying connections so read pumps return.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := lo.Keys(h.clients)
	for _, client := range clients {
		delete(h.clients, client)
		client.closed = true
		close(client.send)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			client.log.Warn("Error closing client connection", "error", err)
		}
	}

	h.log.Info("Closed client connections", "clients", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or context.DeadlineExceeded when the timeout is reached first.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()

	select {
	case <-h.done:
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached before the event loop stopped")
		return context.DeadlineExceeded
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

func encodeEnvelope(envelope Envelope) ([]byte, error) {
	return json.Marshal(envelope)
}

// closeConn closes the connection of a client whose pumps never started.
func closeConn(client *Client) {
	if client != nil && client.conn != nil {
		_ = client.conn.Close()
	}
}
