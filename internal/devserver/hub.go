package devserver

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitesmith/internal/logfields"
	"git.home.luguber.info/inful/sitesmith/internal/metrics"
)

// Message is what browsers receive. Kind "css" asks the page to swap its
// stylesheets; anything else means a full reload.
type Message struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Hub fans reload messages out to SSE and WebSocket clients.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*client
	closed   bool
	last     Message
	recorder metrics.Recorder

	heartbeat time.Duration
}

type client struct {
	ch   chan Message
	done chan struct{}
}

func NewHub(recorder metrics.Recorder, heartbeat time.Duration) *Hub {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{clients: map[int]*client{}, recorder: recorder, heartbeat: heartbeat}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a fresh reload message of the given kind.
func (h *Hub) Broadcast(kind string) {
	h.Send(Message{ID: uuid.NewString(), Kind: kind})
}

// Send delivers msg to every client. Repeats of the last ID are dropped, as
// are clients too slow to keep up.
func (h *Hub) Send(msg Message) {
	h.mu.Lock()
	if h.closed || msg.ID == "" || msg.ID == h.last.ID {
		h.mu.Unlock()
		return
	}
	h.last = msg
	snapshot := make(map[int]*client, len(h.clients))
	for id, c := range h.clients {
		snapshot[id] = c
	}
	h.mu.Unlock()

	dropped := 0
	for id, c := range snapshot {
		select {
		case c.ch <- msg:
		default:
			dropped++
			h.remove(id)
		}
	}
	h.recorder.IncReloadBroadcast(msg.Kind)
	slog.Debug("Live reload broadcast",
		slog.String("kind", msg.Kind),
		slog.Int("clients", len(snapshot)),
		slog.Int("dropped", dropped))
}

// Shutdown disconnects everyone and ignores later broadcasts.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*client{}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
}

func (h *Hub) add() (int, *client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	c := &client{ch: make(chan Message, 8), done: make(chan struct{})}
	id := h.nextID
	h.nextID++
	h.clients[id] = c
	return id, c, true
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// ServeSSE streams messages as server-sent events.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	id, c, ok := h.add()
	if !ok {
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.remove(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	flush := func() bool {
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if _, err := bw.WriteString(": connected\n\n"); err != nil || !flush() {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil || !flush() {
				return
			}
		case msg := <-c.ch:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if _, err := bw.WriteString("data: " + string(data) + "\n\n"); err != nil || !flush() {
				slog.Debug("Live reload write failed", logfields.Error(err))
				return
			}
		}
	}
}

// ServeWS streams messages as JSON text frames over a WebSocket.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		slog.Debug("WebSocket accept failed", logfields.Error(err))
		return
	}
	defer conn.CloseNow()

	id, c, ok := h.add()
	if !ok {
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer h.remove(id)

	// Browsers never send anything; CloseRead notices when they go away.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			_ = conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case msg := <-c.ch:
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				slog.Debug("WebSocket write failed", logfields.Error(err))
				return
			}
		}
	}
}
