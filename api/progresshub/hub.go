// Package progresshub relays analysis progress events to websocket listeners.
// Subscriptions are keyed by upload session so concurrent uploads never leak
// progress into each other.
package progresshub

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/chatinsight/chatinsight-go/types"
)

// lastProgressTTL bounds how long a finished session's final progress value
// stays around for late subscribers.
const lastProgressTTL = 10 * time.Minute

// listener wraps a connection with a write lock. A session can have several
// concurrent publishers (the subprocess emits progress on both of its output
// streams) plus the subscribe-time replay, and gorilla/websocket allows only
// one writer on a connection at a time.
type listener struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *listener) send(payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub holds per-session websocket listeners and the last progress value of
// each session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*websocket.Conn]*listener
	last     *ttlworker.Cache[string, types.ProgressUpdate]
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		sessions: make(map[string]map[*websocket.Conn]*listener),
		last:     ttlworker.NewCache[string, types.ProgressUpdate](lastProgressTTL),
	}
}

// Subscribe registers a connection for one session and replays the session's
// last known progress, if any.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) {
	l := &listener{conn: conn}
	h.mu.Lock()
	conns, ok := h.sessions[sessionID]
	if !ok {
		conns = make(map[*websocket.Conn]*listener)
		h.sessions[sessionID] = conns
	}
	conns[conn] = l
	h.mu.Unlock()

	if update := h.last.Get(sessionID); update.SessionID != "" {
		if payload, err := sonic.Marshal(update); err == nil {
			l.send(payload)
		}
	}
}

// Unsubscribe removes a connection from its session.
func (h *Hub) Unsubscribe(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.sessions[sessionID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}

// Publish sends the update to every listener of its session. Writes are
// fire-and-forget; a slow or dead listener never blocks the pipeline.
func (h *Hub) Publish(update types.ProgressUpdate) {
	if update.SessionID == "" {
		return
	}
	h.last.Set(update.SessionID, update)

	payload, err := sonic.Marshal(update)
	if err != nil {
		return
	}

	h.mu.RLock()
	listeners := make([]*listener, 0, len(h.sessions[update.SessionID]))
	for _, l := range h.sessions[update.SessionID] {
		listeners = append(listeners, l)
	}
	h.mu.RUnlock()

	for _, l := range listeners {
		l.send(payload)
	}
}

// LastProgress returns the most recent update published for the session.
func (h *Hub) LastProgress(sessionID string) (types.ProgressUpdate, bool) {
	update := h.last.Get(sessionID)
	return update, update.SessionID != ""
}
