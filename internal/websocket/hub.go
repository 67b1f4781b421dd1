// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
	"github.com/tomtom215/framedeck/internal/session"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication.
//
// Server to client: snapshot, intents, result, error, pong, session_closed.
// Client to server: event, sync, ping.
const (
	MessageTypeSnapshot      = "snapshot"
	MessageTypeIntents       = "intents"
	MessageTypeResult        = "result"
	MessageTypeError         = "error"
	MessageTypeSessionClosed = "session_closed"
	MessageTypeEvent         = "event"
	MessageTypeSync          = "sync"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Message is an outbound WebSocket frame.
type Message struct {
	Type string `json:"type"`
	// RequestID echoes the request_id of the inbound frame it answers.
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data"`
}

// inboundMessage is a frame sent by the browser.
type inboundMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ResultData answers an event frame.
type ResultData struct {
	State lifecycle.State `json:"state"`
	Stale bool            `json:"stale,omitempty"`
}

// Sessions is the part of session.Manager the hub and its clients use.
type Sessions interface {
	Attach(id string) (*session.Session, error)
	Detach(id string)
	Snapshot(id string) (lifecycle.Snapshot, error)
	Dispatch(ctx context.Context, id string, ev lifecycle.Event) (lifecycle.DispatchResult, error)
}

// Config limits inbound events per client.
type Config struct {
	EventsPerSecond float64
	EventBurst      int
}

// sessionMessage is a message addressed to every client of one session.
// Intent batches set intents instead of msg.
type sessionMessage struct {
	sessionID string
	msg       Message
	intents   []lifecycle.Intent
	// closeAfter disconnects the session's clients once msg is queued.
	closeAfter bool
}

// syncRequest asks the hub for a fresh snapshot for one client.
type syncRequest struct {
	client    *Client
	requestID string
}

// Hub tracks connected clients by session and routes each session's
// intents to its clients, in the order the controller produced them.
type Hub struct {
	sessions  Sessions
	cfg       Config
	clients   map[*Client]bool
	bySession map[string]map[*Client]struct{}
	broadcast chan sessionMessage

	// resync holds sessions whose messages were dropped; their clients get
	// a fresh snapshot on the next loop.
	resyncMu      sync.Mutex
	resync        map[string]struct{}
	resyncPending chan struct{}
	syncRequests  chan syncRequest

	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub(sessions Sessions, cfg Config) *Hub {
	if cfg.EventsPerSecond <= 0 {
		cfg.EventsPerSecond = 20
	}
	if cfg.EventBurst < 1 {
		cfg.EventBurst = 40
	}
	return &Hub{
		sessions:   sessions,
		cfg:        cfg,
		broadcast:     make(chan sessionMessage, 1024),
		resync:        make(map[string]struct{}),
		resyncPending: make(chan struct{}, 1),
		syncRequests:  make(chan syncRequest, 64),
		Register:      make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		bySession:  make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(h.cfg.EventsPerSecond), h.cfg.EventBurst)
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err(). It is supervised by the messaging layer.
//
// DETERMINISM: Uses priority-based selection:
//   - Priority 1: Context cancellation (shutdown)
//   - Priority 2: Client lifecycle events (Register/Unregister)
//   - Priority 3: Broadcast messages, forced resyncs and sync requests
//
// Intents a client's latest snapshot already reflects are never sent to it,
// so a batch queued before registration or a resync is skipped.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case sm := <-h.broadcast:
			h.broadcastToSession(sm)
		case <-h.resyncPending:
			h.resyncSessions()
		case req := <-h.syncRequests:
			h.syncClient(req)
		}
	}
}

func (h *Hub) register(client *Client) {
	if _, err := h.sessions.Attach(client.sessionID); err != nil {
		metrics.WSErrors.WithLabelValues("session_not_found").Inc()
		logging.Warn().Str("session_id", client.sessionID).Msg("websocket client for unknown session")
		client.trySend(Message{Type: MessageTypeSessionClosed, Data: map[string]string{"session_id": client.sessionID}})
		client.closeSend()
		return
	}
	snap, err := h.sessions.Snapshot(client.sessionID)
	if err != nil {
		h.sessions.Detach(client.sessionID)
		client.trySend(Message{Type: MessageTypeSessionClosed, Data: map[string]string{"session_id": client.sessionID}})
		client.closeSend()
		return
	}

	h.mu.Lock()
	h.clients[client] = true
	set, ok := h.bySession[client.sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.bySession[client.sessionID] = set
	}
	set[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	client.sendSnapshot("", snap)
	metrics.WSConnections.Inc()
	logging.Info().
		Str("session_id", client.sessionID).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	removed := h.removeLocked(client)
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		logging.Info().
			Str("session_id", client.sessionID).
			Int("total_clients", total).
			Msg("websocket client disconnected")
	}
}

// removeLocked drops client and closes its send channel. It reports whether
// the client was still registered.
func (h *Hub) removeLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	if set, ok := h.bySession[client.sessionID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.bySession, client.sessionID)
		}
	}
	client.closeSend()
	h.sessions.Detach(client.sessionID)
	metrics.WSConnections.Dec()
	return true
}

// logGracefulShutdown closes all clients and logs the shutdown reason.
// ctx.Err() is not logged as an error: cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// sortedClients returns the clients of set ordered by id.
func sortedClients(set map[*Client]struct{}) []*Client {
	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToSession sends sm to the clients of one session in id order.
// A client whose buffer is full is dropped; it reconnects and receives a
// fresh snapshot.
func (h *Hub) broadcastToSession(sm sessionMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.bySession[sm.sessionID]
	if len(set) == 0 {
		return
	}

	var toRemove []*Client
	for _, client := range sortedClients(set) {
		var ok bool
		if sm.intents != nil {
			ok = client.sendIntents(sm.intents)
		} else {
			ok = client.trySend(sm.msg)
		}
		if !ok {
			metrics.WSErrors.WithLabelValues("slow_client").Inc()
			toRemove = append(toRemove, client)
			continue
		}
		if sm.closeAfter {
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		h.removeLocked(client)
	}
}

// closeAllClients closes every client in id order during shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	all := make(map[*Client]struct{}, len(h.clients))
	for client := range h.clients {
		all[client] = struct{}{}
	}
	for _, client := range sortedClients(all) {
		h.removeLocked(client)
	}
}

// BroadcastIntents queues a session's intents for its clients. It
// implements session.Broadcaster: it is called with the controller lock held
// and never blocks.
func (h *Hub) BroadcastIntents(sessionID string, intents []lifecycle.Intent) {
	if len(intents) == 0 {
		return
	}
	out := make([]lifecycle.Intent, len(intents))
	copy(out, intents)

	select {
	case h.broadcast <- sessionMessage{sessionID: sessionID, intents: out}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_dropped").Inc()
		logging.Warn().Str("session_id", sessionID).Int("intents", len(out)).Msg("broadcast channel full, dropping intents")
		h.requestResync(sessionID)
	}
}

// syncClient answers a client's sync frame.
func (h *Hub) syncClient(req syncRequest) {
	client := req.client
	h.mu.RLock()
	_, registered := h.clients[client]
	h.mu.RUnlock()
	if !registered {
		return
	}

	snap, err := h.sessions.Snapshot(client.sessionID)
	if err != nil {
		client.trySend(Message{Type: MessageTypeSessionClosed, RequestID: req.requestID, Data: map[string]string{"session_id": client.sessionID}})
		h.mu.Lock()
		h.removeLocked(client)
		h.mu.Unlock()
		return
	}
	if !client.sendSnapshot(req.requestID, snap) {
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		h.mu.Lock()
		h.removeLocked(client)
		h.mu.Unlock()
	}
}

// requestResync marks sessionID for a fresh snapshot. It never blocks.
func (h *Hub) requestResync(sessionID string) {
	h.resyncMu.Lock()
	h.resync[sessionID] = struct{}{}
	h.resyncMu.Unlock()

	select {
	case h.resyncPending <- struct{}{}:
	default:
	}
}

// resyncSessions sends every marked session's clients a fresh snapshot. A
// session that no longer exists is closed instead.
func (h *Hub) resyncSessions() {
	h.resyncMu.Lock()
	pending := h.resync
	h.resync = make(map[string]struct{})
	h.resyncMu.Unlock()

	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if h.SessionClientCount(id) == 0 {
			continue
		}
		metrics.WSErrors.WithLabelValues("resync_forced").Inc()

		// Taken before h.mu: the controller lock is never acquired under it.
		snap, err := h.sessions.Snapshot(id)
		if err != nil {
			h.broadcastToSession(sessionMessage{
				sessionID:  id,
				msg:        Message{Type: MessageTypeSessionClosed, Data: map[string]string{"session_id": id}},
				closeAfter: true,
			})
			continue
		}

		h.mu.Lock()
		var toRemove []*Client
		for _, client := range sortedClients(h.bySession[id]) {
			if !client.sendSnapshot("", snap) {
				toRemove = append(toRemove, client)
			}
		}
		for _, client := range toRemove {
			h.removeLocked(client)
		}
		h.mu.Unlock()

		logging.Info().Str("session_id", id).Uint64("seq", snap.Seq).Msg("websocket clients resynced after dropped messages")
	}
}

// CloseSession tells the session's clients that it was closed and
// disconnects them.
func (h *Hub) CloseSession(sessionID string) {
	select {
	case h.broadcast <- sessionMessage{
		sessionID:  sessionID,
		msg:        Message{Type: MessageTypeSessionClosed, Data: map[string]string{"session_id": sessionID}},
		closeAfter: true,
	}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_dropped").Inc()
		logging.Warn().Str("session_id", sessionID).Msg("broadcast channel full, dropping session_closed message")
		h.requestResync(sessionID)
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionClientCount returns the number of clients attached to sessionID.
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bySession[sessionID])
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
