// Framedeck - Self-Hosted Dashboard of Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/framedeck

package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/framedeck/internal/lifecycle"
	"github.com/tomtom215/framedeck/internal/logging"
	"github.com/tomtom215/framedeck/internal/metrics"
	"github.com/tomtom215/framedeck/internal/models"
	"github.com/tomtom215/framedeck/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// clientIDCounter generates monotonically increasing client ids so
// broadcasts iterate clients in a stable order.
var clientIDCounter atomic.Uint64

// Client is a middleman between one browser tab's websocket connection and
// the hub. It belongs to exactly one session.
type Client struct {
	id        uint64
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	send      chan Message
	limiter   *rate.Limiter

	// sendMu guards send against a close racing the read pump's replies,
	// and orders snapshots against intent batches.
	sendMu sync.Mutex
	closed bool
	// snapshotSeq is the Seq of the newest snapshot queued to the client.
	snapshotSeq uint64

	// ctx carries request, session and user ids for logging and preference
	// writes. It outlives the upgrade request.
	ctx context.Context
}

// NewClient creates a client of sessionID. ctx is usually the upgrade
// request's context.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	ctx = logging.ContextWithSessionID(context.WithoutCancel(ctx), sessionID)
	return &Client{
		id:        clientIDCounter.Add(1),
		hub:       hub,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan Message, 256),
		limiter:   hub.newLimiter(),
		ctx:       ctx,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// SessionID returns the session the client is attached to.
func (c *Client) SessionID() string {
	return c.sessionID
}

// trySend queues msg without blocking. It returns false when the buffer is
// full or the client was closed.
func (c *Client) trySend(msg Message) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.pushLocked(msg)
}

func (c *Client) pushLocked(msg Message) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
		return false
	}
}

// sendSnapshot queues snap and records its Seq so that older intents are
// skipped afterwards.
func (c *Client) sendSnapshot(requestID string, snap lifecycle.Snapshot) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.pushLocked(Message{Type: MessageTypeSnapshot, RequestID: requestID, Data: snap}) {
		return false
	}
	if snap.Seq > c.snapshotSeq {
		c.snapshotSeq = snap.Seq
	}
	return true
}

// sendIntents queues the intents newer than the client's last snapshot. A
// batch the snapshot already covers is skipped and reported as sent.
func (c *Client) sendIntents(intents []lifecycle.Intent) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	start := len(intents)
	for i, in := range intents {
		if in.Seq > c.snapshotSeq {
			start = i
			break
		}
	}
	fresh := intents[start:]
	if len(fresh) == 0 {
		return !c.closed
	}
	return c.pushLocked(Message{Type: MessageTypeIntents, Data: fresh})
}

// closeSend closes the send channel once; the write pump then sends a close
// frame and exits.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump decodes inbound frames and dispatches them. It owns the
// unregistration of the client.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-time.After(writeWait):
			logging.Warn().Str("session_id", c.sessionID).Msg("websocket hub not accepting unregistration")
		}
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Ctx(c.ctx).Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		if !c.handle(data) {
			return
		}
	}
}

// handle processes one inbound frame. It returns false when the connection
// should be closed.
func (c *Client) handle(data []byte) bool {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.WSErrors.WithLabelValues("decode").Inc()
		c.trySend(errorMessage("", &models.APIError{Code: "VALIDATION_ERROR", Message: "Malformed message"}))
		return true
	}

	switch msg.Type {
	case MessageTypePing:
		c.trySend(Message{Type: MessageTypePong, RequestID: msg.RequestID})
	case MessageTypeSync:
		// The hub takes the snapshot so it is ordered with queued intents.
		select {
		case c.hub.syncRequests <- syncRequest{client: c, requestID: msg.RequestID}:
		case <-time.After(writeWait):
			c.trySend(errorMessage(msg.RequestID, &models.APIError{Code: "SERVICE_UNAVAILABLE", Message: "Sync not accepted, retry"}))
		}
	case MessageTypeEvent:
		return c.handleEvent(msg)
	default:
		c.trySend(errorMessage(msg.RequestID, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Unknown message type",
			Details: map[string]interface{}{"type": msg.Type},
		}))
	}
	return true
}

func (c *Client) handleEvent(msg inboundMessage) bool {
	if !c.limiter.Allow() {
		metrics.WSErrors.WithLabelValues("rate_limited").Inc()
		c.trySend(errorMessage(msg.RequestID, &models.APIError{Code: "RATE_LIMIT_EXCEEDED", Message: "Too many events"}))
		return true
	}

	var ev lifecycle.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		metrics.WSErrors.WithLabelValues("decode").Inc()
		c.trySend(errorMessage(msg.RequestID, &models.APIError{Code: "VALIDATION_ERROR", Message: "Malformed event"}))
		return true
	}

	res, err := c.hub.sessions.Dispatch(c.ctx, c.sessionID, ev)
	if err != nil {
		return c.replyError(msg.RequestID, err)
	}
	c.trySend(Message{Type: MessageTypeResult, RequestID: msg.RequestID, Data: ResultData(res)})
	return true
}

// replyError reports err to the browser. A vanished session ends the
// connection.
func (c *Client) replyError(requestID string, err error) bool {
	if errors.Is(err, session.ErrSessionNotFound) {
		c.trySend(Message{Type: MessageTypeSessionClosed, RequestID: requestID, Data: map[string]string{"session_id": c.sessionID}})
		return false
	}
	status, apiErr := session.ErrorResponse(err)
	if status >= 500 {
		logging.CtxErr(c.ctx, err).Msg("websocket event failed")
	} else {
		logging.Ctx(c.ctx).Debug().Err(err).Msg("websocket event rejected")
	}
	c.trySend(errorMessage(requestID, apiErr))
	return true
}

func errorMessage(requestID string, apiErr *models.APIError) Message {
	return Message{Type: MessageTypeError, RequestID: requestID, Data: apiErr}
}

// writePump writes queued messages and keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				metrics.WSErrors.WithLabelValues("encode").Inc()
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Msg("failed to write websocket message")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
