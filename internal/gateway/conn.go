package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/observability/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 15 * time.Second
	maxMessageSize = 256 * 1024
	sendQueueSize  = 32
)

// Conn is one authenticated realtime connection. Its session is immutable
// for the connection's lifetime; handlers receive it explicitly.
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	sess   domain.Session
	hub    *Hub
	logger *slog.Logger
}

func newConn(ws *websocket.Conn, sess domain.Session, hub *Hub, logger *slog.Logger) *Conn {
	return &Conn{
		ws:     ws,
		send:   make(chan []byte, sendQueueSize),
		sess:   sess,
		hub:    hub,
		logger: logger,
	}
}

// Send queues a frame for this connection only.
func (c *Conn) Send(frame Response) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("failed to marshal frame", slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("send queue full, dropping frame",
			slog.String("company_id", c.sess.CompanyID))
	}
}

// readPump processes inbound frames sequentially: each event handler runs
// to completion before the next frame for this connection is read.
// Handlers for other connections interleave freely.
func (c *Conn) readPump(ctx context.Context, d *Dispatcher) {
	defer func() {
		c.hub.Leave(c)
		close(c.send)
		c.ws.Close()
		metrics.ConnectionClosed()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.Send(Response{Event: "error", Done: false, Error: "malformed envelope"})
			continue
		}
		d.Dispatch(ctx, c.sess, env, c.Send)
	}
}

// writePump flushes queued frames and keeps the connection alive with
// heartbeat pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
