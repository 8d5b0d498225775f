package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// Fanout relays room publishes across server instances. Without one the
// hub delivers locally only, which is correct for a single process.
type Fanout interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, pattern string, fn func(channel string, payload []byte)) error
}

const fanoutPrefix = "room:"

// RoomForTenant names the room every connection of a tenant joins.
func RoomForTenant(companyID string) string {
	return "company:" + companyID
}

// Hub tracks room membership and publishes frames to every subscribed
// connection. Membership is the only shared in-process structure; all
// methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Conn]struct{}
	logger *slog.Logger
	fanout Fanout
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{rooms: map[string]map[*Conn]struct{}{}, logger: logger}
}

// StartFanout connects the hub to a cross-instance relay. Published frames
// go through the relay and come back via the subscription, so every
// instance, including this one, delivers them locally.
func (h *Hub) StartFanout(ctx context.Context, f Fanout) error {
	if err := f.Subscribe(ctx, fanoutPrefix+"*", func(channel string, payload []byte) {
		h.deliver(strings.TrimPrefix(channel, fanoutPrefix), payload)
	}); err != nil {
		return err
	}
	h.mu.Lock()
	h.fanout = f
	h.mu.Unlock()
	return nil
}

// Join subscribes a connection to a room.
func (h *Hub) Join(room string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Conn]struct{}{}
	}
	h.rooms[room][c] = struct{}{}
}

// Leave removes a connection from every room it joined.
func (h *Hub) Leave(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish sends a frame to every member of a room, via the fanout when one
// is configured.
func (h *Hub) Publish(ctx context.Context, room string, frame Response) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	h.mu.RLock()
	fanout := h.fanout
	h.mu.RUnlock()

	if fanout != nil {
		return fanout.Publish(ctx, fanoutPrefix+room, payload)
	}
	h.deliver(room, payload)
	return nil
}

// deliver writes a marshalled frame to local members. A connection whose
// send queue is full is skipped rather than blocking the room.
func (h *Hub) deliver(room string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping frame for slow connection", slog.String("room", room))
		}
	}
}

// MemberCount reports the current size of a room.
func (h *Hub) MemberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
