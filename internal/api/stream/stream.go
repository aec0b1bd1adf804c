// Package stream broadcasts completed conflict-check results to connected
// websocket clients, so a visualization frontend can follow checks live.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/asgard/deconflict/internal/pipeline"
)

const (
	subscriberBuffer = 32
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the payload broadcast after every pipeline.Check call.
type Event struct {
	DroneID string          `json:"drone_id"`
	Result  pipeline.Result `json:"result"`
}

// Hub fans out Events to any number of connected websocket clients, one
// buffered channel per subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	log         *logrus.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]chan Event),
		log:         log,
	}
}

// Broadcast hands ev to every connected subscriber. Slow subscribers are
// dropped from the current event rather than blocking the publisher.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			if h.log != nil {
				h.log.WithField("subscriber", id).Warn("stream subscriber is slow, dropping event")
			}
		}
	}
}

func (h *Hub) subscribe(id string) chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
		close(ch)
	}
	h.mu.Unlock()
}

// ServeHTTP upgrades the request to a websocket and streams Events to it
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.log != nil {
			h.log.WithError(err).Warn("stream: websocket upgrade failed")
		}
		return
	}
	defer conn.Close()

	id := r.RemoteAddr + "-" + time.Now().String()
	events := h.subscribe(id)
	defer h.unsubscribe(id)

	done := make(chan struct{})
	go h.readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readPump drains and discards client frames so control frames (pong,
// close) are processed; clients aren't expected to send application data.
func (h *Hub) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
