// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     status
// Description: Websocket feed of session and playback status
// Author:      Mike Stoffels
// Created:     2026-10-10
// License:     MIT
// ============================================================================

package status

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msto63/vaani/pkg/core/logging"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 120 * time.Second
	pingInterval = 50 * time.Second
	sendBuffer   = 32
)

// Event types
const (
	TypeHello = "hello"
	TypeState = "state"
	TypeAudio = "audio"

	// TypeService reports a language service request; State holds the
	// endpoint and Notice the outcome.
	TypeService = "service"
)

// Event is one status message
type Event struct {
	Type    string    `json:"type"`
	Session string    `json:"session"`
	State   string    `json:"state"`
	Audio   string    `json:"audio"`
	Notice  string    `json:"notice,omitempty"`
	Time    time.Time `json:"time"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to connected websocket clients
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	last    Event
	logger  *logging.Logger
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logging.New("status"),
	}
}

// Publish sends e to every client; slow clients miss events instead of
// blocking the publisher. Sends happen under mu so remove cannot close a
// channel mid-send.
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = e
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			h.logger.Debug("Dropping status event for slow client")
		}
	}
}

// Last returns the most recent event
func (h *Hub) Last() Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and streams events until it closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, sendBuffer)}

	// The hello goes into the empty buffer before any published event.
	h.mu.Lock()
	hello := h.last
	hello.Type = TypeHello
	if hello.Time.IsZero() {
		hello.Time = time.Now()
	}
	c.send <- hello
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("Status client connected", "remote", conn.RemoteAddr().String())
	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop drains client frames so pongs and close frames are processed
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Status client read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case e, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Debug("Status client disconnected")
}

// ListenAndServe serves the hub at /ws/status on addr until ctx ends
func ListenAndServe(ctx context.Context, addr string, hub *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws/status", hub)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	hub.logger.Info("Status feed listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
