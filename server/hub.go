// Package server streams visualization frames to browsers over websockets
// and accepts playback commands from them.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"quakeglobe/vis"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

const (
	// writeWait bounds a single write to a client.
	writeWait = 5 * time.Second
	// sendBuffer is the number of frames queued per client before new
	// frames are dropped for it.
	sendBuffer = 8
	// commandBuffer is the number of control messages queued before new
	// ones are dropped.
	commandBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frames out to every connected client. Each client has its own
// writer goroutine and queue, so Broadcast never waits on the network.
type Hub struct {
	log       logrus.FieldLogger
	commands  chan vis.Command
	writeWait time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  []byte
}

// NewHub returns a hub with no clients. A nil log discards output.
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Hub{
		log:       log,
		commands:  make(chan vis.Command, commandBuffer),
		writeWait: writeWait,
		clients:   make(map[*client]struct{}),
	}
}

// Commands delivers the control messages received from clients.
func (h *Hub) Commands() <-chan vis.Command { return h.commands }

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request, queues the latest broadcast and then reads
// control messages until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()
	defer h.remove(c)

	log := h.log.WithField("remote", conn.RemoteAddr().String())
	log.Info("Client connected")
	go h.write(c, log)

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("WebSocket read error")
			}
			break
		}
		cmd, err := ParseCommand(msg)
		if err != nil {
			log.WithError(err).Warn("Ignoring control message")
			continue
		}
		select {
		case h.commands <- cmd:
		default:
			log.Warn("Command queue full, dropping control message")
		}
	}
	log.Info("Client disconnected")
}

// write sends queued frames to c until its queue is closed. A failed or
// timed out write closes the connection, which ends the read loop in
// ServeHTTP and unregisters the client.
func (h *Hub) write(c *client, log logrus.FieldLogger) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.WithError(err).Warn("WebSocket write error, dropping client")
			c.conn.Close()
			return
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
}

// Broadcast marshals v once and queues it for every client. A client whose
// queue is full skips this frame.
func (h *Hub) Broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding broadcast: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.WithField("remote", c.conn.RemoteAddr().String()).Debug("Client lagging, frame dropped")
		}
	}
	return nil
}

// Feed returns a frame observer that broadcasts at most hz frames per
// wall-clock second; hz <= 0 broadcasts every frame.
func (h *Hub) Feed(hz float64) func(vis.Frame) {
	var interval time.Duration
	if hz > 0 {
		interval = time.Duration(float64(time.Second) / hz)
	}
	var last time.Time
	return func(f vis.Frame) {
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < interval {
			return
		}
		last = now
		if err := h.Broadcast(f); err != nil {
			h.log.WithError(err).Error("Broadcast failed")
		}
	}
}

// ParseCommand converts a decoded control message into a command. Values
// may arrive as numbers, booleans or strings; unknown keys are ignored.
// "faster", "slower", "togglePlaying" and "toggleShape" act when true.
func ParseCommand(msg map[string]any) (vis.Command, error) {
	var cmd vis.Command
	if v, ok := msg["playSpeed"]; ok {
		speed, err := cast.ToFloat64E(v)
		if err != nil {
			return vis.Command{}, fmt.Errorf("playSpeed: %w", err)
		}
		cmd.PlaySpeed = &speed
	}
	for key, dst := range map[string]**bool{
		"playing":   &cmd.Playing,
		"spherical": &cmd.Spherical,
		"wireframe": &cmd.Wireframe,
	} {
		v, ok := msg[key]
		if !ok {
			continue
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return vis.Command{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = &b
	}
	for key, dst := range map[string]*bool{
		"faster":        &cmd.Faster,
		"slower":        &cmd.Slower,
		"togglePlaying": &cmd.TogglePlaying,
		"toggleShape":   &cmd.ToggleShape,
	} {
		v, ok := msg[key]
		if !ok {
			continue
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return vis.Command{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}
	return cmd, nil
}

// NewMux routes /ws to the hub and answers /healthz.
func NewMux(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": h.ClientCount(),
		})
	})
	return mux
}
