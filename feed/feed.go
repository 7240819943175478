// feed/feed.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package feed streams track frames to renderers over websockets.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmp/scopesim/airspace"
	"github.com/mmp/scopesim/log"
	"github.com/mmp/scopesim/math"
	"github.com/mmp/scopesim/sim"

	"github.com/gorilla/websocket"
)

// TrackFrame is a track as sent to the renderer.
type TrackFrame struct {
	ID            string   `json:"id"`
	Callsign      string   `json:"callsign"`
	Status        string   `json:"status"`
	Lon           *float64 `json:"lon"`
	Lat           *float64 `json:"lat"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	VectorDx      float64  `json:"vector_dx"`
	VectorDy      float64  `json:"vector_dy"`
	VectorMinutes float64  `json:"vector_minutes"`
	Heading       float64  `json:"heading"`
	GroundSpeed   float64  `json:"ground_speed"`
	VerticalSpeed float64  `json:"vertical_speed"`
	FlightLevel   *float64 `json:"actual_flight_level"`
	Label         []string `json:"label"`
}

type Frame struct {
	Time   time.Time    `json:"time"`
	Tracks []TrackFrame `json:"tracks"`
	// Events posted since the previous frame.
	Events []sim.Event `json:"events,omitempty"`
}

func finite(v float64) *float64 {
	if !math.IsFinite(v) {
		return nil
	}
	return &v
}

func MakeTrackFrame(t *sim.Track) TrackFrame {
	tf := TrackFrame{
		ID:            t.ID,
		Callsign:      t.Callsign,
		Status:        t.Status.String(),
		Lon:           finite(t.Position().Longitude()),
		Lat:           finite(t.Position().Latitude()),
		X:             math.FiniteOr(t.X, 0),
		Y:             math.FiniteOr(t.Y, 0),
		VectorDx:      math.FiniteOr(t.VectorDx, 0),
		VectorDy:      math.FiniteOr(t.VectorDy, 0),
		VectorMinutes: t.VectorMinutes,
		Heading:       t.Heading(),
		GroundSpeed:   math.FiniteOr(t.GroundSpeed(), 0),
		VerticalSpeed: math.FiniteOr(t.VerticalSpeed(), 0),
		Label:         t.DataBlock().Lines(),
	}
	if fl, ok := t.FlightLevel(); ok {
		tf.FlightLevel = &fl
	}
	return tf
}

// MakeFrame captures the current state of all of the sim's tracks.
func MakeFrame(s *sim.Sim) Frame {
	f := Frame{Time: s.SimTime, Tracks: []TrackFrame{}}
	for _, t := range s.Tracks() {
		f.Tracks = append(f.Tracks, MakeTrackFrame(t))
	}
	return f
}

///////////////////////////////////////////////////////////////////////////
// Hub

const clientQueueLength = 4

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frames out to the connected websocket clients. Clients that
// fall behind miss frames rather than stalling the sim.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool

	lg *log.Logger
}

func NewHub(lg *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
		lg:       lg,
	}
}

// Broadcast sends the frame to all clients; new clients receive the most
// recent frame when they connect.
func (h *Hub) Broadcast(f Frame) error {
	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.lg.Debug("dropped frame for slow client", slog.String("remote", c.conn.RemoteAddr().String()))
		}
	}
	return nil
}

// NumClients returns the number of connected clients.
func (h *Hub) NumClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Warnf("websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueLength)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.lg.Info("feed client connected", slog.String("remote", conn.RemoteAddr().String()))
	go h.writeLoop(c)

	// The feed is one-way; reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.lg.Debug("feed write failed", slog.Any("error", err))
			h.remove(c)
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.conn.Close()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.lg.Info("feed client disconnected", slog.String("remote", c.conn.RemoteAddr().String()))
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// NewHandler serves the frame stream at /ws and the projected map
// outlines at /map.
func NewHandler(h *Hub, outlines []airspace.Outline) http.Handler {
	if outlines == nil {
		outlines = []airspace.Outline{}
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/map", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(outlines); err != nil {
			h.lg.Warnf("map: %v", err)
		}
	})
	return mux
}
