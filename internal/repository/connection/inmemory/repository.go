package inmemory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/repository/connection"
)

const defaultQueueSize = 256

type client struct {
	id       string
	channels map[string]struct{}
	send     chan []byte
}

type repo struct {
	clients   map[*websocket.Conn]*client
	channels  map[string]map[*websocket.Conn]struct{}
	mu        sync.RWMutex
	writeWait time.Duration
	queueSize int
}

type Option func(*repo)

// WithQueueSize sets how many frames may wait for one connection before
// Send starts dropping them.
func WithQueueSize(size int) Option {
	return func(r *repo) { r.queueSize = size }
}

func NewRepo(writeWait time.Duration, opts ...Option) *repo {
	r := &repo{
		clients:   make(map[*websocket.Conn]*client),
		channels:  make(map[string]map[*websocket.Conn]struct{}),
		writeWait: writeWait,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *repo) Add(conn *websocket.Conn, clientID string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "client_id", clientID)
	if _, ok := r.clients[conn]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	c := &client{
		id:       clientID,
		channels: make(map[string]struct{}),
		send:     make(chan []byte, r.queueSize),
	}
	r.clients[conn] = c
	go r.writePump(conn, c)

	slog.Debug(funcName, "result", "OK")
	return nil
}

// Remove forgets the connection and returns the channels it was subscribed to.
// Channels left without subscribers are dropped.
func (r *repo) Remove(conn *websocket.Conn) ([]string, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[conn]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}
	slog.Debug(funcName, "client_id", c.id)

	channels := make([]string, 0, len(c.channels))
	for channel := range c.channels {
		r.leave(conn, channel)
		channels = append(channels, channel)
	}
	delete(r.clients, conn)
	close(c.send)

	slog.Debug(funcName, "result", channels)
	return channels, nil
}

func (r *repo) Subscribe(conn *websocket.Conn, channel string) error {
	funcName := "connection.inmemory.Subscribe"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "channel", channel)
	c, ok := r.clients[conn]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	subs, ok := r.channels[channel]
	if !ok {
		subs = make(map[*websocket.Conn]struct{})
		r.channels[channel] = subs
	}
	subs[conn] = struct{}{}
	c.channels[channel] = struct{}{}

	slog.Debug(funcName, "result", "OK", "subscribers", len(subs))
	return nil
}

func (r *repo) Unsubscribe(conn *websocket.Conn, channel string) error {
	funcName := "connection.inmemory.Unsubscribe"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "channel", channel)
	c, ok := r.clients[conn]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	if _, ok := c.channels[channel]; !ok {
		slog.Info(funcName, "error", connection.ErrNotSubscribed)
		return connection.ErrNotSubscribed
	}
	r.leave(conn, channel)

	slog.Debug(funcName, "result", "OK")
	return nil
}

// leave must be called with mu held.
func (r *repo) leave(conn *websocket.Conn, channel string) {
	if c, ok := r.clients[conn]; ok {
		delete(c.channels, channel)
	}

	subs := r.channels[channel]
	delete(subs, conn)
	if len(subs) == 0 {
		delete(r.channels, channel)
	}
}

func (r *repo) IsSubscribed(conn *websocket.Conn, channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.channels[channel][conn]
	return ok
}

func (r *repo) GetClientID(conn *websocket.Conn) (string, error) {
	funcName := "connection.inmemory.GetClientID"
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[conn]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	return c.id, nil
}

// GetSubscribers returns every connection on the channel except the one
// registered under excludeClientID.
func (r *repo) GetSubscribers(channel, excludeClientID string) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.channels[channel]
	conns := make([]*websocket.Conn, 0, len(subs))
	for conn := range subs {
		if excludeClientID != "" && r.clients[conn].id == excludeClientID {
			continue
		}
		conns = append(conns, conn)
	}

	return conns
}

// Send queues one text frame for the connection without waiting for the
// write. A full queue drops the frame with connection.ErrQueueFull.
func (r *repo) Send(conn *websocket.Conn, data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[conn]
	if !ok {
		return connection.ErrNotFound
	}

	select {
	case c.send <- data:
		return nil
	default:
		return connection.ErrQueueFull
	}
}

// writePump writes queued frames until the connection is removed. A failed
// write closes the connection so its reader stops too.
func (r *repo) writePump(conn *websocket.Conn, c *client) {
	for data := range c.send {
		if r.writeWait > 0 {
			conn.SetWriteDeadline(time.Now().Add(r.writeWait))
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("connection.inmemory.writePump", "client_id", c.id, "error", err)
			conn.Close()
			for range c.send {
			}
			return
		}
	}
}

func (r *repo) Stats() (channels int, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.channels), len(r.clients)
}
