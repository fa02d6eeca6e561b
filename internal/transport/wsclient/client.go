// Package wsclient implements transport.Transport over the relay websocket
// endpoint. The relay never echoes a client's own publish back to it.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/transport"
)

var ErrHandshake = errors.New("relay did not confirm the connection")

const (
	writeWait = 10 * time.Second

	connectedType   = "connected"
	subscribedType  = "subscribed"
	subscribeType   = "subscribe"
	unsubscribeType = "unsubscribe"
	publishType     = "publish"
	eventType       = "event"
	errorType       = "error"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type channelPayload struct {
	Channel string `json:"channel"`
}

type Client struct {
	conn     *websocket.Conn
	clientID string
	logger   *slog.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]map[chan transport.Message]struct{}
	acks   map[string]chan struct{}
	size   int
	closed bool
	done   chan struct{}
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithBufferSize(size int) Option {
	return func(c *Client) { c.size = size }
}

// Dial connects to a relay websocket url such as ws://host/api/v1/ws and
// waits for the relay to assign a client id.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	c := &Client{
		conn:   conn,
		logger: slog.Default(),
		subs:   make(map[string]map[chan transport.Message]struct{}),
		acks:   make(map[string]chan struct{}),
		size:   64,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	var hello frame
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != connectedType {
		conn.Close()
		return nil, errors.Join(ErrHandshake, err)
	}
	var connected struct {
		ClientID string `json:"clientId"`
	}
	if err := json.Unmarshal(hello.Payload, &connected); err != nil {
		conn.Close()
		return nil, errors.Join(ErrHandshake, err)
	}
	conn.SetReadDeadline(time.Time{})
	c.clientID = connected.ClientID

	go c.readLoop()

	return c, nil
}

// ClientID is the id the relay assigned to this connection.
func (c *Client) ClientID() string {
	return c.clientID
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) write(ctx context.Context, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)

	return c.conn.WriteJSON(v)
}

func (c *Client) Publish(ctx context.Context, channel, event string, data json.RawMessage) error {
	if c.isClosed() {
		return transport.ErrClosed
	}

	return c.write(ctx, &outbound{
		Type: publishType,
		Payload: transport.Message{
			Channel: channel,
			Event:   event,
			Data:    data,
		},
	})
}

func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan transport.Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, transport.ErrClosed
	}

	ch := make(chan transport.Message, c.size)
	first := len(c.subs[channel]) == 0
	var ack chan struct{}
	if first {
		c.subs[channel] = make(map[chan transport.Message]struct{})
		ack = make(chan struct{})
		c.acks[channel] = ack
	}
	c.subs[channel][ch] = struct{}{}
	c.mu.Unlock()

	if first {
		if err := c.subscribe(ctx, channel, ack); err != nil {
			c.remove(channel, ch)
			return nil, err
		}
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
			return
		}

		if c.remove(channel, ch) {
			err := c.write(context.Background(), &outbound{Type: unsubscribeType, Payload: channelPayload{Channel: channel}})
			if err != nil {
				c.logger.Debug("wsclient.Subscribe", "error", err, "channel", channel)
			}
		}
	}()

	return ch, nil
}

// subscribe asks the relay to join channel and waits for the confirmation,
// so events published afterwards are not missed.
func (c *Client) subscribe(ctx context.Context, channel string, ack chan struct{}) error {
	defer func() {
		c.mu.Lock()
		if c.acks[channel] == ack {
			delete(c.acks, channel)
		}
		c.mu.Unlock()
	}()

	if err := c.write(ctx, &outbound{Type: subscribeType, Payload: channelPayload{Channel: channel}}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	timer := time.NewTimer(writeWait)
	defer timer.Stop()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return transport.ErrClosed
	case <-timer.C:
		return fmt.Errorf("failed to subscribe: no confirmation for %q", channel)
	}
}

// remove reports whether ch was the last subscription to channel.
func (c *Client) remove(channel string, ch chan transport.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[channel][ch]; !ok {
		return false
	}

	delete(c.subs[channel], ch)
	close(ch)
	if len(c.subs[channel]) == 0 {
		delete(c.subs, channel)
		return true
	}

	return false
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Client) readLoop() {
	defer c.shutdown()

	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debug("wsclient.readLoop", "error", err)
			}
			return
		}

		switch f.Type {
		case eventType:
			var msg transport.Message
			if err := json.Unmarshal(f.Payload, &msg); err != nil {
				c.logger.Warn("wsclient.readLoop", "error", err)
				continue
			}
			c.dispatch(msg)
		case subscribedType:
			var p channelPayload
			if err := json.Unmarshal(f.Payload, &p); err == nil {
				c.confirm(p.Channel)
			}
		case errorType:
			c.logger.Warn("wsclient.readLoop", "relay_error", string(f.Payload))
		default:
			c.logger.Debug("wsclient.readLoop", "type", f.Type)
		}
	}
}

func (c *Client) confirm(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ack, ok := c.acks[channel]; ok {
		close(ack)
		delete(c.acks, channel)
	}
}

func (c *Client) dispatch(msg transport.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ch := range c.subs[msg.Channel] {
		select {
		case ch <- msg:
		default:
			c.logger.Warn("wsclient.dispatch", "error", "subscriber buffer full", "channel", msg.Channel)
		}
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for channel, chans := range c.subs {
		for ch := range chans {
			close(ch)
		}
		delete(c.subs, channel)
	}
	close(c.done)
}

// Close sends a close frame and waits for the read loop to finish.
func (c *Client) Close() error {
	c.writeMu.Lock()
	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(writeWait):
	}

	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}

	return err
}
