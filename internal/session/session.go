// Package session gives every client a session-local identity and an event
// bus that tags outbound events with it and drops inbound events carrying it.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/sharetube/watchtogether/internal/transport"
)

const idLength = 21

var (
	idMu       sync.Mutex
	generateID = mustGenerator()
)

func mustGenerator() func() string {
	g, err := nanoid.Standard(idLength)
	if err != nil {
		panic(err)
	}

	return g
}

// NewID returns a random url-safe token. Collisions are not checked.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()

	return generateID()
}

type Handler func(event string, data json.RawMessage)

type Bus struct {
	id        string
	transport transport.Transport
	logger    *slog.Logger
}

type Option func(*Bus)

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(b *Bus) { b.id = id }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

func NewBus(t transport.Transport, opts ...Option) *Bus {
	b := &Bus{
		transport: t,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.id == "" {
		b.id = NewID()
	}

	return b
}

func (b *Bus) ID() string {
	return b.id
}

// Publish sends payload with senderId set to the session id. payload must
// encode as a JSON object. Failures are logged and otherwise ignored.
func (b *Bus) Publish(ctx context.Context, channel, event string, payload any) {
	data, err := b.tag(payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode event", "channel", channel, "event", event, "error", err)
		return
	}

	b.send(ctx, channel, event, data)
}

// PublishUntagged sends payload as is. Receivers get it back even when they
// published it themselves.
func (b *Bus) PublishUntagged(ctx context.Context, channel, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode event", "channel", channel, "event", event, "error", err)
		return
	}

	b.send(ctx, channel, event, data)
}

func (b *Bus) send(ctx context.Context, channel, event string, data json.RawMessage) {
	if err := b.transport.Publish(ctx, channel, event, data); err != nil {
		b.logger.WarnContext(ctx, "failed to publish event", "channel", channel, "event", event, "error", err)
	}
}

func (b *Bus) tag(payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}

	id, err := json.Marshal(b.id)
	if err != nil {
		return nil, err
	}
	fields["senderId"] = id

	return json.Marshal(fields)
}

// Subscribe calls h for every event on channel not sent by this session,
// one at a time and in delivery order, until ctx is done.
func (b *Bus) Subscribe(ctx context.Context, channel string, h Handler) error {
	msgs, err := b.transport.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			if b.IsOwn(msg.Data) {
				continue
			}
			h(msg.Event, msg.Data)
		}
	}()

	return nil
}

// IsOwn reports whether data carries this session's id.
func (b *Bus) IsOwn(data json.RawMessage) bool {
	var tagged struct {
		SenderID string `json:"senderId"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return false
	}

	return tagged.SenderID == b.id
}
