// Package chat mirrors chat messages and emoji reactions between the
// clients of a room. Messages are appended locally before they are sent;
// reactions are shown by every client, the sender included, and fade out
// on their own.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sharetube/watchtogether/internal/session"
)

const (
	EventMessage  = "chat-message"
	EventReaction = "emoji-reaction"

	ReactionLifetime = 3 * time.Second
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoName       = errors.New("user name is empty")
	ErrNoEmoji      = errors.New("emoji is empty")
)

type Message struct {
	User     string `json:"user"`
	Text     string `json:"text"`
	SenderID string `json:"senderId,omitempty"`
}

// Reaction is positioned in percent of the video area.
type Reaction struct {
	Emoji string  `json:"emoji"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type activeReaction struct {
	Reaction
	expiresAt time.Time
}

type iBus interface {
	ID() string
	Publish(ctx context.Context, channel, event string, payload any)
	PublishUntagged(ctx context.Context, channel, event string, payload any)
	Subscribe(ctx context.Context, channel string, h session.Handler) error
}

type Config struct {
	Channel string
	Name    string
	// OnMessage is called for every message added to the log.
	OnMessage func(Message)
	// OnReaction is called for every reaction shown, local or remote.
	OnReaction func(Reaction)
	Now        func() time.Time
}

func (c *Config) setDefaults() {
	if c.OnMessage == nil {
		c.OnMessage = func(Message) {}
	}
	if c.OnReaction == nil {
		c.OnReaction = func(Reaction) {}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Channel returns the chat channel of a room.
func Channel(room string) string {
	return "chat-" + room
}

type Relay struct {
	bus    iBus
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	log       []Message
	reactions []activeReaction
}

func NewRelay(bus iBus, cfg Config, logger *slog.Logger) *Relay {
	cfg.setDefaults()

	return &Relay{
		bus:    bus,
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Relay) Start(ctx context.Context) error {
	if err := r.bus.Subscribe(ctx, r.cfg.Channel, r.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.cfg.Channel, err)
	}

	return nil
}

// Send appends text to the local log as the local user and broadcasts it.
func (r *Relay) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if strings.TrimSpace(r.cfg.Name) == "" {
		return ErrNoName
	}

	msg := Message{User: r.cfg.Name, Text: text, SenderID: r.bus.ID()}
	r.append(msg)
	r.bus.Publish(ctx, r.cfg.Channel, EventMessage, msg)

	return nil
}

// Notifier returns a func that posts notices, such as game events, as chat
// messages. Empty notices are dropped.
func (r *Relay) Notifier(ctx context.Context) func(text string) {
	return func(text string) {
		if err := r.Send(ctx, text); err != nil {
			r.logger.DebugContext(ctx, "notice not sent", "error", err)
		}
	}
}

// React shows a reaction locally and broadcasts it to everyone.
func (r *Relay) React(ctx context.Context, emoji string, x, y float64) error {
	if emoji == "" {
		return ErrNoEmoji
	}

	reaction := Reaction{Emoji: emoji, X: x, Y: y}
	r.show(reaction)
	r.bus.PublishUntagged(ctx, r.cfg.Channel, EventReaction, reaction)

	return nil
}

// Log returns the messages in the order they were added.
func (r *Relay) Log() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.log)
}

// Reactions returns the reactions that have not expired yet.
func (r *Relay) Reactions() []Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.expire()
	out := make([]Reaction, 0, len(r.reactions))
	for _, a := range r.reactions {
		out = append(out, a.Reaction)
	}

	return out
}

func (r *Relay) append(msg Message) {
	r.mu.Lock()
	r.log = append(r.log, msg)
	r.mu.Unlock()

	r.cfg.OnMessage(msg)
}

func (r *Relay) show(reaction Reaction) {
	r.mu.Lock()
	r.expire()
	r.reactions = append(r.reactions, activeReaction{
		Reaction:  reaction,
		expiresAt: r.cfg.Now().Add(ReactionLifetime),
	})
	r.mu.Unlock()

	r.cfg.OnReaction(reaction)
}

// expire must be called with mu held.
func (r *Relay) expire() {
	now := r.cfg.Now()
	r.reactions = slices.DeleteFunc(r.reactions, func(a activeReaction) bool {
		return !now.Before(a.expiresAt)
	})
}

// handle only sees messages from peers; the bus drops our own.
func (r *Relay) handle(event string, data json.RawMessage) {
	switch event {
	case EventMessage:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Text == "" {
			r.logger.Warn("invalid chat message", "error", err)
			return
		}
		r.append(msg)
	case EventReaction:
		var reaction Reaction
		if err := json.Unmarshal(data, &reaction); err != nil || reaction.Emoji == "" {
			r.logger.Warn("invalid emoji reaction", "error", err)
			return
		}
		r.show(reaction)
	}
}
