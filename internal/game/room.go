// Package game replicates one shared state object between the two players
// of a room. Every change is applied locally and broadcast in full; a peer
// replaces its whole copy with what it receives, so the last delivered
// update wins.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sharetube/watchtogether/internal/session"
)

// Bus is the session event bus a room talks through.
type Bus interface {
	ID() string
	Publish(ctx context.Context, channel, event string, payload any)
	Subscribe(ctx context.Context, channel string, h session.Handler) error
}

type Config struct {
	Channel string
	Name    string
	// Notify receives human readable game notices, usually sent to chat.
	Notify func(text string)
	// OnChange is called after every local or remote state change.
	OnChange func()
	Now      func() time.Time
	// Pick returns a random index in [0, n).
	Pick func(n int) int
}

func (c *Config) setDefaults() {
	if c.Notify == nil {
		c.Notify = func(string) {}
	}
	if c.OnChange == nil {
		c.OnChange = func() {}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Pick == nil {
		c.Pick = rand.IntN
	}
}

// Transition changes a draft of the state. A non-nil error leaves the state
// untouched and nothing is sent. notice, when set, is passed to Notify.
type Transition[S any] func(s *S) (notice string, err error)

type Room[S any] struct {
	bus    Bus
	cfg    Config
	baseOf func(*S) *Base
	logger *slog.Logger
	me     Player

	mu    sync.Mutex
	state S
}

// NewRoom creates a room around initial. baseOf must return the Base
// embedded in a state.
func NewRoom[S any](bus Bus, initial S, baseOf func(*S) *Base, cfg Config, logger *slog.Logger) *Room[S] {
	cfg.setDefaults()

	return &Room[S]{
		bus:    bus,
		cfg:    cfg,
		baseOf: baseOf,
		logger: logger,
		me:     Player{Name: cfg.Name, ID: bus.ID()},
		state:  initial,
	}
}

func (r *Room[S]) Me() Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.me
}

// Pick returns a random index in [0, n).
func (r *Room[S]) Pick(n int) int {
	return r.cfg.Pick(n)
}

// Start subscribes to the game channel, adds the local player and
// announces it to whoever is already there.
func (r *Room[S]) Start(ctx context.Context) error {
	r.mu.Lock()
	r.me.JoinedAt = r.cfg.Now().UnixMilli()
	me := r.me
	r.mu.Unlock()

	if err := r.bus.Subscribe(ctx, r.cfg.Channel, r.handle(ctx)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.cfg.Channel, err)
	}

	r.mu.Lock()
	r.addPlayer(me)
	r.mu.Unlock()

	r.bus.Publish(ctx, r.cfg.Channel, EventPlayerJoined, me)
	r.cfg.OnChange()

	return nil
}

// State returns a copy that is safe to keep.
func (r *Room[S]) State() S {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.clone(r.state)
}

// Update applies t to a copy of the state, keeps it and broadcasts it.
func (r *Room[S]) Update(ctx context.Context, t Transition[S]) error {
	r.mu.Lock()
	draft := r.clone(r.state)
	notice, err := t(&draft)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = draft
	snapshot := r.clone(draft)
	r.mu.Unlock()

	r.bus.Publish(ctx, r.cfg.Channel, EventStateUpdate, &snapshot)
	if notice != "" {
		r.cfg.Notify(notice)
	}
	r.cfg.OnChange()

	return nil
}

// clone deep copies through JSON; state types only hold plain data.
func (r *Room[S]) clone(s S) S {
	data, err := json.Marshal(&s)
	if err != nil {
		r.logger.Error("failed to copy game state", "error", err)
		return s
	}

	var out S
	if err := json.Unmarshal(data, &out); err != nil {
		r.logger.Error("failed to copy game state", "error", err)
		return s
	}

	return out
}

// addPlayer must be called with mu held. It reports whether p was new.
func (r *Room[S]) addPlayer(p Player) bool {
	base := r.baseOf(&r.state)
	if base.HasPlayer(p.ID) {
		return false
	}
	if base.Full() {
		r.logger.Info("game room is full, ignoring player", "player_id", p.ID)
		return false
	}

	base.Players = append(base.Players, p)
	if base.Full() && base.Phase == PhaseWaiting {
		base.Phase = PhaseReady
	}

	return true
}

func (r *Room[S]) handle(ctx context.Context) session.Handler {
	return func(event string, data json.RawMessage) {
		switch event {
		case EventPlayerJoined:
			var p Player
			if err := json.Unmarshal(data, &p); err != nil || p.ID == "" {
				r.logger.Warn("invalid player-joined event", "error", err)
				return
			}
			r.join(ctx, p)
		case EventStateUpdate:
			var s S
			if err := json.Unmarshal(data, &s); err != nil {
				r.logger.Warn("invalid game-state-update event", "error", err)
				return
			}

			r.mu.Lock()
			r.state = s
			r.mu.Unlock()
			r.cfg.OnChange()
		}
	}
}

// join records a peer. A peer seen for the first time gets one more
// announcement back, so players who joined earlier become known to it.
func (r *Room[S]) join(ctx context.Context, p Player) {
	r.mu.Lock()
	if p.ID == r.me.ID {
		r.mu.Unlock()
		return
	}
	added := r.addPlayer(p)
	me := r.me
	r.mu.Unlock()

	if !added {
		return
	}

	r.bus.Publish(ctx, r.cfg.Channel, EventPlayerJoined, me)
	r.cfg.OnChange()
}
