// Package mediasync keeps one local player in step with the peers in a room.
package mediasync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
)

type Controller struct {
	bus    iBus
	player Player
	cfg    Config
	logger *slog.Logger
	sup    *suppressor

	mu    sync.Mutex
	state State
	media Media
	queue []Media
	index int
}

func NewController(bus iBus, player Player, cfg Config, logger *slog.Logger) *Controller {
	cfg.setDefaults()

	return &Controller{
		bus:    bus,
		player: player,
		cfg:    cfg,
		logger: logger,
		sup: &suppressor{
			window: cfg.SuppressWindow,
			now:    cfg.Now,
		},
		index: -1,
	}
}

// Start applies peer events until ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.bus.Subscribe(ctx, c.cfg.Channel, c.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.cfg.Channel, err)
	}

	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Media returns the loaded media, ok is false in StateNoMedia.
func (c *Controller) Media() (Media, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.media, c.state != StateNoMedia
}

func (c *Controller) publish(ctx context.Context, e *Event) {
	c.bus.Publish(ctx, c.cfg.Channel, EventName, e)
}

// Load opens media chosen by the local user and tells the peers about it.
func (c *Controller) Load(ctx context.Context, m Media) {
	c.mu.Lock()
	e := c.load(m)
	c.mu.Unlock()

	c.publish(ctx, e)
}

func (c *Controller) load(m Media) *Event {
	c.sup.open()
	c.player.Load(m)
	c.state = StateLoaded
	c.media = m

	src := m.Src
	if m.Kind == KindFile {
		// local paths stay on this machine, peers only get the file name
		src = filepath.Base(m.Src)
	}

	return &Event{Type: EventLoadVideo, VideoSrc: src, VideoType: m.Kind}
}

func (c *Controller) Play(ctx context.Context) error {
	return c.local(ctx, EventPlay, func() {
		c.player.Play()
		c.state = StatePlaying
	})
}

func (c *Controller) Pause(ctx context.Context) error {
	return c.local(ctx, EventPause, func() {
		c.player.Pause()
		c.state = StatePaused
	})
}

func (c *Controller) Seek(ctx context.Context, seconds float64) error {
	return c.local(ctx, EventSeek, func() {
		c.player.Seek(seconds)
	})
}

// local runs a user command against the player and broadcasts the result.
// The window opens first so callbacks fired by the command are ignored.
func (c *Controller) local(ctx context.Context, typ EventType, apply func()) error {
	c.mu.Lock()
	if c.state == StateNoMedia {
		c.mu.Unlock()
		return ErrNoMedia
	}

	c.sup.open()
	apply()
	e := &Event{Type: typ, Time: c.player.CurrentTime()}
	c.mu.Unlock()

	c.publish(ctx, e)
	return nil
}

func (c *Controller) SetVolume(ctx context.Context, level float64) {
	level = math.Max(0, math.Min(1, level))

	c.mu.Lock()
	c.sup.open()
	c.player.SetVolume(level)
	e := &Event{Type: EventVolume, Time: c.player.CurrentTime(), Volume: &level}
	c.mu.Unlock()

	c.publish(ctx, e)
}

// OnPlayed is called by the player when playback starts for any reason.
func (c *Controller) OnPlayed(ctx context.Context) {
	c.native(ctx, EventPlay, func() { c.state = StatePlaying })
}

func (c *Controller) OnPaused(ctx context.Context) {
	c.native(ctx, EventPause, func() { c.state = StatePaused })
}

func (c *Controller) OnSeeked(ctx context.Context) {
	c.native(ctx, EventSeek, func() {})
}

// native broadcasts a change the user made through the player's own
// controls. Callbacks caused by the controller are dropped.
func (c *Controller) native(ctx context.Context, typ EventType, update func()) {
	if c.sup.active() {
		return
	}

	c.mu.Lock()
	if c.state == StateNoMedia {
		c.mu.Unlock()
		return
	}
	update()
	e := &Event{Type: typ, Time: c.player.CurrentTime()}
	c.mu.Unlock()

	c.publish(ctx, e)
}

// OnEnded advances to the next queued item, or just pauses without a queue.
func (c *Controller) OnEnded(ctx context.Context) {
	if err := c.Next(ctx); err != nil {
		c.mu.Lock()
		if c.state == StatePlaying {
			c.state = StatePaused
		}
		c.mu.Unlock()
	}
}

// SetQueue replaces the queue, typically with search results.
func (c *Controller) SetQueue(items []Media) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = append([]Media(nil), items...)
	c.index = -1
}

func (c *Controller) PlayAt(ctx context.Context, i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.queue) {
		c.mu.Unlock()
		return ErrQueueIndex
	}
	c.index = i
	events := c.loadAndPlay(c.queue[i])
	c.mu.Unlock()

	for _, e := range events {
		c.publish(ctx, e)
	}
	return nil
}

func (c *Controller) Next(ctx context.Context) error {
	return c.step(ctx, func(index, n int) int {
		return (index + 1) % n
	})
}

func (c *Controller) Previous(ctx context.Context) error {
	return c.step(ctx, func(index, n int) int {
		if index <= 0 {
			return n - 1
		}
		return index - 1
	})
}

func (c *Controller) step(ctx context.Context, move func(index, n int) int) error {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return ErrEmptyQueue
	}
	c.index = move(c.index, len(c.queue))
	events := c.loadAndPlay(c.queue[c.index])
	c.mu.Unlock()

	for _, e := range events {
		c.publish(ctx, e)
	}
	return nil
}

// loadAndPlay loads m and starts it from the beginning once the player is
// ready, returning the events the peers need to follow.
func (c *Controller) loadAndPlay(m Media) []*Event {
	events := []*Event{c.load(m)}
	if !c.player.Ready() {
		return events
	}

	c.player.Seek(0)
	c.player.Play()
	c.state = StatePlaying

	return append(events, &Event{Type: EventPlay, Time: 0})
}

func (c *Controller) threshold() float64 {
	if c.media.Kind == KindYouTube {
		return c.cfg.YouTubeDriftThreshold
	}

	return c.cfg.DriftThreshold
}

func (c *Controller) handle(event string, data json.RawMessage) {
	if event != EventName {
		return
	}

	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("invalid video event", "error", err)
		return
	}

	c.apply(&e)
}

// apply reconciles the local player with a peer's event.
func (c *Controller) apply(e *Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Type {
	case EventLoadVideo:
		c.applyLoad(e)
	case EventPlay, EventPause, EventSeek:
		if c.state == StateNoMedia || !c.player.Ready() {
			c.logger.Debug("player not ready, dropping video event", "type", e.Type)
			return
		}

		c.sup.begin()
		if math.Abs(c.player.CurrentTime()-e.Time) > c.threshold() {
			c.player.Seek(e.Time)
		}
		switch e.Type {
		case EventPlay:
			c.player.Play()
			c.state = StatePlaying
		case EventPause:
			c.player.Pause()
			c.state = StatePaused
		}
		c.sup.end()
	case EventVolume:
		if e.Volume == nil || !c.player.Ready() {
			return
		}

		c.sup.begin()
		c.player.SetVolume(math.Max(0, math.Min(1, *e.Volume)))
		c.sup.end()
	default:
		c.logger.Debug("unknown video event", "type", e.Type)
	}
}

func (c *Controller) applyLoad(e *Event) {
	switch e.VideoType {
	case KindYouTube:
		if e.VideoSrc == "" {
			return
		}

		m := Media{Src: e.VideoSrc, Kind: KindYouTube}
		c.sup.begin()
		c.player.Load(m)
		c.sup.end()
		c.state = StateLoaded
		c.media = m
	case KindFile:
		c.cfg.Notify(fmt.Sprintf("📁 Your partner opened %q. Open the same file to watch together.", e.VideoSrc))
	default:
		c.logger.Debug("unknown media kind", "kind", e.VideoType)
	}
}
