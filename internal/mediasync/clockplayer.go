package mediasync

import (
	"sync"
	"time"
)

// ClockPlayer is a headless Player whose position follows the wall clock
// while playing. Terminal clients and bots use it to follow a room.
type ClockPlayer struct {
	now func() time.Time

	mu        sync.Mutex
	media     Media
	loaded    bool
	playing   bool
	position  float64
	startedAt time.Time
	volume    float64
}

func NewClockPlayer(now func() time.Time) *ClockPlayer {
	if now == nil {
		now = time.Now
	}

	return &ClockPlayer{now: now, volume: 1}
}

func (p *ClockPlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.loaded
}

func (p *ClockPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current()
}

// current must be called with mu held.
func (p *ClockPlayer) current() float64 {
	if !p.playing {
		return p.position
	}

	return p.position + p.now().Sub(p.startedAt).Seconds()
}

func (p *ClockPlayer) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.position = max(seconds, 0)
	p.startedAt = p.now()
}

func (p *ClockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return
	}
	p.playing = true
	p.startedAt = p.now()
}

func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.position = p.current()
	p.playing = false
}

func (p *ClockPlayer) SetVolume(level float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = level
}

func (p *ClockPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.volume
}

func (p *ClockPlayer) Load(m Media) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.media = m
	p.loaded = true
	p.playing = false
	p.position = 0
}

func (p *ClockPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}
