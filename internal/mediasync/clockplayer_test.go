package mediasync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockPlayerFollowsClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	p := NewClockPlayer(clock.Now)

	assert.False(t, p.Ready())

	p.Load(Media{Src: "dQw4w9WgXcQ", Kind: KindYouTube})
	assert.True(t, p.Ready())
	assert.Zero(t, p.CurrentTime())

	p.Play()
	clock.Advance(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, p.CurrentTime(), 1e-9)

	p.Seek(30)
	clock.Advance(time.Second)
	assert.InDelta(t, 31, p.CurrentTime(), 1e-9)

	p.Pause()
	clock.Advance(time.Minute)
	assert.InDelta(t, 31, p.CurrentTime(), 1e-9)
	assert.False(t, p.Playing())

	p.Seek(-4)
	assert.Zero(t, p.CurrentTime())
}
