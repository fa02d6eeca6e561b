package mediasync

import (
	"context"
	"errors"
	"time"

	"github.com/sharetube/watchtogether/internal/session"
)

const (
	// EventName is the relay event carrying every playback change.
	EventName = "video-event"

	defaultDriftThreshold        = 0.5
	defaultYouTubeDriftThreshold = 1.0
	defaultSuppressWindow        = 300 * time.Millisecond
)

var (
	ErrNoMedia    = errors.New("no media loaded")
	ErrEmptyQueue = errors.New("queue is empty")
	ErrQueueIndex = errors.New("queue index out of range")
)

type Kind string

const (
	KindFile    Kind = "file"
	KindYouTube Kind = "youtube"
)

// Media is either a local file, whose Src is only meaningful to the client
// that opened it, or a YouTube video id.
type Media struct {
	Src  string
	Kind Kind
}

type State int

const (
	StateNoMedia State = iota
	StateLoaded
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "no-media"
	}
}

type EventType string

const (
	EventPlay      EventType = "play"
	EventPause     EventType = "pause"
	EventSeek      EventType = "seek"
	EventLoadVideo EventType = "load-video"
	EventVolume    EventType = "volume"
)

type Event struct {
	Type      EventType `json:"type"`
	Time      float64   `json:"time"`
	SenderID  string    `json:"senderId,omitempty"`
	VideoSrc  string    `json:"videoSrc,omitempty"`
	VideoType Kind      `json:"videoType,omitempty"`
	Volume    *float64  `json:"volume,omitempty"`
}

// Player is the local playback engine. Implementations may report native
// events back through Controller.OnPlayed and friends at any time.
type Player interface {
	// Ready is false until the engine can take commands.
	Ready() bool
	CurrentTime() float64
	Seek(seconds float64)
	Play()
	Pause()
	// SetVolume takes a level between 0 and 1.
	SetVolume(level float64)
	Load(m Media)
}

type iBus interface {
	ID() string
	Publish(ctx context.Context, channel, event string, payload any)
	Subscribe(ctx context.Context, channel string, h session.Handler) error
}

type Config struct {
	Channel string
	// DriftThreshold is how far apart in seconds two positions may be before
	// a remote command forces a seek.
	DriftThreshold        float64
	YouTubeDriftThreshold float64
	SuppressWindow        time.Duration
	// Notify shows a human readable notice, used when a peer opens a local
	// file that cannot be sent over the relay.
	Notify func(text string)
	Now    func() time.Time
}

func (c *Config) setDefaults() {
	if c.DriftThreshold <= 0 {
		c.DriftThreshold = defaultDriftThreshold
	}
	if c.YouTubeDriftThreshold <= 0 {
		c.YouTubeDriftThreshold = defaultYouTubeDriftThreshold
	}
	if c.SuppressWindow <= 0 {
		c.SuppressWindow = defaultSuppressWindow
	}
	if c.Notify == nil {
		c.Notify = func(string) {}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Channel returns the media channel of a room.
func Channel(room string) string {
	return "media-" + room
}
