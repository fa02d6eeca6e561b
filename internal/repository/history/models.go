package history

import (
	"errors"
	"time"
)

var ErrUnknownKind = errors.New("unknown history kind")

type Kind string

const (
	KindChat   Kind = "chat"
	KindMood   Kind = "moods"
	KindMemory Kind = "memories"
)

func (k Kind) Valid() bool {
	switch k {
	case KindChat, KindMood, KindMemory:
		return true
	default:
		return false
	}
}

// Record is one append-only history row. Payload holds the chat text, the
// mood or the memory image url depending on the kind.
type Record struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Payload   string    `db:"payload" json:"payload"`
	Caption   *string   `db:"caption" json:"caption,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type AppendParams struct {
	Kind      Kind
	Username  string
	Payload   string
	Caption   *string
	CreatedAt time.Time
}
