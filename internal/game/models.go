package game

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseReady    Phase = "ready"
	PhaseGameOver Phase = "game-over"
)

const (
	EventPlayerJoined = "player-joined"
	EventStateUpdate  = "game-state-update"

	DefaultMaxRounds = 10
	RequiredPlayers  = 2
)

var (
	ErrNotEnoughPlayers = errors.New("game needs exactly two players")
	ErrWrongPhase       = errors.New("action not allowed in this phase")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrAlreadyActed     = errors.New("already acted this round")
	ErrEmptyInput       = errors.New("input is empty")
	ErrInvalidInput     = errors.New("invalid input")
)

type Player struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	JoinedAt int64  `json:"joinedAt"`
}

// Base holds the fields every game state shares. Game states embed it so
// the wire object stays flat.
type Base struct {
	Phase     Phase          `json:"phase"`
	Round     int            `json:"round"`
	MaxRounds int            `json:"maxRounds"`
	Players   []Player       `json:"players"`
	Scores    map[string]int `json:"scores"`
}

func NewBase() Base {
	return Base{
		Phase:     PhaseWaiting,
		Round:     1,
		MaxRounds: DefaultMaxRounds,
		Players:   []Player{},
		Scores:    map[string]int{},
	}
}

func (b *Base) HasPlayer(id string) bool {
	return slices.ContainsFunc(b.Players, func(p Player) bool { return p.ID == id })
}

// Name returns the display name of a player, or "" for unknown ids.
func (b *Base) Name(id string) string {
	for _, p := range b.Players {
		if p.ID == id {
			return p.Name
		}
	}

	return ""
}

func (b *Base) Full() bool {
	return len(b.Players) == RequiredPlayers
}

func (b *Base) Award(id string, points int) {
	if b.Scores == nil {
		b.Scores = map[string]int{}
	}
	b.Scores[id] += points
}

// Advance moves to the next round. After the last round the game is over
// instead and Advance reports true.
func (b *Base) Advance() bool {
	if b.Round+1 > b.MaxRounds {
		b.Phase = PhaseGameOver
		return true
	}

	b.Round++
	return false
}

// Restart keeps the players and starts again from round one in phase first.
func (b *Base) Restart(first Phase) {
	b.Phase = first
	b.Round = 1
	b.MaxRounds = DefaultMaxRounds
	b.Scores = map[string]int{}
}

// Summary announces the winner by final score.
func Summary(b Base) string {
	ranked := slices.Clone(b.Players)
	slices.SortStableFunc(ranked, func(x, y Player) int {
		return cmp.Compare(b.Scores[y.ID], b.Scores[x.ID])
	})

	if len(ranked) == 0 || (len(ranked) > 1 && b.Scores[ranked[0].ID] == b.Scores[ranked[1].ID]) {
		return "🏆 Game Over! It's a tie!"
	}

	return fmt.Sprintf("🏆 Game Over! %s wins!", ranked[0].Name)
}

// Channel returns the game channel of a room.
func Channel(room string) string {
	return "game-" + room
}
