// Package mostlikely is the vote-the-player game: both players vote for who
// fits the question better and every vote is a point for the player named.
package mostlikely

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sharetube/watchtogether/internal/game"
	"github.com/sharetube/watchtogether/internal/game/prompts"
)

const (
	PhaseVoting  game.Phase = "voting"
	PhaseResults game.Phase = "results"
)

type State struct {
	game.Base
	CurrentQuestion string `json:"currentQuestion"`
	// Votes maps voter id to the id of the player voted for.
	Votes map[string]string `json:"votes"`
}

func (s *State) base() *game.Base {
	return &s.Base
}

type Game struct {
	room      *game.Room[State]
	id        string
	questions []string
}

func New(bus game.Bus, cfg game.Config, logger *slog.Logger) *Game {
	return &Game{
		room:      game.NewRoom(bus, State{Base: game.NewBase(), Votes: map[string]string{}}, (*State).base, cfg, logger),
		id:        bus.ID(),
		questions: prompts.Questions(),
	}
}

func (g *Game) Start(ctx context.Context) error {
	return g.room.Start(ctx)
}

func (g *Game) State() State {
	return g.room.State()
}

func (g *Game) newQuestion(s *State) {
	s.Phase = PhaseVoting
	s.CurrentQuestion, _ = prompts.Random(g.questions, g.room.Pick)
	s.Votes = map[string]string{}
}

func (g *Game) StartGame(ctx context.Context) error {
	return g.room.Update(ctx, func(s *State) (string, error) {
		if !s.Full() {
			return "", game.ErrNotEnoughPlayers
		}
		if !s.HasPlayer(g.id) {
			return "", game.ErrNotYourTurn
		}
		if s.Phase != game.PhaseReady {
			return "", game.ErrWrongPhase
		}

		g.newQuestion(s)

		return "🎮 Game started! Round 1", nil
	})
}

// Vote records the local player's vote. Once both players voted the round
// is scored and the results are shown.
func (g *Game) Vote(ctx context.Context, votedForID string) error {
	return g.room.Update(ctx, func(s *State) (string, error) {
		if s.Phase != PhaseVoting {
			return "", game.ErrWrongPhase
		}
		if !s.HasPlayer(g.id) {
			return "", game.ErrNotYourTurn
		}
		if !s.HasPlayer(votedForID) {
			return "", game.ErrInvalidInput
		}
		if _, ok := s.Votes[g.id]; ok {
			return "", game.ErrAlreadyActed
		}

		if s.Votes == nil {
			s.Votes = map[string]string{}
		}
		s.Votes[g.id] = votedForID

		if len(s.Votes) == game.RequiredPlayers {
			s.Phase = PhaseResults
			for _, votedFor := range s.Votes {
				s.Award(votedFor, 1)
			}
		}

		return "", nil
	})
}

func (g *Game) NextRound(ctx context.Context) error {
	return g.room.Update(ctx, func(s *State) (string, error) {
		if s.Phase != PhaseResults {
			return "", game.ErrWrongPhase
		}
		if !s.HasPlayer(g.id) {
			return "", game.ErrNotYourTurn
		}

		if s.Advance() {
			return game.Summary(s.Base), nil
		}
		g.newQuestion(s)

		return fmt.Sprintf("Round %d started!", s.Round), nil
	})
}

func (g *Game) Reset(ctx context.Context) error {
	return g.room.Update(ctx, func(s *State) (string, error) {
		if !s.Full() {
			return "", game.ErrNotEnoughPlayers
		}
		if !s.HasPlayer(g.id) {
			return "", game.ErrNotYourTurn
		}

		s.Restart(PhaseVoting)
		g.newQuestion(s)

		return "🔄 Game reset!", nil
	})
}
