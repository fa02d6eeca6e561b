// Package wouldrather is the binary choice game. Both players pick an
// option and score a point each when they picked the same one.
package wouldrather

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sharetube/watchtogether/internal/game"
	"github.com/sharetube/watchtogether/internal/game/prompts"
)

const (
	PhaseChoosing game.Phase = "choosing"
	PhaseResults  game.Phase = "results"
)

type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
)

type State struct {
	game.Base
	OptionA string            `json:"optionA"`
	OptionB string            `json:"optionB"`
	Choices map[string]Option `json:"choices"`
}

func (s *State) base() *game.Base {
	return &s.Base
}

// Matched reports whether both players picked the same option.
func (s *State) Matched() bool {
	if len(s.Choices) != game.RequiredPlayers {
		return false
	}

	var first Option
	for _, choice := range s.Choices {
		if first == "" {
			first = choice
			continue
		}
		return choice == first
	}

	return false
}

type Game struct {
	room      *game.Room[State]
	id        string
	scenarios []prompts.Scenario
}

func New(bus game.Bus, cfg game.Config, logger *slog.Logger) *Game {
	return &Game{
		room:      game.NewRoom(bus, State{Base: game.NewBase(), Choices: map[string]Option{}}, (*State).base, cfg, logger),
		id:        bus.ID(),
		scenarios: prompts.Scenarios(),
	}
}

func (g *Game) Start(ctx context.Context) error {
	return g.room.Start(ctx)
}

func (g *Game) State() State {
	return g.room.State()
}

func (g *Game) newScenario(s *State) {
	scenario, _ := prompts.Random(g.scenarios, g.room.Pick)
	s.Phase = PhaseChoosing
	s.OptionA = scenario.OptionA
	s.OptionB = scenario.OptionB
	s.Choices = map[string]Option{}
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

		g.newScenario(s)

		return "🎮 Game started! Round 1", nil
	})
}

func (g *Game) Choose(ctx context.Context, option Option) error {
	return g.room.Update(ctx, func(s *State) (string, error) {
		if option != OptionA && option != OptionB {
			return "", game.ErrInvalidInput
		}
		if s.Phase != PhaseChoosing {
			return "", game.ErrWrongPhase
		}
		if !s.HasPlayer(g.id) {
			return "", game.ErrNotYourTurn
		}
		if _, ok := s.Choices[g.id]; ok {
			return "", game.ErrAlreadyActed
		}

		if s.Choices == nil {
			s.Choices = map[string]Option{}
		}
		s.Choices[g.id] = option

		if len(s.Choices) == game.RequiredPlayers {
			s.Phase = PhaseResults
			if s.Matched() {
				for id := range s.Choices {
					s.Award(id, 1)
				}
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
		g.newScenario(s)

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

		s.Restart(PhaseChoosing)
		g.newScenario(s)

		return "🔄 Game reset!", nil
	})
}
