// Package truthordare is the prompt and response game. The player whose
// turn it is picks truth or dare, the other player writes the question or
// task, and every answer scores a point.
package truthordare

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sharetube/watchtogether/internal/game"
	"github.com/sharetube/watchtogether/internal/game/prompts"
)

const (
	PhaseChoosing      game.Phase = "choosing"
	PhaseAsking        game.Phase = "asking"
	PhaseAnswering     game.Phase = "answering"
	PhaseViewingAnswer game.Phase = "viewing-answer"
)

type Choice string

const (
	ChoiceTruth Choice = "truth"
	ChoiceDare  Choice = "dare"
)

type State struct {
	game.Base
	CurrentTurnPlayerID string `json:"currentTurnPlayerId"`
	OtherPlayerID       string `json:"otherPlayerId"`
	Choice              Choice `json:"choice"`
	Question            string `json:"question"`
	Answer              string `json:"answer"`
}

func (s *State) base() *game.Base {
	return &s.Base
}

// clearTurn hands the turn to current and empties the round's fields.
func (s *State) clearTurn(current, other string) {
	s.Phase = PhaseChoosing
	s.CurrentTurnPlayerID = current
	s.OtherPlayerID = other
	s.Choice = ""
	s.Question = ""
	s.Answer = ""
}

type Game struct {
	room *game.Room[State]
	id   string
}

func New(bus game.Bus, cfg game.Config, logger *slog.Logger) *Game {
	return &Game{
		room: game.NewRoom(bus, State{Base: game.NewBase()}, (*State).base, cfg, logger),
		id:   bus.ID(),
	}
}

func (g *Game) Start(ctx context.Context) error {
	return g.room.Start(ctx)
}

func (g *Game) State() State {
	return g.room.State()
}

// StartGame lets the first player to join go first.
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

		first, second := s.Players[0], s.Players[1]
		s.clearTurn(first.ID, second.ID)

		return fmt.Sprintf("🎮 Game started! %s goes first!", first.Name), nil
	})
}

func (g *Game) Choose(ctx context.Context, choice Choice) error {
	return g.room.Update(ctx, func(s *State) (string, error) {
		if choice != ChoiceTruth && choice != ChoiceDare {
			return "", game.ErrInvalidInput
		}
		if s.Phase != PhaseChoosing {
			return "", game.ErrWrongPhase
		}
		if s.CurrentTurnPlayerID != g.id {
			return "", game.ErrNotYourTurn
		}

		s.Phase = PhaseAsking
		s.Choice = choice

		return fmt.Sprintf("%s chose %s!", s.Name(s.CurrentTurnPlayerID), strings.ToUpper(string(choice))), nil
	})
}

// Ask is used by the other player to set the question or task.
func (g *Game) Ask(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)

	return g.room.Update(ctx, func(s *State) (string, error) {
		if question == "" {
			return "", game.ErrEmptyInput
		}
		if s.Phase != PhaseAsking {
			return "", game.ErrWrongPhase
		}
		if s.OtherPlayerID != g.id {
			return "", game.ErrNotYourTurn
		}

		s.Phase = PhaseAnswering
		s.Question = question

		return fmt.Sprintf("%s asked: %s", s.Name(s.OtherPlayerID), question), nil
	})
}

// Answer completes the turn and scores a point for the answering player.
func (g *Game) Answer(ctx context.Context, answer string) error {
	answer = strings.TrimSpace(answer)

	return g.room.Update(ctx, func(s *State) (string, error) {
		if answer == "" {
			return "", game.ErrEmptyInput
		}
		if s.Phase != PhaseAnswering {
			return "", game.ErrWrongPhase
		}
		if s.CurrentTurnPlayerID != g.id {
			return "", game.ErrNotYourTurn
		}

		s.Phase = PhaseViewingAnswer
		s.Answer = answer
		s.Award(s.CurrentTurnPlayerID, 1)

		return fmt.Sprintf("%s answered: %s", s.Name(s.CurrentTurnPlayerID), answer), nil
	})
}

// NextRound swaps the roles, or ends the game after the last round.
func (g *Game) NextRound(ctx context.Context) error {
	return g.room.Update(ctx, func(s *State) (string, error) {
		if s.Phase != PhaseViewingAnswer {
			return "", game.ErrWrongPhase
		}
		if !s.HasPlayer(g.id) {
			return "", game.ErrNotYourTurn
		}

		if s.Advance() {
			return game.Summary(s.Base), nil
		}
		s.clearTurn(s.OtherPlayerID, s.CurrentTurnPlayerID)

		return fmt.Sprintf("Round %d: %s's turn!", s.Round, s.Name(s.CurrentTurnPlayerID)), nil
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
		s.clearTurn(s.Players[0].ID, s.Players[1].ID)

		return "🔄 Game reset!", nil
	})
}

// Suggest offers the asking player a built-in prompt for the current
// choice, optionally from one category.
func (g *Game) Suggest(category prompts.Category) (prompts.Prompt, bool) {
	s := g.room.State()
	if s.Choice == "" {
		return prompts.Prompt{}, false
	}

	return prompts.Random(prompts.Filter(prompts.Kind(s.Choice), category), g.room.Pick)
}
