package truthordare

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/watchtogether/internal/game"
	"github.com/sharetube/watchtogether/internal/game/prompts"
	"github.com/sharetube/watchtogether/internal/session"
	"github.com/sharetube/watchtogether/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chat struct {
	mu    sync.Mutex
	lines []string
}

func (c *chat) notify(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = append(c.lines, text)
}

func (c *chat) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[len(c.lines)-1]
}

func newGame(t *testing.T, ctx context.Context, hub *transport.Hub, id, name string, c *chat) *Game {
	t.Helper()

	cfg := game.Config{
		Channel: game.Channel("42"),
		Name:    name,
		Notify:  c.notify,
		Pick:    func(int) int { return 0 },
	}
	g := New(session.NewBus(hub, session.WithID(id)), cfg, slog.Default())
	require.NoError(t, g.Start(ctx))

	return g
}

// newPair starts two games and waits until both know each other.
func newPair(t *testing.T) (context.Context, *Game, *Game, *chat) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := transport.NewHub(16)

	var c chat
	alice := newGame(t, ctx, hub, "a1", "Alice", &c)
	bob := newGame(t, ctx, hub, "b2", "Bob", &chat{})
	require.Eventually(t, func() bool {
		return alice.State().Phase == game.PhaseReady && bob.State().Phase == game.PhaseReady
	}, time.Second, 5*time.Millisecond)

	return ctx, alice, bob, &c
}

// synced waits until the peer has caught up with g's state.
func synced(t *testing.T, g, peer *Game) {
	t.Helper()

	require.Eventually(t, func() bool {
		want, got := g.State(), peer.State()
		return want.Phase == got.Phase && want.Round == got.Round &&
			want.Question == got.Question && want.Answer == got.Answer && want.Choice == got.Choice
	}, time.Second, 5*time.Millisecond)
}

func TestDareRound(t *testing.T) {
	ctx, alice, bob, aliceChat := newPair(t)

	require.NoError(t, alice.StartGame(ctx))
	assert.Equal(t, "🎮 Game started! Alice goes first!", aliceChat.last())
	synced(t, alice, bob)

	s := bob.State()
	assert.Equal(t, PhaseChoosing, s.Phase)
	assert.Equal(t, "a1", s.CurrentTurnPlayerID)
	assert.Equal(t, "b2", s.OtherPlayerID)

	require.NoError(t, alice.Choose(ctx, ChoiceDare))
	assert.Equal(t, "Alice chose DARE!", aliceChat.last())
	synced(t, alice, bob)

	require.NoError(t, bob.Ask(ctx, "sing a song"))
	synced(t, bob, alice)

	require.NoError(t, alice.Answer(ctx, "done!"))
	assert.Equal(t, "Alice answered: done!", aliceChat.last())
	synced(t, alice, bob)

	s = bob.State()
	assert.Equal(t, PhaseViewingAnswer, s.Phase)
	assert.Equal(t, "sing a song", s.Question)
	assert.Equal(t, "done!", s.Answer)
	assert.Equal(t, 1, s.Scores["a1"])
	assert.Zero(t, s.Scores["b2"])

	require.NoError(t, bob.NextRound(ctx))
	synced(t, bob, alice)

	s = alice.State()
	assert.Equal(t, 2, s.Round)
	assert.Equal(t, PhaseChoosing, s.Phase)
	assert.Equal(t, "b2", s.CurrentTurnPlayerID)
	assert.Equal(t, "a1", s.OtherPlayerID)
	assert.Empty(t, s.Choice)
	assert.Empty(t, s.Question)
	assert.Empty(t, s.Answer)
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alone := newGame(t, ctx, transport.NewHub(4), "a1", "Alice", &chat{})

	require.ErrorIs(t, alone.StartGame(ctx), game.ErrNotEnoughPlayers)
	require.ErrorIs(t, alone.Reset(ctx), game.ErrNotEnoughPlayers)
	assert.Equal(t, game.PhaseWaiting, alone.State().Phase)
}

func TestActionsCheckTurnAndPhase(t *testing.T) {
	ctx, alice, bob, _ := newPair(t)

	require.ErrorIs(t, alice.Choose(ctx, ChoiceTruth), game.ErrWrongPhase)

	require.NoError(t, alice.StartGame(ctx))
	synced(t, alice, bob)

	require.ErrorIs(t, bob.Choose(ctx, ChoiceTruth), game.ErrNotYourTurn)
	require.ErrorIs(t, alice.Choose(ctx, Choice("maybe")), game.ErrInvalidInput)
	require.ErrorIs(t, alice.Ask(ctx, "why?"), game.ErrWrongPhase)

	require.NoError(t, alice.Choose(ctx, ChoiceTruth))
	require.ErrorIs(t, alice.StartGame(ctx), game.ErrWrongPhase)
	assert.Equal(t, ChoiceTruth, alice.State().Choice)
	synced(t, alice, bob)

	require.ErrorIs(t, alice.Ask(ctx, "why?"), game.ErrNotYourTurn)
	require.ErrorIs(t, bob.Ask(ctx, "   "), game.ErrEmptyInput)
	require.NoError(t, bob.Ask(ctx, "why?"))
	synced(t, bob, alice)

	require.ErrorIs(t, bob.Answer(ctx, "because"), game.ErrNotYourTurn)
	require.ErrorIs(t, alice.Answer(ctx, ""), game.ErrEmptyInput)
	require.ErrorIs(t, alice.NextRound(ctx), game.ErrWrongPhase)

	s := alice.State()
	assert.Equal(t, PhaseAnswering, s.Phase)
	assert.Empty(t, s.Scores)
}

func TestGameEndsAfterLastRound(t *testing.T) {
	ctx, alice, bob, aliceChat := newPair(t)

	require.NoError(t, alice.StartGame(ctx))
	synced(t, alice, bob)

	players := map[string]*Game{"a1": alice, "b2": bob}
	for round := 1; round <= game.DefaultMaxRounds; round++ {
		s := alice.State()
		current, other := players[s.CurrentTurnPlayerID], players[s.OtherPlayerID]

		require.NoError(t, current.Choose(ctx, ChoiceTruth))
		synced(t, current, other)
		require.NoError(t, other.Ask(ctx, "favourite film?"))
		synced(t, other, current)
		require.NoError(t, current.Answer(ctx, "this one"))
		synced(t, current, alice)
		require.NoError(t, alice.NextRound(ctx))
		synced(t, alice, bob)
	}

	s := bob.State()
	assert.Equal(t, game.PhaseGameOver, s.Phase)
	assert.Equal(t, game.DefaultMaxRounds, s.Round)
	assert.Equal(t, "🏆 Game Over! It's a tie!", aliceChat.last())

	require.ErrorIs(t, alice.NextRound(ctx), game.ErrWrongPhase)
	require.ErrorIs(t, bob.StartGame(ctx), game.ErrWrongPhase)
	assert.Equal(t, game.PhaseGameOver, bob.State().Phase)
}

func TestResetStartsOver(t *testing.T) {
	ctx, alice, bob, aliceChat := newPair(t)

	require.NoError(t, alice.StartGame(ctx))
	synced(t, alice, bob)
	require.NoError(t, alice.Choose(ctx, ChoiceDare))
	synced(t, alice, bob)
	require.NoError(t, bob.Ask(ctx, "dance"))
	synced(t, bob, alice)
	require.NoError(t, alice.Answer(ctx, "danced"))
	synced(t, alice, bob)

	require.NoError(t, alice.Reset(ctx))
	assert.Equal(t, "🔄 Game reset!", aliceChat.last())
	synced(t, alice, bob)

	s := bob.State()
	assert.Equal(t, PhaseChoosing, s.Phase)
	assert.Equal(t, 1, s.Round)
	assert.Empty(t, s.Scores)
	assert.Empty(t, s.Answer)
	assert.Len(t, s.Players, 2)
}

func TestSuggestFollowsChoice(t *testing.T) {
	ctx, alice, bob, _ := newPair(t)

	_, ok := bob.Suggest("")
	assert.False(t, ok)

	require.NoError(t, alice.StartGame(ctx))
	synced(t, alice, bob)
	require.NoError(t, alice.Choose(ctx, ChoiceDare))
	synced(t, alice, bob)

	p, ok := bob.Suggest(prompts.CategoryFun)
	require.True(t, ok)
	assert.Equal(t, prompts.KindDare, p.Kind)
	assert.Equal(t, prompts.CategoryFun, p.Category)
}

func TestOutsiderCannotAct(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := transport.NewHub(16)

	alice := newGame(t, ctx, hub, "a1", "Alice", &chat{})
	bob := newGame(t, ctx, hub, "b2", "Bob", &chat{})
	require.Eventually(t, func() bool {
		return alice.State().Phase == game.PhaseReady && bob.State().Phase == game.PhaseReady
	}, time.Second, 5*time.Millisecond)
	carol := newGame(t, ctx, hub, "c3", "Carol", &chat{})

	require.NoError(t, alice.StartGame(ctx))
	synced(t, alice, carol)

	require.ErrorIs(t, carol.Choose(ctx, ChoiceDare), game.ErrNotYourTurn)
	require.ErrorIs(t, carol.Reset(ctx), game.ErrNotYourTurn)

	require.NoError(t, alice.Choose(ctx, ChoiceTruth))
	synced(t, alice, carol)
	require.ErrorIs(t, carol.Ask(ctx, "who are you?"), game.ErrNotYourTurn)
	require.NoError(t, bob.Ask(ctx, "why?"))
	synced(t, bob, carol)
	require.NoError(t, alice.Answer(ctx, "because"))
	synced(t, alice, carol)

	require.ErrorIs(t, carol.NextRound(ctx), game.ErrNotYourTurn)
	assert.Equal(t, PhaseViewingAnswer, alice.State().Phase)
	assert.Equal(t, 1, alice.State().Round)
}
