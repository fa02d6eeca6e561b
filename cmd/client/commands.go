package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sharetube/watchtogether/internal/chat"
	"github.com/sharetube/watchtogether/internal/game"
	"github.com/sharetube/watchtogether/internal/game/mostlikely"
	"github.com/sharetube/watchtogether/internal/game/prompts"
	"github.com/sharetube/watchtogether/internal/game/truthordare"
	"github.com/sharetube/watchtogether/internal/game/wouldrather"
	"github.com/sharetube/watchtogether/internal/mediasync"
)

const help = `commands:
  <text>                 send a chat message
  /react <emoji>         send a reaction
  /load yt|file <src>    open a youtube video or a local file
  /queue <id> [id...]    set the youtube queue and play its first video
  /play /pause /seek <s> /volume <0-1> /next /prev /status
  /start /round /reset   start, advance or reset the game
  /truth /dare /ask <q> /answer <a> /suggest [category]   truth or dare
  /choose A|B                                             would you rather
  /vote <name>                                            who is more likely
  /quit`

var errUsage = errors.New("wrong arguments, see /help")

type client struct {
	out    *console
	chat   *chat.Relay
	media  *mediasync.Controller
	player *mediasync.ClockPlayer

	tod *truthordare.Game
	wyr *wouldrather.Game
	mlt *mostlikely.Game
}

// exec runs one input line and reports whether the client should quit.
func (c *client) exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, c.chat.Send(ctx, line)
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "help":
		c.out.printf("%s", help)
	case "quit", "exit":
		return true, nil
	case "react":
		if len(args) != 1 {
			return false, errUsage
		}
		return false, c.chat.React(ctx, args[0], 50, 50)
	case "load":
		if len(args) != 2 {
			return false, errUsage
		}
		kind := mediasync.KindYouTube
		if args[0] == "file" {
			kind = mediasync.KindFile
		}
		c.media.Load(ctx, mediasync.Media{Src: args[1], Kind: kind})
	case "queue":
		if len(args) == 0 {
			return false, errUsage
		}
		items := make([]mediasync.Media, 0, len(args))
		for _, id := range args {
			items = append(items, mediasync.Media{Src: id, Kind: mediasync.KindYouTube})
		}
		c.media.SetQueue(items)
		return false, c.media.PlayAt(ctx, 0)
	case "play":
		return false, c.media.Play(ctx)
	case "pause":
		return false, c.media.Pause(ctx)
	case "seek", "volume":
		if len(args) != 1 {
			return false, errUsage
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, errUsage
		}
		if cmd == "volume" {
			c.media.SetVolume(ctx, v)
			return false, nil
		}
		return false, c.media.Seek(ctx, v)
	case "next":
		return false, c.media.Next(ctx)
	case "prev":
		return false, c.media.Previous(ctx)
	case "status":
		c.printStatus()
	default:
		return false, c.execGame(ctx, cmd, rest, args)
	}

	return false, nil
}

func (c *client) execGame(ctx context.Context, cmd, rest string, args []string) error {
	switch {
	case c.tod != nil:
		switch cmd {
		case "start":
			return c.tod.StartGame(ctx)
		case "round":
			return c.tod.NextRound(ctx)
		case "reset":
			return c.tod.Reset(ctx)
		case "truth":
			return c.tod.Choose(ctx, truthordare.ChoiceTruth)
		case "dare":
			return c.tod.Choose(ctx, truthordare.ChoiceDare)
		case "ask":
			return c.tod.Ask(ctx, rest)
		case "answer":
			return c.tod.Answer(ctx, rest)
		case "suggest":
			p, ok := c.tod.Suggest(prompts.Category(rest))
			if !ok {
				return fmt.Errorf("nothing to suggest yet")
			}
			c.out.printf("suggestion: %s", p.Text)
			return nil
		}
	case c.wyr != nil:
		switch cmd {
		case "start":
			return c.wyr.StartGame(ctx)
		case "round":
			return c.wyr.NextRound(ctx)
		case "reset":
			return c.wyr.Reset(ctx)
		case "choose":
			if len(args) != 1 {
				return errUsage
			}
			return c.wyr.Choose(ctx, wouldrather.Option(strings.ToUpper(args[0])))
		}
	case c.mlt != nil:
		switch cmd {
		case "start":
			return c.mlt.StartGame(ctx)
		case "round":
			return c.mlt.NextRound(ctx)
		case "reset":
			return c.mlt.Reset(ctx)
		case "vote":
			s := c.mlt.State()
			for _, p := range s.Players {
				if strings.EqualFold(p.Name, rest) {
					return c.mlt.Vote(ctx, p.ID)
				}
			}
			return fmt.Errorf("no player named %q", rest)
		}
	}

	return fmt.Errorf("unknown command /%s, see /help", cmd)
}

func (c *client) printStatus() {
	m, ok := c.media.Media()
	if !ok {
		c.out.printf("media: nothing loaded")
	} else {
		c.out.printf("media: %s %s %s at %.1fs volume %.2f",
			m.Kind, m.Src, c.media.State(), c.player.CurrentTime(), c.player.Volume())
	}
	c.printGame()
}

func (c *client) printGame() {
	var (
		base   game.Base
		detail string
	)
	switch {
	case c.tod != nil:
		s := c.tod.State()
		base = s.Base
		detail = fmt.Sprintf("turn=%s choice=%s question=%q answer=%q",
			s.Name(s.CurrentTurnPlayerID), s.Choice, s.Question, s.Answer)
	case c.wyr != nil:
		s := c.wyr.State()
		base = s.Base
		detail = fmt.Sprintf("A=%q B=%q chosen=%d", s.OptionA, s.OptionB, len(s.Choices))
	case c.mlt != nil:
		s := c.mlt.State()
		base = s.Base
		detail = fmt.Sprintf("question=%q votes=%d", s.CurrentQuestion, len(s.Votes))
	default:
		return
	}

	scores := make([]string, 0, len(base.Players))
	for _, p := range base.Players {
		scores = append(scores, fmt.Sprintf("%s:%d", p.Name, base.Scores[p.ID]))
	}
	c.out.printf("game: %s round %d/%d [%s] %s",
		base.Phase, base.Round, base.MaxRounds, strings.Join(scores, " "), detail)
}
