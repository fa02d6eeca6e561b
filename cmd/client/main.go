// Command client joins a room from the terminal: chat, reactions, a
// headless media player that follows the room, and one of the games.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sharetube/watchtogether/internal/chat"
	"github.com/sharetube/watchtogether/internal/game"
	"github.com/sharetube/watchtogether/internal/game/mostlikely"
	"github.com/sharetube/watchtogether/internal/game/truthordare"
	"github.com/sharetube/watchtogether/internal/game/wouldrather"
	"github.com/sharetube/watchtogether/internal/mediasync"
	"github.com/sharetube/watchtogether/internal/session"
	"github.com/sharetube/watchtogether/internal/transport"
	"github.com/sharetube/watchtogether/internal/transport/trigger"
	"github.com/sharetube/watchtogether/internal/transport/wsclient"
)

type options struct {
	server        string
	room          string
	name          string
	game          string
	triggerURL    string
	triggerSecret string
	logLevel      string
}

func parseFlags() options {
	var o options
	pflag.StringVar(&o.server, "server", "ws://localhost:8080/api/v1/ws", "Relay websocket url")
	pflag.StringVarP(&o.room, "room", "r", "lobby", "Room to join")
	pflag.StringVarP(&o.name, "name", "n", "", "Display name")
	pflag.StringVarP(&o.game, "game", "g", "truthordare", "Game to play: truthordare, wouldrather or mostlikely")
	pflag.StringVar(&o.triggerURL, "trigger-url", "", "Publish through the trigger endpoint at this base url")
	pflag.StringVar(&o.triggerSecret, "trigger-secret", "", "Secret for the trigger endpoint")
	pflag.StringVar(&o.logLevel, "log-level", "WARN", "Logging level")
	pflag.Parse()

	return o
}

func main() {
	o := parseFlags()
	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(o options) error {
	if strings.TrimSpace(o.name) == "" {
		return fmt.Errorf("--name is required")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(o.logLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws, err := wsclient.Dial(ctx, o.server, wsclient.WithLogger(logger))
	if err != nil {
		return err
	}
	defer ws.Close()

	var t transport.Transport = ws
	if o.triggerURL != "" {
		t = trigger.New(o.triggerURL, ws, trigger.WithSecret(o.triggerSecret))
	}

	bus := session.NewBus(t, session.WithLogger(logger))
	out := newConsole(os.Stdout)

	c := &client{out: out}

	c.chat = chat.NewRelay(bus, chat.Config{
		Channel: chat.Channel(o.room),
		Name:    o.name,
		OnMessage: func(m chat.Message) {
			out.printf("[%s] %s", m.User, m.Text)
		},
		OnReaction: func(r chat.Reaction) {
			out.printf("%s", r.Emoji)
		},
	}, logger)
	if err := c.chat.Start(ctx); err != nil {
		return err
	}

	c.player = mediasync.NewClockPlayer(nil)
	c.media = mediasync.NewController(bus, c.player, mediasync.Config{
		Channel: mediasync.Channel(o.room),
		Notify:  func(text string) { out.printf("* %s", text) },
	}, logger)
	if err := c.media.Start(ctx); err != nil {
		return err
	}

	gameCfg := game.Config{
		Channel:  game.Channel(o.room),
		Name:     o.name,
		Notify:   c.chat.Notifier(ctx),
		OnChange: func() { c.printGame() },
	}
	switch o.game {
	case "truthordare":
		c.tod = truthordare.New(bus, gameCfg, logger)
		err = c.tod.Start(ctx)
	case "wouldrather":
		c.wyr = wouldrather.New(bus, gameCfg, logger)
		err = c.wyr.Start(ctx)
	case "mostlikely":
		c.mlt = mostlikely.New(bus, gameCfg, logger)
		err = c.mlt.Start(ctx)
	default:
		return fmt.Errorf("unknown game %q", o.game)
	}
	if err != nil {
		return err
	}

	out.printf("joined room %s as %s (%s), type /help for commands", o.room, o.name, bus.ID())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ws.Done():
			return fmt.Errorf("connection to relay closed")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.exec(ctx, line)
			if err != nil {
				out.printf("! %v", err)
			}
			if quit {
				return nil
			}
		}
	}
}
