package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/service/relay"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
)

const writeWait = 10 * time.Second

func (c controller) serveRelay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels := r.URL.Query()["channel"]
	for _, channel := range channels {
		if err := c.validatePayload(&channelPayload{Channel: channel}); err != nil {
			c.writeError(w, http.StatusBadRequest, "invalid channel", err.(*validationError).details)
			return
		}
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(ctx, "failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	connectResponse, err := c.relayService.Connect(ctx, &relay.ConnectParams{Conn: conn})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to register connection", "error", err)
		return
	}
	defer func() {
		if err := c.relayService.Disconnect(ctx, &relay.ConnectParams{Conn: conn}); err != nil {
			c.logger.WarnContext(ctx, "failed to unregister connection", "error", err)
		}
	}()

	ctx = ctxlogger.AppendCtx(ctx, slog.String("client_id", connectResponse.ClientID))

	if c.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	if err := c.relayService.Send(ctx, conn, &Output{
		Type:    connectedType,
		Payload: connectedPayload{ClientID: connectResponse.ClientID},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to greet client", "error", err)
		return
	}

	for _, channel := range channels {
		if err := c.relayService.Subscribe(ctx, &relay.SubscribeParams{Conn: conn, Channel: channel}); err != nil {
			c.logger.WarnContext(ctx, "failed to subscribe on connect", "channel", channel, "error", err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go c.keepAlive(conn, done)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			c.logger.DebugContext(ctx, "client closed connection", "code", closeErr.Code)
			return
		}
		c.logger.DebugContext(ctx, "connection ended", "error", err)
	}
}

func (c controller) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
