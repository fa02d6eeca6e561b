package controller

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

func (c controller) wsLoggingMw(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
	return func(ctx context.Context, conn *websocket.Conn, payload any) error {
		ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
		ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
		c.logger.DebugContext(ctx, "websocket message received")
		start := time.Now()

		err := next(ctx, conn, payload)
		if !c.logger.Enabled(ctx, slog.LevelDebug) {
			return err
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		c.logger.DebugContext(ctx, "websocket message handled",
			"processing_time_us", time.Since(start).Microseconds(),
			"alloc_mb", m.Alloc/1024/1024,
			"goroutines", runtime.NumGoroutine(),
			"failed", err != nil,
		)

		return err
	}
}
