package ctxlogger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ContextHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := AppendCtx(context.Background(), slog.String("request_id", "r1"))
	child := AppendCtx(ctx, slog.String("channel", "game-42"))

	logger.InfoContext(child, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "r1", record["request_id"])
	assert.Equal(t, "game-42", record["channel"])

	buf.Reset()
	logger.InfoContext(ctx, "parent")
	var parent map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parent))
	_, ok := parent["channel"]
	assert.False(t, ok, "child attrs must not leak into the parent context")
}
