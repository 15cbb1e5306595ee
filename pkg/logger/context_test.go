package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
)

func TestWithContextAttrs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, ctx, logger.WithContextAttrs(ctx))

	outer := logger.WithContextAttrs(ctx, slog.String("game_id", "g1"))
	inner := logger.WithContextAttrs(outer, logger.Event("reveal"))
	assert.Len(t, logger.ContextAttrs(outer), 1, "parent context is not modified")
	assert.Len(t, logger.ContextAttrs(inner), 2)

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf)).With(logger.Component("test"))
	log.InfoContext(inner, "msg")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "g1", entry["game_id"])
	assert.Equal(t, "reveal", entry["event"])
	assert.Equal(t, "test", entry["component"])
}
