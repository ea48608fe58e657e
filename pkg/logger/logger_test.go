package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "registracion/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestWithContextAddsRequestAndOperator(t *testing.T) {
	log, logs := observed()

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{RequestID: "req-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "7", Username: "balanza1"})

	log.WithContext(ctx).Infow("registered", "kind", "normal")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "7", fields["user_id"])
	assert.Equal(t, "balanza1", fields["username"])
	assert.Equal(t, "normal", fields["kind"])
}

func TestContextHelpersUseAttachedLogger(t *testing.T) {
	log, logs := observed()
	ctx := WithLogger(context.Background(), log.WithComponent("outbox"))

	Warn(ctx, "delivery failed", "message_id", "m1")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "outbox", entry.ContextMap()["component"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "not-a-level", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}
