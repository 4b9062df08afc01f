package log

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return FromZap(zap.New(core), level), logs
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"":        LevelInfo,
		"DEBUG":   LevelDebug,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"fatal":   LevelFatal,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "nope"})
	require.Error(t, err)

	_, err = New(Config{Level: "info", Encoding: "xml"})
	require.Error(t, err)

	l, err := New(DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, LevelInfo, l.GetLevel())
}

func TestLevelFiltering(t *testing.T) {
	l, logs := observed(LevelWarn)

	l.Info("hidden")
	l.Warn("shown", Int("n", 3))
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "shown", logs.All()[0].Message)
	require.EqualValues(t, 3, logs.All()[0].ContextMap()["n"])

	l.SetLevel(LevelDebug)
	require.Equal(t, LevelDebug, l.GetLevel())
	l.Debug("now visible")
	require.Equal(t, 2, logs.Len())
}

func TestFieldsAndContext(t *testing.T) {
	l, logs := observed(LevelDebug)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.WithContext(ctx).With(String("room", "lobby")).Error("failed",
		Error(errors.New("boom")),
		Strings("axes", []string{"x", "z"}),
		Bool("ok", false),
		Float64("scale", 0.05),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "lobby", fields["room"])
	require.Equal(t, "boom", fields["error"])
	require.Equal(t, false, fields["ok"])
	require.Equal(t, []any{"x", "z"}, fields["axes"])
	require.Equal(t, 0.05, fields["scale"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("discarded")
	require.NotPanics(t, func() { l.With(Float64("k", 1)).Warn("still discarded") })
}
