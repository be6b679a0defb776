package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"nytimes/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDispatcherHandler_RoutesErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	log := slog.New(NewLevelDispatcherHandler(&out, &errOut, &slog.HandlerOptions{Level: slog.LevelInfo}))

	log.Info("fetched", slog.String("component", "fetcher"))
	log.Error("failed", slog.Any("error", errors.New("boom")))
	log.Debug("hidden")

	assert.Contains(t, out.String(), "INFO [fetcher]: fetched")
	assert.NotContains(t, out.String(), "failed")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, errOut.String(), `ERROR: failed | error="boom"`)
}

func TestReadableHandler_KeepsWithAttrs(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, nil)).With(
		slog.String("component", "http"),
		slog.String("op", "getTopStories"),
		slog.String("request_id", "abc"),
	)

	log.Warn("retrying", slog.Int("attempt", 2), slog.Duration("wait", 1500*time.Microsecond))

	line := out.String()
	assert.Contains(t, line, "WARN [http] (getTopStories): retrying")
	assert.Contains(t, line, "request_id=abc")
	assert.Contains(t, line, "attempt=2")
	assert.Contains(t, line, "wait=2ms")
}

func TestReadableHandler_Group(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, nil)).WithGroup("upstream").With(slog.String("category", "arts"))

	log.Info("ok", slog.Int("status", 200))

	assert.Contains(t, out.String(), "upstream.category=arts")
	assert.Contains(t, out.String(), "upstream.status=200")
}

func TestReadableHandler_AddSource(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, &slog.HandlerOptions{AddSource: true}))

	log.Info("with source")

	assert.Contains(t, out.String(), "<logger_test.go:")
	assert.Contains(t, out.String(), ": with source")
}

func TestShortenURL_DropsQuery(t *testing.T) {
	assert.Equal(t, "https://api.nytimes.com/svc/x.json", shortenURL("https://api.nytimes.com/svc/x.json?api-key=secret"))
	assert.Equal(t, "https://api.nytimes.com/...", shortenURL("https://api.nytimes.com/svc/topstories/v2/science.json?api-key=secret"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_DefaultsToStdStreams(t *testing.T) {
	log, err := New(config.LoggerConfig{Level: "warn"})
	require.NoError(t, err)
	assert.True(t, log.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
}
