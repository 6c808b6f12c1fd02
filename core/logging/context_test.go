package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIDRoundTrip(t *testing.T) {
	assert.Equal(t, "", RunIDFromContext(context.Background()))

	id := NewRunID()
	ctx := ContextWithRunID(context.Background(), id)
	assert.Equal(t, id, RunIDFromContext(ctx))
}

func TestWithContextAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRunID(context.Background(), "run-1")
	l := WithContext(ctx, logger)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry[FieldRunID])
	assert.Equal(t, "hello", entry["message"])
}

func TestWithContextLeavesLoggerAloneWithoutRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	l := WithContext(context.Background(), logger)
	l.Info().Msg("x")
	assert.NotContains(t, buf.String(), FieldRunID)
}

func TestUseConsole(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useConsole("console", &buf))
	assert.False(t, useConsole("json", &buf))
	assert.False(t, useConsole("auto", &buf))
}
