package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)

	log.With("request_id", "r-1").Info(context.Background(), "hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "r-1", line["request_id"])
	assert.Equal(t, "v", line["k"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "text", &buf)
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err")

	out := buf.String()
	assert.NotContains(t, out, "msg=dbg")
	assert.NotContains(t, out, "msg=inf")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() {
		log.Info(context.TODO(), "x")
		log.With("a", 1).Error(context.TODO(), "y")
	})
}

func TestLogger_DebugThroughInterface(t *testing.T) {
	var buf bytes.Buffer
	var log Logger = New("debug", "text", &buf)

	log.With("component", "cache").Debug(context.Background(), "cache hit", "key", "k1")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "component=cache")
	assert.Contains(t, out, "key=k1")
}
