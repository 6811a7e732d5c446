package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/runq/pkg/log"
)

func TestNewDefaultsToInfo(t *testing.T) {
	logger := log.New("runq", "test", "0.1.0")
	ctx := context.Background()

	assert.False(t, logger.Handler().Enabled(ctx, slog.LevelDebug))
	assert.True(t, logger.Handler().Enabled(ctx, slog.LevelInfo))
}

func TestNewWithLevelWritesServiceAttrs(t *testing.T) {
	out := captureStdout(t, func() {
		logger := log.NewWithLevel("runq", "stage", "9.9.9", slog.LevelDebug)
		logger.Debug("tick", log.QueueID("q-1"))
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "runq", got["service"])
	assert.Equal(t, "stage", got["env"])
	assert.Equal(t, "9.9.9", got["version"])
	assert.Equal(t, "q-1", got["queue_id"])
	assert.Equal(t, "tick", got["msg"])
}

func captureStdout(t *testing.T, fn func()) []byte {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	_ = r.Close()
	return bytes.TrimSpace(buf.Bytes())
}
