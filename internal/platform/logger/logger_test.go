package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"user_id", "u1",
		"github_token", "ghp_secret",
		"Authorization", "Bearer abc",
		"dangling",
	})
	assert.Equal(t, []interface{}{
		"user_id", "u1",
		"github_token", "[REDACTED]",
		"Authorization", "[REDACTED]",
		"dangling",
	}, got)

	assert.Empty(t, sanitizeKVs(nil))
}

func TestLoggerRedactsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("password", "hunter2").Info("exported", "user_id", "u1", "token", "t")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["password"])
	assert.Equal(t, "[REDACTED]", fields["token"])
	assert.Equal(t, "u1", fields["user_id"])
}

func TestNew(t *testing.T) {
	l, err := New("development", "debug")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = New("production", "loud")
	require.Error(t, err)
}
