package telemetry

import (
	"fmt"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

func TestInitSentryDisabled(t *testing.T) {
	settings := &conf.Settings{}
	require.NoError(t, InitSentry(settings))
	assert.False(t, IsInitialized())
	assert.True(t, Flush(0))
}

func TestInitSentryRequiresDSN(t *testing.T) {
	settings := &conf.Settings{}
	settings.Sentry.Enabled = true

	err := InitSentry(settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.False(t, IsInitialized())
}

func TestReportedErrorsAreFiltered(t *testing.T) {
	transport := &mockTransport{}
	settings := &conf.Settings{Version: "test"}
	settings.Sentry.Enabled = true
	settings.Sentry.DSN = "https://public@example.com/1"

	require.NoError(t, initSentry(settings, transport))
	t.Cleanup(Shutdown)
	require.True(t, IsInitialized())

	_ = errors.New(fmt.Errorf("reading /home/alice/leaf.jpg?token=abc failed")).
		Component("imaging").
		Category(errors.CategoryFileIO).
		Build()
	require.True(t, Flush(DefaultFlushTimeout))

	events := transport.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Empty(t, ev.ServerName)
	assert.True(t, ev.User.IsEmpty())
	assert.Equal(t, "imaging", ev.Tags["component"])
	assert.Equal(t, string(errors.CategoryFileIO), ev.Tags["category"])
	assert.NotContains(t, ev.Message, "token=abc")
	assert.Equal(t, sentry.LevelWarning, ev.Level)
}

func TestApplyPrivacyFilters(t *testing.T) {
	t.Parallel()

	event := sentry.NewEvent()
	event.ServerName = "garden-pi"
	event.User = sentry.User{ID: "42", IPAddress: "10.0.0.2"}
	event.Contexts = map[string]sentry.Context{
		"device":   {"name": "pi"},
		"os":       {"name": "linux"},
		"platform": {"num_cpu": 4},
	}
	event.Extra = map[string]any{"error_type": "x", "path": "/home/alice"}
	event.Tags = map[string]string{"hostname": "garden-pi", "component": "classifier"}
	event.Message = "open /home/alice/model.zip: no such file"
	event.Exception = []sentry.Exception{{Value: "decode /home/alice/leaf.png failed"}}

	got := applyPrivacyFilters(event)

	assert.Empty(t, got.ServerName)
	assert.True(t, got.User.IsEmpty())
	assert.NotContains(t, got.Contexts, "device")
	assert.NotContains(t, got.Contexts, "os")
	assert.Contains(t, got.Contexts, "platform")
	assert.Equal(t, map[string]any{"error_type": "x"}, got.Extra)
	assert.Equal(t, map[string]string{"component": "classifier"}, got.Tags)
	assert.Equal(t, "open ~/.../model.zip: no such file", got.Message)
	assert.Equal(t, "decode ~/.../leaf.png failed", got.Exception[0].Value)
}
