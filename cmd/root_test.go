package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/analysis"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
)

func TestRootCommand(t *testing.T) {
	settings := &conf.Settings{Version: "1.2.3"}
	root := RootCommand(settings)

	assert.Equal(t, "leafscan", root.Use)
	assert.Equal(t, "1.2.3", root.Version)

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"train", "serve", "predict", "directory", "remedies"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"debug", "model", "remedies", "threads"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}

	predict, _, err := root.Find([]string{"predict"})
	require.NoError(t, err)
	assert.NotNil(t, predict.Flags().Lookup("classes-dir"))
	assert.NotNil(t, predict.Flags().Lookup("top"))
}

func TestRootFlagsUpdateSettings(t *testing.T) {
	settings := &conf.Settings{}
	root := RootCommand(settings)

	require.NoError(t, root.PersistentFlags().Parse([]string{"--model", "other.zip", "--threads", "2", "-d"}))
	assert.Equal(t, "other.zip", settings.Model.Path)
	assert.Equal(t, 2, settings.Backbone.Threads)
	assert.True(t, settings.Debug)
}

func TestLogsStayOffStdout(t *testing.T) {
	settings := &conf.Settings{}
	settings.Main.Log.Level = "info"
	settings.Main.Log.Console.Enabled = true
	settings.Main.Log.Console.Level = "info"

	root := RootCommand(settings)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	central, err := newLogger(root, settings)
	require.NoError(t, err)

	central.Module("classifier").Info("model loaded")
	r := &analysis.Result{
		Prediction: &classifier.Prediction{Label: "Tomato___Late_blight", Confidence: 0.9},
		Remedy:     "Remove infected leaves.",
	}
	require.NoError(t, analysis.WriteResult(root.OutOrStdout(), r, 0))
	central.Module("analysis").Info("image analyzed")

	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Predicted Disease: Tomato___Late_blight",
		"Confidence: 90.00 %",
		"Treatment Recommendation: Remove infected leaves.",
	}, lines)
	assert.Contains(t, stderr.String(), "model loaded")
	assert.Contains(t, stderr.String(), "image analyzed")
}
