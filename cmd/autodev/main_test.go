package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/autodev/internal/config"
)

func TestReadDescription(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		stdin       string
		interactive bool
		want        string
		wantPrompt  bool
		wantErr     bool
	}{
		{name: "args joined", args: []string{"a", "todo", "app"}, want: "a todo app"},
		{name: "prompt on terminal", stdin: "crypto tracker\n", interactive: true, want: "crypto tracker", wantPrompt: true},
		{name: "prompt without trailing newline", stdin: "blog", interactive: true, want: "blog", wantPrompt: true},
		{name: "empty answer", stdin: "\n", interactive: true, wantPrompt: true, wantErr: true},
		{name: "not a terminal", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := readDescription(tt.args, strings.NewReader(tt.stdin), &out, tt.interactive)
			assert.Equal(t, tt.wantPrompt, strings.Contains(out.String(), "What webserver are we building today?"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyRunFlags(t *testing.T) {
	cfg := config.Default()
	applyRunFlags(cfg, runFlags{projectRoot: "/tmp/web", yes: true, raw: true, noHistory: true})

	assert.Equal(t, "/tmp/web", cfg.Project.Root)
	assert.True(t, cfg.Pipeline.AutoConfirm)
	assert.False(t, cfg.Pipeline.RefineGoal)
	assert.True(t, cfg.Storage.Disabled)

	untouched := config.Default()
	applyRunFlags(untouched, runFlags{})
	assert.Equal(t, config.Default(), untouched)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("12345678-aaaa"))
}

func TestPromptsCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newPromptsCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "rest_api_endpoints")
	assert.Contains(t, out.String(), "user_goal")

	out.Reset()
	cmd.SetArgs([]string{"fixed_code"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "fixed_code 1.0.0")

	cmd.SetArgs([]string{"nope"})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
