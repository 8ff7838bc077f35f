package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Contains(t, c.System, "personal assistant")
	assert.Contains(t, c.System, "set_timer")
	assert.NotEmpty(t, c.Response)
	assert.Equal(t, "I'm not sure how to help with that.", c.Fallbacks.NoAnswer)
	assert.Len(t, c.Templates, 6)
}

func TestExpand(t *testing.T) {
	c := Default()

	assert.Equal(t, "Search the web for: go 1.22 release", c.Expand("search_web", "go 1.22 release"))
	assert.Equal(t, "Set a timer for: 5 minutes", c.Expand("set_timer", "5 minutes"))
	assert.Equal(t, "plain", c.Expand("", "plain"))
	assert.Equal(t, "plain", c.Expand("no_such_intent", "plain"))
}

func TestFallbackRendering(t *testing.T) {
	c := Default()

	assert.Equal(t, "Sorry, I couldn't complete that: Task not found", c.ToolFailed("Task not found"))
	assert.Contains(t, c.PhraseFailed("create_task"), "create_task")
}

func TestSystemPromptCarriesTime(t *testing.T) {
	c := Default()
	now := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	p := c.SystemPrompt(now)
	assert.True(t, strings.HasSuffix(p, "Current date and time: 2026-10-19T08:30:00Z (UTC)."))
}

func TestLoadFillsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("response: Be terse.\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", c.Response)
	assert.Equal(t, Default().System, c.System)
	assert.Equal(t, Default().Fallbacks, c.Fallbacks)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("system: [unterminated"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)
}
