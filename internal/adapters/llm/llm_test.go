package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
	"github.com/taskmaster/assistant/internal/prompts"
)

var catalogue = []ports.ToolSpec{
	{Name: "create_task", Description: "Create a task", Parameters: map[string]any{"type": "object"}},
	{Name: "calculate", Description: "Evaluate arithmetic", Parameters: map[string]any{"type": "object"}},
}

type capture struct {
	path   string
	auth   string
	body   map[string]any
	status int
	reply  string
}

func (c *capture) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		c.body = map[string]any{}
		_ = json.Unmarshal(raw, &c.body)

		w.Header().Set("Content-Type", "application/json")
		status := c.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, c.reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGroq(url string) *Groq {
	g := NewGroq(config.LLMConfig{
		Provider:    "groq",
		APIKey:      "gsk_test",
		BaseURL:     url,
		Temperature: 0.3,
		MaxTokens:   500,
		Timeout:     5 * time.Second,
	}, prompts.Default(), logger.NewNop())
	g.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func TestGroq_SelectToolNative(t *testing.T) {
	c := &capture{reply: `{"choices":[{"message":{"content":null,"tool_calls":[
		{"id":"call_1","type":"function","function":{"name":"create_task","arguments":"{\"title\":\"buy milk\",\"priority\":\"high\"}"}},
		{"id":"call_2","type":"function","function":{"name":"calculate","arguments":"{}"}}
	]}}]}`}
	srv := c.server(t)

	sel, err := newGroq(srv.URL).SelectTool(context.Background(), "remind me to buy milk", catalogue)
	require.NoError(t, err)
	assert.Equal(t, "create_task", sel.ToolName)
	assert.Equal(t, map[string]any{"title": "buy milk", "priority": "high"}, sel.Parameters)

	assert.Equal(t, "/chat/completions", c.path)
	assert.Equal(t, "Bearer gsk_test", c.auth)
	assert.Equal(t, "llama-3.3-70b-versatile", c.body["model"])
	assert.Equal(t, "auto", c.body["tool_choice"])

	tools := c.body["tools"].([]any)
	require.Len(t, tools, 2)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "create_task", fn["name"])

	messages := c.body["messages"].([]any)
	system := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, system, "Current date and time: 2026-01-02T03:04:05Z")
	assert.Equal(t, "remind me to buy milk", messages[1].(map[string]any)["content"])
}

func TestGroq_SelectToolDirectAnswer(t *testing.T) {
	c := &capture{reply: `{"choices":[{"message":{"content":"Hello there!"}}]}`}
	srv := c.server(t)

	sel, err := newGroq(srv.URL).SelectTool(context.Background(), "hi", catalogue)
	require.NoError(t, err)
	assert.Empty(t, sel.ToolName)
	assert.Equal(t, "Hello there!", sel.Response)
}

func TestGroq_SelectToolFromText(t *testing.T) {
	c := &capture{reply: `{"choices":[{"message":{"content":"<tool_call>{\"name\":\"calculate\",\"arguments\":{\"expression\":\"2+2\"}}</tool_call>"}}]}`}
	srv := c.server(t)

	sel, err := newGroq(srv.URL).SelectTool(context.Background(), "2+2?", catalogue)
	require.NoError(t, err)
	assert.Equal(t, "calculate", sel.ToolName)
	assert.Equal(t, "2+2", sel.Parameters["expression"])
}

func TestGroq_MalformedArgumentsBecomeReply(t *testing.T) {
	c := &capture{reply: `{"choices":[{"message":{"content":"let me check","tool_calls":[
		{"function":{"name":"create_task","arguments":"{not json"}}]}}]}`}
	srv := c.server(t)

	sel, err := newGroq(srv.URL).SelectTool(context.Background(), "x", catalogue)
	require.NoError(t, err)
	assert.Empty(t, sel.ToolName)
	assert.Equal(t, "let me check", sel.Response)
}

func TestGroq_HTTPError(t *testing.T) {
	c := &capture{status: http.StatusTooManyRequests, reply: `{"error":{"message":"rate limited"}}`}
	srv := c.server(t)

	_, err := newGroq(srv.URL).SelectTool(context.Background(), "hi", catalogue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGroq_Phrase(t *testing.T) {
	c := &capture{reply: `{"choices":[{"message":{"content":"  Done! Your task is saved.  "}}]}`}
	srv := c.server(t)

	reply, err := newGroq(srv.URL).Phrase(context.Background(), "add milk", ports.OK(map[string]any{"id": 7, "title": "milk"}))
	require.NoError(t, err)
	assert.Equal(t, "Done! Your task is saved.", reply)

	assert.Nil(t, c.body["tools"])
	messages := c.body["messages"].([]any)
	assert.Equal(t, prompts.Default().Response, messages[0].(map[string]any)["content"])
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "User asked: add milk")
	assert.Contains(t, user, `"title": "milk"`)
	assert.Contains(t, user, "Generate a natural response:")
	assert.EqualValues(t, phraseMaxTokens, c.body["max_tokens"])
}

func newWorkers(url string) *WorkersAI {
	return NewWorkersAI(config.LLMConfig{
		Provider:  "workersai",
		APIKey:    "cf_token",
		AccountID: "acct123",
		BaseURL:   url,
		Model:     "llama-3.3-70b-versatile",
		Timeout:   5 * time.Second,
	}, prompts.Default(), logger.NewNop())
}

func TestWorkersAI_SelectToolFlatCall(t *testing.T) {
	c := &capture{reply: `{"success":true,"result":{"response":null,"tool_calls":[{"name":"create_task","arguments":{"title":"call mom"}}]}}`}
	srv := c.server(t)

	sel, err := newWorkers(srv.URL).SelectTool(context.Background(), "remind me to call mom", catalogue)
	require.NoError(t, err)
	assert.Equal(t, "create_task", sel.ToolName)
	assert.Equal(t, "call mom", sel.Parameters["title"])

	assert.Equal(t, "/accounts/acct123/ai/run/@cf/meta/llama-3.3-70b-instruct-fp8-fast", c.path)
	assert.Equal(t, "Bearer cf_token", c.auth)
}

func TestWorkersAI_SelectToolNestedCall(t *testing.T) {
	c := &capture{reply: `{"success":true,"result":{"tool_calls":[{"function":{"name":"calculate","arguments":"{\"expression\":\"3*3\"}"}}]}}`}
	srv := c.server(t)

	sel, err := newWorkers(srv.URL).SelectTool(context.Background(), "3*3", catalogue)
	require.NoError(t, err)
	assert.Equal(t, "calculate", sel.ToolName)
	assert.Equal(t, "3*3", sel.Parameters["expression"])
}

func TestWorkersAI_DirectAnswerAndPhrase(t *testing.T) {
	c := &capture{reply: `{"success":true,"result":{"response":"Sure thing."}}`}
	srv := c.server(t)
	w := newWorkers(srv.URL)

	sel, err := w.SelectTool(context.Background(), "hello", catalogue)
	require.NoError(t, err)
	assert.Equal(t, "Sure thing.", sel.Response)

	reply, err := w.Phrase(context.Background(), "hello", ports.OK(nil))
	require.NoError(t, err)
	assert.Equal(t, "Sure thing.", reply)
}

func TestWorkersAI_ErrorEnvelope(t *testing.T) {
	c := &capture{status: http.StatusBadRequest, reply: `{"success":false,"errors":[{"code":5006,"message":"bad input"}],"result":{}}`}
	srv := c.server(t)

	_, err := newWorkers(srv.URL).SelectTool(context.Background(), "x", catalogue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")
}

func TestParseTextToolCall(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantTool string
		wantOK   bool
	}{
		{name: "plain object", content: `{"name":"calculate","arguments":{"expression":"1+1"}}`, wantTool: "calculate", wantOK: true},
		{name: "parameters key", content: `{"name":"calculate","parameters":{"expression":"1+1"}}`, wantTool: "calculate", wantOK: true},
		{name: "tagged", content: "Sure.\n<tool_call>\n{\"name\":\"create_task\",\"arguments\":{\"title\":\"x\"}}\n</tool_call>", wantTool: "create_task", wantOK: true},
		{name: "unterminated tag", content: `<tool_call>{"name":"calculate","arguments":{}}`, wantTool: "calculate", wantOK: true},
		{name: "array", content: `[{"name":"calculate","arguments":{}},{"name":"create_task","arguments":{}}]`, wantTool: "calculate", wantOK: true},
		{name: "fenced", content: "```json\n{\"name\":\"calculate\",\"arguments\":{}}\n```", wantTool: "calculate", wantOK: true},
		{name: "string arguments", content: `{"name":"calculate","arguments":"{\"expression\":\"2\"}"}`, wantTool: "calculate", wantOK: true},
		{name: "unknown tool", content: `{"name":"rm_rf","arguments":{}}`},
		{name: "plain text", content: "The answer is 4."},
		{name: "empty", content: "  "},
		{name: "json without name", content: `{"answer":4}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTextToolCall(tt.content, catalogue)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantTool, got.ToolName)
				assert.NotNil(t, got.Parameters)
			}
		})
	}
}

func TestDecodeArguments(t *testing.T) {
	for _, raw := range []string{``, `null`, `""`, `"  "`, `{}`} {
		args, err := decodeArguments(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.Empty(t, args, raw)
	}

	_, err := decodeArguments(json.RawMessage(`"[1,2]"`))
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	m, err := New(config.LLMConfig{Provider: "workersai", AccountID: "a"}, prompts.Default(), logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "workersai", m.Name())

	_, err = New(config.LLMConfig{Provider: "bard"}, prompts.Default(), logger.NewNop())
	assert.Error(t, err)
}
