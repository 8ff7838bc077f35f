// Package llm adapts hosted language model APIs to ports.LanguageModel.
//
// Both backends speak a chat-completions dialect with function tools. The
// selection call offers the tool catalogue and reads back at most one tool
// call; the phrasing call sends the tool result and reads back plain text.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
	"github.com/taskmaster/assistant/internal/prompts"
)

const (
	phraseTemperature = 0.7
	phraseMaxTokens   = 200
)

// New builds the language model selected by cfg.Provider
func New(cfg config.LLMConfig, catalog *prompts.Catalog, log *logger.Logger) (ports.LanguageModel, error) {
	switch cfg.Provider {
	case "groq", "":
		return NewGroq(cfg, catalog, log), nil
	case "workersai":
		return NewWorkersAI(cfg, catalog, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type functionTool struct {
	Type     string        `json:"type"`
	Function ports.ToolSpec `json:"function"`
}

func functionTools(tools []ports.ToolSpec) []functionTool {
	out := make([]functionTool, len(tools))
	for i, t := range tools {
		out[i] = functionTool{Type: "function", Function: t}
	}
	return out
}

// phrasePrompt is the user turn of the phrasing call
func phrasePrompt(message string, result ports.ToolResult) (string, error) {
	data := result.Data
	if data == nil {
		data = map[string]any{}
	}
	summary, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return fmt.Sprintf("User asked: %s\n\nResult: %s\n\nGenerate a natural response:", message, summary), nil
}

// decodeArguments accepts arguments either as a JSON object or as a string
// holding one, which is how most OpenAI-compatible servers send them.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return map[string]any{}, nil
		}
		trimmed = s
	}

	args := map[string]any{}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// selection turns the first tool call, or the text content, into a
// ToolSelection. Undecodable arguments fall back to a direct reply with the
// raw content so the conversation still gets an answer.
func selection(name string, rawArgs json.RawMessage, content string, tools []ports.ToolSpec) *ports.ToolSelection {
	if name != "" {
		args, err := decodeArguments(rawArgs)
		if err != nil {
			return &ports.ToolSelection{Response: strings.TrimSpace(content)}
		}
		return &ports.ToolSelection{ToolName: name, Parameters: args}
	}

	if call, ok := parseTextToolCall(content, tools); ok {
		return call
	}
	return &ports.ToolSelection{Response: strings.TrimSpace(content)}
}

// parseTextToolCall recovers a tool call that the model wrote into its text
// content instead of the tool_calls field. Recognized forms:
//   - {"name": "...", "arguments": {...}} (also "parameters")
//   - the same wrapped in <tool_call>...</tool_call>
//   - a JSON array of such objects, of which the first is used
//
// Only names present in tools are accepted.
func parseTextToolCall(content string, tools []ports.ToolSpec) (*ports.ToolSelection, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false
	}

	if start := strings.Index(content, "<tool_call>"); start != -1 {
		rest := content[start+len("<tool_call>"):]
		if end := strings.Index(rest, "</tool_call>"); end != -1 {
			rest = rest[:end]
		}
		content = strings.TrimSpace(rest)
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	type textCall struct {
		Name       string          `json:"name"`
		Arguments  json.RawMessage `json:"arguments"`
		Parameters json.RawMessage `json:"parameters"`
	}

	var call textCall
	var calls []textCall
	if err := json.Unmarshal([]byte(content), &calls); err == nil && len(calls) > 0 {
		call = calls[0]
	} else if err := json.Unmarshal([]byte(content), &call); err != nil {
		return nil, false
	}

	if call.Name == "" || !offered(call.Name, tools) {
		return nil, false
	}

	raw := call.Arguments
	if len(raw) == 0 {
		raw = call.Parameters
	}
	args, err := decodeArguments(raw)
	if err != nil {
		return nil, false
	}
	return &ports.ToolSelection{ToolName: call.Name, Parameters: args}, true
}

func offered(name string, tools []ports.ToolSpec) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}
