package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/taskmaster/assistant/internal/infrastructure/config"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/ports"
	"github.com/taskmaster/assistant/internal/prompts"
)

const (
	defaultGroqURL   = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama-3.3-70b-versatile"
)

// Groq talks to an OpenAI-compatible chat completions endpoint
type Groq struct {
	client      *resty.Client
	model       string
	temperature float64
	maxTokens   int
	prompts     *prompts.Catalog
	logger      *logger.Logger
	now         func() time.Time
}

// NewGroq creates a Groq client from cfg
func NewGroq(cfg config.LLMConfig, catalog *prompts.Catalog, log *logger.Logger) *Groq {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGroqURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGroqModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetTimeout(timeout)

	return &Groq{
		client:      c,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		prompts:     catalog,
		logger:      log.WithComponent("llm.groq"),
		now:         time.Now,
	}
}

// Name returns the provider name
func (g *Groq) Name() string { return "groq" }

type completionRequest struct {
	Model       string         `json:"model"`
	Messages    []chatMessage  `json:"messages"`
	Tools       []functionTool `json:"tools,omitempty"`
	ToolChoice  string         `json:"tool_choice,omitempty"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string          `json:"name"`
					Arguments json.RawMessage `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// SelectTool offers the catalogue and returns the model's choice
func (g *Groq) SelectTool(ctx context.Context, message string, tools []ports.ToolSpec) (*ports.ToolSelection, error) {
	req := completionRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: g.prompts.SystemPrompt(g.now())},
			{Role: "user", Content: message},
		},
		Tools:       functionTools(tools),
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}

	resp, err := g.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return &ports.ToolSelection{}, nil
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		if len(msg.ToolCalls) > 1 {
			g.logger.Debugw("Model requested several tools, using the first", "count", len(msg.ToolCalls), "tool", call.Function.Name)
		}
		return selection(call.Function.Name, call.Function.Arguments, msg.Content, tools), nil
	}
	return selection("", nil, msg.Content, tools), nil
}

// Phrase turns a successful tool result into a conversational reply
func (g *Groq) Phrase(ctx context.Context, message string, result ports.ToolResult) (string, error) {
	user, err := phrasePrompt(message, result)
	if err != nil {
		return "", err
	}

	resp, err := g.complete(ctx, completionRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: g.prompts.Response},
			{Role: "user", Content: user},
		},
		Temperature: phraseTemperature,
		MaxTokens:   phraseMaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *Groq) complete(ctx context.Context, req completionRequest) (*completionResponse, error) {
	var out completionResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(&req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("groq request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("groq status %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
