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
	defaultWorkersAIURL   = "https://api.cloudflare.com/client/v4"
	defaultWorkersAIModel = "@cf/meta/llama-3.3-70b-instruct-fp8-fast"
)

// WorkersAI talks to the Cloudflare Workers AI run endpoint
type WorkersAI struct {
	client      *resty.Client
	accountID   string
	model       string
	temperature float64
	maxTokens   int
	prompts     *prompts.Catalog
	logger      *logger.Logger
	now         func() time.Time
}

// NewWorkersAI creates a Workers AI client from cfg
func NewWorkersAI(cfg config.LLMConfig, catalog *prompts.Catalog, log *logger.Logger) *WorkersAI {
	base := cfg.BaseURL
	if base == "" {
		base = defaultWorkersAIURL
	}
	model := cfg.Model
	if model == "" || !strings.HasPrefix(model, "@") {
		model = defaultWorkersAIModel
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

	return &WorkersAI{
		client:      c,
		accountID:   cfg.AccountID,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		prompts:     catalog,
		logger:      log.WithComponent("llm.workersai"),
		now:         time.Now,
	}
}

// Name returns the provider name
func (w *WorkersAI) Name() string { return "workersai" }

type runRequest struct {
	Messages    []chatMessage  `json:"messages"`
	Tools       []functionTool `json:"tools,omitempty"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
}

// workersToolCall covers both the flat {name, arguments} shape and the
// OpenAI-style {function: {name, arguments}} shape.
type workersToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Function  *struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type runResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		// Response is usually a string but some models return structured JSON here.
		Response  json.RawMessage   `json:"response"`
		ToolCalls []workersToolCall `json:"tool_calls"`
	} `json:"result"`
}

func (r *runResponse) text() string {
	raw := strings.TrimSpace(string(r.Result.Response))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Result.Response, &s); err == nil {
		return s
	}
	return raw
}

// SelectTool offers the catalogue and returns the model's choice
func (w *WorkersAI) SelectTool(ctx context.Context, message string, tools []ports.ToolSpec) (*ports.ToolSelection, error) {
	resp, err := w.run(ctx, runRequest{
		Messages: []chatMessage{
			{Role: "system", Content: w.prompts.SystemPrompt(w.now())},
			{Role: "user", Content: message},
		},
		Tools:       functionTools(tools),
		Temperature: w.temperature,
		MaxTokens:   w.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	content := resp.text()
	if len(resp.Result.ToolCalls) > 0 {
		call := resp.Result.ToolCalls[0]
		name, args := call.Name, call.Arguments
		if call.Function != nil && call.Function.Name != "" {
			name, args = call.Function.Name, call.Function.Arguments
		}
		if name != "" {
			return selection(name, args, content, tools), nil
		}
	}
	return selection("", nil, content, tools), nil
}

// Phrase turns a successful tool result into a conversational reply
func (w *WorkersAI) Phrase(ctx context.Context, message string, result ports.ToolResult) (string, error) {
	user, err := phrasePrompt(message, result)
	if err != nil {
		return "", err
	}

	resp, err := w.run(ctx, runRequest{
		Messages: []chatMessage{
			{Role: "system", Content: w.prompts.Response},
			{Role: "user", Content: user},
		},
		Temperature: phraseTemperature,
		MaxTokens:   phraseMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.text()), nil
}

func (w *WorkersAI) run(ctx context.Context, req runRequest) (*runResponse, error) {
	var out runResponse
	resp, err := w.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"account": w.accountID}).
		SetBody(&req).
		SetResult(&out).
		SetError(&out).
		Post("/accounts/{account}/ai/run/" + w.model)
	if err != nil {
		return nil, fmt.Errorf("workers ai request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		if len(out.Errors) > 0 {
			return nil, fmt.Errorf("workers ai status %d: %s", resp.StatusCode(), out.Errors[0].Message)
		}
		return nil, fmt.Errorf("workers ai status %d: %s", resp.StatusCode(), truncate(resp.String(), 300))
	}
	return &out, nil
}
