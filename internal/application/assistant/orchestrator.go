// Package assistant turns a chat message into a reply, letting the language
// model pick at most one tool to run on the way.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
	"github.com/taskmaster/assistant/internal/prompts"
)

// ErrEmptyMessage is returned for a blank chat message
var ErrEmptyMessage = errors.New("message is required")

// Orchestrator runs the two-phase select/phrase protocol
type Orchestrator struct {
	model      ports.LanguageModel
	dispatcher ports.ToolDispatcher
	prompts    *prompts.Catalog
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// New creates an orchestrator. m may be nil.
func New(model ports.LanguageModel, dispatcher ports.ToolDispatcher, catalog *prompts.Catalog, m *metrics.Metrics, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		model:      model,
		dispatcher: dispatcher,
		prompts:    catalog,
		metrics:    m,
		logger:     log.WithComponent("assistant"),
	}
}

// Chat answers one message. Model failures degrade to fixed fallback text
// and are never returned as errors.
func (o *Orchestrator) Chat(ctx context.Context, userID uuid.UUID, req ports.ChatRequest) (*ports.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	message := o.prompts.Expand(req.Template, req.Message)

	selection, err := o.model.SelectTool(ctx, message, o.dispatcher.Catalogue())
	o.metrics.ObserveLLM(o.model.Name(), "select", err)
	if err != nil {
		o.logger.Warnw("Tool selection failed", "provider", o.model.Name(), "user_id", userID, "error", err)
		return &ports.ChatResponse{Response: o.prompts.Fallbacks.NoAnswer}, nil
	}

	if selection == nil || selection.ToolName == "" {
		reply := ""
		if selection != nil {
			reply = strings.TrimSpace(selection.Response)
		}
		if reply == "" {
			reply = o.prompts.Fallbacks.NoAnswer
		}
		return &ports.ChatResponse{Response: reply}, nil
	}

	result := o.dispatcher.Dispatch(ctx, selection.ToolName, selection.Parameters, userID)

	resp := &ports.ChatResponse{
		ToolUsed:   selection.ToolName,
		ToolResult: &result,
	}
	if !result.Success {
		resp.Response = o.prompts.ToolFailed(result.Error)
		return resp, nil
	}

	reply, err := o.model.Phrase(ctx, message, result)
	o.metrics.ObserveLLM(o.model.Name(), "phrase", err)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		if err != nil {
			o.logger.Warnw("Phrasing failed", "provider", o.model.Name(), "tool", selection.ToolName, "error", err)
		}
		reply = o.prompts.PhraseFailed(selection.ToolName)
	}
	resp.Response = reply

	return resp, nil
}
