// Package tools holds the assistant's tool registry and dispatcher.
//
// A tool is a name, a JSON-schema description for the language model, a
// typed parameter struct and a handler. The dispatcher decodes the loose
// parameter map the model produced into that struct, validates it, runs the
// handler under the acting user and folds the outcome into a ToolResult.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/ports"
)

// Tool is one registered tool
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any

	// run decodes raw into the tool's parameter struct, validates it and
	// executes the handler.
	run func(ctx context.Context, userID uuid.UUID, raw map[string]any) (map[string]any, error)
}

// Handler executes a tool with decoded, validated parameters and returns
// the projection reported back to the language model.
type Handler[P any] func(ctx context.Context, userID uuid.UUID, params *P) (map[string]any, error)

// Define builds a tool whose parameters decode into P.
func Define[P any](name, description string, schema map[string]any, h Handler[P]) *Tool {
	return &Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		run: func(ctx context.Context, userID uuid.UUID, raw map[string]any) (map[string]any, error) {
			var params P
			if err := decodeParams(raw, &params); err != nil {
				return nil, err
			}
			if err := validateParams(&params); err != nil {
				return nil, err
			}
			return h(ctx, userID, &params)
		},
	}
}

// Registry holds available tools
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registering a name twice is a programming error.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		panic(fmt.Sprintf("tools: duplicate registration of %q", t.Name))
	}
	r.tools[t.Name] = t
}

// Get returns the named tool, or nil
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns every registered tool name in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalogue describes every tool to the language model, sorted by name
func (r *Registry) Catalogue() []ports.ToolSpec {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ports.ToolSpec, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		specs = append(specs, ports.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return specs
}
