// Package prompts holds the prompt catalogue shared by the conversation
// orchestrator and the language model adapters. The catalogue ships embedded
// and can be replaced from a YAML file at startup.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultCatalog []byte

// Catalog is the parsed prompt file
type Catalog struct {
	System    string            `yaml:"system"`
	Response  string            `yaml:"response"`
	Templates map[string]string `yaml:"templates"`
	Fallbacks Fallbacks         `yaml:"fallbacks"`
}

// Fallbacks are the fixed replies used when the model cannot be consulted
type Fallbacks struct {
	NoAnswer     string `yaml:"no_answer"`
	ToolFailed   string `yaml:"tool_failed"`
	PhraseFailed string `yaml:"phrase_failed"`
}

// Default returns the embedded catalogue
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("prompts: embedded catalogue is invalid: %v", err))
	}
	return c
}

// Load reads a catalogue from path. Missing sections fall back to the
// embedded defaults.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt catalogue: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.fill(Default())
	return c, nil
}

// Parse decodes a YAML catalogue
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing prompt catalogue: %w", err)
	}
	return &c, nil
}

func (c *Catalog) fill(d *Catalog) {
	if c.System == "" {
		c.System = d.System
	}
	if c.Response == "" {
		c.Response = d.Response
	}
	if c.Templates == nil {
		c.Templates = d.Templates
	}
	if c.Fallbacks.NoAnswer == "" {
		c.Fallbacks.NoAnswer = d.Fallbacks.NoAnswer
	}
	if c.Fallbacks.ToolFailed == "" {
		c.Fallbacks.ToolFailed = d.Fallbacks.ToolFailed
	}
	if c.Fallbacks.PhraseFailed == "" {
		c.Fallbacks.PhraseFailed = d.Fallbacks.PhraseFailed
	}
}

// Expand rewrites message through the named intent template. Unknown or
// empty template names leave the message unchanged.
func (c *Catalog) Expand(template, message string) string {
	tpl, ok := c.Templates[template]
	if template == "" || !ok {
		return message
	}
	return strings.ReplaceAll(tpl, "{message}", message)
}

// SystemPrompt is the selection-phase system prompt stamped with the current time,
// so relative dates ("tomorrow at 9") can be resolved.
func (c *Catalog) SystemPrompt(now time.Time) string {
	return strings.TrimRight(c.System, "\n") +
		"\n\nCurrent date and time: " + now.UTC().Format(time.RFC3339) + " (UTC)."
}

// ToolFailed renders the reply for a failed dispatch
func (c *Catalog) ToolFailed(errMsg string) string {
	return strings.ReplaceAll(c.Fallbacks.ToolFailed, "{error}", errMsg)
}

// PhraseFailed renders the reply used when phrasing a successful result failed
func (c *Catalog) PhraseFailed(tool string) string {
	return strings.ReplaceAll(c.Fallbacks.PhraseFailed, "{tool}", tool)
}
