package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	toolx "github.com/tanpawarit/Chative-Commerce-Relay/agent/tool"
)

// Extractor turns a conversation into one registry-validated tool call.
type Extractor struct {
	runner   compose.Runnable[map[string]any, *schema.Message]
	registry *toolx.Registry
}

var _ contractx.IntentExtractor = (*Extractor)(nil)

func NewExtractor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, registry *toolx.Registry) (*Extractor, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: intent model is required", contractx.ErrConfig)
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: intent prompt", contractx.ErrPromptMissing)
	}
	runner, err := compileChatGraph(ctx, chatModel, systemPrompt, "intent.extract_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile intent graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Extractor{runner: runner, registry: registry}, nil
}

func (e *Extractor) Extract(ctx context.Context, history []contractx.ChatTurn) (contractx.ToolCall, error) {
	if len(history) == 0 {
		return contractx.ToolCall{}, fmt.Errorf("%w: conversation is empty", contractx.ErrValidation)
	}

	out, err := e.runner.Invoke(ctx, map[string]any{
		"tools":    e.registry.Describe(),
		historyKey: historyMessages(history),
	})
	if err != nil {
		return contractx.ToolCall{}, fmt.Errorf("%w: could not determine intent: %v", contractx.ErrModelInvoke, err)
	}
	if out == nil {
		return contractx.ToolCall{}, fmt.Errorf("%w: empty model reply", contractx.ErrNoIntent)
	}

	call, err := ParseToolCall(out.Content)
	if err != nil {
		log.Debug().
			Str("component", "intent").
			Str("content", out.Content).
			Msg("no tool call in model reply")
		return contractx.ToolCall{}, err
	}
	return e.registry.Validate(call)
}

type rawToolCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
	Input      map[string]any `json:"input"`
	Arguments  map[string]any `json:"arguments"`
}

func (r rawToolCall) params() map[string]any {
	switch {
	case r.Parameters != nil:
		return r.Parameters
	case r.Input != nil:
		return r.Input
	case r.Arguments != nil:
		return r.Arguments
	}
	return map[string]any{}
}

// ParseToolCall recovers a tool call from free model text: it takes the span
// from the first "{" to the last "}" and accepts either
// {"tool_use":{"name":...,"parameters":...}} or {"name":...,"parameters":...}.
func ParseToolCall(content string) (contractx.ToolCall, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return contractx.ToolCall{}, fmt.Errorf("%w: no JSON object in reply", contractx.ErrNoIntent)
	}

	var envelope struct {
		ToolUse *rawToolCall `json:"tool_use"`
		rawToolCall
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &envelope); err != nil {
		return contractx.ToolCall{}, fmt.Errorf("%w: %v", contractx.ErrNoIntent, err)
	}

	raw := envelope.rawToolCall
	if envelope.ToolUse != nil {
		raw = *envelope.ToolUse
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return contractx.ToolCall{}, fmt.Errorf("%w: tool name is empty", contractx.ErrNoIntent)
	}
	return contractx.ToolCall{Name: name, Parameters: raw.params()}, nil
}
