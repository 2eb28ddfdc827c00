package intent

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

const historyKey = "history"

// compileChatGraph wires prompt -> model. The system prompt is a Go template
// rendered with the invoke variables; the conversation is passed unformatted
// under historyKey so shopper text is never treated as template syntax.
func compileChatGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder(historyKey, false),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", compose.END},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", e[0], e[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

// historyMessages maps chat turns onto model messages. Tool turns become user
// messages since no provider call id ties them to a tool request.
func historyMessages(history []contractx.ChatTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Speaker {
		case contractx.SpeakerAssistant:
			out = append(out, schema.AssistantMessage(turn.Text, nil))
		case contractx.SpeakerTool:
			out = append(out, schema.UserMessage("Result of the store action:\n"+turn.Text))
		default:
			out = append(out, schema.UserMessage(turn.Text))
		}
	}
	return out
}
