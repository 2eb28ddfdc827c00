package intent

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	renderx "github.com/tanpawarit/Chative-Commerce-Relay/agent/render"
)

const FallbackSummary = "Sorry, I could not summarize the result."

// cardExample is rendered into the summary prompt so the model copies the
// exact card layout clients parse.
var cardExample = renderx.FormatProductCards([]contractx.Product{
	{
		Title:    "Red Runner",
		ImageURL: "https://cdn.example.com/red-runner.png",
		Variants: []contractx.Variant{{Price: contractx.Money{Amount: "49.00", CurrencyCode: "USD"}}},
	},
	{
		Title:    "Trail Boot",
		ImageURL: "https://cdn.example.com/trail-boot.png",
		Variants: []contractx.Variant{{Price: contractx.Money{Amount: "120.50", CurrencyCode: "USD"}}},
	},
})

type Summarizer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Summarizer = (*Summarizer)(nil)

func NewSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Summarizer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: summary model is required", contractx.ErrConfig)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: summary prompt", contractx.ErrPromptMissing)
	}
	runner, err := compileChatGraph(ctx, chatModel, systemPrompt, "intent.summary_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile summary graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Summarizer{runner: runner}, nil
}

// Summarize expects history to end with the tool turn holding the result.
func (s *Summarizer) Summarize(ctx context.Context, history []contractx.ChatTurn) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("%w: conversation is empty", contractx.ErrValidation)
	}
	out, err := s.runner.Invoke(ctx, map[string]any{
		"card_example": cardExample,
		historyKey:     historyMessages(history),
	})
	if err != nil {
		return "", fmt.Errorf("%w: summarize: %v", contractx.ErrModelInvoke, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("%w: empty summary", contractx.ErrModelInvoke)
	}
	return strings.TrimSpace(out.Content), nil
}
