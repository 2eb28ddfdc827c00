package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// anthropicModel adapts the Messages API to an eino chat model.
type anthropicModel struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

var _ model.BaseChatModel = (*anthropicModel)(nil)

func newAnthropicModel(c Config, role Role) (*anthropicModel, error) {
	rs := c.For(role)
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(c.APIKey))}
	if v := strings.TrimSpace(c.BaseURL); v != "" {
		opts = append(opts, option.WithBaseURL(v))
	}
	if c.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(c.Timeout))
	}

	maxTokens := int64(c.MaxCompletionToken)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &anthropicModel{
		client:      anthropic.NewClient(opts...),
		model:       anthropic.Model(rs.Model),
		maxTokens:   maxTokens,
		temperature: float64(rs.Temperature),
	}, nil
}

func (m *anthropicModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	messages, system := toAnthropicMessages(input)
	if len(messages) == 0 {
		return nil, errors.New("anthropic: no messages to send")
	}

	params := anthropic.MessageNewParams{
		Model:       m.model,
		MaxTokens:   m.maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(m.temperature),
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: create message: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return schema.AssistantMessage(b.String(), nil), nil
}

func (m *anthropicModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// toAnthropicMessages moves system prompts to the system parameter and folds
// consecutive turns of the same role, which the API rejects.
func toAnthropicMessages(in []*schema.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var (
		system []anthropic.TextBlockParam
		out    []anthropic.MessageParam
		role   schema.RoleType
		buf    []string
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		block := anthropic.NewTextBlock(strings.Join(buf, "\n\n"))
		if role == schema.Assistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
		buf = nil
	}

	for _, msg := range in {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			continue
		}
		r := schema.User
		if msg.Role == schema.Assistant {
			r = schema.Assistant
		}
		if r != role {
			flush()
			role = r
		}
		buf = append(buf, msg.Content)
	}
	flush()
	return out, system
}
