package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
)

// StructuredModel is an eino chat model that asks the endpoint for a reply
// conforming to a JSON schema. Providers that ignore response_format still
// answer in free text, which callers parse leniently anyway.
type StructuredModel struct {
	client      *openaisdk.Client
	model       string
	schemaName  string
	schema      map[string]any
	temperature float32
	maxTokens   int
}

var _ model.BaseChatModel = (*StructuredModel)(nil)

func NewStructuredModel(cfg Config, schemaName string, jsonSchema map[string]any) (*StructuredModel, error) {
	client := NewClient(cfg)
	if client == nil {
		return nil, errors.New("openrouter: api key is required")
	}
	if strings.TrimSpace(schemaName) == "" || len(jsonSchema) == 0 {
		return nil, errors.New("openrouter: response schema is required")
	}
	maxTokens := 0
	if cfg.MaxCompletionToken != nil {
		maxTokens = *cfg.MaxCompletionToken
	}
	return &StructuredModel{
		client:      client,
		model:       strings.TrimSpace(cfg.Model),
		schemaName:  schemaName,
		schema:      jsonSchema,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (m *StructuredModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(m.model),
		Messages:    toOpenAIMessages(input),
		Temperature: openaisdk.Float(float64(m.temperature)),
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openaisdk.ResponseFormatJSONSchemaParam{
				JSONSchema: openaisdk.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   m.schemaName,
					Schema: m.schema,
					Strict: openaisdk.Bool(false),
				},
			},
		},
	}
	if m.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(m.maxTokens))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openrouter: structured completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openrouter: structured completion returned no choices")
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

func (m *StructuredModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(in []*schema.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(in))
	for _, msg := range in {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openaisdk.AssistantMessage(msg.Content))
		default:
			out = append(out, openaisdk.UserMessage(msg.Content))
		}
	}
	return out
}
