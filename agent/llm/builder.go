package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Commerce-Relay/pkg/openrouter"
	"google.golang.org/genai"
)

// ResponseSchema constrains a model's reply when the provider supports it.
type ResponseSchema struct {
	Name   string
	Schema map[string]any
}

// NewChatModel builds the chat model for role. A non-nil rs requests
// schema-constrained output from providers that honour it.
func (c Config) NewChatModel(ctx context.Context, role Role, rs *ResponseSchema) (einomodel.BaseChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	settings := c.For(role)
	log.Info().
		Str("component", "llm").
		Str("provider", string(c.provider())).
		Str("role", string(role)).
		Str("model", settings.Model).
		Msg("building chat model")

	switch c.provider() {
	case ProviderOpenRouter:
		cfg := c.OpenRouterFor(role)
		if rs != nil && c.StructuredOutput {
			m, err := openrouterx.NewStructuredModel(cfg, rs.Name, rs.Schema)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", contractx.ErrConfig, err)
			}
			return m, nil
		}
		return cfg.New(ctx)
	case ProviderAnthropic:
		return newAnthropicModel(c, role)
	case ProviderGemini:
		return c.newGeminiModel(ctx, settings)
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", contractx.ErrConfig, c.Provider)
	}
}

func (c Config) newGeminiModel(ctx context.Context, rs RoleSettings) (einomodel.BaseChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(c.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if v := strings.TrimSpace(c.BaseURL); v != "" {
		clientCfg.HTTPOptions.BaseURL = v
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	temp := rs.Temperature
	maxTokens := c.MaxCompletionToken
	m, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       rs.Model,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini chat model: %w", err)
	}
	return m, nil
}
