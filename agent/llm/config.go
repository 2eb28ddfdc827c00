package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Commerce-Relay/pkg/openrouter"
)

type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGemini     Provider = "gemini"
)

// Role is the job a model does in the relay chain.
type Role string

const (
	RoleIntent  Role = "intent"
	RoleSummary Role = "summary"
)

var defaultModels = map[Provider]string{
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
	ProviderGemini:     "gemini-2.0-flash",
}

type Config struct {
	Provider           string        `envconfig:"PROVIDER" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1024"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	// StructuredOutput asks OpenAI-compatible endpoints for schema-constrained
	// intent replies.
	StructuredOutput bool `envconfig:"STRUCTURED_OUTPUT" split_words:"true" default:"true"`

	IntentModel        string  `envconfig:"INTENT_MODEL" split_words:"true"`
	SummaryModel       string  `envconfig:"SUMMARY_MODEL" split_words:"true"`
	IntentTemperature  float32 `envconfig:"INTENT_TEMPERATURE" split_words:"true" default:"-1"`
	SummaryTemperature float32 `envconfig:"SUMMARY_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) provider() Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(c.Provider)))
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}

func (c Config) Validate() error {
	if _, ok := defaultModels[c.provider()]; !ok {
		return fmt.Errorf("%w: unsupported llm provider %q", contractx.ErrConfig, c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrConfig)
	}
	return nil
}

// RoleSettings is the model name and temperature a role runs with.
type RoleSettings struct {
	Model       string
	Temperature float32
}

func (c Config) For(role Role) RoleSettings {
	modelName := strings.TrimSpace(c.Model)
	if modelName == "" {
		modelName = defaultModels[c.provider()]
	}
	temp := c.Temperature

	switch role {
	case RoleIntent:
		if v := strings.TrimSpace(c.IntentModel); v != "" {
			modelName = v
		}
		if c.IntentTemperature >= 0 {
			temp = c.IntentTemperature
		}
	case RoleSummary:
		if v := strings.TrimSpace(c.SummaryModel); v != "" {
			modelName = v
		}
		if c.SummaryTemperature >= 0 {
			temp = c.SummaryTemperature
		}
	}
	return RoleSettings{Model: modelName, Temperature: temp}
}

func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	rs := c.For(role)
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              rs.Model,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        rs.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
