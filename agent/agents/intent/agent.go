package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

// Outcome is either a tool call to dispatch or a finished message.
type Outcome struct {
	ToolCall *contractx.ToolCall
	Message  string
}

// Agent is the single entry point of the intent endpoint: a conversation
// ending in a tool turn is summarized, anything else is extracted.
type Agent struct {
	extractor  contractx.IntentExtractor
	summarizer contractx.Summarizer
}

func NewAgent(extractor contractx.IntentExtractor, summarizer contractx.Summarizer) (*Agent, error) {
	if extractor == nil {
		return nil, errors.New("intent extractor is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	return &Agent{extractor: extractor, summarizer: summarizer}, nil
}

func (a *Agent) Extractor() contractx.IntentExtractor { return a.extractor }

func (a *Agent) Summarizer() contractx.Summarizer { return a.summarizer }

func (a *Agent) Handle(ctx context.Context, history []contractx.ChatTurn) (Outcome, error) {
	if len(history) == 0 {
		return Outcome{}, fmt.Errorf("%w: messages are required", contractx.ErrValidation)
	}

	if history[len(history)-1].Speaker == contractx.SpeakerTool {
		msg, err := a.summarizer.Summarize(ctx, history)
		if err != nil {
			log.Warn().Err(err).Str("component", "intent").Msg("summary failed, using fallback")
			return Outcome{Message: FallbackSummary}, nil
		}
		return Outcome{Message: msg}, nil
	}

	call, err := a.extractor.Extract(ctx, history)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{ToolCall: &call}, nil
}
