package relaynode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/intent"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

// SummarizeResult turns the tool turn into the assistant reply. Dispatch
// effects stay applied when the summary fails.
func SummarizeResult(ctx context.Context, in *GraphState, summarizer contractx.Summarizer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	msg, err := summarizer.Summarize(ctx, in.Session.History)
	if err != nil {
		log.Warn().Err(err).Str("component", "relay").Str("session_id", in.Session.ID).Msg("summary failed, using fallback")
		in.Message = intent.FallbackSummary
		return in, nil
	}
	in.Message = msg
	return in, nil
}
