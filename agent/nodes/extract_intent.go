package relaynode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

const (
	FallbackNoIntent  = "Sorry, I could not understand your intent."
	FallbackAssistant = "Sorry, there was an error contacting the assistant."
)

const (
	NodeDispatchAction = "dispatch_action"
	NodeFinalizeReply  = "finalize_reply"
)

// ExtractIntent asks the extractor for a tool call. Extraction failures never
// fail the turn; they become the fallback reply and skip dispatch.
func ExtractIntent(ctx context.Context, in *GraphState, extractor contractx.IntentExtractor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	call, err := extractor.Extract(ctx, in.Session.History)
	switch {
	case err == nil:
		in.Call = &call
	case errors.Is(err, contractx.ErrNoIntent),
		errors.Is(err, contractx.ErrUnknownTool),
		errors.Is(err, contractx.ErrValidation):
		log.Debug().Err(err).Str("component", "relay").Str("session_id", in.Session.ID).Msg("no usable intent")
		in.Message = FallbackNoIntent
	default:
		log.Warn().Err(err).Str("component", "relay").Str("session_id", in.Session.ID).Msg("intent extraction failed")
		in.Message = FallbackAssistant
	}
	return in, nil
}

// RouteAfterIntent skips dispatch when no tool call was extracted.
func RouteAfterIntent(_ context.Context, in *GraphState) (string, error) {
	if in == nil || in.Call == nil {
		return NodeFinalizeReply, nil
	}
	return NodeDispatchAction, nil
}
