package relaynode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

func FinalizeReply(in *GraphState, maxHistory int) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Message)
	if reply == "" {
		reply = FallbackNoIntent
	}
	if err := in.Session.Append(contractx.AssistantTurn(reply)); err != nil {
		return GraphOutput{}, fmt.Errorf("append assistant turn: %w", err)
	}
	in.Session.TrimHistory(maxHistory)
	in.Session.Touch(in.Now)

	return GraphOutput{Reply: reply, Result: in.Result}, nil
}
