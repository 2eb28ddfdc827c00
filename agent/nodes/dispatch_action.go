package relaynode

import (
	"context"
	"encoding/json"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

// DispatchAction runs the extracted call and appends its JSON result to the
// history as a tool turn for the summarizer.
func DispatchAction(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: no tool call to dispatch", contractx.ErrValidation)
	}

	result := in.Dispatcher.Dispatch(ctx, in.Session, *in.Call, in.BuyerToken)
	in.Result = &result

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode dispatch result: %w", err)
	}
	if err := in.Session.Append(contractx.ToolTurn(string(payload))); err != nil {
		return nil, fmt.Errorf("append tool turn: %w", err)
	}
	return in, nil
}
