package relaynode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrNoDispatcher   = errors.New("dispatcher is missing")
)

// Dispatcher executes one validated tool call against a session.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *statex.Session, call contractx.ToolCall, buyerToken string) contractx.DispatchResult
}

type GraphInput struct {
	Session    *statex.Session
	Text       string
	BuyerToken string
	Dispatcher Dispatcher
}

type GraphOutput struct {
	Reply  string
	Result *contractx.DispatchResult
}

type GraphState struct {
	Session    *statex.Session
	Text       string
	BuyerToken string
	Dispatcher Dispatcher
	Now        time.Time

	Call    *contractx.ToolCall
	Result  *contractx.DispatchResult
	Message string
}

// ValidateRequest checks the turn and records the shopper's text in history.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if in.Session == nil {
		return nil, statex.ErrNilSession
	}
	if err := in.Session.Validate(); err != nil {
		return nil, err
	}
	if in.Dispatcher == nil {
		return nil, ErrNoDispatcher
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}
	if err := in.Session.Append(contractx.UserTurn(text)); err != nil {
		return nil, fmt.Errorf("append user turn: %w", err)
	}

	return &GraphState{
		Session:    in.Session,
		Text:       text,
		BuyerToken: strings.TrimSpace(in.BuyerToken),
		Dispatcher: in.Dispatcher,
		Now:        nowFn().UTC(),
	}, nil
}
