// Package dispatch turns a validated tool call into a commerce effect. It
// grounds loosely specified model output against the session's last product
// list and cart, calls the gateway and folds the outcome back into the
// session.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	journalx "github.com/tanpawarit/Chative-Commerce-Relay/agent/journal"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
	toolx "github.com/tanpawarit/Chative-Commerce-Relay/agent/tool"
)

const (
	MsgProductNotFound = "Product not found, please search first."
	MsgLineNotFound    = "Could not find that item in your cart."
	MsgCartNotFound    = "Your cart could not be found. Please start a new one."
	MsgUpstream        = "Could not reach the store. Please try again."
	MsgStoreConfig     = "The store connection is not configured."
)

type Dispatcher struct {
	registry *toolx.Registry
	gateway  contractx.Gateway
	journal  journalx.Sink
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithJournal(sink journalx.Sink) Option {
	return func(d *Dispatcher) {
		if sink != nil {
			d.journal = sink
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func New(registry *toolx.Registry, gateway contractx.Gateway, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if gateway == nil {
		return nil, errors.New("commerce gateway is required")
	}
	d := &Dispatcher{
		registry: registry,
		gateway:  gateway,
		journal:  journalx.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Registry exposes the registry calls are validated against.
func (d *Dispatcher) Registry() *toolx.Registry {
	return d.registry
}

// WithGateway returns a dispatcher that sends calls to gw and shares
// everything else with d.
func (d *Dispatcher) WithGateway(gw contractx.Gateway) *Dispatcher {
	if gw == nil {
		return d
	}
	cp := *d
	cp.gateway = gw
	return &cp
}

// Dispatch validates call, runs it and updates sess. Failures come back as an
// error result; the returned result always has exactly one variant.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *statex.Session, call contractx.ToolCall, buyerToken string) contractx.DispatchResult {
	start := d.now()
	sessionID := ""
	if sess != nil {
		sessionID = sess.ID
	}

	result := d.dispatch(ctx, sess, call, buyerToken)

	latency := d.now().Sub(start)
	if sess != nil {
		sess.Touch(d.now())
	}
	journalx.Record(ctx, d.journal, journalx.NewEntry(sessionID, call, result, latency, start))

	ev := log.Info()
	if result.Failed() {
		ev = log.Warn().Str("error", result.Error)
	}
	ev.Str("component", "dispatch").
		Str("session_id", sessionID).
		Str("tool", call.Name).
		Str("kind", string(result.Kind)).
		Dur("latency", latency).
		Msg("tool dispatched")
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, sess *statex.Session, call contractx.ToolCall, buyerToken string) contractx.DispatchResult {
	validated, err := d.registry.Validate(call)
	if err != nil {
		return contractx.ErrorResult(call.Name, err, err.Error())
	}
	if sess == nil {
		return contractx.ErrorResult(validated.Name, statex.ErrNilSession, "Missing session")
	}
	if buyerToken == "" {
		buyerToken = sess.AuthToken
	}

	// The held cart wins over whatever id the model wrote.
	if d.registry.IsCartScoped(validated.Name) && sess.CartID != "" {
		validated.Parameters["cartId"] = sess.CartID
	}

	op := &operation{
		gateway:    d.gateway,
		sess:       sess,
		call:       validated,
		buyerToken: buyerToken,
	}

	switch validated.Name {
	case toolx.ToolQueryProducts:
		return op.queryProducts(ctx)
	case toolx.ToolCreateCart:
		return op.createCart(ctx)
	case toolx.ToolAddToCart:
		return op.addToCart(ctx)
	case toolx.ToolRemoveFromCart:
		return op.removeFromCart(ctx)
	case toolx.ToolGetCart:
		return op.getCart(ctx)
	case toolx.ToolBeginCheckout:
		return op.beginCheckout(ctx)
	case toolx.ToolOrderStatus:
		return op.orderStatus(ctx)
	default:
		err := fmt.Errorf("%w: %s has no handler", contractx.ErrUnknownTool, validated.Name)
		return contractx.ErrorResult(validated.Name, err, err.Error())
	}
}

// failure maps a gateway error to the message the shopper sees.
func failure(action string, err error) contractx.DispatchResult {
	if ue, ok := contractx.IsUserError(err); ok {
		return contractx.ErrorResult(action, err, ue.Message)
	}
	switch {
	case errors.Is(err, contractx.ErrCartNotFound):
		return contractx.ErrorResult(action, err, MsgCartNotFound)
	case errors.Is(err, contractx.ErrConfig):
		return contractx.ErrorResult(action, err, MsgStoreConfig)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return contractx.ErrorResult(action, fmt.Errorf("%w: %v", contractx.ErrUpstream, err), MsgUpstream)
	default:
		return contractx.ErrorResult(action, err, MsgUpstream)
	}
}

func missingParam(action, name string) contractx.DispatchResult {
	return contractx.ErrorResult(action,
		fmt.Errorf("%w: %s is required", contractx.ErrValidation, name),
		"Missing "+name)
}
