package relay

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/dispatch"
	nodex "github.com/tanpawarit/Chative-Commerce-Relay/agent/nodes"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrNilSession     = statex.ErrNilSession
)

type Config struct {
	// MaxHistory bounds the turns kept on the session. Zero keeps the
	// session default.
	MaxHistory int
}

// Relay runs one shopper turn: extract a tool call, dispatch it, summarize
// the result.
type Relay struct {
	extractor  contractx.IntentExtractor
	summarizer contractx.Summarizer
	dispatcher *dispatch.Dispatcher

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	maxHistory int
	now        func() time.Time
}

// Turn is one shopper message. Gateway, when set, replaces the dispatcher's
// commerce gateway for this turn only.
type Turn struct {
	Session    *statex.Session
	Text       string
	BuyerToken string
	Gateway    contractx.Gateway
}

type Reply struct {
	Text   string
	Result *contractx.DispatchResult
}

func New(
	extractor contractx.IntentExtractor,
	summarizer contractx.Summarizer,
	dispatcher *dispatch.Dispatcher,
	cfg Config,
) (*Relay, error) {
	if extractor == nil {
		return nil, errors.New("intent extractor is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	r := &Relay{
		extractor:  extractor,
		summarizer: summarizer,
		dispatcher: dispatcher,
		maxHistory: cfg.MaxHistory,
		now:        time.Now,
	}

	graphRunner, err := r.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

func (r *Relay) Dispatcher() *dispatch.Dispatcher {
	return r.dispatcher
}

func (r *Relay) HandleTurn(ctx context.Context, sess *statex.Session, text string) (Reply, error) {
	return r.Handle(ctx, Turn{Session: sess, Text: text})
}

func (r *Relay) Handle(ctx context.Context, turn Turn) (Reply, error) {
	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{
		Session:    turn.Session,
		Text:       turn.Text,
		BuyerToken: turn.BuyerToken,
		Dispatcher: r.dispatcher.WithGateway(turn.Gateway),
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: out.Reply, Result: out.Result}, nil
}
