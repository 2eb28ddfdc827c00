package relay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/intent"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/dispatch"
	nodex "github.com/tanpawarit/Chative-Commerce-Relay/agent/nodes"
	promptx "github.com/tanpawarit/Chative-Commerce-Relay/agent/prompt"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
	toolx "github.com/tanpawarit/Chative-Commerce-Relay/agent/tool"
)

type fakeGateway struct {
	mu       sync.Mutex
	calls    []string
	products []contractx.Product
	removed  []string
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeGateway) SearchProducts(context.Context, string) ([]contractx.Product, error) {
	f.record("search")
	return f.products, nil
}

func (f *fakeGateway) CreateCart(_ context.Context, lines []contractx.LineInput, _ string) (*contractx.Cart, error) {
	f.record("create")
	cart := &contractx.Cart{ID: "gid://shopify/Cart/new", Lines: []contractx.CartLine{}}
	for _, l := range lines {
		cart.Lines = append(cart.Lines, contractx.CartLine{ID: "L1", Quantity: l.Quantity, Merchandise: contractx.Merchandise{ID: l.MerchandiseID}})
		cart.TotalQuantity += l.Quantity
	}
	return cart, nil
}

func (f *fakeGateway) AddLines(context.Context, string, []contractx.LineInput) (*contractx.Cart, error) {
	f.record("add")
	return nil, contractx.ErrCartNotFound
}

func (f *fakeGateway) RemoveLines(_ context.Context, cartID string, lineIDs []string) (*contractx.Cart, error) {
	f.record("remove")
	f.removed = lineIDs
	return &contractx.Cart{ID: cartID, Lines: []contractx.CartLine{}}, nil
}

func (f *fakeGateway) GetCart(_ context.Context, cartID string) (*contractx.Cart, error) {
	f.record("get")
	return &contractx.Cart{ID: cartID, Lines: []contractx.CartLine{}}, nil
}

func (f *fakeGateway) CheckoutURL(context.Context, string) (string, error) {
	f.record("checkout")
	return "https://shop.example.com/checkout", nil
}

func (f *fakeGateway) OrderStatus(context.Context, string, string) (*contractx.OrderStatus, error) {
	f.record("order")
	return &contractx.OrderStatus{Status: "FULFILLED"}, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type stubExtractor struct {
	call  contractx.ToolCall
	err   error
	calls int
}

func (s *stubExtractor) Extract(context.Context, []contractx.ChatTurn) (contractx.ToolCall, error) {
	s.calls++
	return s.call, s.err
}

type stubSummarizer struct {
	text  string
	err   error
	calls int
	seen  []contractx.ChatTurn
}

func (s *stubSummarizer) Summarize(_ context.Context, history []contractx.ChatTurn) (string, error) {
	s.calls++
	s.seen = append([]contractx.ChatTurn(nil), history...)
	return s.text, s.err
}

type fakeChatModel struct {
	reply string
}

func (f *fakeChatModel) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func redRunner() contractx.Product {
	return contractx.Product{
		ID:       "gid://shopify/Product/1",
		Title:    "Red Runner",
		ImageURL: "https://cdn.example.com/red.png",
		Variants: []contractx.Variant{
			{ID: "gid://shopify/ProductVariant/11", Title: "Size 9", Price: contractx.Money{Amount: "49.00", CurrencyCode: "USD"}},
		},
	}
}

func newSession() *statex.Session {
	return statex.NewSession("s1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func newTestRelay(t *testing.T, ex contractx.IntentExtractor, sum contractx.Summarizer, gw contractx.Gateway, cfg Config) *Relay {
	t.Helper()
	d, err := dispatch.New(toolx.NewRegistry(), gw)
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	r, err := New(ex, sum, d, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	d, err := dispatch.New(toolx.NewRegistry(), &fakeGateway{})
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	if _, err := New(nil, &stubSummarizer{}, d, Config{}); err == nil {
		t.Fatal("expected error for nil extractor")
	}
	if _, err := New(&stubExtractor{}, nil, d, Config{}); err == nil {
		t.Fatal("expected error for nil summarizer")
	}
	if _, err := New(&stubExtractor{}, &stubSummarizer{}, nil, Config{}); err == nil {
		t.Fatal("expected error for nil dispatcher")
	}
}

func TestHandleTurnInvalidInput(t *testing.T) {
	t.Parallel()

	r := newTestRelay(t, &stubExtractor{}, &stubSummarizer{}, &fakeGateway{}, Config{})

	if _, err := r.HandleTurn(context.Background(), nil, "hi"); !errors.Is(err, ErrNilSession) {
		t.Fatalf("HandleTurn(nil session) error = %v, want ErrNilSession", err)
	}
	if _, err := r.HandleTurn(context.Background(), newSession(), "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("HandleTurn(empty) error = %v, want ErrInvalidMessage", err)
	}
}

func TestHandleTurnNoIntentSkipsDispatch(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	ex := &stubExtractor{err: contractx.ErrNoIntent}
	sum := &stubSummarizer{text: "unused"}
	r := newTestRelay(t, ex, sum, gw, Config{})
	sess := newSession()

	reply, err := r.HandleTurn(context.Background(), sess, "hello there")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != nodex.FallbackNoIntent || reply.Result != nil {
		t.Fatalf("unexpected reply %#v", reply)
	}
	if gw.callCount() != 0 || sum.calls != 0 {
		t.Fatalf("expected no dispatch and no summary, gateway=%d summaries=%d", gw.callCount(), sum.calls)
	}
	if len(sess.History) != 2 || sess.History[1].Speaker != contractx.SpeakerAssistant {
		t.Fatalf("unexpected history %#v", sess.History)
	}
}

func TestHandleTurnModelFailureFallback(t *testing.T) {
	t.Parallel()

	r := newTestRelay(t, &stubExtractor{err: contractx.ErrModelInvoke}, &stubSummarizer{}, &fakeGateway{}, Config{})

	reply, err := r.HandleTurn(context.Background(), newSession(), "show me shoes")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != nodex.FallbackAssistant {
		t.Fatalf("reply = %q, want %q", reply.Text, nodex.FallbackAssistant)
	}
}

func TestHandleTurnShowRedShoesRendersCards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gw := &fakeGateway{products: []contractx.Product{redRunner()}}
	prompts := promptx.LoadPromptSet()

	ex, err := intent.NewExtractor(ctx, &fakeChatModel{
		reply: `{"tool_use":{"name":"query_products","parameters":{"query":"red shoes"}}}`,
	}, prompts.Intent, toolx.NewRegistry())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	cards := "1. ![Red Runner](https://cdn.example.com/red.png)\nRed Runner\n$49.00"
	sum, err := intent.NewSummarizer(ctx, &fakeChatModel{reply: cards}, prompts.Summary)
	if err != nil {
		t.Fatalf("NewSummarizer() error = %v", err)
	}

	r := newTestRelay(t, ex, sum, gw, Config{})
	sess := newSession()

	reply, err := r.HandleTurn(ctx, sess, "show me red shoes")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != cards {
		t.Fatalf("reply = %q", reply.Text)
	}
	if reply.Result == nil || reply.Result.Kind != contractx.ResultProducts || len(reply.Result.Products) != 1 {
		t.Fatalf("unexpected result %#v", reply.Result)
	}
	if len(sess.LastProducts) != 1 || sess.LastProducts[0].Title != "Red Runner" {
		t.Fatalf("last products not held: %#v", sess.LastProducts)
	}

	speakers := []contractx.Speaker{contractx.SpeakerUser, contractx.SpeakerTool, contractx.SpeakerAssistant}
	if len(sess.History) != len(speakers) {
		t.Fatalf("history length = %d, want %d", len(sess.History), len(speakers))
	}
	for i, want := range speakers {
		if sess.History[i].Speaker != want {
			t.Fatalf("history[%d] speaker = %s, want %s", i, sess.History[i].Speaker, want)
		}
	}
	if !strings.Contains(sess.History[1].Text, `"action":"query_products"`) {
		t.Fatalf("tool turn missing result json: %q", sess.History[1].Text)
	}
}

func TestHandleTurnRemoveGroundsUtterance(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	ex := &stubExtractor{call: contractx.ToolCall{
		Name:       toolx.ToolRemoveFromCart,
		Parameters: map[string]any{"lineIds": []any{"Red Runner"}},
	}}
	sum := &stubSummarizer{text: "Removed Red Runner."}
	r := newTestRelay(t, ex, sum, gw, Config{})

	sess := newSession()
	sess.SetCart(&contractx.Cart{
		ID:            "gid://shopify/Cart/c1",
		TotalQuantity: 2,
		Lines: []contractx.CartLine{
			{ID: "L1", Quantity: 1, Merchandise: contractx.Merchandise{ProductTitle: "Red Runner", VariantTitle: "Size 9"}},
			{ID: "L2", Quantity: 1, Merchandise: contractx.Merchandise{ProductTitle: "Trail Boot", VariantTitle: "Size 10"}},
		},
	})

	reply, err := r.HandleTurn(context.Background(), sess, "remove red runner")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != "Removed Red Runner." {
		t.Fatalf("reply = %q", reply.Text)
	}
	if len(gw.removed) != 1 || gw.removed[0] != "L1" {
		t.Fatalf("removed = %#v, want [L1]", gw.removed)
	}
	if sum.calls != 1 || sum.seen[len(sum.seen)-1].Speaker != contractx.SpeakerTool {
		t.Fatalf("summarizer did not see the tool turn: %#v", sum.seen)
	}
}

func TestHandleTurnSummaryFailureKeepsEffects(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	ex := &stubExtractor{call: contractx.ToolCall{Name: toolx.ToolCreateCart, Parameters: map[string]any{}}}
	sum := &stubSummarizer{err: contractx.ErrModelInvoke}
	r := newTestRelay(t, ex, sum, gw, Config{})
	sess := newSession()

	reply, err := r.HandleTurn(context.Background(), sess, "start a cart")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != intent.FallbackSummary {
		t.Fatalf("reply = %q, want %q", reply.Text, intent.FallbackSummary)
	}
	if sess.CartID != "gid://shopify/Cart/new" {
		t.Fatalf("cart id not held after failed summary: %q", sess.CartID)
	}
}

func TestHandleUsesTurnGateway(t *testing.T) {
	t.Parallel()

	base := &fakeGateway{}
	override := &fakeGateway{}
	ex := &stubExtractor{call: contractx.ToolCall{Name: toolx.ToolGetCart, Parameters: map[string]any{}}}
	r := newTestRelay(t, ex, &stubSummarizer{text: "Your cart."}, base, Config{})

	sess := newSession()
	sess.CartID = "gid://shopify/Cart/c1"

	if _, err := r.Handle(context.Background(), Turn{Session: sess, Text: "what's in my cart", Gateway: override}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if base.callCount() != 0 || override.callCount() != 1 {
		t.Fatalf("base=%d override=%d, want 0 and 1", base.callCount(), override.callCount())
	}
}

func TestHandleTurnTrimsHistory(t *testing.T) {
	t.Parallel()

	r := newTestRelay(t, &stubExtractor{err: contractx.ErrNoIntent}, &stubSummarizer{}, &fakeGateway{}, Config{MaxHistory: 4})
	sess := newSession()

	for i := 0; i < 5; i++ {
		if _, err := r.HandleTurn(context.Background(), sess, "hi"); err != nil {
			t.Fatalf("HandleTurn() error = %v", err)
		}
	}
	if len(sess.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(sess.History))
	}
}
