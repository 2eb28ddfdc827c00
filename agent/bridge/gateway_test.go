package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	"github.com/tanpawarit/Chative-Commerce-Relay/pkg/commerce"
)

type baseGateway struct {
	commerce.Unavailable
	searched string
}

func (b *baseGateway) SearchProducts(_ context.Context, query string) ([]contractx.Product, error) {
	b.searched = query
	return []contractx.Product{{Title: "Red Runner"}}, nil
}

func hostCart() *HostCart {
	return &HostCart{
		Token:     "c1-token",
		ItemCount: 3,
		Currency:  "USD",
		Items: []HostItem{
			{Key: "111:abc", VariantID: 111, ProductTitle: "Red Runner", VariantTitle: "Size 9", Quantity: 2, Price: 4900, Image: "https://cdn/red.png"},
			{Key: "222:def", VariantID: 222, ProductTitle: "Trail Boot", VariantTitle: "Default Title", Quantity: 1, Price: 12050},
		},
	}
}

func newTestGateway(t *testing.T, timeout time.Duration) (*Gateway, *Bridge, *baseGateway) {
	t.Helper()
	b := New(timeout)
	base := &baseGateway{}
	g, err := NewGateway(base, b, "https://shop.example.com/")
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	return g, b, base
}

func TestGatewayAddLinesSendsNumericVariantIDs(t *testing.T) {
	t.Parallel()

	g, b, _ := newTestGateway(t, time.Second)
	seen := serveOnce(t, b, func(req Request) Response {
		return Response{ID: req.ID, OK: true, Cart: hostCart()}
	})

	cart, err := g.AddLines(context.Background(), "ignored", []contractx.LineInput{
		{MerchandiseID: "gid://shopify/ProductVariant/111", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("AddLines() error = %v", err)
	}

	req := <-seen
	if req.Op != OpAddToCart {
		t.Fatalf("op = %s, want ADD_TO_CART", req.Op)
	}
	items := req.Payload["items"].([]map[string]any)
	if len(items) != 1 || items[0]["id"] != int64(111) || items[0]["quantity"] != 2 {
		t.Fatalf("unexpected items %#v", items)
	}

	if cart.ID != "c1-token" || cart.TotalQuantity != 3 || len(cart.Lines) != 2 {
		t.Fatalf("unexpected cart %#v", cart)
	}
	line := cart.Lines[0]
	if line.ID != "111:abc" || line.Merchandise.ID != "gid://shopify/ProductVariant/111" {
		t.Fatalf("unexpected line %#v", line)
	}
	if line.Merchandise.Price.Amount != "49.00" || line.Merchandise.Price.CurrencyCode != "USD" {
		t.Fatalf("unexpected price %#v", line.Merchandise.Price)
	}
	if cart.Lines[1].Merchandise.Price.Amount != "120.50" {
		t.Fatalf("unexpected price %#v", cart.Lines[1].Merchandise.Price)
	}
	if cart.CheckoutURL != "https://shop.example.com/checkout" {
		t.Fatalf("checkout url = %q", cart.CheckoutURL)
	}
}

func TestGatewayAddLinesRejectsNonNumericVariant(t *testing.T) {
	t.Parallel()

	g, b, _ := newTestGateway(t, time.Second)
	if _, err := g.AddLines(context.Background(), "", []contractx.LineInput{{MerchandiseID: "red-runner"}}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("AddLines() error = %v, want ErrValidation", err)
	}
	if b.Pending() != 0 {
		t.Fatal("bridge should not be called")
	}
}

func TestGatewayRemoveLinesOps(t *testing.T) {
	t.Parallel()

	g, b, _ := newTestGateway(t, time.Second)

	seen := serveOnce(t, b, func(req Request) Response { return Response{ID: req.ID, OK: true, Cart: &HostCart{}} })
	if _, err := g.RemoveLines(context.Background(), "", []string{"111:abc"}); err != nil {
		t.Fatalf("RemoveLines() error = %v", err)
	}
	req := <-seen
	if req.Op != OpRemoveFromCart || req.Payload["key"] != "111:abc" {
		t.Fatalf("unexpected single remove %#v", req)
	}

	seen = serveOnce(t, b, func(req Request) Response { return Response{ID: req.ID, OK: true, Cart: &HostCart{}} })
	if _, err := g.RemoveLines(context.Background(), "", []string{"111:abc", "222:def"}); err != nil {
		t.Fatalf("RemoveLines() error = %v", err)
	}
	req = <-seen
	updates := req.Payload["updates"].(map[string]any)
	if req.Op != OpUpdateCart || updates["111:abc"] != 0 || updates["222:def"] != 0 {
		t.Fatalf("unexpected multi remove %#v", req)
	}
}

func TestGatewayCreateCartWithoutLinesReadsPageCart(t *testing.T) {
	t.Parallel()

	g, b, _ := newTestGateway(t, time.Second)
	seen := serveOnce(t, b, func(req Request) Response { return Response{ID: req.ID, OK: true, Cart: hostCart()} })

	cart, err := g.CreateCart(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("CreateCart() error = %v", err)
	}
	if req := <-seen; req.Op != OpGetCart {
		t.Fatalf("op = %s, want GET_CART", req.Op)
	}
	if cart.ID != "c1-token" {
		t.Fatalf("cart id = %q", cart.ID)
	}
}

func TestGatewayClearAndSetQuantity(t *testing.T) {
	t.Parallel()

	g, b, _ := newTestGateway(t, time.Second)

	seen := serveOnce(t, b, func(req Request) Response { return Response{ID: req.ID, OK: true, Cart: &HostCart{}} })
	cart, err := g.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if req := <-seen; req.Op != OpClearCart {
		t.Fatalf("op = %s, want CLEAR_CART", req.Op)
	}
	if cart.TotalQuantity != 0 || len(cart.Lines) != 0 {
		t.Fatalf("unexpected cart %#v", cart)
	}

	seen = serveOnce(t, b, func(req Request) Response { return Response{ID: req.ID, OK: true, Cart: &HostCart{}} })
	if _, err := g.SetQuantity(context.Background(), "111:abc", 4); err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	req := <-seen
	if updates := req.Payload["updates"].(map[string]any); req.Op != OpUpdateCart || updates["111:abc"] != 4 {
		t.Fatalf("unexpected update %#v", req)
	}
}

func TestGatewayErrors(t *testing.T) {
	t.Parallel()

	g, b, _ := newTestGateway(t, time.Second)
	serveOnce(t, b, func(req Request) Response { return Response{ID: req.ID, OK: false, Error: "Only 1 left"} })

	_, err := g.GetCart(context.Background(), "")
	ue, ok := contractx.IsUserError(err)
	if !ok || ue.Message != "Only 1 left" {
		t.Fatalf("GetCart() error = %v, want user error", err)
	}

	slow, _, _ := newTestGateway(t, 10*time.Millisecond)
	_, err = slow.GetCart(context.Background(), "")
	if !errors.Is(err, contractx.ErrUpstream) || !errors.Is(err, ErrTimeout) {
		t.Fatalf("GetCart() error = %v, want ErrUpstream wrapping ErrTimeout", err)
	}
}

func TestGatewayDelegatesSearchAndCheckout(t *testing.T) {
	t.Parallel()

	g, _, base := newTestGateway(t, time.Second)

	products, err := g.SearchProducts(context.Background(), "red")
	if err != nil || len(products) != 1 || base.searched != "red" {
		t.Fatalf("SearchProducts() = %#v, %v", products, err)
	}
	url, err := g.CheckoutURL(context.Background(), "")
	if err != nil || url != "https://shop.example.com/checkout" {
		t.Fatalf("CheckoutURL() = %q, %v", url, err)
	}

	bare, err := NewGateway(base, New(0), "")
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	if _, err := bare.CheckoutURL(context.Background(), ""); !errors.Is(err, contractx.ErrConfig) {
		t.Fatalf("CheckoutURL() error = %v, want ErrConfig", err)
	}
	if _, err := NewGateway(nil, New(0), ""); err == nil {
		t.Fatal("expected error for nil base gateway")
	}
}
