package bridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	"github.com/tanpawarit/Chative-Commerce-Relay/pkg/commerce"
)

// HostCart is the storefront page's own cart, in the page cart API shape.
type HostCart struct {
	Token     string     `json:"token"`
	ItemCount int        `json:"item_count"`
	Currency  string     `json:"currency"`
	Items     []HostItem `json:"items"`
}

type HostItem struct {
	Key          string `json:"key"`
	VariantID    int64  `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	VariantTitle string `json:"variant_title"`
	Quantity     int    `json:"quantity"`
	// Price is in minor units.
	Price int64  `json:"price"`
	Image string `json:"image,omitempty"`
}

func (c *HostCart) toCart(checkoutURL string) *contractx.Cart {
	if c == nil {
		return contractx.EmptyCart()
	}
	cart := &contractx.Cart{
		ID:            c.Token,
		CheckoutURL:   checkoutURL,
		TotalQuantity: c.ItemCount,
		Lines:         make([]contractx.CartLine, 0, len(c.Items)),
	}
	counted := 0
	for _, it := range c.Items {
		cart.Lines = append(cart.Lines, contractx.CartLine{
			ID:       it.Key,
			Quantity: it.Quantity,
			Merchandise: contractx.Merchandise{
				ID:           commerce.GlobalID("ProductVariant", strconv.FormatInt(it.VariantID, 10)),
				ProductTitle: it.ProductTitle,
				VariantTitle: it.VariantTitle,
				Price:        contractx.Money{Amount: formatMinor(it.Price), CurrencyCode: c.Currency},
				ImageURL:     it.Image,
			},
		})
		counted += it.Quantity
	}
	if cart.TotalQuantity == 0 {
		cart.TotalQuantity = counted
	}
	return cart
}

func formatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Gateway routes cart operations to the host page through a Bridge and
// everything else to the commerce gateway.
type Gateway struct {
	base    contractx.Gateway
	bridge  *Bridge
	shopURL string
}

var _ contractx.Gateway = (*Gateway)(nil)

func NewGateway(base contractx.Gateway, b *Bridge, shopURL string) (*Gateway, error) {
	if base == nil {
		return nil, errors.New("commerce gateway is required")
	}
	if b == nil {
		return nil, errors.New("bridge is required")
	}
	return &Gateway{base: base, bridge: b, shopURL: strings.TrimRight(shopURL, "/")}, nil
}

func (g *Gateway) SearchProducts(ctx context.Context, query string) ([]contractx.Product, error) {
	return g.base.SearchProducts(ctx, query)
}

func (g *Gateway) OrderStatus(ctx context.Context, orderID string, buyerToken string) (*contractx.OrderStatus, error) {
	return g.base.OrderStatus(ctx, orderID, buyerToken)
}

// CreateCart adds to the page cart; a page always has exactly one cart, so
// there is nothing to create.
func (g *Gateway) CreateCart(ctx context.Context, lines []contractx.LineInput, _ string) (*contractx.Cart, error) {
	if len(lines) == 0 {
		return g.GetCart(ctx, "")
	}
	return g.AddLines(ctx, "", lines)
}

func (g *Gateway) AddLines(ctx context.Context, _ string, lines []contractx.LineInput) (*contractx.Cart, error) {
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		id, err := strconv.ParseInt(commerce.NumericID(l.MerchandiseID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: variant id %q is not numeric", contractx.ErrValidation, l.MerchandiseID)
		}
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, map[string]any{"id": id, "quantity": qty})
	}
	return g.call(ctx, OpAddToCart, map[string]any{"items": items})
}

// RemoveLines removes one line by key, or zeroes several in one update.
func (g *Gateway) RemoveLines(ctx context.Context, _ string, lineIDs []string) (*contractx.Cart, error) {
	switch len(lineIDs) {
	case 0:
		return nil, fmt.Errorf("%w: no lines to remove", contractx.ErrValidation)
	case 1:
		return g.call(ctx, OpRemoveFromCart, map[string]any{"key": lineIDs[0]})
	}
	updates := make(map[string]any, len(lineIDs))
	for _, id := range lineIDs {
		updates[id] = 0
	}
	return g.call(ctx, OpUpdateCart, map[string]any{"updates": updates})
}

func (g *Gateway) SetQuantity(ctx context.Context, lineID string, quantity int) (*contractx.Cart, error) {
	if strings.TrimSpace(lineID) == "" {
		return nil, fmt.Errorf("%w: line id is empty", contractx.ErrValidation)
	}
	if quantity < 0 {
		quantity = 0
	}
	return g.call(ctx, OpUpdateCart, map[string]any{"updates": map[string]any{lineID: quantity}})
}

func (g *Gateway) Clear(ctx context.Context) (*contractx.Cart, error) {
	return g.call(ctx, OpClearCart, nil)
}

func (g *Gateway) GetCart(ctx context.Context, _ string) (*contractx.Cart, error) {
	return g.call(ctx, OpGetCart, nil)
}

func (g *Gateway) CheckoutURL(_ context.Context, _ string) (string, error) {
	if g.shopURL == "" {
		return "", fmt.Errorf("%w: shop url is not configured", contractx.ErrConfig)
	}
	return g.shopURL + "/checkout", nil
}

func (g *Gateway) call(ctx context.Context, op Op, payload map[string]any) (*contractx.Cart, error) {
	resp, err := g.bridge.Call(ctx, op, payload)
	if err != nil {
		if errors.Is(err, ErrHostFailed) && resp.Error != "" {
			return nil, &contractx.UserError{Message: resp.Error}
		}
		return nil, fmt.Errorf("%w: %w", contractx.ErrUpstream, err)
	}
	checkout := ""
	if g.shopURL != "" {
		checkout = g.shopURL + "/checkout"
	}
	return resp.Cart.toCart(checkout), nil
}
