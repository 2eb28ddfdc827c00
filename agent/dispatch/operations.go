package dispatch

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
	toolx "github.com/tanpawarit/Chative-Commerce-Relay/agent/tool"
)

type operation struct {
	gateway    contractx.Gateway
	sess       *statex.Session
	call       contractx.ToolCall
	buyerToken string
}

func (o *operation) action() string {
	return o.call.Name
}

func (o *operation) cartID() string {
	return toolx.StringParam(o.call.Parameters, "cartId", "cart_id")
}

func (o *operation) queryProducts(ctx context.Context) contractx.DispatchResult {
	query := toolx.StringParam(o.call.Parameters, "query", "q", "keyword")
	if query == "" {
		return missingParam(o.action(), "query")
	}
	products, err := o.gateway.SearchProducts(ctx, query)
	if err != nil {
		return failure(o.action(), err)
	}
	o.sess.SetProducts(products)
	return contractx.ProductsResult(o.action(), query, products)
}

// resolveLines turns requested lines into gateway input, grounding product
// names against the last product list.
func (o *operation) resolveLines() ([]contractx.LineInput, *contractx.DispatchResult) {
	requested, err := toolx.LinesParam(o.call.Parameters)
	if err != nil {
		res := contractx.ErrorResult(o.action(), fmt.Errorf("%w: %v", contractx.ErrValidation, err), "Invalid lines")
		return nil, &res
	}

	lines := make([]contractx.LineInput, 0, len(requested))
	for _, req := range requested {
		id := req.MerchandiseID
		if id == "" {
			product, ok := MatchProduct(o.sess.LastProducts, req.ProductName)
			if !ok {
				res := contractx.ErrorResult(o.action(),
					fmt.Errorf("%w: no product matching %q", contractx.ErrGrounding, req.ProductName),
					MsgProductNotFound)
				return nil, &res
			}
			variant, ok := product.FirstVariant()
			if !ok {
				res := contractx.ErrorResult(o.action(),
					fmt.Errorf("%w: product %q has no variants", contractx.ErrGrounding, product.Title),
					MsgProductNotFound)
				return nil, &res
			}
			id = variant.ID
		}
		lines = append(lines, contractx.LineInput{MerchandiseID: id, Quantity: req.Quantity})
	}
	return lines, nil
}

func (o *operation) createCart(ctx context.Context) contractx.DispatchResult {
	lines, bad := o.resolveLines()
	if bad != nil {
		return *bad
	}
	return o.newCart(ctx, lines)
}

func (o *operation) newCart(ctx context.Context, lines []contractx.LineInput) contractx.DispatchResult {
	cart, err := o.gateway.CreateCart(ctx, lines, o.buyerToken)
	if err != nil {
		return failure(o.action(), err)
	}
	o.sess.SetCart(cart)
	return contractx.CartResult(o.action(), cart)
}

func (o *operation) addToCart(ctx context.Context) contractx.DispatchResult {
	lines, bad := o.resolveLines()
	if bad != nil {
		return *bad
	}
	if len(lines) == 0 {
		return missingParam(o.action(), "lines")
	}

	cartID := o.cartID()
	if cartID == "" {
		return o.newCart(ctx, lines)
	}

	cart, err := o.gateway.AddLines(ctx, cartID, lines)
	if errors.Is(err, contractx.ErrCartNotFound) {
		o.sess.ForgetCart()
		return o.newCart(ctx, lines)
	}
	if err != nil {
		return failure(o.action(), err)
	}
	o.sess.SetCart(cart)
	return contractx.CartResult(o.action(), cart)
}

func (o *operation) removeFromCart(ctx context.Context) contractx.DispatchResult {
	cartID := o.cartID()
	if cartID == "" {
		return missingParam(o.action(), "cartId")
	}

	requested := toolx.StringsParam(o.call.Parameters, "lineIds")

	cart := o.sess.LastCart
	if cart == nil || cart.ID != cartID {
		fetched, err := o.gateway.GetCart(ctx, cartID)
		if errors.Is(err, contractx.ErrCartNotFound) {
			o.sess.ForgetCart()
			return failure(o.action(), err)
		}
		if err != nil {
			return failure(o.action(), err)
		}
		o.sess.SetCart(fetched)
		cart = fetched
	}

	lineIDs := exactLineIDs(cart.Lines, requested)
	if len(lineIDs) == 0 {
		// The model gave titles, variant ids or nothing; fall back to what the
		// shopper said, then to whatever the model put in lineIds.
		candidates := append([]string{o.sess.LastUserUtterance()}, requested...)
		for _, c := range candidates {
			if line, ok := MatchCartLine(cart.Lines, c); ok {
				lineIDs = []string{line.ID}
				break
			}
		}
	}
	if len(lineIDs) == 0 {
		return contractx.ErrorResult(o.action(),
			fmt.Errorf("%w: no cart line matches the request", contractx.ErrGrounding),
			MsgLineNotFound)
	}

	updated, err := o.gateway.RemoveLines(ctx, cartID, lineIDs)
	if err != nil {
		if errors.Is(err, contractx.ErrCartNotFound) {
			o.sess.ForgetCart()
		}
		return failure(o.action(), err)
	}
	o.sess.SetCart(updated)
	return contractx.CartResult(o.action(), updated)
}

func exactLineIDs(lines []contractx.CartLine, requested []string) []string {
	if len(requested) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		known[l.ID] = struct{}{}
	}
	var out []string
	for _, id := range requested {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (o *operation) getCart(ctx context.Context) contractx.DispatchResult {
	cartID := o.cartID()
	if cartID == "" {
		return contractx.CartResult(o.action(), contractx.EmptyCart())
	}
	cart, err := o.gateway.GetCart(ctx, cartID)
	if errors.Is(err, contractx.ErrCartNotFound) {
		o.sess.ForgetCart()
		return contractx.CartResult(o.action(), contractx.EmptyCart())
	}
	if err != nil {
		return failure(o.action(), err)
	}
	o.sess.SetCart(cart)
	return contractx.CartResult(o.action(), cart)
}

func (o *operation) beginCheckout(ctx context.Context) contractx.DispatchResult {
	cartID := o.cartID()
	if cartID == "" {
		return missingParam(o.action(), "cartId")
	}
	url, err := o.gateway.CheckoutURL(ctx, cartID)
	if err != nil {
		if errors.Is(err, contractx.ErrCartNotFound) {
			o.sess.ForgetCart()
		}
		return failure(o.action(), err)
	}
	return contractx.CheckoutResult(o.action(), url)
}

func (o *operation) orderStatus(ctx context.Context) contractx.DispatchResult {
	orderID := toolx.StringParam(o.call.Parameters, "orderId", "orderNumber", "order_id", "id")
	if orderID == "" {
		return missingParam(o.action(), "orderId")
	}
	order, err := o.gateway.OrderStatus(ctx, orderID, o.buyerToken)
	if err != nil {
		return failure(o.action(), err)
	}
	return contractx.OrderResult(o.action(), order)
}
