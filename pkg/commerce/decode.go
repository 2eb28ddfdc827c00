package commerce

import (
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

type imageNode struct {
	URL string `json:"url"`
}

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

func (m moneyNode) toMoney() contractx.Money {
	return contractx.Money{Amount: m.Amount, CurrencyCode: m.CurrencyCode}
}

type variantNode struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Price            moneyNode `json:"price"`
	AvailableForSale bool      `json:"availableForSale"`
}

type productNode struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Handle        string     `json:"handle"`
	Description   string     `json:"description"`
	FeaturedImage *imageNode `json:"featuredImage"`
	Variants      struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

func (p productNode) toProduct() contractx.Product {
	out := contractx.Product{
		ID:          p.ID,
		Title:       p.Title,
		Handle:      p.Handle,
		Description: p.Description,
		Variants:    make([]contractx.Variant, 0, len(p.Variants.Edges)),
	}
	if p.FeaturedImage != nil {
		out.ImageURL = p.FeaturedImage.URL
	}
	for _, e := range p.Variants.Edges {
		out.Variants = append(out.Variants, contractx.Variant{
			ID:               e.Node.ID,
			Title:            e.Node.Title,
			Price:            e.Node.Price.toMoney(),
			AvailableForSale: e.Node.AvailableForSale,
		})
	}
	return out
}

type cartNode struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
	Lines         struct {
		Edges []struct {
			Node struct {
				ID          string `json:"id"`
				Quantity    int    `json:"quantity"`
				Merchandise struct {
					ID      string     `json:"id"`
					Title   string     `json:"title"`
					Price   moneyNode  `json:"price"`
					Image   *imageNode `json:"image"`
					Product struct {
						Title         string     `json:"title"`
						FeaturedImage *imageNode `json:"featuredImage"`
					} `json:"product"`
				} `json:"merchandise"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"lines"`
}

func (c *cartNode) toCart() *contractx.Cart {
	out := &contractx.Cart{
		ID:            c.ID,
		CheckoutURL:   c.CheckoutURL,
		TotalQuantity: c.TotalQuantity,
		Lines:         make([]contractx.CartLine, 0, len(c.Lines.Edges)),
	}
	for _, e := range c.Lines.Edges {
		m := e.Node.Merchandise
		image := ""
		switch {
		case m.Image != nil:
			image = m.Image.URL
		case m.Product.FeaturedImage != nil:
			image = m.Product.FeaturedImage.URL
		}
		out.Lines = append(out.Lines, contractx.CartLine{
			ID:       e.Node.ID,
			Quantity: e.Node.Quantity,
			Merchandise: contractx.Merchandise{
				ID:           m.ID,
				ProductTitle: m.Product.Title,
				VariantTitle: m.Title,
				Price:        m.Price.toMoney(),
				ImageURL:     image,
			},
		})
	}
	return out
}

type userErrorNode struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

// cartPayload is the shared shape of cartCreate, cartLinesAdd and cartLinesRemove.
type cartPayload struct {
	Cart       *cartNode       `json:"cart"`
	UserErrors []userErrorNode `json:"userErrors"`
}

func (p *cartPayload) result() (*contractx.Cart, error) {
	if p == nil {
		return nil, contractx.ErrCartNotFound
	}
	if err := firstUserError(p.UserErrors); err != nil {
		if isMissingCart(err) {
			return nil, fmt.Errorf("%w: %s", contractx.ErrCartNotFound, err.Message)
		}
		return nil, err
	}
	if p.Cart == nil {
		return nil, contractx.ErrCartNotFound
	}
	return p.Cart.toCart(), nil
}

func firstUserError(errs []userErrorNode) *contractx.UserError {
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return &contractx.UserError{Field: first.Field, Code: first.Code, Message: first.Message}
}

// isMissingCart reports a user error about the cart id itself. Errors about
// lines or merchandise mention "does not exist" too, so the message is never
// consulted.
func isMissingCart(err *contractx.UserError) bool {
	return len(err.Field) > 0 && strings.EqualFold(err.Field[0], "cartId")
}

type orderNode struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	OrderNumber       int    `json:"orderNumber"`
	StatusURL         string `json:"statusUrl"`
	FulfillmentStatus string `json:"fulfillmentStatus"`
	FinancialStatus   string `json:"financialStatus"`
}

func (o orderNode) matches(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if o.ID == ref || NumericID(o.ID) == NumericID(ref) {
		return true
	}
	name := strings.TrimPrefix(o.Name, "#")
	trimmed := strings.TrimPrefix(ref, "#")
	return name == trimmed || strconv.Itoa(o.OrderNumber) == trimmed
}

func (o orderNode) toStatus() *contractx.OrderStatus {
	status := strings.ToLower(o.FulfillmentStatus)
	if status == "" {
		status = strings.ToLower(o.FinancialStatus)
	}
	return &contractx.OrderStatus{
		ID:        o.ID,
		Name:      o.Name,
		Status:    status,
		StatusURL: o.StatusURL,
	}
}
