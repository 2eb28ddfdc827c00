package contract

// Money is a decimal amount as the commerce platform reports it.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type Variant struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Price            Money  `json:"price"`
	AvailableForSale bool   `json:"availableForSale"`
}

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Variants    []Variant `json:"variants"`
}

// FirstVariant returns the variant used when a product is referenced by name.
func (p Product) FirstVariant() (Variant, bool) {
	if len(p.Variants) == 0 {
		return Variant{}, false
	}
	return p.Variants[0], true
}

type Merchandise struct {
	ID           string `json:"id,omitempty"`
	ProductTitle string `json:"productTitle"`
	VariantTitle string `json:"variantTitle"`
	Price        Money  `json:"price"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

type CartLine struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	Merchandise Merchandise `json:"merchandise"`
}

type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity"`
	Lines         []CartLine `json:"lines"`
}

// EmptyCart is what get_cart reports when no cart can be resolved.
func EmptyCart() *Cart {
	return &Cart{Lines: []CartLine{}}
}

type OrderStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	StatusURL string `json:"statusUrl,omitempty"`
	Message   string `json:"message,omitempty"`
}

// LineInput is one line of an add or create request.
type LineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}
