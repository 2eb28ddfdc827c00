package commerce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

const (
	defaultAPIVersion  = "2024-01"
	defaultSearchLimit = 10
	maxErrorBodyBytes  = 512
)

type Config struct {
	ShopDomain            string        `envconfig:"SHOP_DOMAIN" required:"true"`
	StorefrontAccessToken string        `envconfig:"STOREFRONT_ACCESS_TOKEN" required:"true"`
	APIVersion            string        `envconfig:"API_VERSION" default:"2024-01"`
	Timeout               time.Duration `envconfig:"TIMEOUT" default:"15s"`
	// Endpoint overrides the storefront URL derived from ShopDomain.
	Endpoint string `envconfig:"ENDPOINT"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ShopDomain) == "" {
		return fmt.Errorf("%w: shop domain is required", contractx.ErrConfig)
	}
	if strings.TrimSpace(c.StorefrontAccessToken) == "" {
		return fmt.Errorf("%w: storefront access token is required", contractx.ErrConfig)
	}
	return nil
}

func (c Config) endpoint() string {
	if v := strings.TrimRight(strings.TrimSpace(c.Endpoint), "/"); v != "" {
		return v
	}
	version := strings.TrimSpace(c.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	return fmt.Sprintf("https://%s/api/%s/graphql.json", shopHost(c.ShopDomain), version)
}

func shopHost(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimRight(domain, "/")
}

// Client talks to the storefront GraphQL API.
type Client struct {
	http     *client.Client
	endpoint string
	token    string
	shop     string
}

var _ contractx.Gateway = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("create storefront http client: %w", err)
	}

	return &Client{
		http:     c,
		endpoint: cfg.endpoint(),
		token:    strings.TrimSpace(cfg.StorefrontAccessToken),
		shop:     shopHost(cfg.ShopDomain),
	}, nil
}

func MustNew(cfg Config) *Client {
	c, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// ShopURL is the public storefront origin.
func (c *Client) ShopURL() string {
	return "https://" + c.shop
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse[T any] struct {
	Data   *T                       `json:"data"`
	Errors []contractx.GraphQLError `json:"errors"`
}

func execute[T any](ctx context.Context, c *Client, query string, vars map[string]any) (*T, error) {
	body, err := sonic.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.endpoint)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)
	req.SetBody(body)

	start := time.Now()
	if err := c.http.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("%w: storefront request: %v", contractx.ErrUpstream, err)
	}

	status := resp.StatusCode()
	log.Debug().
		Str("component", "commerce").
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("storefront call")

	if status < consts.StatusOK || status >= consts.StatusMultipleChoices {
		raw := resp.Body()
		if len(raw) > maxErrorBodyBytes {
			raw = raw[:maxErrorBodyBytes]
		}
		return nil, fmt.Errorf("%w: storefront status=%d body=%s", contractx.ErrUpstream, status, string(raw))
	}

	var parsed graphQLResponse[T]
	if err := sonic.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode storefront response: %v", contractx.ErrUpstream, err)
	}
	if len(parsed.Errors) > 0 {
		first := parsed.Errors[0]
		return nil, &first
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("%w: storefront response has no data", contractx.ErrUpstream)
	}
	return parsed.Data, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]contractx.Product, error) {
	type payload struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}

	data, err := execute[payload](ctx, c, searchProductsQuery, map[string]any{
		"query": strings.TrimSpace(query),
		"first": defaultSearchLimit,
	})
	if err != nil {
		return nil, err
	}

	products := make([]contractx.Product, 0, len(data.Products.Edges))
	for _, e := range data.Products.Edges {
		products = append(products, e.Node.toProduct())
	}
	return products, nil
}

func (c *Client) CreateCart(ctx context.Context, lines []contractx.LineInput, buyerToken string) (*contractx.Cart, error) {
	type payload struct {
		CartCreate *cartPayload `json:"cartCreate"`
	}

	input := map[string]any{}
	if len(lines) > 0 {
		input["lines"] = lineInputs(lines)
	}
	if token := strings.TrimSpace(buyerToken); token != "" {
		input["buyerIdentity"] = map[string]any{"customerAccessToken": token}
	}

	data, err := execute[payload](ctx, c, cartCreateMutation, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}
	return data.CartCreate.result()
}

func (c *Client) AddLines(ctx context.Context, cartID string, lines []contractx.LineInput) (*contractx.Cart, error) {
	type payload struct {
		CartLinesAdd *cartPayload `json:"cartLinesAdd"`
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", contractx.ErrValidation)
	}
	data, err := execute[payload](ctx, c, cartLinesAddMutation, map[string]any{
		"cartId": GlobalID("Cart", cartID),
		"lines":  lineInputs(lines),
	})
	if err != nil {
		return nil, err
	}
	return data.CartLinesAdd.result()
}

func (c *Client) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*contractx.Cart, error) {
	type payload struct {
		CartLinesRemove *cartPayload `json:"cartLinesRemove"`
	}

	ids := globalIDs("CartLine", lineIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one line id is required", contractx.ErrValidation)
	}
	data, err := execute[payload](ctx, c, cartLinesRemoveMutation, map[string]any{
		"cartId":  GlobalID("Cart", cartID),
		"lineIds": ids,
	})
	if err != nil {
		return nil, err
	}
	return data.CartLinesRemove.result()
}

func (c *Client) GetCart(ctx context.Context, cartID string) (*contractx.Cart, error) {
	type payload struct {
		Cart *cartNode `json:"cart"`
	}

	data, err := execute[payload](ctx, c, cartQuery, map[string]any{"id": GlobalID("Cart", cartID)})
	if err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, contractx.ErrCartNotFound
	}
	return data.Cart.toCart(), nil
}

func (c *Client) CheckoutURL(ctx context.Context, cartID string) (string, error) {
	type payload struct {
		Cart *struct {
			CheckoutURL string `json:"checkoutUrl"`
		} `json:"cart"`
	}

	data, err := execute[payload](ctx, c, checkoutURLQuery, map[string]any{"id": GlobalID("Cart", cartID)})
	if err != nil {
		return "", err
	}
	if data.Cart == nil {
		return "", contractx.ErrCartNotFound
	}
	if data.Cart.CheckoutURL == "" {
		return c.ShopURL() + "/cart", nil
	}
	return data.Cart.CheckoutURL, nil
}

// OrderStatus looks the order up in the buyer's order history. Without a buyer
// token the storefront API exposes no orders, so a placeholder is returned.
func (c *Client) OrderStatus(ctx context.Context, orderID string, buyerToken string) (*contractx.OrderStatus, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", contractx.ErrValidation)
	}

	token := strings.TrimSpace(buyerToken)
	if token == "" {
		return &contractx.OrderStatus{
			ID:      orderID,
			Status:  "processing",
			Message: "Order status requires customer authentication",
		}, nil
	}

	type payload struct {
		Customer *struct {
			Orders struct {
				Edges []struct {
					Node orderNode `json:"node"`
				} `json:"edges"`
			} `json:"orders"`
		} `json:"customer"`
	}

	data, err := execute[payload](ctx, c, customerOrdersQuery, map[string]any{"token": token})
	if err != nil {
		return nil, err
	}
	if data.Customer == nil {
		return nil, &contractx.UserError{Message: "Customer session expired, please log in again"}
	}
	for _, e := range data.Customer.Orders.Edges {
		if e.Node.matches(orderID) {
			return e.Node.toStatus(), nil
		}
	}
	return &contractx.OrderStatus{
		ID:      orderID,
		Status:  "unknown",
		Message: "No order with that number was found for this customer",
	}, nil
}

// CustomerLogin exchanges credentials for a customer access token.
func (c *Client) CustomerLogin(ctx context.Context, email, password string) (string, error) {
	type payload struct {
		CustomerAccessTokenCreate struct {
			CustomerAccessToken *struct {
				AccessToken string `json:"accessToken"`
				ExpiresAt   string `json:"expiresAt"`
			} `json:"customerAccessToken"`
			CustomerUserErrors []userErrorNode `json:"customerUserErrors"`
		} `json:"customerAccessTokenCreate"`
	}

	if strings.TrimSpace(email) == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", contractx.ErrValidation)
	}

	data, err := execute[payload](ctx, c, customerAccessTokenCreateMutation, map[string]any{
		"input": map[string]any{"email": strings.TrimSpace(email), "password": password},
	})
	if err != nil {
		return "", err
	}

	out := data.CustomerAccessTokenCreate
	if ue := firstUserError(out.CustomerUserErrors); ue != nil {
		return "", ue
	}
	if out.CustomerAccessToken == nil || out.CustomerAccessToken.AccessToken == "" {
		return "", &contractx.UserError{Message: "Invalid credentials"}
	}
	return out.CustomerAccessToken.AccessToken, nil
}

// ActiveCartID returns the id of the customer's last incomplete checkout, or
// an empty string when there is none.
func (c *Client) ActiveCartID(ctx context.Context, buyerToken string) (string, error) {
	type payload struct {
		Customer *struct {
			LastIncompleteCheckout *struct {
				ID string `json:"id"`
			} `json:"lastIncompleteCheckout"`
		} `json:"customer"`
	}

	token := strings.TrimSpace(buyerToken)
	if token == "" {
		return "", fmt.Errorf("%w: customer access token is required", contractx.ErrValidation)
	}

	data, err := execute[payload](ctx, c, activeCartQuery, map[string]any{"token": token})
	if err != nil {
		return "", err
	}
	if data.Customer == nil || data.Customer.LastIncompleteCheckout == nil {
		return "", nil
	}
	return data.Customer.LastIncompleteCheckout.ID, nil
}

func lineInputs(lines []contractx.LineInput) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		out = append(out, map[string]any{
			"merchandiseId": GlobalID("ProductVariant", l.MerchandiseID),
			"quantity":      qty,
		})
	}
	return out
}
