package commerce

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

// Unavailable is the gateway used when storefront configuration is missing.
// Every call fails with the configuration error so the caller gets it back
// per request instead of the process refusing to start.
type Unavailable struct {
	Err error
}

var _ contractx.Gateway = Unavailable{}

func (u Unavailable) err() error {
	if u.Err == nil {
		return contractx.ErrConfig
	}
	return fmt.Errorf("%w: %v", contractx.ErrConfig, u.Err)
}

func (u Unavailable) SearchProducts(context.Context, string) ([]contractx.Product, error) {
	return nil, u.err()
}

func (u Unavailable) CreateCart(context.Context, []contractx.LineInput, string) (*contractx.Cart, error) {
	return nil, u.err()
}

func (u Unavailable) AddLines(context.Context, string, []contractx.LineInput) (*contractx.Cart, error) {
	return nil, u.err()
}

func (u Unavailable) RemoveLines(context.Context, string, []string) (*contractx.Cart, error) {
	return nil, u.err()
}

func (u Unavailable) GetCart(context.Context, string) (*contractx.Cart, error) {
	return nil, u.err()
}

func (u Unavailable) CheckoutURL(context.Context, string) (string, error) {
	return "", u.err()
}

func (u Unavailable) OrderStatus(context.Context, string, string) (*contractx.OrderStatus, error) {
	return nil, u.err()
}

func (u Unavailable) CustomerLogin(context.Context, string, string) (string, error) {
	return "", u.err()
}

func (u Unavailable) ActiveCartID(context.Context, string) (string, error) {
	return "", u.err()
}

func (u Unavailable) ShopURL() string {
	return ""
}
