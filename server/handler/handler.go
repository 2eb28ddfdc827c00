package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/intent"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/relay"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/bridge"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/dispatch"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
)

// Customers is the storefront customer surface behind login and cart restore.
type Customers interface {
	CustomerLogin(ctx context.Context, email, password string) (string, error)
	ActiveCartID(ctx context.Context, buyerToken string) (string, error)
}

// Deps are the services the API fronts. Agent and Relay may be nil when no
// language model is configured; the endpoints needing them then answer with
// the configuration error.
type Deps struct {
	Agent      *intent.Agent
	Relay      *relay.Relay
	Dispatcher *dispatch.Dispatcher
	Gateway    contractx.Gateway
	Customers  Customers
	Prefs      statex.PreferenceStore
	Bridges    *bridge.Hub
	ShopURL    string
	ModelErr   error
}

type Handler struct {
	deps Deps
}

func New(deps Deps) (*Handler, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("commerce gateway is required")
	}
	if deps.Prefs == nil {
		deps.Prefs = statex.NopStore{}
	}
	if deps.Bridges == nil {
		deps.Bridges = bridge.NewHub(bridge.DefaultTimeout)
	}
	return &Handler{deps: deps}, nil
}

func (h *Handler) modelErr() error {
	if h.deps.ModelErr != nil {
		return h.deps.ModelErr
	}
	return contractx.ErrConfig
}

// buyerToken reads the customer access token from Authorization: Bearer or
// X-Customer-Access-Token.
func buyerToken(c *app.RequestContext) string {
	if v := strings.TrimSpace(string(c.GetHeader("X-Customer-Access-Token"))); v != "" {
		return v
	}
	auth := strings.TrimSpace(string(c.GetHeader("Authorization")))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
