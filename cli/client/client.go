package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
)

const (
	endpointChat       = "/api/chat"
	endpointLogin      = "/api/customer-login"
	endpointActiveCart = "/api/active-cart"

	headerCustomerToken = "X-Customer-Access-Token"
)

type ChatRequest struct {
	Session *statex.Session `json:"session,omitempty"`
	Message string          `json:"message"`
}

type ChatResponse struct {
	Reply   string          `json:"reply"`
	Session *statex.Session `json:"session"`
	Result  map[string]any  `json:"result,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// APIClient wraps the hertz client for the relay HTTP API.
type APIClient struct {
	client *client.Client
	server string
	token  string
}

func NewAPIClient(server, token string, timeout time.Duration) (*APIClient, error) {
	normalized, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithClientReadTimeout(timeout),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &APIClient{client: c, server: normalized, token: strings.TrimSpace(token)}, nil
}

// normalizeServerURL returns scheme://host with no path or trailing slash.
func normalizeServerURL(server string) (string, error) {
	server = strings.TrimSpace(server)
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q", server)
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// SetToken changes the customer token sent with later requests.
func (c *APIClient) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// Chat sends one shopper message with the current session and returns the
// reply together with the updated session.
func (c *APIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.post(ctx, endpointChat, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges customer credentials for a storefront access token.
func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, endpointLogin, body, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// ActiveCart asks the server for the customer's last open cart. An empty id
// means none was found.
func (c *APIClient) ActiveCart(ctx context.Context) (string, error) {
	var out struct {
		CartID *string `json:"cartId"`
	}
	body := map[string]string{"customerAccessToken": c.token}
	if err := c.post(ctx, endpointActiveCart, body, &out); err != nil {
		return "", err
	}
	if out.CartID == nil {
		return "", nil
	}
	return *out.CartID, nil
}

func (c *APIClient) post(ctx context.Context, endpoint string, in, out any) error {
	bodyBytes, err := sonic.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpoint)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	if c.token != "" {
		req.Header.Set(headerCustomerToken, c.token)
	}
	req.SetBody(bodyBytes)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != consts.StatusOK {
		var eb errorBody
		if err := sonic.Unmarshal(resp.Body(), &eb); err == nil && eb.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", eb.Error, resp.StatusCode())
		}
		return fmt.Errorf("request failed with HTTP status: %d", resp.StatusCode())
	}

	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
