package qstash

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Config struct {
	URL         string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token       string        `split_words:"true" required:"true"`
	Destination string        `split_words:"true" required:"true"`
	Timeout     time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL     string
	token       string
	destination string
	httpClient  *client.Client
}

// PublishResponse is what QStash returns for an accepted message.
type PublishResponse struct {
	MessageID string `json:"messageId"`
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("qstash token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
		client.WithWriteTimeout(timeout),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("create qstash http client: %w", err)
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		destination: strings.TrimSpace(cfg.Destination),
		httpClient:  hc,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Destination is the default publish target from the config.
func (c *Client) Destination() string {
	return c.destination
}

// Publish enqueues body for delivery to destination, which may be a URL or a
// topic name. The raw response body is returned on success.
func (c *Client) Publish(ctx context.Context, destination string, body []byte) ([]byte, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		destination = c.destination
	}
	if destination == "" {
		return nil, errors.New("qstash destination is required")
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.baseURL + "/v2/publish/" + destination)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.SetBody(body)

	if err := c.httpClient.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("qstash publish: %w", err)
	}

	status := resp.StatusCode()
	raw := append([]byte(nil), resp.Body()...)
	if status < consts.StatusOK || status >= consts.StatusMultipleChoices {
		return nil, fmt.Errorf("qstash publish status=%d body=%s", status, string(raw))
	}
	return raw, nil
}
