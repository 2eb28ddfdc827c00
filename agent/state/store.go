package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrPreferencesNotFound = errors.New("preferences not found")
	ErrInvalidDevice       = errors.New("device id is empty")
)

const (
	defaultStoreKeyPrefix = "relay:prefs:"
	defaultStoreTTL       = 30 * 24 * time.Hour
	maxResponseSizeBytes  = 1 << 20
)

// PreferenceStore persists the cart id and auth token of a device so a
// returning shopper keeps their cart. Product and cart snapshots are never
// stored.
type PreferenceStore interface {
	Load(ctx context.Context, deviceID string) (Preferences, error)
	Save(ctx context.Context, deviceID string, prefs Preferences) error
	Delete(ctx context.Context, deviceID string) error
}

// StoreOption customizes UpstashRedisStore and RedisStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	keyPrefix  string
	ttl        time.Duration
	httpClient *http.Client
}

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *storeOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func buildOptions(opts []StoreOption) (storeOptions, error) {
	o := storeOptions{
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ttl < 0 {
		return o, errors.New("ttl must be >= 0")
	}
	return o, nil
}

func prefsKey(prefix, deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return "", ErrInvalidDevice
	}
	return strings.TrimSpace(prefix) + deviceID, nil
}

func encodePreferences(p Preferences) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal preferences: %w", err)
	}
	return string(payload), nil
}

func decodePreferences(raw string) (Preferences, error) {
	var p Preferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Preferences{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return p, nil
}

/* --------------------------- Upstash REST -------------------------------- */

// UpstashRedisStore persists Preferences in Upstash Redis via REST.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
}

var _ PreferenceStore = (*UpstashRedisStore)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: timeout}
	}

	return &UpstashRedisStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: o.httpClient,
		keyPrefix:  o.keyPrefix,
		ttl:        o.ttl,
	}, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, deviceID string) (Preferences, error) {
	key, err := prefsKey(s.keyPrefix, deviceID)
	if err != nil {
		return Preferences{}, err
	}

	resp, err := s.exec(ctx, []any{"GET", key})
	if err != nil {
		return Preferences{}, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return Preferences{}, ErrPreferencesNotFound
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return Preferences{}, fmt.Errorf("decode preferences payload: %w", err)
	}
	return decodePreferences(encoded)
}

func (s *UpstashRedisStore) Save(ctx context.Context, deviceID string, prefs Preferences) error {
	key, err := prefsKey(s.keyPrefix, deviceID)
	if err != nil {
		return err
	}
	if prefs.Empty() {
		return s.Delete(ctx, deviceID)
	}

	payload, err := encodePreferences(prefs)
	if err != nil {
		return err
	}

	cmd := []any{"SET", key, payload}
	if s.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(s.ttl))
	}

	_, err = s.exec(ctx, cmd)
	return err
}

func (s *UpstashRedisStore) Delete(ctx context.Context, deviceID string) error {
	key, err := prefsKey(s.keyPrefix, deviceID)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", key})
	return err
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
