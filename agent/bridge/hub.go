package bridge

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultIdleTTL is how long a widget may go without polling before its
// bridge is dropped. It must stay well above the longest poll wait.
const DefaultIdleTTL = 10 * time.Minute

var (
	ErrInvalidWidget = errors.New("widget id is empty")
	ErrUnknownWidget = errors.New("widget has no cart bridge")
)

type hubEntry struct {
	bridge   *Bridge
	lastSeen time.Time
}

// Hub keeps one Bridge per embedded widget. Bridges idle longer than the
// TTL with nothing pending are swept on the next Get.
type Hub struct {
	mu      sync.Mutex
	bridges map[string]*hubEntry
	timeout time.Duration
	idleTTL time.Duration
	now     func() time.Time
}

type HubOption func(*Hub)

func WithIdleTTL(ttl time.Duration) HubOption {
	return func(h *Hub) {
		if ttl > 0 {
			h.idleTTL = ttl
		}
	}
}

func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHub(timeout time.Duration, opts ...HubOption) *Hub {
	h := &Hub{
		bridges: map[string]*hubEntry{},
		timeout: timeout,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Get returns the widget's bridge, creating it on first use.
func (h *Hub) Get(widgetID string) (*Bridge, error) {
	widgetID = strings.TrimSpace(widgetID)
	if widgetID == "" {
		return nil, ErrInvalidWidget
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.sweep(now)

	e, ok := h.bridges[widgetID]
	if !ok {
		e = &hubEntry{bridge: New(h.timeout)}
		h.bridges[widgetID] = e
	}
	e.lastSeen = now
	return e.bridge, nil
}

// Lookup returns an existing bridge without creating one.
func (h *Hub) Lookup(widgetID string) (*Bridge, error) {
	widgetID = strings.TrimSpace(widgetID)
	if widgetID == "" {
		return nil, ErrInvalidWidget
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.bridges[widgetID]
	if !ok {
		return nil, ErrUnknownWidget
	}
	e.lastSeen = h.now()
	return e.bridge, nil
}

func (h *Hub) sweep(now time.Time) {
	for id, e := range h.bridges {
		if now.Sub(e.lastSeen) > h.idleTTL && e.bridge.Pending() == 0 {
			delete(h.bridges, id)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bridges)
}
