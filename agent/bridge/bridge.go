package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Op string

const (
	OpGetCart        Op = "GET_CART"
	OpAddToCart      Op = "ADD_TO_CART"
	OpRemoveFromCart Op = "REMOVE_FROM_CART"
	OpUpdateCart     Op = "UPDATE_CART"
	OpClearCart      Op = "CLEAR_CART"
)

func (o Op) Valid() bool {
	switch o {
	case OpGetCart, OpAddToCart, OpRemoveFromCart, OpUpdateCart, OpClearCart:
		return true
	default:
		return false
	}
}

const (
	DefaultTimeout = 5 * time.Second
	queueSize      = 32
)

var (
	ErrTimeout        = errors.New("cart bridge request timed out")
	ErrInvalidOp      = errors.New("unknown cart bridge operation")
	ErrUnknownRequest = errors.New("no pending cart bridge request")
	ErrHostFailed     = errors.New("host page rejected cart request")
)

// Request is what the host page receives from Next.
type Request struct {
	ID      string         `json:"requestId"`
	Op      Op             `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Response is the host page's answer to one Request.
type Response struct {
	ID    string    `json:"requestId"`
	OK    bool      `json:"ok"`
	Cart  *HostCart `json:"cart,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Bridge correlates cart requests sent to a host page with the replies it
// posts back. A request that is not answered within the timeout fails with
// ErrTimeout and is withdrawn, so a late reply or a late Next never sees it.
type Bridge struct {
	mu      sync.Mutex
	pending map[string]chan Response
	queue   chan Request
	timeout time.Duration
}

func New(timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{
		pending: map[string]chan Response{},
		queue:   make(chan Request, queueSize),
		timeout: timeout,
	}
}

func (b *Bridge) Timeout() time.Duration {
	return b.timeout
}

// Call sends op to the host page and waits for its reply.
func (b *Bridge) Call(ctx context.Context, op Op, payload map[string]any) (Response, error) {
	if !op.Valid() {
		return Response{}, fmt.Errorf("%w: %q", ErrInvalidOp, op)
	}

	req := Request{ID: uuid.NewString(), Op: op, Payload: payload}
	ch := make(chan Response, 1)

	b.mu.Lock()
	b.pending[req.ID] = ch
	b.mu.Unlock()
	defer b.cancel(req.ID)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case b.queue <- req:
	case <-timer.C:
		return Response{}, fmt.Errorf("%w: %s queue full", ErrTimeout, op)
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case resp := <-ch:
		if !resp.OK {
			msg := resp.Error
			if msg == "" {
				msg = "request failed"
			}
			return resp, fmt.Errorf("%w: %s", ErrHostFailed, msg)
		}
		return resp, nil
	case <-timer.C:
		log.Warn().
			Str("component", "bridge").
			Str("request_id", req.ID).
			Str("op", string(op)).
			Dur("timeout", b.timeout).
			Msg("cart bridge request timed out")
		return Response{}, fmt.Errorf("%w: %s after %s", ErrTimeout, op, b.timeout)
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Deliver hands a host reply to the waiting Call.
func (b *Bridge) Deliver(resp Response) error {
	b.mu.Lock()
	ch, ok := b.pending[resp.ID]
	if ok {
		delete(b.pending, resp.ID)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, resp.ID)
	}
	ch <- resp
	return nil
}

// Next blocks until a live request is queued or ctx ends.
func (b *Bridge) Next(ctx context.Context) (Request, error) {
	for {
		select {
		case req := <-b.queue:
			if b.isPending(req.ID) {
				return req, nil
			}
		case <-ctx.Done():
			return Request{}, ctx.Err()
		}
	}
}

func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Bridge) isPending(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[id]
	return ok
}

func (b *Bridge) cancel(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
