// Package journal records every dispatched tool call. Recording is best
// effort: a failing sink is logged and never changes the dispatch result.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

type Entry struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"sessionId"`
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters,omitempty"`
	ResultKind string         `json:"resultKind"`
	Error      string         `json:"error,omitempty"`
	Latency    time.Duration  `json:"latency"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewEntry builds an entry from a finished dispatch.
func NewEntry(sessionID string, call contractx.ToolCall, result contractx.DispatchResult, latency time.Duration, now time.Time) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Tool:       call.Name,
		Parameters: call.Clone().Parameters,
		ResultKind: string(result.Kind),
		Latency:    latency,
		CreatedAt:  now.UTC(),
	}
	if result.Failed() {
		e.Error = result.Error
	}
	return e
}

type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// Multi fans an entry out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Record writes entry to sink and swallows the error after logging it.
func Record(ctx context.Context, sink Sink, entry Entry) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, entry); err != nil {
		log.Warn().
			Err(err).
			Str("component", "journal").
			Str("tool", entry.Tool).
			Str("session_id", entry.SessionID).
			Msg("failed to record dispatch")
	}
}
