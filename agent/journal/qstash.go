package journal

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// Publisher is the subset of the QStash client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, destination string, body []byte) ([]byte, error)
}

// QStashSink forwards entries to a QStash destination so downstream
// consumers (analytics, CRM hooks) get them asynchronously.
type QStashSink struct {
	publisher   Publisher
	destination string
}

var _ Sink = (*QStashSink)(nil)

func NewQStashSink(p Publisher, destination string) *QStashSink {
	return &QStashSink{publisher: p, destination: destination}
}

func (s *QStashSink) Record(ctx context.Context, entry Entry) error {
	body, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, s.destination, body); err != nil {
		return err
	}
	return nil
}
