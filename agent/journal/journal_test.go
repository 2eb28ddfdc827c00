package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	qstashx "github.com/tanpawarit/Chative-Commerce-Relay/pkg/qstash"
)

type memorySink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (m *memorySink) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return m.err
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	call := contractx.ToolCall{Name: "get_cart", Parameters: map[string]any{"cartId": "c1"}}
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	e := NewEntry("s1", call, contractx.ErrorResult("get_cart", contractx.ErrUpstream, "boom"), 40*time.Millisecond, now)
	if e.ID == "" || e.Tool != "get_cart" || e.ResultKind != "error" || e.Error != "boom" {
		t.Fatalf("unexpected entry %#v", e)
	}
	call.Parameters["cartId"] = "changed"
	if e.Parameters["cartId"] != "c1" {
		t.Fatal("entry must not alias call parameters")
	}

	ok := NewEntry("s1", call, contractx.CartResult("get_cart", nil), 0, now)
	if ok.Error != "" || ok.ResultKind != "cart" {
		t.Fatalf("unexpected entry %#v", ok)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a := &memorySink{}
	b := &memorySink{err: boom}
	err := Multi{a, nil, b}.Record(context.Background(), Entry{Tool: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("Record() error = %v, want boom", err)
	}
	if len(a.entries) != 1 || len(b.entries) != 1 {
		t.Fatal("every sink must receive the entry")
	}

	// Record never propagates.
	Record(context.Background(), b, Entry{Tool: "y"})
	Record(context.Background(), nil, Entry{Tool: "z"})
}

func TestBunSinkSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })

	// Migrate is idempotent.
	if err := sink.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, tool := range []string{"query_products", "add_to_cart"} {
		e := NewEntry("s1", contractx.ToolCall{Name: tool, Parameters: map[string]any{"n": i}},
			contractx.CartResult(tool, nil), time.Duration(i)*time.Millisecond, base.Add(time.Duration(i)*time.Minute))
		if err := sink.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := sink.Record(ctx, NewEntry("s2", contractx.ToolCall{Name: "get_cart"}, contractx.CartResult("get_cart", nil), 0, base)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	rows, err := sink.Recent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Tool != "add_to_cart" || rows[1].Tool != "query_products" {
		t.Fatalf("unexpected order: %s, %s", rows[0].Tool, rows[1].Tool)
	}
	if rows[0].Parameters != `{"n":1}` {
		t.Fatalf("unexpected parameters %q", rows[0].Parameters)
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error")
	}
}

func TestQStashSinkPublishes(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		gotPath  string
		gotAuth  string
		gotEntry Entry
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := sonic.Unmarshal(body, &gotEntry); err != nil {
			t.Errorf("decode entry: %v", err)
		}
		mu.Unlock()
		fmt.Fprint(w, `{"messageId":"msg_1"}`)
	}))
	t.Cleanup(server.Close)

	client, err := qstashx.NewClient(qstashx.Config{URL: server.URL, Token: "qs-token", Destination: "relay-journal"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	sink := NewQStashSink(client, client.Destination())
	entry := Entry{ID: "e1", SessionID: "s1", Tool: "get_cart", ResultKind: "cart"}
	if err := sink.Record(context.Background(), entry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/v2/publish/relay-journal" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer qs-token" {
		t.Fatalf("unexpected auth %q", gotAuth)
	}
	if gotEntry.ID != "e1" || gotEntry.Tool != "get_cart" {
		t.Fatalf("unexpected entry %#v", gotEntry)
	}
}

func TestQStashSinkSurfacesStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"unauthorized"}`)
	}))
	t.Cleanup(server.Close)

	client, err := qstashx.NewClient(qstashx.Config{URL: server.URL, Token: "bad", Destination: "d"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	err = NewQStashSink(client, "").Record(context.Background(), Entry{ID: "e"})
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("Record() error = %v, want status=401", err)
	}
}
