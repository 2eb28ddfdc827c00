package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestStructuredModelSendsSchema(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		gotPath string
		gotBody map[string]any
		gotHdr  http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath = r.URL.Path
		gotHdr = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"tool_use\":{\"name\":\"get_cart\",\"parameters\":{}}}"}}]}`)
	}))
	t.Cleanup(server.Close)

	maxTokens := 256
	m, err := NewStructuredModel(Config{
		BaseURL:            server.URL,
		APIKey:             "key",
		Model:              "openai/gpt-4o-mini",
		MaxCompletionToken: &maxTokens,
		SiteName:           "relay",
	}, "tool_call", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("NewStructuredModel() error = %v", err)
	}

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("show my cart"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Content != `{"tool_use":{"name":"get_cart","parameters":{}}}` {
		t.Fatalf("unexpected content %q", out.Content)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotHdr.Get("X-Title") != "relay" {
		t.Fatalf("missing X-Title header")
	}
	rf, _ := gotBody["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Fatalf("unexpected response_format %#v", gotBody["response_format"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestNewStructuredModelRequiresKeyAndSchema(t *testing.T) {
	t.Parallel()

	if _, err := NewStructuredModel(Config{Model: "m"}, "x", map[string]any{"type": "object"}); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := NewStructuredModel(Config{APIKey: "k", Model: "m"}, "x", nil); err == nil {
		t.Fatal("expected error for missing schema")
	}
}
