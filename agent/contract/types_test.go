package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestChatTurnAcceptsWidgetShape(t *testing.T) {
	t.Parallel()

	var turns []ChatTurn
	raw := `[{"from":"user","message":"show me red shoes"},{"speaker":"Tool","text":"{}"}]`
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		t.Fatalf("unmarshal turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Speaker != SpeakerUser || turns[0].Text != "show me red shoes" {
		t.Fatalf("unexpected first turn: %#v", turns[0])
	}
	if turns[1].Speaker != SpeakerTool {
		t.Fatalf("expected tool speaker, got %q", turns[1].Speaker)
	}
}

func TestDispatchResultEncodesSingleVariant(t *testing.T) {
	t.Parallel()

	res := CartResult("get_cart", nil)
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected action and cart only, got %v", out)
	}
	cart, ok := out["cart"].(map[string]any)
	if !ok {
		t.Fatalf("cart missing: %s", raw)
	}
	if cart["totalQuantity"].(float64) != 0 {
		t.Fatalf("unexpected quantity: %v", cart["totalQuantity"])
	}
	if lines, ok := cart["lines"].([]any); !ok || len(lines) != 0 {
		t.Fatalf("expected empty lines array, got %v", cart["lines"])
	}
}

func TestDispatchResultErrorKeepsCause(t *testing.T) {
	t.Parallel()

	res := ErrorResult("add_to_cart", ErrGrounding, "product not found, please search first")
	if !res.Failed() {
		t.Fatal("expected failed result")
	}
	if !errors.Is(res.Err(), ErrGrounding) {
		t.Fatalf("expected grounding cause, got %v", res.Err())
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"error":"product not found, please search first"`) {
		t.Fatalf("unexpected encoding: %s", raw)
	}

	var back DispatchResult
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != ResultError || back.Action != "add_to_cart" {
		t.Fatalf("unexpected decoded result: %#v", back)
	}
}

func TestDispatchResultRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := json.Marshal(DispatchResult{}); err == nil {
		t.Fatal("expected error for result without variant")
	}
	var r DispatchResult
	if err := json.Unmarshal([]byte(`{"action":"x"}`), &r); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
