package state

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

func TestNewSessionGeneratesID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	s := NewSession("", now)
	if s.ID == "" {
		t.Fatal("expected generated id")
	}
	if !s.UpdatedAt.Equal(now) || s.UpdatedAt.Location() != time.UTC {
		t.Fatalf("unexpected UpdatedAt %v", s.UpdatedAt)
	}
	if got := NewSession(" abc ", now).ID; got != "abc" {
		t.Fatalf("NewSession id = %q", got)
	}
}

func TestSessionAppendRejectsUnknownSpeaker(t *testing.T) {
	t.Parallel()

	s := NewSession("s", time.Now())
	if err := s.Append(contractx.ChatTurn{Speaker: "robot", Text: "hi"}); !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("Append() error = %v, want ErrInvalidTurn", err)
	}
	var nilSession *Session
	if err := nilSession.Append(contractx.UserTurn("hi")); !errors.Is(err, ErrNilSession) {
		t.Fatalf("Append() on nil = %v", err)
	}
}

func TestSessionLastUserUtterance(t *testing.T) {
	t.Parallel()

	s := NewSession("s", time.Now())
	_ = s.Append(contractx.UserTurn("show shoes"))
	_ = s.Append(contractx.AssistantTurn("here"))
	_ = s.Append(contractx.UserTurn("remove the red ones"))
	_ = s.Append(contractx.ToolTurn(`{"action":"remove_from_cart"}`))

	if got := s.LastUserUtterance(); got != "remove the red ones" {
		t.Fatalf("LastUserUtterance() = %q", got)
	}
}

func TestSessionTrimHistory(t *testing.T) {
	t.Parallel()

	s := NewSession("s", time.Now())
	for i := 0; i < 50; i++ {
		_ = s.Append(contractx.UserTurn("x"))
	}
	s.TrimHistory(0)
	if len(s.History) != defaultMaxHistory {
		t.Fatalf("expected %d turns, got %d", defaultMaxHistory, len(s.History))
	}
	s.TrimHistory(3)
	if len(s.History) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(s.History))
	}
}

func TestSessionSetCartOverwritesHeldID(t *testing.T) {
	t.Parallel()

	s := NewSession("s", time.Now())
	s.CartID = "old"

	lines := []contractx.CartLine{{ID: "L1", Quantity: 1}}
	s.SetCart(&contractx.Cart{ID: "new", Lines: lines})
	if s.CartID != "new" {
		t.Fatalf("CartID = %q, want new", s.CartID)
	}
	lines[0].ID = "mutated"
	if s.LastCart.Lines[0].ID != "L1" {
		t.Fatal("cart snapshot must not alias caller lines")
	}

	s.SetCart(&contractx.Cart{})
	if s.CartID != "new" {
		t.Fatal("a cart without id must not clear the held id")
	}

	s.ForgetCart()
	if s.CartID != "" || s.LastCart != nil {
		t.Fatalf("ForgetCart left %q %#v", s.CartID, s.LastCart)
	}
}

func TestSessionSetProductsReplaces(t *testing.T) {
	t.Parallel()

	s := NewSession("s", time.Now())
	s.SetProducts([]contractx.Product{{ID: "a"}, {ID: "b"}})
	s.SetProducts([]contractx.Product{{ID: "c"}})
	if len(s.LastProducts) != 1 || s.LastProducts[0].ID != "c" {
		t.Fatalf("unexpected products %#v", s.LastProducts)
	}
}

func TestSessionPreferences(t *testing.T) {
	t.Parallel()

	s := NewSession("s", time.Now())
	s.ApplyPreferences(Preferences{CartID: " c1 ", AuthToken: "tok"})
	if s.CartID != "c1" || s.AuthToken != "tok" {
		t.Fatalf("unexpected restore: %q %q", s.CartID, s.AuthToken)
	}

	s.CartID = "held"
	s.ApplyPreferences(Preferences{CartID: "stored"})
	if s.CartID != "held" {
		t.Fatal("stored preferences must not override the held cart")
	}
	if p := s.Preferences(); p.CartID != "held" || p.AuthToken != "tok" || p.Empty() {
		t.Fatalf("unexpected preferences %#v", p)
	}
}

func TestSessionValidate(t *testing.T) {
	t.Parallel()

	var nilSession *Session
	if err := nilSession.Validate(); !errors.Is(err, ErrNilSession) {
		t.Fatalf("Validate() = %v", err)
	}
	if err := (&Session{}).Validate(); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Validate() = %v", err)
	}
	s := &Session{ID: "s", History: []contractx.ChatTurn{{Speaker: "bot"}}}
	if err := s.Validate(); !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("Validate() = %v", err)
	}
}
