package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

const defaultMaxHistory = 40

var (
	ErrNilSession     = errors.New("session is nil")
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidTurn    = errors.New("chat turn is invalid")
)

// Session is the client-held context of one shopper conversation. It travels
// with every request and is returned with every reply; nothing here is kept
// on the server except the persistable Preferences.
// - Grounding: LastProducts + LastCart (replaced wholesale, never merged)
// - Cart continuity: CartID (at most one, overwritten by any returned cart)
type Session struct {
	ID        string `json:"id"`
	AuthToken string `json:"authToken,omitempty"`
	CartID    string `json:"cartId,omitempty"`

	LastProducts []contractx.Product  `json:"lastProducts,omitempty"`
	LastCart     *contractx.Cart      `json:"lastCart,omitempty"`
	History      []contractx.ChatTurn `json:"history,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Preferences is the part of a session that may outlive it.
type Preferences struct {
	CartID    string `json:"cartId,omitempty"`
	AuthToken string `json:"authToken,omitempty"`
}

func (p Preferences) Empty() bool {
	return p.CartID == "" && p.AuthToken == ""
}

func NewSession(id string, now time.Time) *Session {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		ID:        id,
		UpdatedAt: now.UTC(),
	}
}

/* ----------------------------- History ---------------------------------- */

func (s *Session) Append(turn contractx.ChatTurn) error {
	if s == nil {
		return ErrNilSession
	}
	if !turn.Speaker.Valid() {
		return fmt.Errorf("%w: speaker=%q", ErrInvalidTurn, turn.Speaker)
	}
	s.History = append(s.History, turn)
	return nil
}

// LastUserUtterance returns the newest user turn, which is what removal
// requests are grounded against.
func (s *Session) LastUserUtterance() string {
	if s == nil {
		return ""
	}
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Speaker == contractx.SpeakerUser {
			return s.History[i].Text
		}
	}
	return ""
}

// TrimHistory keeps the newest max turns.
func (s *Session) TrimHistory(max int) {
	if s == nil {
		return
	}
	if max <= 0 {
		max = defaultMaxHistory
	}
	if len(s.History) > max {
		s.History = append([]contractx.ChatTurn(nil), s.History[len(s.History)-max:]...)
	}
}

/* ------------------------- Grounding context ----------------------------- */

// SetProducts replaces the last product list.
func (s *Session) SetProducts(products []contractx.Product) {
	if s == nil {
		return
	}
	s.LastProducts = append([]contractx.Product(nil), products...)
}

// SetCart records a cart returned by the gateway and makes its id the held one.
func (s *Session) SetCart(cart *contractx.Cart) {
	if s == nil || cart == nil {
		return
	}
	snapshot := *cart
	snapshot.Lines = append([]contractx.CartLine(nil), cart.Lines...)
	s.LastCart = &snapshot
	if id := strings.TrimSpace(cart.ID); id != "" {
		s.CartID = id
	}
}

// ForgetCart drops a held cart the gateway no longer knows.
func (s *Session) ForgetCart() {
	if s == nil {
		return
	}
	s.CartID = ""
	s.LastCart = nil
}

/* ----------------------------- Persistence ------------------------------- */

func (s *Session) Preferences() Preferences {
	if s == nil {
		return Preferences{}
	}
	return Preferences{CartID: s.CartID, AuthToken: s.AuthToken}
}

// ApplyPreferences restores persisted fields without overriding values the
// client already holds.
func (s *Session) ApplyPreferences(p Preferences) {
	if s == nil {
		return
	}
	if s.CartID == "" {
		s.CartID = strings.TrimSpace(p.CartID)
	}
	if s.AuthToken == "" {
		s.AuthToken = strings.TrimSpace(p.AuthToken)
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	for i, turn := range s.History {
		if !turn.Speaker.Valid() {
			return fmt.Errorf("%w: turn %d speaker=%q", ErrInvalidTurn, i, turn.Speaker)
		}
	}
	return nil
}
