package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
	SpeakerTool      Speaker = "tool"
)

func (s Speaker) Valid() bool {
	switch s {
	case SpeakerUser, SpeakerAssistant, SpeakerTool:
		return true
	default:
		return false
	}
}

// ChatTurn is one entry of a conversation. Widgets that post the older
// {"from","message"} shape are accepted too.
type ChatTurn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

func (t *ChatTurn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Speaker string `json:"speaker"`
		Text    string `json:"text"`
		From    string `json:"from"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	speaker := strings.TrimSpace(raw.Speaker)
	if speaker == "" {
		speaker = strings.TrimSpace(raw.From)
	}
	text := raw.Text
	if text == "" {
		text = raw.Message
	}

	t.Speaker = Speaker(strings.ToLower(speaker))
	t.Text = text
	return nil
}

func UserTurn(text string) ChatTurn {
	return ChatTurn{Speaker: SpeakerUser, Text: text}
}

func AssistantTurn(text string) ChatTurn {
	return ChatTurn{Speaker: SpeakerAssistant, Text: text}
}

func ToolTurn(text string) ChatTurn {
	return ChatTurn{Speaker: SpeakerTool, Text: text}
}

// ToolCall is a structured action extracted from natural language.
type ToolCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// Clone copies the parameter map so grounding never mutates the caller's call.
func (c ToolCall) Clone() ToolCall {
	params := make(map[string]any, len(c.Parameters))
	for k, v := range c.Parameters {
		params[k] = v
	}
	return ToolCall{Name: c.Name, Parameters: params}
}

type ResultKind string

const (
	ResultProducts ResultKind = "products"
	ResultCart     ResultKind = "cart"
	ResultCheckout ResultKind = "checkoutUrl"
	ResultOrder    ResultKind = "order"
	ResultError    ResultKind = "error"
)

// DispatchResult is the outcome of one dispatched tool call. Exactly one
// variant is populated and only that variant is encoded.
type DispatchResult struct {
	Action      string
	Kind        ResultKind
	Query       string
	Products    []Product
	Cart        *Cart
	CheckoutURL string
	Order       *OrderStatus
	Error       string

	cause error
}

func ProductsResult(action, query string, products []Product) DispatchResult {
	if products == nil {
		products = []Product{}
	}
	return DispatchResult{Action: action, Kind: ResultProducts, Query: query, Products: products}
}

func CartResult(action string, cart *Cart) DispatchResult {
	if cart == nil {
		cart = EmptyCart()
	}
	return DispatchResult{Action: action, Kind: ResultCart, Cart: cart}
}

func CheckoutResult(action, url string) DispatchResult {
	return DispatchResult{Action: action, Kind: ResultCheckout, CheckoutURL: url}
}

func OrderResult(action string, order *OrderStatus) DispatchResult {
	return DispatchResult{Action: action, Kind: ResultOrder, Order: order}
}

// ErrorResult carries a user-facing message and keeps the cause for status mapping.
func ErrorResult(action string, cause error, message string) DispatchResult {
	if strings.TrimSpace(message) == "" && cause != nil {
		message = cause.Error()
	}
	return DispatchResult{Action: action, Kind: ResultError, Error: message, cause: cause}
}

func (r DispatchResult) Failed() bool {
	return r.Kind == ResultError
}

// Err returns the cause of an error result, nil otherwise.
func (r DispatchResult) Err() error {
	if r.Kind != ResultError {
		return nil
	}
	if r.cause != nil {
		return r.cause
	}
	return errors.New(r.Error)
}

func (r DispatchResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if r.Action != "" {
		out["action"] = r.Action
	}
	switch r.Kind {
	case ResultProducts:
		products := r.Products
		if products == nil {
			products = []Product{}
		}
		out["products"] = products
		if r.Query != "" {
			out["query"] = r.Query
		}
	case ResultCart:
		cart := r.Cart
		if cart == nil {
			cart = EmptyCart()
		}
		out["cart"] = cart
	case ResultCheckout:
		out["checkoutUrl"] = r.CheckoutURL
	case ResultOrder:
		out["order"] = r.Order
	case ResultError:
		out["error"] = r.Error
	default:
		return nil, fmt.Errorf("%w: dispatch result has no variant", ErrValidation)
	}
	return json.Marshal(out)
}

func (r *DispatchResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action      string          `json:"action"`
		Query       string          `json:"query"`
		Products    json.RawMessage `json:"products"`
		Cart        *Cart           `json:"cart"`
		CheckoutURL *string         `json:"checkoutUrl"`
		Order       *OrderStatus    `json:"order"`
		Error       *string         `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = DispatchResult{Action: raw.Action}
	switch {
	case raw.Error != nil:
		r.Kind = ResultError
		r.Error = *raw.Error
	case raw.Products != nil:
		r.Kind = ResultProducts
		r.Query = raw.Query
		if err := json.Unmarshal(raw.Products, &r.Products); err != nil {
			return err
		}
	case raw.Cart != nil:
		r.Kind = ResultCart
		r.Cart = raw.Cart
	case raw.CheckoutURL != nil:
		r.Kind = ResultCheckout
		r.CheckoutURL = *raw.CheckoutURL
	case raw.Order != nil:
		r.Kind = ResultOrder
		r.Order = raw.Order
	default:
		return fmt.Errorf("%w: dispatch result has no variant", ErrValidation)
	}
	return nil
}
