package contract

import "context"

// Gateway is the set of fixed commerce operations a tool call can reach.
type Gateway interface {
	SearchProducts(ctx context.Context, query string) ([]Product, error)
	CreateCart(ctx context.Context, lines []LineInput, buyerToken string) (*Cart, error)
	AddLines(ctx context.Context, cartID string, lines []LineInput) (*Cart, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*Cart, error)
	GetCart(ctx context.Context, cartID string) (*Cart, error)
	CheckoutURL(ctx context.Context, cartID string) (string, error)
	OrderStatus(ctx context.Context, orderID string, buyerToken string) (*OrderStatus, error)
}

// IntentExtractor turns a conversation into a single tool call.
type IntentExtractor interface {
	Extract(ctx context.Context, history []ChatTurn) (ToolCall, error)
}

// Summarizer turns a conversation ending in a tool turn into a reply.
type Summarizer interface {
	Summarize(ctx context.Context, history []ChatTurn) (string, error)
}
