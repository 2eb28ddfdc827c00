package contract

import (
	"errors"
	"strings"
)

var (
	ErrConfig          = errors.New("configuration error")
	ErrValidation      = errors.New("validation failed")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrNoIntent        = errors.New("no intent detected")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrUpstream        = errors.New("upstream request failed")
	ErrGrounding       = errors.New("grounding failed")
	ErrCartNotFound    = errors.New("cart not found")
)

// UserError is an application-level error reported by the commerce platform,
// such as an invalid variant or insufficient inventory. Only the first one a
// mutation returns is kept.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message"`
}

func (e *UserError) Error() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return strings.Join(e.Field, ".") + ": " + e.Message
}

// GraphQLError is the first entry of a top-level GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
}

func (e *GraphQLError) Error() string {
	return "graphql: " + e.Message
}

func (e *GraphQLError) Unwrap() error {
	return ErrUpstream
}

// IsUserError reports whether err carries a commerce user error and returns it.
func IsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
