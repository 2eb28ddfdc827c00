package handler

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
)

type dispatchRequest struct {
	ToolUse *contractx.ToolCall `json:"tool_use"`
	Session *statex.Session     `json:"session"`
}

// Dispatch runs one tool call against the session the client sent and
// answers the result variant plus the updated session.
func (h *Handler) Dispatch(ctx context.Context, c *app.RequestContext) {
	var req dispatchRequest
	if err := c.BindJSON(&req); err != nil {
		BadRequestResponse(c, "Invalid request body")
		return
	}
	if req.ToolUse == nil || strings.TrimSpace(req.ToolUse.Name) == "" {
		BadRequestResponse(c, "Missing tool_use or tool_use.name")
		return
	}
	if req.ToolUse.Parameters == nil {
		req.ToolUse.Parameters = map[string]any{}
	}

	sess := req.Session
	if sess == nil {
		sess = statex.NewSession("", time.Now())
	}
	if err := sess.Validate(); err != nil {
		ErrorResponse(c, err)
		return
	}

	res := h.deps.Dispatcher.Dispatch(ctx, sess, *req.ToolUse, buyerToken(c))
	body, err := resultBody(res)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	body["session"] = sess
	c.JSON(resultStatus(res), body)
}

// resultBody flattens a dispatch result into a JSON object so other fields
// can sit beside its variant.
func resultBody(res contractx.DispatchResult) (map[string]any, error) {
	raw, err := res.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
