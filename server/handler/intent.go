package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

type intentRequest struct {
	Messages []contractx.ChatTurn `json:"messages"`
}

// Intent answers {tool_use} for a conversation ending in a shopper turn and
// {message} for one ending in a tool turn.
func (h *Handler) Intent(ctx context.Context, c *app.RequestContext) {
	if h.deps.Agent == nil {
		ErrorResponse(c, h.modelErr())
		return
	}

	var req intentRequest
	if err := c.BindJSON(&req); err != nil || len(req.Messages) == 0 {
		BadRequestResponse(c, "Missing messages")
		return
	}
	for _, m := range req.Messages {
		if !m.Speaker.Valid() {
			BadRequestResponse(c, "Unknown message speaker: "+string(m.Speaker))
			return
		}
	}

	out, err := h.deps.Agent.Handle(ctx, req.Messages)
	if err != nil {
		log.Warn().Err(err).Str("component", "http").Msg("intent request failed")
		if errors.Is(err, contractx.ErrNoIntent) {
			BadRequestResponse(c, "No tool_use detected")
			return
		}
		ErrorResponse(c, err)
		return
	}

	if out.ToolCall != nil {
		c.JSON(consts.StatusOK, utils.H{"tool_use": out.ToolCall})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": out.Message})
}
