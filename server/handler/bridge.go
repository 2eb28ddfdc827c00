package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/bridge"
)

const (
	defaultPollWait = 25 * time.Second
	maxPollWait     = 60 * time.Second
)

// BridgeNext long-polls the next cart request for a widget's host page.
// No request within the wait answers 204.
func (h *Handler) BridgeNext(ctx context.Context, c *app.RequestContext) {
	b, err := h.deps.Bridges.Get(c.Param("widget"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	wait := defaultPollWait
	if raw := strings.TrimSpace(c.Query("wait")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			wait = min(d, maxPollWait)
		}
	}

	pollCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	req, err := b.Next(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			c.Status(consts.StatusNoContent)
			return
		}
		ErrorResponse(c, err)
		return
	}
	c.JSON(consts.StatusOK, req)
}

// BridgeReply delivers the host page's answer to a pending cart request.
// Only widgets that already poll have a bridge to answer on.
func (h *Handler) BridgeReply(ctx context.Context, c *app.RequestContext) {
	b, err := h.deps.Bridges.Lookup(c.Param("widget"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var resp bridge.Response
	if err := c.BindJSON(&resp); err != nil || strings.TrimSpace(resp.ID) == "" {
		BadRequestResponse(c, "Missing requestId")
		return
	}
	if err := b.Deliver(resp); err != nil {
		ErrorResponse(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"delivered": true})
}
