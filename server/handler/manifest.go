package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func (h *Handler) Manifest(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, h.deps.Dispatcher.Registry().Manifest())
}
