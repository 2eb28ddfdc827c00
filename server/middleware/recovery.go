package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog/log"
)

func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("component", "http").
					Str("request_id", GetRequestID(c)).
					Str("method", string(c.Method())).
					Str("path", string(c.Path())).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				c.AbortWithStatusJSON(consts.StatusInternalServerError, utils.H{
					"error": "Internal server error",
				})
			}
		}()

		c.Next(ctx)
	}
}
