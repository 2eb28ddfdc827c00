package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CustomerLogin exchanges credentials for a customer access token. Rejected
// credentials answer 401 with the platform's message.
func (h *Handler) CustomerLogin(ctx context.Context, c *app.RequestContext) {
	if h.deps.Customers == nil {
		ErrorResponse(c, contractx.ErrConfig)
		return
	}

	var req loginRequest
	if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		BadRequestResponse(c, "Missing email or password")
		return
	}

	token, err := h.deps.Customers.CustomerLogin(ctx, req.Email, req.Password)
	if err != nil {
		if ue, ok := contractx.IsUserError(err); ok {
			c.JSON(consts.StatusUnauthorized, utils.H{"error": ue.Message})
			return
		}
		log.Warn().Err(err).Str("component", "http").Msg("customer login failed")
		ErrorResponse(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"accessToken": token})
}

type activeCartRequest struct {
	CustomerAccessToken string `json:"customerAccessToken"`
}

// ActiveCart reports the customer's last incomplete checkout id, or null.
// Lookup failures still answer 200 with a null id.
func (h *Handler) ActiveCart(ctx context.Context, c *app.RequestContext) {
	var req activeCartRequest
	_ = c.BindJSON(&req)
	token := strings.TrimSpace(req.CustomerAccessToken)
	if token == "" {
		token = buyerToken(c)
	}
	if token == "" || h.deps.Customers == nil {
		c.JSON(consts.StatusOK, utils.H{"cartId": nil})
		return
	}

	id, err := h.deps.Customers.ActiveCartID(ctx, token)
	if err != nil {
		log.Warn().Err(err).Str("component", "http").Msg("active cart lookup failed")
		c.JSON(consts.StatusOK, utils.H{"cartId": nil, "error": userMessage(err)})
		return
	}
	if id == "" {
		c.JSON(consts.StatusOK, utils.H{"cartId": nil})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"cartId": id})
}
