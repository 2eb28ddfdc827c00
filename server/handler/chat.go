package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/relay"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/bridge"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
)

const cartBackendBridge = "bridge"

type chatRequest struct {
	Session     *statex.Session `json:"session"`
	Message     string          `json:"message"`
	DeviceID    string          `json:"deviceId"`
	CartBackend string          `json:"cartBackend"`
	WidgetID    string          `json:"widgetId"`
}

// Chat runs the whole relay for one shopper message.
func (h *Handler) Chat(ctx context.Context, c *app.RequestContext) {
	if h.deps.Relay == nil {
		ErrorResponse(c, h.modelErr())
		return
	}

	var req chatRequest
	if err := c.BindJSON(&req); err != nil {
		BadRequestResponse(c, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		BadRequestResponse(c, "Missing message")
		return
	}

	sess := req.Session
	if sess == nil {
		sess = statex.NewSession("", time.Now())
	}
	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID != "" {
		h.restorePreferences(ctx, sess, deviceID)
	}

	turn := relay.Turn{Session: sess, Text: req.Message, BuyerToken: buyerToken(c)}
	if strings.EqualFold(req.CartBackend, cartBackendBridge) {
		gw, err := h.bridgeGateway(req.WidgetID)
		if err != nil {
			ErrorResponse(c, err)
			return
		}
		turn.Gateway = gw
	}

	reply, err := h.deps.Relay.Handle(ctx, turn)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	if deviceID != "" {
		if err := h.deps.Prefs.Save(ctx, deviceID, sess.Preferences()); err != nil {
			log.Warn().Err(err).Str("component", "http").Str("device_id", deviceID).Msg("save preferences failed")
		}
	}

	body := utils.H{"reply": reply.Text, "session": sess}
	if reply.Result != nil {
		body["result"] = reply.Result
	}
	c.JSON(consts.StatusOK, body)
}

func (h *Handler) restorePreferences(ctx context.Context, sess *statex.Session, deviceID string) {
	prefs, err := h.deps.Prefs.Load(ctx, deviceID)
	switch {
	case err == nil:
		sess.ApplyPreferences(prefs)
	case errors.Is(err, statex.ErrPreferencesNotFound):
	default:
		log.Warn().Err(err).Str("component", "http").Str("device_id", deviceID).Msg("load preferences failed")
	}
}

func (h *Handler) bridgeGateway(widgetID string) (contractx.Gateway, error) {
	b, err := h.deps.Bridges.Get(widgetID)
	if err != nil {
		return nil, err
	}
	return bridge.NewGateway(h.deps.Gateway, b, h.deps.ShopURL)
}
