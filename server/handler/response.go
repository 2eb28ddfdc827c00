package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/agents/relay"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/bridge"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
)

// StatusFor maps an error onto the HTTP status the API answers with.
func StatusFor(err error) int {
	if _, ok := contractx.IsUserError(err); ok {
		return consts.StatusBadRequest
	}
	switch {
	case err == nil:
		return consts.StatusOK
	case errors.Is(err, contractx.ErrConfig):
		return consts.StatusInternalServerError
	case errors.Is(err, contractx.ErrValidation),
		errors.Is(err, contractx.ErrUnknownTool),
		errors.Is(err, contractx.ErrNoIntent),
		errors.Is(err, relay.ErrInvalidMessage),
		errors.Is(err, statex.ErrInvalidSession),
		errors.Is(err, statex.ErrInvalidTurn),
		errors.Is(err, bridge.ErrInvalidWidget):
		return consts.StatusBadRequest
	case errors.Is(err, bridge.ErrUnknownRequest),
		errors.Is(err, bridge.ErrUnknownWidget):
		return consts.StatusNotFound
	case errors.Is(err, contractx.ErrUpstream),
		errors.Is(err, contractx.ErrModelInvoke),
		errors.Is(err, contractx.ErrSchemaViolation),
		errors.Is(err, context.DeadlineExceeded):
		return consts.StatusBadGateway
	default:
		return consts.StatusInternalServerError
	}
}

// resultStatus is 200 for successes and for failures the shopper can act on
// (an unknown product, a missing cart line, a forgotten cart).
func resultStatus(res contractx.DispatchResult) int {
	err := res.Err()
	if err == nil || errors.Is(err, contractx.ErrGrounding) || errors.Is(err, contractx.ErrCartNotFound) {
		return consts.StatusOK
	}
	return StatusFor(err)
}

func userMessage(err error) string {
	if ue, ok := contractx.IsUserError(err); ok {
		return ue.Message
	}
	switch StatusFor(err) {
	case consts.StatusBadRequest, consts.StatusNotFound:
		return err.Error()
	case consts.StatusBadGateway:
		return "Could not reach an upstream service. Please try again."
	}
	if errors.Is(err, contractx.ErrConfig) {
		return err.Error()
	}
	return "Internal server error"
}

func ErrorResponse(c *app.RequestContext, err error) {
	c.JSON(StatusFor(err), utils.H{"error": userMessage(err)})
}

func BadRequestResponse(c *app.RequestContext, message string) {
	c.JSON(consts.StatusBadRequest, utils.H{"error": message})
}
